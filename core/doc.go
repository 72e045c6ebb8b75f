// Package core provides the foundational domain types and contracts used by
// chatrouter. It defines the core abstractions for:
//
//   - Turns (one request/response cycle and its status state machine)
//   - Routing decisions (domain tag + confidence produced before generation)
//   - Stream events (the ordered, tagged output protocol of a turn)
//   - Exchanges and the SessionStore contract (bounded conversation history)
//
// The package keeps implementation concerns (providers, routing, dispatch,
// transport, persistence) out of scope, exposing small types and interfaces so
// that concrete backends can be swapped without touching callers.
package core
