// Package session houses concrete implementations of core.SessionStore.
// The interface itself lives in core so higher level packages (dispatcher,
// server) do not depend on concrete storage.
//
// InMemoryStore keeps history in a process local map. The badger
// sub-package persists history on disk. Only the wiring layer decides which
// implementation to instantiate.
package session
