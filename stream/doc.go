// Package stream serializes turn events to their wire formats.
//
// Server-Sent Events frames carry the event type, the per-turn sequence
// number and the JSON encoded event:
//
//	event: token
//	id: 3
//	data: {"type":"token","turn_id":"...","seq":3,"content":"Hello","timestamp":"..."}
//
// WebSocket connections receive one JSON text message per event. Consumers
// should ignore unknown event types.
package stream
