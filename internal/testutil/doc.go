// Package testutil contains helpers used across tests to collect turn events,
// assert the event stream grammar and build conversation history. They are
// not intended for production usage.
package testutil
