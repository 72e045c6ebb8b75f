// Package main provides the chatrouter CLI.
//
// Usage:
//
//	chatrouter [flags] <command> [args]
//
// Commands:
//
//	serve        - Run the HTTP, SSE and WebSocket server
//	route        - Print the routing decision for a message
//	chat         - Send a message and render the streamed answer
//	specialists  - List the configured specialists
//	version      - Print the version
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/chatrouter/cmd/chatrouter/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
