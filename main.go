// llmkeyring manages LLM API provider endpoints and their API keys from the
// terminal.
//
// Usage:
//
//	# List providers and their last test
//	llmkeyring list
//
//	# Store a key and check the endpoint
//	llmkeyring key set deepseek
//	llmkeyring test deepseek
//
//	# Check every enabled provider on a live board
//	llmkeyring test --all
//
//	# Serve the registry to an MCP client
//	llmkeyring mcp
package main

import "llmkeyring/cli"

const (
	Version = "v0.1.0"
	License = "Apache-2.0"
)

func main() {
	cli.Execute(Version)
}
