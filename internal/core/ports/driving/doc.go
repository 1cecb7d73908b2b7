// Package driving holds the use-case interfaces the outer surfaces call into:
// the CLI, the HTTP API, the MCP server, the TUI and the inbox watcher all
// depend on these and never on concrete services.
package driving
