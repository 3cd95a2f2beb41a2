// Package driving provides interfaces for user-facing adapters
// (primary/inbound ports): the CLI and the MCP server call into these.
package driving
