// Package gateway exposes the tool catalog over the network.
//
// Two HTTP surfaces share one dispatcher: the MCP protocol surface
// (JSON-RPC 2.0 on POST /mcp with initialize, tools/list and tools/call)
// and the legacy REST surface (one endpoint per tool under /mcp/tools/).
// A stdio MCP transport is available for local clients. Every surface
// passes the authentication gate first; only initialize and /health are
// reachable without a credential, so an unauthenticated client can
// discover the server but not invoke anything.
package gateway
