// deps.go — Composable dependency interfaces for mcpcore handler packages.
package mcp

// DiagnosticProvider supplies a point-in-time system state snapshot that
// gets attached as a hint on structured errors (e.g. "transport=tcp,
// clients=3, rate_limited=false") so a caller sees relevant context without
// a separate status call.
type DiagnosticProvider interface {
	DiagnosticHintString() string
}
