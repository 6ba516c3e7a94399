// errors.go — JSON-RPC error codes and structured diagnostic data for MCP.
package mcp

// JSON-RPC 2.0 reserved error codes and mcpcore's application-range
// extensions (mcpcore §6 error code taxonomy).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeToolNotFound     = -32001
	CodeResourceNotFound = -32002
	CodeRateLimited      = -32003
	CodeUnauthorized     = -32004
)

// Error codes are self-describing snake_case strings carried in a
// StructuredError, which rides inside a JSON-RPC error's "data" field so a
// caller gets both the numeric code (for dispatch) and a self-describing
// string plus retry guidance (for an LLM or human to act on).
const (
	ErrInvalidJSON       = "invalid_json"
	ErrMissingParam      = "missing_param"
	ErrInvalidParam      = "invalid_param"
	ErrMethodNotFound    = "method_not_found"
	ErrToolNotFound      = "tool_not_found"
	ErrResourceNotFound  = "resource_not_found"
	ErrRateLimited       = "rate_limited"
	ErrUnauthorized      = "unauthorized"
	ErrInternal          = "internal_error"
	ErrMarshalFailed     = "marshal_failed"
)

// StructuredError is the mcpcore diagnostic payload carried in a JSON-RPC
// error's "data" field. Every field is self-describing so a caller can act
// on it without a separate lookup table.
type StructuredError struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	Retry        string `json:"retry,omitempty"`
	Retryable    bool   `json:"retryable"`
	RetryAfterMs int    `json:"retry_after_ms,omitempty"`
	Param        string `json:"param,omitempty"`
	Hint         string `json:"hint,omitempty"`
}

// NewJSONRPCError builds a JSONRPCError whose Data field carries a
// StructuredError, applying RetryDefaultsForCode before any supplied
// options so a caller only needs to override what's unusual for this call.
func NewJSONRPCError(code int, errCode, message string, opts ...func(*StructuredError)) *JSONRPCError {
	se := StructuredError{Error: errCode, Message: message}
	for _, defaultOpt := range RetryDefaultsForCode(errCode) {
		defaultOpt(&se)
	}
	for _, opt := range opts {
		opt(&se)
	}
	return &JSONRPCError{Code: code, Message: message, Data: se}
}

// WithParam is an option function to add param field to StructuredError.
func WithParam(p string) func(*StructuredError) {
	return func(se *StructuredError) { se.Param = p }
}

// WithHint is an option function to add hint field to StructuredError.
func WithHint(h string) func(*StructuredError) {
	return func(se *StructuredError) { se.Hint = h }
}

// WithRetryable marks whether the error is retryable by the caller.
func WithRetryable(retryable bool) func(*StructuredError) {
	return func(se *StructuredError) { se.Retryable = retryable }
}

// WithRetryAfterMs sets the suggested delay before retrying (milliseconds).
func WithRetryAfterMs(ms int) func(*StructuredError) {
	return func(se *StructuredError) { se.RetryAfterMs = ms }
}

// RetryDefaultsForCode returns option functions that set retryable and
// retry_after_ms based on the error code. Retryable errors are transient
// conditions worth retrying after a brief delay; non-retryable errors
// require the caller to change its input.
func RetryDefaultsForCode(code string) []func(*StructuredError) {
	switch code {
	case ErrRateLimited:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(1000)}
	case ErrInternal:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(2000)}
	default:
		return []func(*StructuredError){WithRetryable(false)}
	}
}
