package types

// contextKey is unexported so only this package can mint context keys.
type contextKey string

const (
	// ContextKeyScope carries the owner scope of the current request.
	ContextKeyScope contextKey = "scope"
	// ContextKeyRequestID carries the request correlation id.
	ContextKeyRequestID contextKey = "request_id"
)
