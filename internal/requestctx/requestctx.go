// Package requestctx carries per-request correlation identifiers through
// context.Context so logging calls anywhere in a request's execution can
// attach them without threading values through every signature.
//
// Each request derives its own context at pipeline entry, so values set for
// one request are never observable from another: there is no shared storage
// to clear or leak through worker reuse.
package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// WithRequestID returns a context carrying the request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestID returns the correlation id for the current request, or "" when
// called outside request handling (e.g. from background work that was not
// given a request-scoped context).
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserID returns the authenticated user id for the current request, or ""
// for anonymous or out-of-request calls.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
