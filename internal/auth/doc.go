// Package auth implements authentication for the bookstore API.
//
// Two credential flows are supported:
//
//   - Session cookies, backed by SQLite via scs, for browser clients.
//   - Bearer API tokens, stored hashed, for programmatic clients.
//
// The Middleware attaches identity to the request context without
// rejecting anonymous requests; RequireAuth and RequireAdmin guard the
// routes that need it. Auth can be disabled entirely (AUTH_MODE=none)
// for local development.
package auth
