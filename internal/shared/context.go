package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the admin session in ctx. Handlers and the
// upstream client both read it from there, so the same context works for
// request handlers and for worker tasks carrying a service session.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the admin session, or nil outside the session
// middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
