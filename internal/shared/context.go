package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ActorID returns the authenticated user id for the request, or
// ErrNotAuthenticated when the session carries no identity. Every mutating
// operation resolves its actor through this helper so unauthenticated calls
// fail closed.
func ActorID(ctx context.Context) (int64, error) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return 0, ErrNotAuthenticated
	}
	id := sess.UserID()
	if id == 0 {
		return 0, ErrNotAuthenticated
	}
	return id, nil
}
