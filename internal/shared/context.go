package shared

import (
	"context"
	"strconv"
	"strings"
)

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

// CurrentUserID resolves the acting user from the request context.
// It fails with ErrUnauthenticated when no session is attached or the
// session carries no user.
func CurrentUserID(ctx context.Context) (int64, error) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return 0, ErrUnauthenticated
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, ErrUnauthenticated
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrUnauthenticated
	}
	return id, nil
}
