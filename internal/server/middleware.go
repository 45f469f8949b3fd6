package server

import (
	"context"
	"net/http"
)

type contextKey string

const contextKeyTarget contextKey = "flagx_target_id"

// Header and cookie the middleware reads the target ID from.
const (
	TargetHeader = "X-User-ID"
	TargetCookie = "user_id"
)

// Middleware stores the request's target ID in the request context
type Middleware struct{}

// NewMiddleware creates new middleware
func NewMiddleware() *Middleware {
	return &Middleware{}
}

// Handler wraps an HTTP handler. The header takes precedence over the cookie.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if target := targetFromRequest(r); target != "" {
			r = r.WithContext(WithTarget(r.Context(), target))
		}
		next.ServeHTTP(w, r)
	})
}

func targetFromRequest(r *http.Request) string {
	if id := r.Header.Get(TargetHeader); id != "" {
		return id
	}
	if cookie, err := r.Cookie(TargetCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// WithTarget returns a context carrying targetID.
func WithTarget(ctx context.Context, targetID string) context.Context {
	return context.WithValue(ctx, contextKeyTarget, targetID)
}

// TargetFromContext extracts the target ID stored by the middleware
func TargetFromContext(ctx context.Context) (string, bool) {
	target, ok := ctx.Value(contextKeyTarget).(string)
	return target, ok
}
