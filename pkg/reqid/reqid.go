// Package reqid provides request ID generation and context propagation for
// the devserver.
//
// A unique ID is generated for every HTTP request, stored in the request
// context, forwarded via the X-Request-ID header, and included in every
// structured log line via logger.WithCtx(ctx).
package reqid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/hyunwoopark/shopfront/pkg/logger"
)

// ctxKey is the unexported key used to store the request ID in context.
type ctxKey struct{}

// New generates a random 8-byte hex request ID.
func New() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// WithValue stores a request ID in ctx.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the request ID stored in ctx, or "" when absent.
func FromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware assigns each request an ID (honouring an incoming X-Request-ID),
// stores it in the context, echoes it on the response, and tags the
// request-scoped logger so every logger.WithCtx line downstream carries
// request_id.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = New()
			}
			w.Header().Set("X-Request-ID", id)

			ctx := WithValue(r.Context(), id)
			ctx = logger.InjectLogger(ctx, logger.L.With("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
