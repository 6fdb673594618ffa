package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds each request context by limit and marks the
// request log with timed_out=true when the bound fired. A non-positive limit
// leaves requests unbounded.
func TimeoutMiddleware(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				AddLogField(ctx, "timed_out", "true")
			}
		})
	}
}
