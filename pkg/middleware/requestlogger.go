package middleware

import (
	"log/slog"
	"net/http"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/logger"
)

// RequestLogger makes base the request-scoped logger returned by
// logger.FromContext and tags the context with the verified user id, if any.
// Mount it again after Auth so the user id is picked up.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.NewContext(r.Context(), base)
			if id := UserIDFromContext(ctx); id != "" {
				ctx = logger.WithUserID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
