package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httputil"
)

// Claims are the token fields the services care about.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

type sessionKey struct{}

type session struct {
	claims Claims
	token  string
}

// Auth answers 401 unless the request carries a bearer token accepted by
// validate. The claims and the raw token are kept in the context so the
// token can be forwarded to other Deskly APIs.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			switch {
			case r.Header.Get("Authorization") == "":
				writeAuthError(w, "missing authorization header")
				return
			case !ok:
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(token)
			if err != nil || claims == nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, session{claims: *claims, token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ClaimsFromContext returns the claims Auth accepted.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	s, ok := ctx.Value(sessionKey{}).(session)
	return s.claims, ok
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	c, _ := ClaimsFromContext(ctx)
	return c.UserID
}

// TokenFromContext returns the bearer token Auth accepted, or "".
func TokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s.token
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="deskly"`)
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}
