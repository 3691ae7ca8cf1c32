package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httputil"
)

// RegisterPprof mounts chi's profiler under /debug, reachable only from
// allowedCIDRs.
func RegisterPprof(r chi.Router, allowedCIDRs []string, logger *slog.Logger) {
	r.With(IPAllowlist(allowedCIDRs, logger)).Mount("/debug", chimw.Profiler())
}

// IPAllowlist answers 403 to callers outside prefixes. Bad entries are
// logged and skipped; an empty list denies everyone.
func IPAllowlist(prefixes []string, logger *slog.Logger) func(http.Handler) http.Handler {
	allowed := make([]netip.Prefix, 0, len(prefixes))
	for _, s := range prefixes {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			logger.Warn("ignoring bad allowlist entry", slog.String("cidr", s), slog.String("error", err.Error()))
			continue
		}
		allowed = append(allowed, p.Masked())
	}

	permit := func(remote string) bool {
		host, _, err := net.SplitHostPort(remote)
		if err != nil {
			host = remote
		}
		addr, err := netip.ParseAddr(host)
		if err != nil {
			return false
		}
		addr = addr.Unmap()
		for _, p := range allowed {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !permit(r.RemoteAddr) {
				logger.WarnContext(r.Context(), "allowlist denied request",
					slog.String("remote", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "not reachable from this address"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
