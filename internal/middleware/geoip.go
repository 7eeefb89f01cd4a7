package middleware

import (
	"context"
	"net"
	"net/http"

	"pawtraits/server/internal/infra/geoip"
)

// Geo annotates the request context with the caller's ISO country code when
// a resolver is configured. A nil resolver makes this a no-op.
func Geo(resolver geoip.CountryResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if resolver == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}
			if country, err := resolver.CountryCode(ip); err == nil && country != "" {
				ctx := context.WithValue(r.Context(), countryKey, country)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CountryFromContext returns the annotated origin country, if any.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey).(string); ok {
		return v
	}
	return ""
}
