package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dropDatabas3/hellojohn-introspect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-introspect/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// ClientRateKey usa el client autenticado; sin client cae a la IP.
// Debe correr después de la autenticación del client.
func ClientRateKey(r *http.Request) string {
	if c := GetClient(r.Context()); c != nil {
		return "client:" + c.ClientID
	}
	return "ip:" + ClientIP(r)
}

// WithRateLimit limita requests por clave. Si el limiter falla se deja pasar.
func WithRateLimit(l rate.Limiter, keyFn RateKeyFunc) Middleware {
	if l == nil {
		return nil
	}
	if keyFn == nil {
		keyFn = ClientRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), keyFn(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limit error", logger.Component("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}
			if !res.Allowed {
				e := errors.ErrTooManyRequests
				if res.RetryAfter > 0 {
					e = e.WithHeader("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				errors.WriteError(w, e)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
