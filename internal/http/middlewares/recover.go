package middlewares

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-introspect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
)

// WithRecover captura panics y devuelve un 500 en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
						zap.Stack("stack"),
					)
					errors.WriteError(w, errors.ErrServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
