package middlewares

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
)

// StatusRecorder captura el status code y bytes escritos de la respuesta.
type StatusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

// NewStatusRecorder envuelve w; si ya es un StatusRecorder lo reutiliza.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	if sr, ok := w.(*StatusRecorder); ok {
		return sr
	}
	return &StatusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *StatusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *StatusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Status devuelve el status escrito (200 si no se escribió).
func (s *StatusRecorder) Status() int { return s.status }

// BytesWritten devuelve los bytes del body.
func (s *StatusRecorder) BytesWritten() int { return s.bytes }

// Unwrap expone el writer original a http.ResponseController.
func (s *StatusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// WithLogging registra cada request con el logger singleton e inyecta en el
// contexto un logger scoped con request_id, method y path.
// El nivel depende del status: 5xx error, 4xx warn, resto info.
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := logger.L().With(
				logger.RequestID(GetRequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.ClientIP(ClientIP(r)),
			)
			ctx := logger.ToContext(r.Context(), reqLog)

			rec := NewStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			st := rec.Status()
			fields := []zap.Field{
				logger.Status(st),
				logger.Bytes(rec.BytesWritten()),
				logger.DurationMs(time.Since(start).Milliseconds()),
			}
			switch {
			case st >= 500:
				reqLog.Error("request failed", fields...)
			case st >= 400:
				reqLog.Warn("request completed with client error", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}
		})
	}
}
