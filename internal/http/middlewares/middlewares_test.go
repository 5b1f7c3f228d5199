package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-introspect/internal/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler(), mw("a"), nil, mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestWithNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	Chain(okHandler(), WithNoStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), WithRecover())

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "server_error")
}

func TestWithLogging_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.From(r.Context()).Debug("inside")
		w.WriteHeader(http.StatusUnauthorized)
	}), WithRequestID(), WithLogging())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/token/introspection", nil))

	inside := logs.FilterMessage("inside").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "/token/introspection", inside[0].ContextMap()["path"])
	assert.NotEmpty(t, inside[0].ContextMap()["request_id"])

	done := logs.FilterMessage("request completed with client error").All()
	require.Len(t, done, 1)
	assert.Equal(t, zapcore.WarnLevel, done[0].Level)
	assert.EqualValues(t, 401, done[0].ContextMap()["status"])
}

type stubLimiter struct {
	res rate.Result
	err error
	key string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (rate.Result, error) {
	s.key = key
	return s.res, s.err
}

func withClient(c *repository.Client) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), c)))
		})
	}
}

func TestWithRateLimit(t *testing.T) {
	t.Run("allowed keyed by client", func(t *testing.T) {
		l := &stubLimiter{res: rate.Result{Allowed: true, Remaining: 4, WindowTTL: time.Minute}}
		rec := httptest.NewRecorder()
		Chain(okHandler(), withClient(&repository.Client{ClientID: "rs"}), WithRateLimit(l, nil)).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "client:rs", l.key)
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("rejected", func(t *testing.T) {
		l := &stubLimiter{res: rate.Result{Allowed: false, RetryAfter: 30 * time.Second}}
		rec := httptest.NewRecorder()
		Chain(okHandler(), WithRateLimit(l, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))
		assert.Contains(t, l.key, "ip:")
	})

	t.Run("limiter failure lets request through", func(t *testing.T) {
		l := &stubLimiter{err: errors.New("redis down")}
		rec := httptest.NewRecorder()
		Chain(okHandler(), WithRateLimit(l, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nil limiter is a no-op", func(t *testing.T) {
		assert.Nil(t, WithRateLimit(nil, nil))
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
