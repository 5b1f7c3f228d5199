// Package router arma el chi.Router del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellojohn-introspect/internal/http/clientauth"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/controllers/health"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/controllers/oauth"
	httperrors "github.com/dropDatabas3/hellojohn-introspect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/metrics"
	mw "github.com/dropDatabas3/hellojohn-introspect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-introspect/internal/rate"
)

const DefaultIntrospectionPath = "/token/introspection"

// Deps contiene las dependencias del router. Metrics, Limiter y Health son opcionales.
type Deps struct {
	IntrospectionPath string
	Introspect        *oauth.IntrospectController
	Authenticator     *clientauth.Authenticator
	Health            *health.HealthController
	Metrics           *metrics.Metrics
	Limiter           rate.Limiter
}

// New registra las rutas:
//
//	POST {introspection.path}  RFC 7662
//	GET  /healthz, /readyz
//	GET  /metrics
func New(d Deps) http.Handler {
	path := d.IntrospectionPath
	if path == "" {
		path = DefaultIntrospectionPath
	}

	r := chi.NewRouter()
	r.Use(mw.WithRequestID(), mw.WithLogging(), mw.WithRecover())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		allow := http.MethodGet
		if req.URL.Path == path {
			allow = http.MethodPost
		}
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed.WithHeader("Allow", allow))
	})

	// rate limit por client: va después de autenticar; sin Limiter queda nil y Chain lo saltea
	r.Method(http.MethodPost, path, mw.Chain(
		http.HandlerFunc(d.Introspect.Introspect),
		mw.WithNoStore(),
		d.Authenticator.Middleware(),
		mw.WithRateLimit(d.Limiter, mw.ClientRateKey),
	))

	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
		r.Get("/readyz", d.Health.Readyz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	return r
}
