// Package oauth contiene el controller del endpoint de introspección (RFC 7662).
package oauth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	httperrors "github.com/dropDatabas3/hellojohn-introspect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-introspect/internal/introspection"
	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
)

// IntrospectService es lo que el controller necesita del core.
type IntrospectService interface {
	Introspect(ctx context.Context, req introspection.Request, requester *repository.Client) (*introspection.Outcome, error)
}

// IntrospectController handles POST {introspection.path}.
type IntrospectController struct {
	service IntrospectService
}

// NewIntrospectController creates a new introspect controller.
func NewIntrospectController(service IntrospectService) *IntrospectController {
	return &IntrospectController{service: service}
}

// Introspect atiende el request. Espera el client ya autenticado en el contexto
// (clientauth.Middleware). Rechazos de negocio siempre son 200 {"active":false}.
func (c *IntrospectController) Introspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IntrospectController.Introspect"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	requester := middlewares.GetClient(ctx)
	if requester == nil {
		httperrors.WriteError(w, httperrors.ErrInvalidClient)
		return
	}

	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDescription("invalid form body"))
		return
	}

	// sólo token y token_type_hint; el resto de los parámetros se ignora
	form := r.PostForm
	for _, p := range []string{"token", "token_type_hint"} {
		if len(form[p]) > 1 {
			httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDescription("'"+p+"' parameter must not be provided twice"))
			return
		}
	}
	req := introspection.Request{
		Token: form.Get("token"),
		Hint:  form.Get("token_type_hint"),
	}
	if req.Token == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest)
		return
	}

	out, err := c.service.Introspect(ctx, req, requester)
	if err != nil {
		if stderrors.Is(err, introspection.ErrMissingToken) {
			httperrors.WriteError(w, httperrors.ErrInvalidRequest)
			return
		}
		log.Error("introspection failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServerError.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out.Response)
}
