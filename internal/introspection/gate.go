package introspection

import (
	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

// Result es el valor por request que sale del Gate: Inactive o Active(token).
// Subject lo calcula DisclosureBuilder.Subject durante OWNERSHIP_CHECK.
type Result struct {
	Token   *repository.Token
	Subject string
}

// Active reporta si el resultado lleva un token autorizado.
func (r Result) Active() bool { return r.Token != nil }

// Inactive es el resultado canónico sin token.
var Inactive = Result{}

// Authorize aplica validez y ownership. Devuelve además el estado de negocio
// en que terminó la decisión (NOT_FOUND, INVALID, DENIED o GRANTED).
//
// Los clients autenticados (confidential) pueden introspectar cualquier token
// válido; los públicos ("none") sólo los propios.
func Authorize(tok *repository.Token, requester *repository.Client) (Result, State) {
	if tok == nil {
		return Inactive, StateNotFound
	}
	if !tok.Valid {
		return Inactive, StateInvalid
	}
	if requester == nil {
		return Inactive, StateDenied
	}
	if requester.AuthMethod.IsPublic() && tok.ClientID != requester.ClientID {
		return Inactive, StateDenied
	}
	return Result{Token: tok}, StateGranted
}
