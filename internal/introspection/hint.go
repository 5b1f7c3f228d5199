package introspection

import (
	"strings"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

// Hint es el token_type_hint del request.
type Hint string

const (
	HintNone              Hint = ""
	HintAccessToken       Hint = "access_token"
	HintClientCredentials Hint = "client_credentials"
	HintRefreshToken      Hint = "refresh_token"
)

// ParseHint normaliza el parámetro recibido. Valores desconocidos se tratan como sin hint.
func ParseHint(s string) Hint {
	switch h := Hint(strings.TrimSpace(s)); h {
	case HintAccessToken, HintClientCredentials, HintRefreshToken:
		return h
	}
	return HintNone
}

// priorities define el orden de búsqueda por hint. El primer elemento es el
// store que se consulta solo cuando hay hint.
var priorities = map[Hint][]repository.TokenKind{
	HintAccessToken:       {repository.KindAccessToken, repository.KindClientCredentials, repository.KindRefreshToken},
	HintClientCredentials: {repository.KindClientCredentials, repository.KindAccessToken, repository.KindRefreshToken},
	HintRefreshToken:      {repository.KindRefreshToken, repository.KindAccessToken, repository.KindClientCredentials},
	HintNone:              {repository.KindAccessToken, repository.KindClientCredentials, repository.KindRefreshToken},
}

// Priority devuelve el orden de búsqueda para h. El slice es nuevo en cada llamada.
func Priority(h Hint) []repository.TokenKind {
	p, ok := priorities[h]
	if !ok {
		p = priorities[HintNone]
	}
	return append([]repository.TokenKind(nil), p...)
}
