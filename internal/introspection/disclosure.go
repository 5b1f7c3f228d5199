package introspection

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

var (
	// ErrDirectory envuelve fallas del ClientDirectory.
	ErrDirectory = errors.New("introspection: client directory lookup failed")

	// errOwnerGone: el client dueño del token ya no existe en el directorio.
	errOwnerGone = errors.New("introspection: token owner not registered")
)

// SubjectMasker calcula el sub expuesto para (account, sector).
type SubjectMasker interface {
	Compute(accountID, sectorIdentifier string) string
}

// DisclosureBuilder calcula el sub y arma la respuesta activa.
type DisclosureBuilder struct {
	clients repository.ClientDirectory
	masker  SubjectMasker
}

// NewDisclosureBuilder crea un DisclosureBuilder.
func NewDisclosureBuilder(clients repository.ClientDirectory, masker SubjectMasker) *DisclosureBuilder {
	return &DisclosureBuilder{clients: clients, masker: masker}
}

// Subject calcula el sub de tok visto por el sector del client dueño.
// Si el dueño es el requester se usa su sector directamente, sin consultar el directorio.
func (b *DisclosureBuilder) Subject(ctx context.Context, tok *repository.Token, requester *repository.Client) (string, error) {
	sector := requester.SectorIdentifier
	if tok.ClientID != requester.ClientID {
		owner, err := b.clients.Get(ctx, tok.ClientID)
		switch {
		case repository.IsNotFound(err):
			return "", errOwnerGone
		case err != nil:
			return "", fmt.Errorf("%w: %w", ErrDirectory, err)
		case owner == nil:
			return "", errOwnerGone
		}
		sector = owner.SectorIdentifier
	}
	return b.masker.Compute(tok.AccountID, sector), nil
}

// Response arma el body de res. res.Subject ya viene calculado por Subject.
func (b *DisclosureBuilder) Response(res Result) *Response {
	if !res.Active() {
		return InactiveResponse()
	}
	tok := res.Token
	return &Response{
		Active:   true,
		ClientID: tok.ClientID,
		Exp:      tok.ExpiresAt,
		Iat:      tok.IssuedAt,
		Sid:      tok.SessionID,
		Iss:      tok.Issuer,
		Jti:      tok.Jti,
		Scope:    tok.Scope,
		Sub:      res.Subject,
	}
}
