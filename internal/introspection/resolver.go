package introspection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

// ErrLookup envuelve cualquier falla de un store de tokens.
var ErrLookup = errors.New("introspection: token store lookup failed")

// Stores agrupa los tres stores de tokens. Un store nil equivale a un grant
// deshabilitado: nunca se consulta y se comporta como ausente.
type Stores struct {
	AccessToken       repository.TokenFinder
	ClientCredentials repository.TokenFinder
	RefreshToken      repository.TokenFinder
}

// Grants indica qué grant types están habilitados. Los access tokens siempre lo están.
type Grants struct {
	ClientCredentials bool
	RefreshToken      bool
}

// Resolver busca un token entre los stores en el orden sesgado por hint.
type Resolver struct {
	finders map[repository.TokenKind]repository.TokenFinder
	obs     Observer
}

// NewResolver construye el Resolver. Los stores de grants deshabilitados se descartan.
func NewResolver(stores Stores, grants Grants, obs Observer) *Resolver {
	if obs == nil {
		obs = NopObserver{}
	}
	finders := map[repository.TokenKind]repository.TokenFinder{}
	if stores.AccessToken != nil {
		finders[repository.KindAccessToken] = stores.AccessToken
	}
	if grants.ClientCredentials && stores.ClientCredentials != nil {
		finders[repository.KindClientCredentials] = stores.ClientCredentials
	}
	if grants.RefreshToken && stores.RefreshToken != nil {
		finders[repository.KindRefreshToken] = stores.RefreshToken
	}
	return &Resolver{finders: finders, obs: obs}
}

// Enabled reporta si el store de kind participa en la resolución.
func (r *Resolver) Enabled(kind repository.TokenKind) bool {
	return r.finders[kind] != nil
}

// Resolve devuelve el token o nil si ningún store lo tiene.
//
// Con hint se consulta primero el store sugerido, solo; un hit corta la
// búsqueda. Si falla (o no hay hint) los stores restantes se consultan en
// paralelo y gana el primer presente según prioridad, no según llegada.
func (r *Resolver) Resolve(ctx context.Context, token string, hint Hint) (*repository.Token, error) {
	order := Priority(hint)

	if hint != HintNone {
		tok, err := r.lookup(ctx, order[0], token)
		if err != nil || tok != nil {
			return tok, err
		}
		order = order[1:]
	}

	return r.fallback(ctx, token, order)
}

// fallback consulta kinds en paralelo y elige por posición en el slice.
func (r *Resolver) fallback(ctx context.Context, token string, kinds []repository.TokenKind) (*repository.Token, error) {
	found := make([]*repository.Token, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			tok, err := r.lookup(gctx, kind, token)
			if err != nil {
				return err
			}
			found[i] = tok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, tok := range found {
		if tok != nil {
			return tok, nil
		}
	}
	return nil, nil
}

// lookup consulta un store. ErrNotFound y grants deshabilitados se reportan como (nil, nil).
func (r *Resolver) lookup(ctx context.Context, kind repository.TokenKind, token string) (*repository.Token, error) {
	f := r.finders[kind]
	if f == nil {
		return nil, nil
	}

	start := time.Now()
	tok, err := f.Find(ctx, token)
	elapsed := time.Since(start)

	switch {
	case err != nil && !repository.IsNotFound(err):
		r.obs.ObserveLookup(kind, LookupError, elapsed)
		return nil, fmt.Errorf("%w (%s): %w", ErrLookup, kind, err)
	case err != nil || tok == nil:
		r.obs.ObserveLookup(kind, LookupMiss, elapsed)
		return nil, nil
	}

	r.obs.ObserveLookup(kind, LookupHit, elapsed)
	if tok.Kind == "" {
		// no mutamos el registro del store
		cp := *tok
		cp.Kind = kind
		tok = &cp
	}
	return tok, nil
}
