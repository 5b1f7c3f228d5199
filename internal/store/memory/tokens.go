// Package memory implementa los stores in-process (desarrollo y tests):
// tokens sobre patrickmn/go-cache y un directorio de clients sembrado desde YAML.
package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	tokens "github.com/dropDatabas3/hellojohn-introspect/internal/security/token"
	"github.com/dropDatabas3/hellojohn-introspect/internal/validation"
)

// TokenStore guarda los tokens de un kind indexados por SHA256Base64URL(token).
// Un record expirado sale del cache en su exp; hasta entonces Valid lo decide el record.
type TokenStore struct {
	kind repository.TokenKind
	c    *gocache.Cache
	now  func() time.Time
}

// NewTokenStore crea un store vacío para kind.
func NewTokenStore(kind repository.TokenKind) *TokenStore {
	return &TokenStore{
		kind: kind,
		c:    gocache.New(gocache.NoExpiration, time.Minute),
		now:  time.Now,
	}
}

// Kind devuelve el tipo de token que guarda el store.
func (s *TokenStore) Kind() repository.TokenKind { return s.kind }

// Put guarda rec para el valor opaco token. Kind y TokenHash se fijan acá.
// Todo token tiene exp: un ExpiresAt en cero es ErrInvalidInput.
func (s *TokenStore) Put(token string, rec repository.TokenRecord) error {
	if rec.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: expires_at requerido", repository.ErrInvalidInput)
	}
	rec.Kind = s.kind
	rec.TokenHash = tokens.SHA256Base64URL(token)
	s.c.Set(rec.TokenHash, &rec, entryTTL(rec.ExpiresAt, s.now()))
	return nil
}

// entryTTL es lo que le queda al record hasta exp. Un record ya vencido
// se guarda un instante para que Find lo vea inválido; go-cache trata
// una duración negativa como "sin expiración".
func entryTTL(exp, now time.Time) time.Duration {
	if exp.IsZero() {
		return gocache.NoExpiration
	}
	if ttl := exp.Sub(now); ttl > 0 {
		return ttl
	}
	return time.Second
}

// Revoke marca el token como revocado. Devuelve false si no existe.
func (s *TokenStore) Revoke(token string) bool {
	key := tokens.SHA256Base64URL(token)
	v, exp, ok := s.c.GetWithExpiration(key)
	if !ok {
		return false
	}
	rec := *v.(*repository.TokenRecord)
	now := s.now()
	rec.RevokedAt = &now
	s.c.Set(key, &rec, entryTTL(exp, now))
	return true
}

// Find implementa repository.TokenFinder.
func (s *TokenStore) Find(ctx context.Context, token string) (*repository.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.c.Get(tokens.SHA256Base64URL(token))
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v.(*repository.TokenRecord).ToToken(s.now()), nil
}

// Len cuenta los records no expirados.
func (s *TokenStore) Len() int { return s.c.ItemCount() }

// Ping siempre responde ok.
func (s *TokenStore) Ping(context.Context) error { return nil }

// TokenSet agrupa los tres stores en memoria.
type TokenSet struct {
	AccessToken       *TokenStore
	ClientCredentials *TokenStore
	RefreshToken      *TokenStore
}

// NewTokenSet crea los tres stores vacíos.
func NewTokenSet() *TokenSet {
	return &TokenSet{
		AccessToken:       NewTokenStore(repository.KindAccessToken),
		ClientCredentials: NewTokenStore(repository.KindClientCredentials),
		RefreshToken:      NewTokenStore(repository.KindRefreshToken),
	}
}

// Store devuelve el store de kind o nil.
func (ts *TokenSet) Store(kind repository.TokenKind) *TokenStore {
	switch kind {
	case repository.KindAccessToken:
		return ts.AccessToken
	case repository.KindClientCredentials:
		return ts.ClientCredentials
	case repository.KindRefreshToken:
		return ts.RefreshToken
	}
	return nil
}

// seedToken es una entrada del archivo de seed de tokens.
type seedToken struct {
	Kind      repository.TokenKind `yaml:"kind"`
	Value     string               `yaml:"value"`
	Jti       string               `yaml:"jti"`
	ClientID  string               `yaml:"client_id"`
	AccountID string               `yaml:"account_id"`
	Scope     string               `yaml:"scope"`
	SessionID string               `yaml:"sid"`
	TTL       time.Duration        `yaml:"ttl"`
	Revoked   bool                 `yaml:"revoked"`
}

// LoadTokens siembra el set desde un YAML `tokens: [...]`. El issuer se
// completa con iss. Devuelve la cantidad cargada.
func (ts *TokenSet) LoadTokens(path, iss string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read tokens seed: %w", err)
	}
	var doc struct {
		Tokens []seedToken `yaml:"tokens"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return 0, fmt.Errorf("parse tokens seed: %w", err)
	}

	now := time.Now()
	for i, st := range doc.Tokens {
		store := ts.Store(st.Kind)
		if store == nil {
			return i, fmt.Errorf("tokens seed #%d: %w: %q", i, repository.ErrUnknownKind, st.Kind)
		}
		if st.Value == "" {
			return i, fmt.Errorf("tokens seed #%d: %w: value vacío", i, repository.ErrInvalidInput)
		}
		if !validation.ValidClientID(st.ClientID) {
			return i, fmt.Errorf("tokens seed #%d: %w: client_id %q", i, repository.ErrInvalidInput, st.ClientID)
		}
		if !validation.ValidScope(st.Scope) {
			return i, fmt.Errorf("tokens seed #%d: %w: scope %q", i, repository.ErrInvalidInput, st.Scope)
		}
		ttl := st.TTL
		if ttl == 0 {
			ttl = time.Hour
		}
		jti := st.Jti
		if jti == "" {
			jti = st.Value
		}
		err := store.Put(st.Value, repository.TokenRecord{
			Jti:       jti,
			ClientID:  st.ClientID,
			AccountID: st.AccountID,
			Scope:     st.Scope,
			SessionID: st.SessionID,
			Issuer:    iss,
			IssuedAt:  now,
			ExpiresAt: now.Add(ttl),
		})
		if err != nil {
			return i, fmt.Errorf("tokens seed #%d: %w", i, err)
		}
		if st.Revoked {
			store.Revoke(st.Value)
		}
	}
	return len(doc.Tokens), nil
}
