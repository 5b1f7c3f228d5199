// Package redis implementa los token stores sobre Redis (go-redis/v9).
//
// Cada record se guarda como JSON bajo {prefix}{Kind}:{sha256(token)} con TTL
// hasta su exp, así los tres kinds comparten instancia sin mezclarse.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	tokens "github.com/dropDatabas3/hellojohn-introspect/internal/security/token"
)

// Config de conexión.
type Config struct {
	Addr     string
	DB       int
	Password string
	Prefix   string // default "oidc:"
}

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg Config) (*rdb.Client, error) {
	c := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return c, nil
}

// TokenStore es el store Redis de un kind.
type TokenStore struct {
	c      rdb.UniversalClient
	kind   repository.TokenKind
	prefix string
	now    func() time.Time
}

// NewTokenStore crea el store de kind sobre c.
func NewTokenStore(c rdb.UniversalClient, kind repository.TokenKind, prefix string) *TokenStore {
	if prefix == "" {
		prefix = "oidc:"
	}
	return &TokenStore{c: c, kind: kind, prefix: prefix, now: time.Now}
}

// Key devuelve la key Redis del token.
func (s *TokenStore) Key(token string) string {
	return s.prefix + string(s.kind) + ":" + tokens.SHA256Base64URL(token)
}

// Find implementa repository.TokenFinder.
func (s *TokenStore) Find(ctx context.Context, token string) (*repository.Token, error) {
	b, err := s.c.Get(ctx, s.Key(token)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.kind, err)
	}
	var rec repository.TokenRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", s.kind, err)
	}
	rec.Kind = s.kind
	return rec.ToToken(s.now()), nil
}

// Put guarda rec con TTL hasta su exp; un ExpiresAt en cero es ErrInvalidInput.
// Lo usan el seed de desarrollo y los tests; la emisión vive en el authorization server.
func (s *TokenStore) Put(ctx context.Context, token string, rec repository.TokenRecord) error {
	if rec.ExpiresAt.IsZero() {
		return fmt.Errorf("redis put %s: %w: expires_at requerido", s.kind, repository.ErrInvalidInput)
	}
	rec.Kind = s.kind
	rec.TokenHash = tokens.SHA256Base64URL(token)
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", s.kind, err)
	}

	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		// ya vencido: un TTL de 0 en SET sería "sin expiración"
		ttl = time.Second
	}
	if err := s.c.Set(ctx, s.Key(token), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.kind, err)
	}
	return nil
}

// Ping verifica la conexión.
func (s *TokenStore) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}
