package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	tokens "github.com/dropDatabas3/hellojohn-introspect/internal/security/token"
	"github.com/dropDatabas3/hellojohn-introspect/internal/validation"
)

// TokenStore lee la tabla oauth_token filtrando por kind.
type TokenStore struct {
	s    *Store
	kind repository.TokenKind
	now  func() time.Time
}

// Tokens devuelve el store de kind.
func (s *Store) Tokens(kind repository.TokenKind) *TokenStore {
	return &TokenStore{s: s, kind: kind, now: time.Now}
}

// Find implementa repository.TokenFinder.
func (r *TokenStore) Find(ctx context.Context, token string) (*repository.Token, error) {
	const q = `
		SELECT jti, client_id, COALESCE(account_id, ''), COALESCE(scope, ''),
		       COALESCE(sid, ''), COALESCE(iss, ''), issued_at, expires_at,
		       revoked_at, consumed_at
		FROM oauth_token
		WHERE kind = $1 AND token_hash = $2`

	rec := repository.TokenRecord{Kind: r.kind, TokenHash: tokens.SHA256Base64URL(token)}
	err := r.s.pool.QueryRow(ctx, q, string(r.kind), rec.TokenHash).Scan(
		&rec.Jti, &rec.ClientID, &rec.AccountID, &rec.Scope,
		&rec.SessionID, &rec.Issuer, &rec.IssuedAt, &rec.ExpiresAt,
		&rec.RevokedAt, &rec.ConsumedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg find %s: %w", r.kind, err)
	}
	return rec.ToToken(r.now()), nil
}

// Put inserta o reemplaza un record (seed y tests). expires_at es obligatorio.
func (r *TokenStore) Put(ctx context.Context, token string, rec repository.TokenRecord) error {
	if !validation.ValidClientID(rec.ClientID) || !validation.ValidScope(rec.Scope) || rec.ExpiresAt.IsZero() {
		return fmt.Errorf("pg put %s: %w", r.kind, repository.ErrInvalidInput)
	}
	const q = `
		INSERT INTO oauth_token (kind, token_hash, jti, client_id, account_id, scope, sid, iss,
		                         issued_at, expires_at, revoked_at, consumed_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
		        $9, $10, $11, $12)
		ON CONFLICT (kind, token_hash) DO UPDATE SET
			jti = EXCLUDED.jti, client_id = EXCLUDED.client_id, account_id = EXCLUDED.account_id,
			scope = EXCLUDED.scope, sid = EXCLUDED.sid, iss = EXCLUDED.iss,
			issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at,
			revoked_at = EXCLUDED.revoked_at, consumed_at = EXCLUDED.consumed_at`

	_, err := r.s.pool.Exec(ctx, q,
		string(r.kind), tokens.SHA256Base64URL(token), rec.Jti, rec.ClientID,
		rec.AccountID, rec.Scope, rec.SessionID, rec.Issuer,
		rec.IssuedAt, rec.ExpiresAt, rec.RevokedAt, rec.ConsumedAt,
	)
	if err != nil {
		return fmt.Errorf("pg put %s: %w", r.kind, err)
	}
	return nil
}

// Ping verifica la conexión del pool compartido.
func (r *TokenStore) Ping(ctx context.Context) error { return r.s.Ping(ctx) }
