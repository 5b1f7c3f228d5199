package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/validation"
)

// ClientDirectory lee la tabla oauth_client.
type ClientDirectory struct{ s *Store }

// Clients devuelve el directorio de clients.
func (s *Store) Clients() *ClientDirectory { return &ClientDirectory{s: s} }

// Get implementa repository.ClientDirectory.
func (d *ClientDirectory) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	const q = `
		SELECT client_id, name, COALESCE(sector_identifier, ''), auth_method, COALESCE(secret_enc, '')
		FROM oauth_client
		WHERE client_id = $1`

	var c repository.Client
	var method string
	err := d.s.pool.QueryRow(ctx, q, clientID).Scan(
		&c.ClientID, &c.Name, &c.SectorIdentifier, &method, &c.SecretEnc,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg get client: %w", err)
	}
	c.AuthMethod = repository.AuthMethod(method)
	return &c, nil
}

// Put inserta o actualiza un client.
func (d *ClientDirectory) Put(ctx context.Context, c repository.Client) error {
	if !validation.ValidClientID(c.ClientID) || !c.AuthMethod.Valid() {
		return fmt.Errorf("pg put client %q: %w", c.ClientID, repository.ErrInvalidInput)
	}
	const q = `
		INSERT INTO oauth_client (client_id, name, sector_identifier, auth_method, secret_enc)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''))
		ON CONFLICT (client_id) DO UPDATE SET
			name = EXCLUDED.name, sector_identifier = EXCLUDED.sector_identifier,
			auth_method = EXCLUDED.auth_method, secret_enc = EXCLUDED.secret_enc,
			updated_at = NOW()`

	if _, err := d.s.pool.Exec(ctx, q, c.ClientID, c.Name, c.SectorIdentifier, string(c.AuthMethod), c.SecretEnc); err != nil {
		return fmt.Errorf("pg put client: %w", err)
	}
	return nil
}
