package pg

import (
	"context"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	migrations "github.com/dropDatabas3/hellojohn-introspect/migrations/postgres"
)

func TestTokenStore_PutValidatesBeforeQuery(t *testing.T) {
	// sin pool: si llegara a Exec haría panic
	at := (&Store{}).Tokens(repository.KindAccessToken)
	ctx := context.Background()
	now := time.Now()

	err := at.Put(ctx, "tkn", repository.TokenRecord{Jti: "j1", ClientID: "web", Scope: "openid"})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	err = at.Put(ctx, "tkn", repository.TokenRecord{Jti: "j1", ClientID: "bad id", ExpiresAt: now.Add(time.Minute)})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestParseMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(migrations.FS, migrations.Dir).ParseMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "oauth_tables", migs[0].Name)
	assert.Contains(t, migs[0].SQL, "oauth_token")
	assert.Contains(t, migs[0].SQL, "oauth_client")
}

func TestParseMigrations_OrderAndFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql":  {Data: []byte("SELECT 2")},
		"m/0001_a.sql":  {Data: []byte("SELECT 1")},
		"m/README.md":   {Data: []byte("ignored")},
		"m/0010_c.sql":  {Data: []byte("SELECT 10")},
		"m/x_bogus.sql": {Data: []byte("ignored")},
	}
	migs, err := NewMigrator(fsys, "m").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{migs[0].Version, migs[1].Version, migs[2].Version})
}

func TestParseMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("SELECT 1")},
		"m/001_b.sql":  {Data: []byte("SELECT 1")},
	}
	_, err := NewMigrator(fsys, "m").ParseMigrations()
	assert.Error(t, err)
}

// Integración: requiere STORAGE_DSN apuntando a una DB descartable.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("STORAGE_DSN")
	if dsn == "" {
		t.Skip("requires DB envs")
	}
	ctx := context.Background()
	s, err := New(ctx, Config{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	defer s.Close()

	_, err = NewMigrator(migrations.FS, migrations.Dir).Run(ctx, s)
	require.NoError(t, err)

	// idempotente
	res, err := NewMigrator(migrations.FS, migrations.Dir).Run(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)

	clientID := "web-" + uuid.NewString()
	dir := s.Clients()
	require.NoError(t, dir.Put(ctx, repository.Client{
		ClientID: clientID, Name: "Web", SectorIdentifier: "web.example.com",
		AuthMethod: repository.AuthMethodClientSecretPost,
	}))
	c, err := dir.Get(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, "web.example.com", c.SectorIdentifier)
	assert.Equal(t, repository.AuthMethodClientSecretPost, c.AuthMethod)

	_, err = dir.Get(ctx, "ghost-"+uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	value := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	at := s.Tokens(repository.KindAccessToken)
	require.NoError(t, at.Put(ctx, value, repository.TokenRecord{
		Jti: "jti-" + value, ClientID: clientID, AccountID: "acc-1", Scope: "openid",
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	tok, err := at.Find(ctx, value)
	require.NoError(t, err)
	assert.Equal(t, repository.KindAccessToken, tok.Kind)
	assert.Equal(t, clientID, tok.ClientID)
	assert.Equal(t, now.Unix(), tok.IssuedAt)
	assert.Empty(t, tok.SessionID)
	assert.True(t, tok.Valid)

	_, err = s.Tokens(repository.KindRefreshToken).Find(ctx, value)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
