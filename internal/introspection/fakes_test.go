package introspection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

type fakeStore struct {
	kind   repository.TokenKind
	tokens map[string]*repository.Token
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func newFakeStore(kind repository.TokenKind, toks ...*repository.Token) *fakeStore {
	f := &fakeStore{kind: kind, tokens: map[string]*repository.Token{}}
	for _, t := range toks {
		f.tokens[t.Jti] = t
	}
	return f
}

func (f *fakeStore) Find(ctx context.Context, token string) (*repository.Token, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) Calls() int { return int(f.calls.Load()) }

type fakeDirectory struct {
	mu      sync.Mutex
	clients map[string]*repository.Client
	err     error
	calls   int
}

func newFakeDirectory(clients ...*repository.Client) *fakeDirectory {
	d := &fakeDirectory{clients: map[string]*repository.Client{}}
	for _, c := range clients {
		d.clients[c.ClientID] = c
	}
	return d
}

func (d *fakeDirectory) Get(_ context.Context, clientID string) (*repository.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	c, ok := d.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (d *fakeDirectory) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// stubMasker hace visible el sector usado para calcular el sub.
type stubMasker struct{}

func (stubMasker) Compute(accountID, sector string) string {
	if accountID == "" {
		return ""
	}
	return accountID + "@" + sector
}

type recordingObserver struct {
	mu       sync.Mutex
	lookups  []repository.TokenKind
	verdicts []Verdict
}

func (o *recordingObserver) ObserveLookup(kind repository.TokenKind, _ LookupOutcome, _ time.Duration) {
	o.mu.Lock()
	o.lookups = append(o.lookups, kind)
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveVerdict(_ context.Context, v Verdict) {
	o.mu.Lock()
	o.verdicts = append(o.verdicts, v)
	o.mu.Unlock()
}

func validToken(kind repository.TokenKind, jti, clientID, accountID string) *repository.Token {
	now := time.Now()
	return &repository.Token{
		Kind:      kind,
		Jti:       jti,
		ClientID:  clientID,
		AccountID: accountID,
		Scope:     "openid profile",
		IssuedAt:  now.Add(-time.Minute).Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
		SessionID: "sid-1",
		Issuer:    "https://op.example.com",
		Valid:     true,
	}
}

var (
	confidentialRS = &repository.Client{
		ClientID:         "resource-server",
		SectorIdentifier: "rs.example.com",
		AuthMethod:       repository.AuthMethodClientSecretBasic,
	}
	publicApp = &repository.Client{
		ClientID:         "spa",
		SectorIdentifier: "spa.example.com",
		AuthMethod:       repository.AuthMethodNone,
	}
	ownerWeb = &repository.Client{
		ClientID:         "web",
		SectorIdentifier: "web.example.com",
		AuthMethod:       repository.AuthMethodClientSecretPost,
	}
)
