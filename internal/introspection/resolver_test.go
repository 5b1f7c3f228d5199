package introspection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

type storeSet struct {
	at, cc, rt *fakeStore
}

func newStoreSet() storeSet {
	return storeSet{
		at: newFakeStore(repository.KindAccessToken),
		cc: newFakeStore(repository.KindClientCredentials),
		rt: newFakeStore(repository.KindRefreshToken),
	}
}

func (s storeSet) stores() Stores {
	return Stores{AccessToken: s.at, ClientCredentials: s.cc, RefreshToken: s.rt}
}

var allGrants = Grants{ClientCredentials: true, RefreshToken: true}

func TestPriority(t *testing.T) {
	at, cc, rt := repository.KindAccessToken, repository.KindClientCredentials, repository.KindRefreshToken

	assert.Equal(t, []repository.TokenKind{at, cc, rt}, Priority(HintAccessToken))
	assert.Equal(t, []repository.TokenKind{cc, at, rt}, Priority(HintClientCredentials))
	assert.Equal(t, []repository.TokenKind{rt, at, cc}, Priority(HintRefreshToken))
	assert.Equal(t, []repository.TokenKind{at, cc, rt}, Priority(HintNone))
	assert.Equal(t, []repository.TokenKind{at, cc, rt}, Priority(Hint("bogus")))

	p := Priority(HintNone)
	p[0] = rt
	assert.Equal(t, at, Priority(HintNone)[0], "Priority must return a copy")
}

func TestParseHint(t *testing.T) {
	assert.Equal(t, HintAccessToken, ParseHint("access_token"))
	assert.Equal(t, HintRefreshToken, ParseHint(" refresh_token "))
	assert.Equal(t, HintClientCredentials, ParseHint("client_credentials"))
	assert.Equal(t, HintNone, ParseHint("id_token"))
	assert.Equal(t, HintNone, ParseHint(""))
}

func TestResolve_AbsentEverywhere(t *testing.T) {
	s := newStoreSet()
	r := NewResolver(s.stores(), allGrants, nil)

	tok, err := r.Resolve(context.Background(), "nope", HintNone)

	require.NoError(t, err)
	assert.Nil(t, tok)
	assert.Equal(t, 1, s.at.Calls())
	assert.Equal(t, 1, s.cc.Calls())
	assert.Equal(t, 1, s.rt.Calls())
}

func TestResolve_MatchingHintQueriesOnlyThatStore(t *testing.T) {
	cases := []struct {
		hint Hint
		kind repository.TokenKind
	}{
		{HintAccessToken, repository.KindAccessToken},
		{HintClientCredentials, repository.KindClientCredentials},
		{HintRefreshToken, repository.KindRefreshToken},
	}
	for _, tc := range cases {
		t.Run(string(tc.hint), func(t *testing.T) {
			s := newStoreSet()
			byKind := map[repository.TokenKind]*fakeStore{
				repository.KindAccessToken:       s.at,
				repository.KindClientCredentials: s.cc,
				repository.KindRefreshToken:      s.rt,
			}
			target := byKind[tc.kind]
			target.tokens["tkn"] = validToken(tc.kind, "tkn", "web", "acc")

			r := NewResolver(s.stores(), allGrants, nil)
			tok, err := r.Resolve(context.Background(), "tkn", tc.hint)

			require.NoError(t, err)
			require.NotNil(t, tok)
			assert.Equal(t, tc.kind, tok.Kind)
			for kind, st := range byKind {
				if kind == tc.kind {
					assert.Equal(t, 1, st.Calls(), kind)
				} else {
					assert.Zero(t, st.Calls(), kind)
				}
			}
		})
	}
}

func TestResolve_WrongHintFallsBack(t *testing.T) {
	s := newStoreSet()
	s.at.tokens["tkn"] = validToken(repository.KindAccessToken, "tkn", "web", "acc")
	r := NewResolver(s.stores(), allGrants, nil)

	tok, err := r.Resolve(context.Background(), "tkn", HintRefreshToken)

	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, repository.KindAccessToken, tok.Kind)
	assert.Equal(t, 1, s.rt.Calls())
	assert.Equal(t, 1, s.at.Calls())
	assert.Equal(t, 1, s.cc.Calls())
}

func TestResolve_FallbackRunsConcurrently(t *testing.T) {
	s := newStoreSet()
	s.at.delay = 150 * time.Millisecond
	s.cc.delay = 150 * time.Millisecond
	s.rt.delay = 150 * time.Millisecond
	s.rt.tokens["tkn"] = validToken(repository.KindRefreshToken, "tkn", "web", "acc")
	r := NewResolver(s.stores(), allGrants, nil)

	start := time.Now()
	tok, err := r.Resolve(context.Background(), "tkn", HintNone)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.True(t, elapsed < 400*time.Millisecond, "fallback took %s", elapsed)
}

func TestResolve_PriorityBreaksTiesNotArrival(t *testing.T) {
	s := newStoreSet()
	// el de mayor prioridad llega último
	s.at.delay = 80 * time.Millisecond
	s.at.tokens["dup"] = validToken(repository.KindAccessToken, "dup", "web", "acc")
	s.rt.tokens["dup"] = validToken(repository.KindRefreshToken, "dup", "web", "acc")
	r := NewResolver(s.stores(), allGrants, nil)

	tok, err := r.Resolve(context.Background(), "dup", HintNone)

	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, repository.KindAccessToken, tok.Kind)
}

func TestResolve_DisabledGrantsAreNeverQueried(t *testing.T) {
	s := newStoreSet()
	s.cc.tokens["tkn"] = validToken(repository.KindClientCredentials, "tkn", "web", "")
	r := NewResolver(s.stores(), Grants{}, nil)

	tok, err := r.Resolve(context.Background(), "tkn", HintClientCredentials)

	require.NoError(t, err)
	assert.Nil(t, tok)
	assert.Zero(t, s.cc.Calls())
	assert.Zero(t, s.rt.Calls())
	assert.Equal(t, 1, s.at.Calls())
	assert.False(t, r.Enabled(repository.KindClientCredentials))
	assert.True(t, r.Enabled(repository.KindAccessToken))
}

func TestResolve_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("hinted store", func(t *testing.T) {
		s := newStoreSet()
		s.at.err = boom
		r := NewResolver(s.stores(), allGrants, nil)

		_, err := r.Resolve(context.Background(), "tkn", HintAccessToken)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLookup)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, s.cc.Calls())
	})

	t.Run("fallback store", func(t *testing.T) {
		s := newStoreSet()
		s.rt.err = boom
		s.at.tokens["tkn"] = validToken(repository.KindAccessToken, "tkn", "web", "acc")
		r := NewResolver(s.stores(), allGrants, nil)

		_, err := r.Resolve(context.Background(), "tkn", HintNone)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLookup)
		assert.Contains(t, err.Error(), string(repository.KindRefreshToken))
	})
}

func TestResolve_CanceledContext(t *testing.T) {
	s := newStoreSet()
	s.at.delay = time.Second
	s.cc.delay = time.Second
	s.rt.delay = time.Second
	r := NewResolver(s.stores(), allGrants, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "tkn", HintNone)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_FillsMissingKindWithoutMutatingStore(t *testing.T) {
	s := newStoreSet()
	stored := validToken("", "tkn", "web", "acc")
	s.cc.tokens["tkn"] = stored
	r := NewResolver(s.stores(), allGrants, nil)

	tok, err := r.Resolve(context.Background(), "tkn", HintClientCredentials)

	require.NoError(t, err)
	assert.Equal(t, repository.KindClientCredentials, tok.Kind)
	assert.Equal(t, repository.TokenKind(""), stored.Kind)
}

func TestResolve_ReportsLookups(t *testing.T) {
	s := newStoreSet()
	obs := &recordingObserver{}
	r := NewResolver(s.stores(), allGrants, obs)

	_, err := r.Resolve(context.Background(), "tkn", HintRefreshToken)

	require.NoError(t, err)
	assert.Len(t, obs.lookups, 3)
	assert.Equal(t, repository.KindRefreshToken, obs.lookups[0])
}
