package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-introspect/internal/introspection"
	"github.com/dropDatabas3/hellojohn-introspect/internal/security/subject"
	"github.com/dropDatabas3/hellojohn-introspect/internal/store/memory"
)

var (
	rs  = &repository.Client{ClientID: "rs", AuthMethod: repository.AuthMethodClientSecretBasic, SectorIdentifier: "rs.example.com"}
	spa = &repository.Client{ClientID: "spa", AuthMethod: repository.AuthMethodNone, SectorIdentifier: "spa.example.com"}
	web = repository.Client{ClientID: "web", AuthMethod: repository.AuthMethodClientSecretPost, SectorIdentifier: "web.example.com"}
)

func newController(t *testing.T) (*IntrospectController, *memory.TokenSet) {
	t.Helper()
	ts := memory.NewTokenSet()
	now := time.Now()
	require.NoError(t, ts.AccessToken.Put("at-web", repository.TokenRecord{
		Jti: "jti-1", ClientID: "web", AccountID: "acc-1", Scope: "openid",
		IssuedAt: now, ExpiresAt: now.Add(time.Hour), Issuer: "https://op.example.com",
	}))
	svc := introspection.NewService(introspection.Deps{
		Stores: introspection.Stores{
			AccessToken:       ts.AccessToken,
			ClientCredentials: ts.ClientCredentials,
			RefreshToken:      ts.RefreshToken,
		},
		Grants:  introspection.Grants{ClientCredentials: true, RefreshToken: true},
		Clients: memory.NewClientDirectory(web, *rs, *spa),
		Masker:  subject.New(subject.Config{PairwiseSalt: "salt"}),
	})
	return NewIntrospectController(svc), ts
}

func post(ctrl *IntrospectController, requester *repository.Client, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/token/introspection", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if requester != nil {
		req = req.WithContext(middlewares.WithClient(req.Context(), requester))
	}
	rec := httptest.NewRecorder()
	ctrl.Introspect(rec, req)
	return rec
}

func TestIntrospect_Active(t *testing.T) {
	ctrl, _ := newController(t)

	rec := post(ctrl, rs, url.Values{"token": {"at-web"}, "token_type_hint": {"refresh_token"}}.Encode())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	body := rec.Body.String()
	assert.Contains(t, body, `"active":true`)
	assert.Contains(t, body, `"client_id":"web"`)
	assert.Contains(t, body, `"token_type":"access_token"`)
	assert.Contains(t, body, `"sub":"`+subject.New(subject.Config{PairwiseSalt: "salt"}).Compute("acc-1", "web.example.com")+`"`)
	assert.NotContains(t, body, `"sid"`)
}

func TestIntrospect_InactiveIsExact(t *testing.T) {
	ctrl, _ := newController(t)

	for name, tc := range map[string]struct {
		requester *repository.Client
		token     string
	}{
		"unknown":              {rs, "nope"},
		"public foreign token": {spa, "at-web"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(ctrl, tc.requester, url.Values{"token": {tc.token}}.Encode())
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, `{"active":false}`, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func TestIntrospect_BadRequests(t *testing.T) {
	ctrl, _ := newController(t)

	rec := post(ctrl, rs, url.Values{"token_type_hint": {"access_token"}}.Encode())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"invalid_request"`)

	rec = post(ctrl, rs, "token=%20%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(ctrl, rs, "token=a&token=b")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "twice")

	rec = post(ctrl, nil, "token=a")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/token/introspection?token=a", nil)
	rec = httptest.NewRecorder()
	ctrl.Introspect(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}

type failingService struct{ err error }

func (f failingService) Introspect(context.Context, introspection.Request, *repository.Client) (*introspection.Outcome, error) {
	return nil, f.err
}

func TestIntrospect_StoreFaultIs500(t *testing.T) {
	ctrl := NewIntrospectController(failingService{err: errors.Join(introspection.ErrLookup, errors.New("redis: i/o timeout"))})

	rec := post(ctrl, rs, "token=x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "server_error")
	assert.NotContains(t, rec.Body.String(), "redis")
	assert.NotContains(t, rec.Body.String(), "active")
}
