package repository

import (
	"context"
	"time"
)

// TokenKind identifica el namespace (store) al que pertenece un token.
type TokenKind string

const (
	KindAccessToken       TokenKind = "AccessToken"
	KindClientCredentials TokenKind = "ClientCredentials"
	KindRefreshToken      TokenKind = "RefreshToken"
)

// Kinds lista los tipos conocidos en orden canónico.
var Kinds = []TokenKind{KindAccessToken, KindClientCredentials, KindRefreshToken}

// Valid reporta si k es uno de los tres tipos conocidos.
func (k TokenKind) Valid() bool {
	switch k {
	case KindAccessToken, KindClientCredentials, KindRefreshToken:
		return true
	}
	return false
}

func (k TokenKind) String() string { return string(k) }

// Token es el registro de un token ya emitido, tal como lo devuelve su store.
type Token struct {
	Kind      TokenKind
	Jti       string // identificador opaco
	ClientID  string // client_id dueño del token
	AccountID string // vacío para ClientCredentials
	Scope     string
	IssuedAt  int64 // unix seconds, 0 = desconocido
	ExpiresAt int64 // unix seconds, 0 = desconocido
	SessionID string
	Issuer    string

	// Valid lo calcula el store dueño (expiración, revocación, consumo).
	// El core sólo lo lee.
	Valid bool
}

// TokenRecord es la forma persistida de un token, común a todos los stores.
type TokenRecord struct {
	Kind       TokenKind  `json:"kind"`
	Jti        string     `json:"jti"`
	TokenHash  string     `json:"token_hash"`
	ClientID   string     `json:"client_id"`
	AccountID  string     `json:"account_id,omitempty"`
	Scope      string     `json:"scope,omitempty"`
	SessionID  string     `json:"sid,omitempty"`
	Issuer     string     `json:"iss,omitempty"`
	IssuedAt   time.Time  `json:"iat"`
	ExpiresAt  time.Time  `json:"exp"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"` // refresh tokens rotados
}

// Active aplica las reglas de validez de un store: no expirado, no revocado, no consumido.
func (r *TokenRecord) Active(now time.Time) bool {
	if r.RevokedAt != nil || r.ConsumedAt != nil {
		return false
	}
	return r.ExpiresAt.After(now)
}

// ToToken proyecta el registro a Token, calculando Valid con now.
func (r *TokenRecord) ToToken(now time.Time) *Token {
	t := &Token{
		Kind:      r.Kind,
		Jti:       r.Jti,
		ClientID:  r.ClientID,
		AccountID: r.AccountID,
		Scope:     r.Scope,
		SessionID: r.SessionID,
		Issuer:    r.Issuer,
		Valid:     r.Active(now),
	}
	if !r.IssuedAt.IsZero() {
		t.IssuedAt = r.IssuedAt.Unix()
	}
	if !r.ExpiresAt.IsZero() {
		t.ExpiresAt = r.ExpiresAt.Unix()
	}
	return t
}

// TokenFinder es el contrato de lookup de un store de tokens.
type TokenFinder interface {
	// Find busca un token por su valor opaco.
	// Retorna ErrNotFound si no existe en este store.
	// Cualquier otro error es una falla de infraestructura.
	Find(ctx context.Context, token string) (*Token, error)
}

// Pinger lo implementan los stores con una conexión que se puede verificar (/readyz).
type Pinger interface {
	Ping(ctx context.Context) error
}
