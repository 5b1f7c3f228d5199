package repository

import (
	"context"
)

// AuthMethod es el método con el que un client se autentica en el endpoint de introspección.
type AuthMethod string

const (
	AuthMethodNone              AuthMethod = "none"
	AuthMethodClientSecretBasic AuthMethod = "client_secret_basic"
	AuthMethodClientSecretPost  AuthMethod = "client_secret_post"
	AuthMethodClientSecretJWT   AuthMethod = "client_secret_jwt"
)

// Valid reporta si m es un método soportado.
func (m AuthMethod) Valid() bool {
	switch m {
	case AuthMethodNone, AuthMethodClientSecretBasic, AuthMethodClientSecretPost, AuthMethodClientSecretJWT:
		return true
	}
	return false
}

// IsPublic indica un client que sólo afirma su client_id (sin credenciales).
func (m AuthMethod) IsPublic() bool { return m == AuthMethodNone }

// Client representa un cliente OIDC/OAuth registrado.
type Client struct {
	ClientID         string     `yaml:"client_id"`
	Name             string     `yaml:"name"`
	SectorIdentifier string     `yaml:"sector_identifier"` // salt para el sub pairwise
	AuthMethod       AuthMethod `yaml:"introspection_endpoint_auth_method"`
	SecretEnc        string     `yaml:"secret_enc"` // secret cifrado con secretbox
}

// ClientDirectory resuelve metadata de clients.
type ClientDirectory interface {
	// Get obtiene un client por su client_id público.
	// Retorna ErrNotFound si no existe.
	Get(ctx context.Context, clientID string) (*Client, error)
}
