// Package clientauth autentica al client que llama al endpoint de introspección.
//
// Métodos: client_secret_basic, client_secret_post, client_secret_jwt y none.
// El método usado tiene que coincidir con el registrado en el client
// (introspection_endpoint_auth_method).
package clientauth

import (
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
)

// AssertionTypeJWTBearer es el client_assertion_type de RFC 7523.
const AssertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

const maxFormBytes = 64 << 10

// SecretOpener descifra client secrets en reposo (secretbox.Box).
type SecretOpener interface {
	Decrypt(cipherText string) (string, error)
}

// Config del Authenticator.
type Config struct {
	Clients repository.ClientDirectory
	Secrets SecretOpener

	// Audiences aceptadas en client_assertion (issuer y URL del endpoint).
	Audiences []string

	// MaxAssertionAge limita exp-iat de un client_assertion. Default 5m.
	MaxAssertionAge time.Duration
}

// Authenticator resuelve el client de un request.
type Authenticator struct {
	clients   repository.ClientDirectory
	secrets   SecretOpener
	audiences []string
	maxAge    time.Duration
	seenJTI   *gocache.Cache
	now       func() time.Time
}

// New crea un Authenticator.
func New(cfg Config) *Authenticator {
	maxAge := cfg.MaxAssertionAge
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return &Authenticator{
		clients:   cfg.Clients,
		secrets:   cfg.Secrets,
		audiences: cfg.Audiences,
		maxAge:    maxAge,
		seenJTI:   gocache.New(maxAge, time.Minute),
		now:       time.Now,
	}
}

// credentials es lo que trajo el request, antes de verificar.
type credentials struct {
	method    repository.AuthMethod
	clientID  string
	secret    string
	assertion string
}

var (
	errNoAuth       = stderrors.New("no client authentication mechanism provided")
	errMultipleAuth = stderrors.New("client authentication must only be provided using one mechanism")
	errInvalidForm  = stderrors.New("invalid form body")
)

// Authenticate devuelve el client autenticado o un *errors.AppError listo para escribir.
func (a *Authenticator) Authenticate(r *http.Request) (*repository.Client, error) {
	creds, err := extract(r)
	if err != nil {
		if stderrors.Is(err, errMultipleAuth) || stderrors.Is(err, errInvalidForm) {
			return nil, errors.ErrInvalidRequest.WithDescription(err.Error())
		}
		return nil, a.invalid(creds, err.Error())
	}

	c, err := a.clients.Get(r.Context(), creds.clientID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, errors.ErrServerError.WithCause(fmt.Errorf("client directory: %w", err))
	}
	// un directorio que devuelve (nil, nil) cuenta como client inexistente
	if c == nil {
		return nil, a.invalid(creds, "client not found")
	}

	if c.AuthMethod != creds.method {
		return nil, a.invalid(creds, "the registered client introspection_endpoint_auth_method does not match the provided auth mechanism")
	}

	switch creds.method {
	case repository.AuthMethodNone:
		return c, nil
	case repository.AuthMethodClientSecretBasic, repository.AuthMethodClientSecretPost:
		secret, err := a.secretOf(c)
		if err != nil {
			return nil, errors.ErrServerError.WithCause(err)
		}
		if subtle.ConstantTimeCompare([]byte(secret), []byte(creds.secret)) != 1 {
			return nil, a.invalid(creds, "invalid secret provided")
		}
		return c, nil
	case repository.AuthMethodClientSecretJWT:
		secret, err := a.secretOf(c)
		if err != nil {
			return nil, errors.ErrServerError.WithCause(err)
		}
		if err := a.verifyAssertion(creds.assertion, c.ClientID, secret); err != nil {
			return nil, a.invalid(creds, err.Error())
		}
		return c, nil
	}
	return nil, a.invalid(creds, "unsupported authentication method")
}

// Middleware autentica y deja el client en el contexto (middlewares.GetClient).
func (a *Authenticator) Middleware() middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
			c, err := a.Authenticate(r)
			if err != nil {
				appErr := errors.FromError(err)
				log := logger.From(r.Context()).With(logger.Component("clientauth"))
				if appErr.HTTPStatus >= 500 {
					log.Error("client authentication fault", logger.Err(appErr))
				} else {
					log.Debug("client authentication failed", logger.String("reason", appErr.Description))
				}
				errors.WriteError(w, appErr)
				return
			}
			ctx := middlewares.WithClient(r.Context(), c)
			ctx = logger.Enrich(ctx, logger.ClientID(c.ClientID), logger.AuthMethod(string(c.AuthMethod)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) invalid(creds credentials, desc string) *errors.AppError {
	e := errors.ErrInvalidClient.WithDescription(desc)
	if creds.method == repository.AuthMethodClientSecretBasic {
		e = e.WithHeader("WWW-Authenticate", `Basic realm="introspection"`)
	}
	return e
}

func (a *Authenticator) secretOf(c *repository.Client) (string, error) {
	if c.SecretEnc == "" {
		return "", fmt.Errorf("client %s has no secret", c.ClientID)
	}
	if a.secrets == nil {
		return "", stderrors.New("secretbox not configured")
	}
	s, err := a.secrets.Decrypt(c.SecretEnc)
	if err != nil {
		return "", fmt.Errorf("decrypt secret of %s: %w", c.ClientID, err)
	}
	return s, nil
}

// extract lee las credenciales sin verificarlas.
func extract(r *http.Request) (credentials, error) {
	if err := r.ParseForm(); err != nil {
		return credentials{}, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	form := r.PostForm

	var found []credentials

	if user, pass, ok := r.BasicAuth(); ok {
		// RFC 6749 §2.3.1: id y secret van form-urlencoded dentro de Basic
		id, err1 := url.QueryUnescape(user)
		secret, err2 := url.QueryUnescape(pass)
		if err1 != nil || err2 != nil {
			return credentials{method: repository.AuthMethodClientSecretBasic}, stderrors.New("client_id and client_secret in the authorization header are not properly encoded")
		}
		found = append(found, credentials{method: repository.AuthMethodClientSecretBasic, clientID: id, secret: secret})
	}

	formID := strings.TrimSpace(form.Get("client_id"))

	if assertion := form.Get("client_assertion"); assertion != "" || form.Get("client_assertion_type") != "" {
		if form.Get("client_assertion_type") != AssertionTypeJWTBearer {
			return credentials{}, stderrors.New("client_assertion_type must be " + AssertionTypeJWTBearer)
		}
		sub, err := assertionSubject(assertion)
		if err != nil {
			return credentials{}, err
		}
		if formID != "" && formID != sub {
			return credentials{}, stderrors.New("subject of client_assertion must be the same as client_id provided in the body")
		}
		found = append(found, credentials{method: repository.AuthMethodClientSecretJWT, clientID: sub, assertion: assertion})
	}

	if secret := form.Get("client_secret"); secret != "" {
		found = append(found, credentials{method: repository.AuthMethodClientSecretPost, clientID: formID, secret: secret})
	}

	switch len(found) {
	case 0:
		if formID == "" {
			return credentials{}, errNoAuth
		}
		return credentials{method: repository.AuthMethodNone, clientID: formID}, nil
	case 1:
		c := found[0]
		if c.method == repository.AuthMethodClientSecretBasic && formID != "" && formID != c.clientID {
			return c, stderrors.New("mismatch in body and authorization client ids")
		}
		if c.clientID == "" {
			return c, errNoAuth
		}
		return c, nil
	}
	return credentials{}, errMultipleAuth
}

// assertionSubject lee sub/iss del JWT sin verificar la firma todavía.
func assertionSubject(assertion string) (string, error) {
	var claims jwtv5.RegisteredClaims
	if _, _, err := jwtv5.NewParser().ParseUnverified(assertion, &claims); err != nil {
		return "", fmt.Errorf("invalid client_assertion format: %w", err)
	}
	if claims.Subject == "" {
		return "", stderrors.New("sub (JWT subject) must be provided in the client_assertion JWT")
	}
	if claims.Issuer != claims.Subject {
		return "", stderrors.New("iss (JWT issuer) must be the client_id")
	}
	return claims.Subject, nil
}

// verifyAssertion valida firma HMAC, iss/sub, aud, exp y replay de jti.
func (a *Authenticator) verifyAssertion(assertion, clientID, secret string) error {
	var claims jwtv5.RegisteredClaims
	_, err := jwtv5.ParseWithClaims(assertion, &claims,
		func(*jwtv5.Token) (any, error) { return []byte(secret), nil },
		jwtv5.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwtv5.WithIssuer(clientID),
		jwtv5.WithSubject(clientID),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(a.now),
		jwtv5.WithLeeway(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("invalid client_assertion: %w", err)
	}

	if !a.audienceOK(claims.Audience) {
		return stderrors.New("aud (JWT audience) must be the issuer identifier or the introspection endpoint")
	}
	if claims.IssuedAt != nil && claims.ExpiresAt.Sub(claims.IssuedAt.Time) > a.maxAge {
		return stderrors.New("client_assertion lifetime is too long")
	}
	if claims.ID == "" {
		return stderrors.New("jti (JWT ID) must be provided in the client_assertion JWT")
	}

	key := clientID + "|" + claims.ID
	ttl := claims.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := a.seenJTI.Add(key, struct{}{}, ttl); err != nil {
		return stderrors.New("client assertion tokens must only be used once")
	}
	return nil
}

func (a *Authenticator) audienceOK(aud jwtv5.ClaimStrings) bool {
	for _, got := range aud {
		for _, want := range a.audiences {
			if got == want {
				return true
			}
		}
	}
	return false
}
