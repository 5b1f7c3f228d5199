package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Grant types que habilitan stores opcionales. Los access tokens siempre están.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env" validate:"omitempty,oneof=dev staging prod"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"log"`

	Server struct {
		Addr         string `yaml:"addr" validate:"required"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	// Issuer del OP. Base de la audiencia aceptada en client_secret_jwt.
	Issuer string `yaml:"issuer" validate:"required,url"`

	Introspection struct {
		Path       string   `yaml:"path" validate:"required,startswith=/"`
		GrantTypes []string `yaml:"grant_types" validate:"dive,oneof=authorization_code client_credentials refresh_token"`
	} `yaml:"introspection"`

	Claims struct {
		PairwiseSalt string `yaml:"pairwise_salt"`
	} `yaml:"claims"`

	Storage struct {
		Tokens struct {
			Driver string `yaml:"driver" validate:"required,oneof=memory redis postgres"`
			// seed opcional para el driver memory
			File string `yaml:"file"`
		} `yaml:"tokens"`
		Clients struct {
			Driver string `yaml:"driver" validate:"required,oneof=file postgres"`
			File   string `yaml:"file" validate:"required_if=Driver file"`
		} `yaml:"clients"`
		Postgres struct {
			DSN             string `yaml:"dsn"`
			MaxConns        int32  `yaml:"max_conns" validate:"gte=0"`
			MinConns        int32  `yaml:"min_conns" validate:"gte=0"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Redis struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db" validate:"gte=0"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		// read-through de clients; "0" lo deshabilita
		ClientsTTL string `yaml:"clients_ttl"`
	} `yaml:"cache"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests" validate:"gte=0"`
	} `yaml:"rate"`

	Security struct {
		SecretboxMasterKey string `yaml:"secretbox_master_key"`
	} `yaml:"security"`

	// Durations ya parseadas; las llena Validate.
	Durations Durations `yaml:"-"`
}

type Durations struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ConnMaxLifetime time.Duration
	ClientsTTL      time.Duration
	RateWindow      time.Duration
}

// Load lee el YAML (path vacío = sólo defaults + env), aplica overrides y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "introspectd"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "10s"
	}
	if c.Introspection.Path == "" {
		c.Introspection.Path = "/token/introspection"
	}
	if c.Introspection.GrantTypes == nil {
		c.Introspection.GrantTypes = []string{GrantAuthorizationCode, GrantClientCredentials, GrantRefreshToken}
	}
	if c.Storage.Tokens.Driver == "" {
		c.Storage.Tokens.Driver = "memory"
	}
	if c.Storage.Clients.Driver == "" {
		c.Storage.Clients.Driver = "file"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		c.Storage.Postgres.ConnMaxLifetime = "30m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "oidc:"
	}
	if c.Cache.ClientsTTL == "" {
		c.Cache.ClientsTTL = "30s"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 600
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("ISSUER"); ok {
		c.Issuer = v
	}
	if v, ok := getEnvCSV("INTROSPECTION_GRANT_TYPES"); ok {
		c.Introspection.GrantTypes = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_TOKENS_DRIVER"); ok {
		c.Storage.Tokens.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_CLIENTS_DRIVER"); ok {
		c.Storage.Clients.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}

	// CACHE
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}

	// SECRETS
	if v, ok := getEnvStr("PAIRWISE_SALT"); ok {
		c.Claims.PairwiseSalt = v
	}
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretboxMasterKey = v
	}
}

var validate = validator.New()

// Validate corre las reglas de tags y las que cruzan secciones.
// Deja las durations parseadas en c.Durations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}

	var errs []error
	dur := func(name, s string, dst *time.Duration) {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, s))
			return
		}
		*dst = d
	}
	dur("server.read_timeout", c.Server.ReadTimeout, &c.Durations.ReadTimeout)
	dur("server.write_timeout", c.Server.WriteTimeout, &c.Durations.WriteTimeout)
	dur("storage.postgres.conn_max_lifetime", c.Storage.Postgres.ConnMaxLifetime, &c.Durations.ConnMaxLifetime)
	dur("cache.clients_ttl", c.Cache.ClientsTTL, &c.Durations.ClientsTTL)
	dur("rate.window", c.Rate.Window, &c.Durations.RateWindow)

	if c.UsesPostgres() && strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
		errs = append(errs, errors.New("storage.postgres.dsn: required by postgres driver (STORAGE_DSN)"))
	}
	if c.Storage.Tokens.Driver == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		errs = append(errs, errors.New("cache.redis.addr: required by redis token driver (REDIS_ADDR)"))
	}
	if c.Storage.Postgres.MinConns > c.Storage.Postgres.MaxConns {
		errs = append(errs, errors.New("storage.postgres.min_conns: greater than max_conns"))
	}
	if c.Rate.Enabled && c.Rate.MaxRequests == 0 {
		errs = append(errs, errors.New("rate.max_requests: must be > 0 when rate is enabled"))
	}
	if c.IsProd() && strings.TrimSpace(c.Claims.PairwiseSalt) == "" {
		errs = append(errs, errors.New("claims.pairwise_salt: required in prod (PAIRWISE_SALT)"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// UsesPostgres reporta si algún driver necesita el pool.
func (c *Config) UsesPostgres() bool {
	return c.Storage.Tokens.Driver == "postgres" || c.Storage.Clients.Driver == "postgres"
}

// GrantEnabled reporta si el grant type está habilitado.
func (c *Config) GrantEnabled(grant string) bool {
	for _, g := range c.Introspection.GrantTypes {
		if g == grant {
			return true
		}
	}
	return false
}
