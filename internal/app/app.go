// Package app arma el grafo de dependencias del servicio a partir de la config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellojohn-introspect/internal/config"
	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/clientauth"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/controllers/health"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/controllers/oauth"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/metrics"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/router"
	"github.com/dropDatabas3/hellojohn-introspect/internal/introspection"
	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-introspect/internal/rate"
	"github.com/dropDatabas3/hellojohn-introspect/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-introspect/internal/security/subject"
	"github.com/dropDatabas3/hellojohn-introspect/internal/store/cached"
	"github.com/dropDatabas3/hellojohn-introspect/internal/store/memory"
	"github.com/dropDatabas3/hellojohn-introspect/internal/store/pg"
	redisstore "github.com/dropDatabas3/hellojohn-introspect/internal/store/redis"
)

// App es el servicio armado.
type App struct {
	Config  *config.Config
	Service *introspection.Service
	Metrics *metrics.Metrics
	Handler http.Handler
	Server  *http.Server

	// Tokens sólo existe con el driver memory (seed y tests).
	Tokens *memory.TokenSet

	closers []func()
}

// New construye el App. version se expone en /readyz.
func New(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	a := &App{Config: cfg}
	log := logger.L().With(logger.Component("app"))

	// infra compartida
	var pgs *pg.Store
	if cfg.UsesPostgres() {
		s, err := pg.New(ctx, pg.Config{
			DSN:             cfg.Storage.Postgres.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Durations.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		pgs = s
		a.closers = append(a.closers, s.Close)
	}

	var redisClient *rdb.Client
	if cfg.Cache.Redis.Addr != "" {
		c, err := redisstore.NewClient(ctx, redisstore.Config{
			Addr:     cfg.Cache.Redis.Addr,
			DB:       cfg.Cache.Redis.DB,
			Password: cfg.Cache.Redis.Password,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			if cfg.Storage.Tokens.Driver == "redis" {
				a.Close()
				return nil, err
			}
			// sólo lo usaba el rate limiter: cae a memoria
			log.Warn("redis unavailable, falling back to in-memory rate limiter", logger.Err(err))
		} else {
			redisClient = c
			a.closers = append(a.closers, func() { _ = c.Close() })
		}
	}

	stores, checks, err := a.tokenStores(cfg, pgs, redisClient)
	if err != nil {
		a.Close()
		return nil, err
	}
	if pgs != nil {
		checks = append(checks, health.Check{Name: "postgres", Ping: pgs.Ping})
	}
	if redisClient != nil {
		checks = append(checks, health.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	clients, err := clientDirectory(cfg, pgs)
	if err != nil {
		a.Close()
		return nil, err
	}
	clients = cached.NewClientDirectory(clients, cfg.Durations.ClientsTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	m, err := metrics.New(reg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if pgs != nil {
		if err := m.RegisterPool(reg, pgs.Pool); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.Metrics = m

	a.Service = introspection.NewService(introspection.Deps{
		Stores: stores,
		Grants: introspection.Grants{
			ClientCredentials: cfg.GrantEnabled(config.GrantClientCredentials),
			RefreshToken:      cfg.GrantEnabled(config.GrantRefreshToken),
		},
		Clients:  clients,
		Masker:   subject.New(subject.Config{PairwiseSalt: cfg.Claims.PairwiseSalt}),
		Observer: m,
	})

	authCfg := clientauth.Config{
		Clients:   clients,
		Audiences: audiences(cfg),
	}
	if cfg.Security.SecretboxMasterKey != "" {
		box, err := secretbox.New(cfg.Security.SecretboxMasterKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("secretbox: %w", err)
		}
		authCfg.Secrets = box
	} else {
		log.Warn("SECRETBOX_MASTER_KEY not set: only clients with auth method none can authenticate")
	}

	a.Handler = router.New(router.Deps{
		IntrospectionPath: cfg.Introspection.Path,
		Introspect:        oauth.NewIntrospectController(a.Service),
		Authenticator:     clientauth.New(authCfg),
		Health:            health.NewHealthController(version, 2*time.Second, checks...),
		Metrics:           m,
		Limiter:           limiter(cfg, redisClient),
	})

	a.Server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Handler,
		ReadTimeout:       cfg.Durations.ReadTimeout,
		ReadHeaderTimeout: cfg.Durations.ReadTimeout,
		WriteTimeout:      cfg.Durations.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("app ready",
		logger.String("tokens_driver", cfg.Storage.Tokens.Driver),
		logger.String("clients_driver", cfg.Storage.Clients.Driver),
		logger.Path(cfg.Introspection.Path),
		logger.Any("grant_types", cfg.Introspection.GrantTypes),
	)
	return a, nil
}

// tokenStores arma un store por kind según el driver, más sus checks de /readyz.
func (a *App) tokenStores(cfg *config.Config, pgs *pg.Store, redisClient *rdb.Client) (introspection.Stores, []health.Check, error) {
	finders := map[repository.TokenKind]repository.TokenFinder{}

	switch cfg.Storage.Tokens.Driver {
	case "memory":
		ts := memory.NewTokenSet()
		if cfg.Storage.Tokens.File != "" {
			n, err := ts.LoadTokens(cfg.Storage.Tokens.File, cfg.Issuer)
			if err != nil {
				return introspection.Stores{}, nil, fmt.Errorf("seed tokens: %w", err)
			}
			logger.L().Info("memory token store seeded", logger.Any("tokens", n))
		}
		a.Tokens = ts
		for _, k := range repository.Kinds {
			finders[k] = ts.Store(k)
		}
	case "redis":
		if redisClient == nil {
			return introspection.Stores{}, nil, errors.New("redis token driver requires cache.redis.addr")
		}
		for _, k := range repository.Kinds {
			finders[k] = redisstore.NewTokenStore(redisClient, k, cfg.Cache.Redis.Prefix)
		}
	case "postgres":
		if pgs == nil {
			return introspection.Stores{}, nil, errors.New("postgres token driver requires storage.postgres.dsn")
		}
		for _, k := range repository.Kinds {
			finders[k] = pgs.Tokens(k)
		}
	default:
		return introspection.Stores{}, nil, fmt.Errorf("unknown token driver %q", cfg.Storage.Tokens.Driver)
	}

	var checks []health.Check
	for _, k := range repository.Kinds {
		if p, ok := finders[k].(repository.Pinger); ok {
			checks = append(checks, health.Check{Name: "tokens." + string(k), Ping: p.Ping})
		}
	}
	return introspection.Stores{
		AccessToken:       finders[repository.KindAccessToken],
		ClientCredentials: finders[repository.KindClientCredentials],
		RefreshToken:      finders[repository.KindRefreshToken],
	}, checks, nil
}

func clientDirectory(cfg *config.Config, pgs *pg.Store) (repository.ClientDirectory, error) {
	switch cfg.Storage.Clients.Driver {
	case "file":
		dir, err := memory.LoadClients(cfg.Storage.Clients.File)
		if err != nil {
			return nil, fmt.Errorf("load clients: %w", err)
		}
		logger.L().Info("client directory loaded", logger.Any("clients", dir.Len()))
		return dir, nil
	case "postgres":
		if pgs == nil {
			return nil, errors.New("postgres client driver requires storage.postgres.dsn")
		}
		return pgs.Clients(), nil
	}
	return nil, fmt.Errorf("unknown clients driver %q", cfg.Storage.Clients.Driver)
}

// audiences aceptadas en client_secret_jwt: el issuer y la URL del endpoint.
func audiences(cfg *config.Config) []string {
	iss := strings.TrimRight(cfg.Issuer, "/")
	return []string{iss, iss + cfg.Introspection.Path}
}

func limiter(cfg *config.Config, redisClient *rdb.Client) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	if redisClient != nil {
		return rate.NewRedisLimiter(redisClient, cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.MaxRequests, cfg.Durations.RateWindow)
	}
	return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Durations.RateWindow)
}

// Run sirve HTTP hasta que ctx se cancele y luego hace shutdown ordenado.
func (a *App) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("app"))
	errCh := make(chan error, 1)
	go func() {
		log.Info("introspection endpoint listening", logger.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close libera pools y clientes en orden inverso.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
