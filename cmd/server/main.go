// Command server runs the warekit administration API: tenant provisioning
// on the central database and per-tenant configuration (roles, teams,
// templates, settings) routed to each tenant's own database.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/warekit/warekit/modules/roles"
	"github.com/warekit/warekit/modules/settings"
	"github.com/warekit/warekit/modules/teams"
	"github.com/warekit/warekit/modules/templates"
	"github.com/warekit/warekit/modules/tenants"
	"github.com/warekit/warekit/pkg/config"
	"github.com/warekit/warekit/pkg/email"
	"github.com/warekit/warekit/pkg/httpserver"
	"github.com/warekit/warekit/pkg/logger"
	"github.com/warekit/warekit/pkg/mongodb"
	"github.com/warekit/warekit/pkg/redis"
	"github.com/warekit/warekit/pkg/requestid"
	"github.com/warekit/warekit/pkg/secrets"
	"github.com/warekit/warekit/pkg/tenant"
)

type appConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// SecretsKey is the base64-encoded application key that tenant secret
	// encryption keys are derived from.
	SecretsKey string `env:"SECRETS_APP_KEY,required"`

	// TenantCacheRedis switches the tenant connection cache from the
	// in-process map to Redis. Use it when running more than one node.
	TenantCacheRedis    bool          `env:"TENANT_CACHE_REDIS" envDefault:"false"`
	TenantCacheRedisTTL time.Duration `env:"TENANT_CACHE_REDIS_TTL" envDefault:"10m"`

	HTTP  httpserver.Config
	Mongo mongodb.Config
	Redis redis.Config
	Email email.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithLevel(parseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithExtractors(tenant.LoggerExtractor(), requestid.LoggerExtractor()),
	)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	vault, err := secrets.NewVaultFromBase64(cfg.SecretsKey)
	if err != nil {
		return err
	}

	dbs := mongodb.NewFactory(cfg.Mongo)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := dbs.Close(closeCtx); err != nil {
			log.Error("failed to close database clients", "error", err)
		}
	}()

	store := tenants.NewStore(dbs)

	registryOpts := []tenant.RegistryOption{tenant.WithLogger(log)}
	if cfg.TenantCacheRedis {
		redisClient, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		registryOpts = append(registryOpts,
			tenant.WithCache(tenant.NewRedisCache(redisClient, cfg.TenantCacheRedisTTL)))
		log.Info("tenant cache backed by redis", "ttl", cfg.TenantCacheRedisTTL)
	}
	registry := tenant.NewRegistry(store, registryOpts...)
	defer func() { _ = registry.Close() }()

	sender, err := buildSender(cfg.Email, log)
	if err != nil {
		return err
	}

	tenantsSvc := tenants.NewService(dbs, registry, log)
	rolesSvc := roles.NewService(dbs, log)
	teamsSvc := teams.NewService(dbs, log)
	templatesSvc := templates.NewService(dbs, sender, log)
	settingsSvc := settings.NewService(dbs, vault, log)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestid.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(tenant.Middleware(registry, cfg.Mongo.CentralBinding(),
		tenant.WithCentralPaths("/v1/tenants", "/healthz"),
		tenant.WithMiddlewareLogger(log),
	))

	r.Get("/healthz", httpserver.HealthCheckHandler(log, mongodb.Healthcheck(dbs)))
	r.Route("/v1", func(r chi.Router) {
		r.Mount("/tenants", tenantsSvc.Handle())
		r.Mount("/roles", rolesSvc.Handle())
		r.Mount("/teams", teamsSvc.Handle())
		r.Mount("/templates", templatesSvc.Handle())
		r.Mount("/settings", settingsSvc.Handle())
	})

	log.Info("starting server", "addr", cfg.HTTP.Addr)
	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}

// buildSender picks Postmark when tokens are configured and falls back to
// the filesystem sender for local development.
func buildSender(cfg email.Config, log *slog.Logger) (email.Sender, error) {
	if cfg.PostmarkServerToken != "" && cfg.PostmarkAccountToken != "" {
		return email.NewPostmarkSender(cfg)
	}
	log.Warn("postmark tokens not set, writing emails to disk", "dir", cfg.DevOutputDir)
	return email.NewDevSender(cfg.DevOutputDir), nil
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
