package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-planner/backend/internal/cache"
	"task-planner/backend/internal/config"
	"task-planner/backend/internal/middleware"
	"task-planner/backend/internal/monitoring"
	"task-planner/backend/internal/server"
	"task-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log, migrate)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.limiter != nil {
				go a.limiter.Run(ctx, cfg.RateLimit.CleanupInterval)
			}
			if a.cache != nil {
				go a.cache.RunJanitor(ctx, cfg.Cache.L1TTL)
				go a.cached.RetryInvalidations(ctx, cfg.Cache.L1TTL)
			}
			return server.Run(ctx, cfg, a.router, log)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "run schema migrations before serving")
	return cmd
}

type app struct {
	router  *gin.Engine
	limiter *middleware.IPRateLimiter
	cache   *cache.MultiLevelCache
	cached  *services.CachedPlannerService
	store   *backend
	redis   *redis.Client
	planner services.Planner
	log     *slog.Logger
}

// newApp opens every dependency and builds the router. A configured but
// unreachable Redis is logged and replaced by in-process token and cache
// storage.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (*app, error) {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := st.migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, using in-process storage", "error", err)
		rdb = nil
	}

	monitor := monitoring.NewMonitor(5 * time.Second)
	monitor.RegisterHealthCheck("database", st.Ping)

	var tokens services.TokenStore = services.NewMemoryTokenStore()
	if rdb != nil {
		tokens = services.NewRedisTokenStore(rdb)
		monitor.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	auth := services.NewAuthService(st, tokens, services.AuthConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.JWTIssuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		BCryptCost: cfg.Auth.BCryptCost,
	})

	var mlc *cache.MultiLevelCache
	var cached *services.CachedPlannerService
	var planner services.Planner = services.NewPlannerService(st,
		services.WithLocation(cfg.Location()),
		services.WithLogger(log),
	)
	if cfg.Cache.Enabled {
		var l2 cache.Cache
		if rdb != nil {
			l2 = cache.NewRedisCache(rdb)
		}
		mlc = cache.NewMultiLevelCache(l2,
			cache.WithL1TTL(cfg.Cache.L1TTL),
			cache.WithLogger(log.With("component", "cache")),
		)
		cached = services.NewCachedPlannerService(planner, mlc, cfg.Cache.TTL, log)
		planner = cached
		monitor.RegisterStats("cache", mlc.Stats)
	}

	limiter := server.NewRateLimiter(cfg.RateLimit)
	return &app{
		router: server.NewRouter(server.Deps{
			Config:      cfg,
			Logger:      log,
			Planner:     planner,
			Auth:        auth,
			Monitor:     monitor,
			RateLimiter: limiter,
		}),
		limiter: limiter,
		cache:   mlc,
		cached:  cached,
		store:   st,
		redis:   rdb,
		planner: planner,
		log:     log,
	}, nil
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("closing redis", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store", "error", err)
	}
}
