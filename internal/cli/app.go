package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"task-planner/backend/internal/cache"
	"task-planner/backend/internal/config"
	"task-planner/backend/internal/database"
	"task-planner/backend/internal/store"
	"task-planner/backend/internal/store/gormstore"
	"task-planner/backend/internal/store/mongostore"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func gormLogLevel(cfg *config.Config) logger.LogLevel {
	if cfg.LogLevel() <= slog.LevelDebug {
		return logger.Info
	}
	return logger.Warn
}

// backend is an opened store plus the engine-specific schema step.
type backend struct {
	store.Store
	migrate func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	log = log.With("driver", cfg.Database.Driver)

	switch cfg.Database.Driver {
	case "mongo":
		st, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
		if err != nil {
			return nil, err
		}
		return &backend{Store: st, migrate: st.EnsureIndexes}, nil

	case database.DriverPostgres, database.DriverSQLite:
		pool, err := database.NewDatabasePool(&database.PoolConfig{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.GetDatabaseDSN(),
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			LogLevel:        gormLogLevel(cfg),
		})
		if err != nil {
			return nil, err
		}
		st := gormstore.New(pool.DB, log)
		return &backend{
			Store:   st,
			migrate: func(context.Context) error { return st.AutoMigrate() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}

// openRedis returns nil when Redis is disabled.
func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client := cache.NewRedisClient(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.GetRedisAddr(), err)
	}
	return client, nil
}
