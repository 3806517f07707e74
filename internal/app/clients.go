package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-coursepack/internal/config"
	"github.com/yungbote/neurobridge-coursepack/internal/data/db"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/gcp"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/locks"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type Clients struct {
	DB     *gorm.DB
	Locker locks.Locker
	Bucket gcp.BucketService

	redis *locks.Redis
}

func openDB(log *logger.Logger, cfg config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pg, err := db.NewPostgresService(postgresConfig(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return pg.DB(), nil
	case "sqlite":
		lite, err := db.NewSQLiteService(cfg.Database.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return lite.DB(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func wireClients(ctx context.Context, log *logger.Logger, cfg config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	theDB, err := openDB(log, cfg)
	if err != nil {
		return Clients{}, err
	}
	c := Clients{DB: theDB}

	switch cfg.Lock.Backend {
	case "redis":
		r, err := locks.NewRedisFromURL(ctx, cfg.Lock.RedisURL, log, redisLockOptions(cfg))
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init redis locker: %w", err)
		}
		c.redis = r
		c.Locker = r
	default:
		c.Locker = locks.NewLocal()
	}

	bucket, err := resolveBucketService(ctx, log, cfg.Storage)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Bucket = bucket
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
