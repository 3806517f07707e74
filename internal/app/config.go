package app

import (
	"github.com/yungbote/neurobridge-coursepack/internal/config"
	"github.com/yungbote/neurobridge-coursepack/internal/data/db"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/archive"
	"github.com/yungbote/neurobridge-coursepack/internal/observability"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/locks"
)

// Version is stamped at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

func otelConfig(cfg config.Config) observability.OtelConfig {
	t := cfg.Telemetry
	return observability.OtelConfig{
		Enabled:     t.OtelEnabled,
		ServiceName: t.ServiceName,
		Environment: cfg.Environment,
		Version:     Version,
		Endpoint:    t.OtelEndpoint,
		Headers:     t.OtelHeaders,
		Insecure:    t.OtelInsecure,
		SampleRatio: t.SampleRatio,
	}
}

func postgresConfig(cfg config.Config) db.PostgresConfig {
	pg := cfg.Database.Postgres
	return db.PostgresConfig{
		DSN:      pg.DSN,
		Host:     pg.Host,
		Port:     pg.Port,
		User:     pg.User,
		Password: pg.Password,
		Name:     pg.Name,
		SSLMode:  pg.SSLMode,
	}
}

func archiveLimits(cfg config.Config) archive.Limits {
	return archive.Limits{MaxFiles: cfg.Limits.MaxFiles, MaxBytes: cfg.Limits.MaxBytes}
}

func redisLockOptions(cfg config.Config) locks.RedisOptions {
	return locks.RedisOptions{TTL: cfg.Lock.TTL}
}

// metricsWanted reports whether upload metrics should be collected at all.
func metricsWanted(cfg config.Config) bool {
	return observability.Enabled() || cfg.Telemetry.MetricsTextfile != ""
}
