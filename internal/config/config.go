package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-coursepack/internal/platform/envutil"
)

type Config struct {
	Environment string          `yaml:"environment"`
	LogMode     string          `yaml:"log_mode"`
	Database    DatabaseConfig  `yaml:"database"`
	Paths       PathsConfig     `yaml:"paths"`
	Lock        LockConfig      `yaml:"lock"`
	Storage     StorageConfig   `yaml:"storage"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Limits      LimitsConfig    `yaml:"limits"`
}

type DatabaseConfig struct {
	Driver     string         `yaml:"driver" validate:"oneof=postgres sqlite"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type PathsConfig struct {
	UploadDir string `yaml:"upload_dir" validate:"required"`
	MediaRoot string `yaml:"media_root" validate:"required"`
	WorkDir   string `yaml:"work_dir"`
}

type LockConfig struct {
	Backend  string        `yaml:"backend" validate:"oneof=local redis"`
	RedisURL string        `yaml:"redis_url" validate:"required_if=Backend redis"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

type StorageConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Mode         string `yaml:"mode"`
	EmulatorHost string `yaml:"emulator_host"`
	CDNDomain    string `yaml:"cdn_domain"`
	Credentials  string `yaml:"credentials"`
}

type TelemetryConfig struct {
	ServiceName     string  `yaml:"service_name"`
	OtelEnabled     bool    `yaml:"otel_enabled"`
	OtelEndpoint    string  `yaml:"otel_endpoint"`
	OtelHeaders     string  `yaml:"otel_headers"`
	OtelInsecure    bool    `yaml:"otel_insecure"`
	SampleRatio     float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
	MetricsTextfile string  `yaml:"metrics_textfile"`
}

type LimitsConfig struct {
	MaxFiles int   `yaml:"max_files" validate:"gte=0"`
	MaxBytes int64 `yaml:"max_bytes" validate:"gte=0"`
}

func Defaults() Config {
	return Config{
		Environment: "development",
		LogMode:     "dev",
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "coursepack.db",
			Postgres:   PostgresConfig{Host: "localhost", Port: "5432", SSLMode: "disable"},
		},
		Paths: PathsConfig{
			UploadDir: "upload",
			MediaRoot: "media",
		},
		Lock:      LockConfig{Backend: "local", TTL: 2 * time.Minute},
		Telemetry: TelemetryConfig{ServiceName: "coursepack", SampleRatio: 0.1},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $COURSEPACK_CONFIG when path is empty) and environment overrides, in that
// order.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		path = envutil.String("COURSEPACK_CONFIG", "")
	}
	if path != "" {
		// #nosec G304 -- config path is operator-provided.
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	db := &cfg.Database
	db.Driver = strings.ToLower(envutil.String("DB_DRIVER", db.Driver))
	db.SQLitePath = envutil.String("SQLITE_PATH", db.SQLitePath)
	db.Postgres.DSN = envutil.String("POSTGRES_DSN", db.Postgres.DSN)
	db.Postgres.Host = envutil.String("POSTGRES_HOST", db.Postgres.Host)
	db.Postgres.Port = envutil.String("POSTGRES_PORT", db.Postgres.Port)
	db.Postgres.User = envutil.String("POSTGRES_USER", db.Postgres.User)
	db.Postgres.Password = envutil.String("POSTGRES_PASSWORD", db.Postgres.Password)
	db.Postgres.Name = envutil.String("POSTGRES_NAME", db.Postgres.Name)
	db.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", db.Postgres.SSLMode)

	cfg.Paths.UploadDir = envutil.String("COURSE_UPLOAD_DIR", cfg.Paths.UploadDir)
	cfg.Paths.MediaRoot = envutil.String("MEDIA_ROOT", cfg.Paths.MediaRoot)
	cfg.Paths.WorkDir = envutil.String("WORK_DIR", cfg.Paths.WorkDir)

	cfg.Lock.Backend = strings.ToLower(envutil.String("LOCK_BACKEND", cfg.Lock.Backend))
	cfg.Lock.RedisURL = envutil.String("REDIS_URL", cfg.Lock.RedisURL)
	cfg.Lock.TTL = envutil.Duration("LOCK_TTL", cfg.Lock.TTL)

	cfg.Storage.Bucket = envutil.String("COURSE_GCS_BUCKET_NAME", cfg.Storage.Bucket)
	cfg.Storage.Prefix = envutil.String("COURSE_GCS_PREFIX", cfg.Storage.Prefix)
	cfg.Storage.Mode = envutil.String("OBJECT_STORAGE_MODE", cfg.Storage.Mode)
	cfg.Storage.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", cfg.Storage.EmulatorHost)
	cfg.Storage.CDNDomain = envutil.String("COURSE_CDN_DOMAIN", cfg.Storage.CDNDomain)

	t := &cfg.Telemetry
	t.ServiceName = envutil.String("OTEL_SERVICE_NAME", t.ServiceName)
	t.OtelEnabled = envutil.Bool("OTEL_ENABLED", t.OtelEnabled)
	t.OtelEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", t.OtelEndpoint)
	t.OtelHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", t.OtelHeaders)
	t.OtelInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", t.OtelInsecure)
	t.SampleRatio = envutil.Float64("OTEL_SAMPLER_RATIO", t.SampleRatio)
	t.MetricsTextfile = envutil.String("METRICS_TEXTFILE", t.MetricsTextfile)

	cfg.Limits.MaxFiles = envutil.Int("ARCHIVE_MAX_FILES", cfg.Limits.MaxFiles)
	cfg.Limits.MaxBytes = envutil.Int64("ARCHIVE_MAX_BYTES", cfg.Limits.MaxBytes)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(databaseStructValidation, DatabaseConfig{})
	return v
}

// databaseStructValidation requires either a DSN or host+name for postgres.
func databaseStructValidation(sl validator.StructLevel) {
	db, ok := sl.Current().Interface().(DatabaseConfig)
	if !ok || db.Driver != "postgres" {
		return
	}
	pg := db.Postgres
	if strings.TrimSpace(pg.DSN) != "" {
		return
	}
	if strings.TrimSpace(pg.Host) == "" {
		sl.ReportError(pg.Host, "Postgres.Host", "Host", "required_without_dsn", "")
	}
	if strings.TrimSpace(pg.Name) == "" {
		sl.ReportError(pg.Name, "Postgres.Name", "Name", "required_without_dsn", "")
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: failed %s", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
}
