package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Warehouse     WarehouseConfig
	Guard         GuardConfig
	Cache         CacheConfig
	Archive       ArchiveConfig
	AI            AIConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WarehouseConfig selects and bounds the relational data source. Driver is
// "pgx" for PostgreSQL/Redshift DSNs or "duckdb" for a local analytical file.
type WarehouseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// GuardConfig bounds what validated queries may do at runtime.
type GuardConfig struct {
	MaxRows       int
	ExecTimeout   time.Duration
	AllowlistPath string
}

type CacheConfig struct {
	TTL        time.Duration
	MaxSize    int
	SQLitePath string
}

// ArchiveConfig configures the Parquet audit archive in object storage.
type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
	FlushInterval    time.Duration
	BufferLimit      int
}

type AIConfig struct {
	TranslateEnabled bool
	BaseURL          string
	APIKey           string
	Model            string
	Temperature      float64
	Timeout          time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("INSIGHTGATE_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid INSIGHTGATE_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	stringKeys := []struct {
		key string
		dst *string
	}{
		{"INSIGHTGATE_SERVICE_NAME", &cfg.Service.Name},
		{"INSIGHTGATE_HTTP_ADDR", &cfg.HTTP.Address},
		{"INSIGHTGATE_WAREHOUSE_DRIVER", &cfg.Warehouse.Driver},
		{"INSIGHTGATE_WAREHOUSE_DSN", &cfg.Warehouse.DSN},
		{"INSIGHTGATE_ALLOWLIST_PATH", &cfg.Guard.AllowlistPath},
		{"INSIGHTGATE_CACHE_SQLITE_PATH", &cfg.Cache.SQLitePath},
		{"INSIGHTGATE_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint},
		{"INSIGHTGATE_ARCHIVE_REGION", &cfg.Archive.Region},
		{"INSIGHTGATE_ARCHIVE_BUCKET", &cfg.Archive.Bucket},
		{"INSIGHTGATE_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID},
		{"INSIGHTGATE_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey},
		{"INSIGHTGATE_ARCHIVE_PREFIX", &cfg.Archive.Prefix},
		{"INSIGHTGATE_AI_BASE_URL", &cfg.AI.BaseURL},
		{"INSIGHTGATE_AI_API_KEY", &cfg.AI.APIKey},
		{"INSIGHTGATE_AI_MODEL", &cfg.AI.Model},
		{"INSIGHTGATE_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys},
	}
	for _, item := range stringKeys {
		if err := applyString(lookup, item.key, item.dst); err != nil {
			return Config{}, err
		}
	}

	intKeys := []struct {
		key string
		dst *int
	}{
		{"INSIGHTGATE_WAREHOUSE_MAX_OPEN_CONNS", &cfg.Warehouse.MaxOpenConns},
		{"INSIGHTGATE_WAREHOUSE_MAX_IDLE_CONNS", &cfg.Warehouse.MaxIdleConns},
		{"INSIGHTGATE_GUARD_MAX_ROWS", &cfg.Guard.MaxRows},
		{"INSIGHTGATE_CACHE_MAX_SIZE", &cfg.Cache.MaxSize},
		{"INSIGHTGATE_ARCHIVE_BUFFER_LIMIT", &cfg.Archive.BufferLimit},
	}
	for _, item := range intKeys {
		if err := applyInt(lookup, item.key, item.dst); err != nil {
			return Config{}, err
		}
	}

	durationKeys := []struct {
		key string
		dst *time.Duration
	}{
		{"INSIGHTGATE_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"INSIGHTGATE_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"INSIGHTGATE_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"INSIGHTGATE_WAREHOUSE_CONN_MAX_IDLE_TIME", &cfg.Warehouse.ConnMaxIdleTime},
		{"INSIGHTGATE_WAREHOUSE_CONN_MAX_LIFETIME", &cfg.Warehouse.ConnMaxLifetime},
		{"INSIGHTGATE_GUARD_EXEC_TIMEOUT", &cfg.Guard.ExecTimeout},
		{"INSIGHTGATE_CACHE_TTL", &cfg.Cache.TTL},
		{"INSIGHTGATE_ARCHIVE_FLUSH_INTERVAL", &cfg.Archive.FlushInterval},
		{"INSIGHTGATE_AI_TIMEOUT", &cfg.AI.Timeout},
	}
	for _, item := range durationKeys {
		if err := applyDuration(lookup, item.key, item.dst); err != nil {
			return Config{}, err
		}
	}

	boolKeys := []struct {
		key string
		dst *bool
	}{
		{"INSIGHTGATE_ARCHIVE_ENABLED", &cfg.Archive.Enabled},
		{"INSIGHTGATE_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL},
		{"INSIGHTGATE_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket},
		{"INSIGHTGATE_AI_TRANSLATE_ENABLED", &cfg.AI.TranslateEnabled},
		{"INSIGHTGATE_LOG_JSON", &cfg.Observability.LogJSON},
		{"INSIGHTGATE_AUTH_REQUIRED", &cfg.Auth.Required},
	}
	for _, item := range boolKeys {
		if err := applyBool(lookup, item.key, item.dst); err != nil {
			return Config{}, err
		}
	}

	if err := applyFloat(lookup, "INSIGHTGATE_AI_TEMPERATURE", &cfg.AI.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "INSIGHTGATE_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Warehouse.Driver {
	case "pgx", "duckdb":
	default:
		return Config{}, fmt.Errorf("invalid INSIGHTGATE_WAREHOUSE_DRIVER: %q", cfg.Warehouse.Driver)
	}
	if cfg.Guard.MaxRows <= 0 {
		return Config{}, fmt.Errorf("guard max rows must be positive")
	}
	if cfg.Guard.ExecTimeout <= 0 {
		return Config{}, fmt.Errorf("guard exec timeout must be positive")
	}
	if cfg.Cache.MaxSize <= 0 {
		return Config{}, fmt.Errorf("cache max size must be positive")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "insightgate-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Warehouse: WarehouseConfig{
			Driver:          "duckdb",
			DSN:             "insightgate.duckdb",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Guard: GuardConfig{
			MaxRows:     100,
			ExecTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:     7 * 24 * time.Hour,
			MaxSize: 1000,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "insightgate-audit",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			AutoCreateBucket: true,
			FlushInterval:    time.Minute,
			BufferLimit:      10000,
		},
		AI: AIConfig{
			TranslateEnabled: false,
			BaseURL:          "https://api.openai.com",
			Model:            "gpt-4o-mini",
			Temperature:      0.1,
			Timeout:          15 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required: false,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Warehouse.DSN = ""
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Warehouse.Driver = "pgx"
		cfg.Warehouse.DSN = ""
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
