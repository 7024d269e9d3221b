package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "aistudio.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AISTUDIO_PORT")
	setString(&cfg.Server.CORSOrigin, "AISTUDIO_CORS_ORIGIN")

	setString(&cfg.MasterDB.Host, "MASTER_DB_HOST")
	setInt(&cfg.MasterDB.Port, "MASTER_DB_PORT")
	setString(&cfg.MasterDB.User, "MASTER_DB_USER")
	setString(&cfg.MasterDB.Password, "MASTER_DB_PASSWORD")
	setString(&cfg.MasterDB.Database, "MASTER_DB_DATABASE")
	setInt32(&cfg.MasterDB.MaxConns, "AISTUDIO_PG_MAX_CONNS")
	setInt32(&cfg.MasterDB.MinConns, "AISTUDIO_PG_MIN_CONNS")
	setDuration(&cfg.MasterDB.MaxConnLifetime, "AISTUDIO_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.MasterDB.MaxConnIdleTime, "AISTUDIO_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.MasterDB.HealthCheck, "AISTUDIO_PG_HEALTH_CHECK")

	setInt32(&cfg.TenantPool.MaxConns, "AISTUDIO_TENANT_MAX_CONNS")
	setDuration(&cfg.TenantPool.IdleTTL, "AISTUDIO_TENANT_IDLE_TTL")
	setDuration(&cfg.TenantPool.SweepInterval, "AISTUDIO_TENANT_SWEEP_INTERVAL")
	setDuration(&cfg.TenantPool.ConnectTimeout, "AISTUDIO_TENANT_CONNECT_TIMEOUT")

	setString(&cfg.Migration.Mode, "AISTUDIO_MIGRATION_MODE")
	setString(&cfg.Migration.TenantDir, "AISTUDIO_MIGRATION_TENANT_DIR")
	setString(&cfg.Migration.GooseBin, "AISTUDIO_MIGRATION_GOOSE_BIN")
	setDuration(&cfg.Migration.Timeout, "AISTUDIO_MIGRATION_TIMEOUT")

	setBool(&cfg.Auth.Enabled, "AISTUDIO_AUTH_ENABLED")
	setString(&cfg.Auth.TokenSecret, "AISTUDIO_TOKEN_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "AISTUDIO_TOKEN_TTL")

	setInt64(&cfg.Cache.MaxSizeMB, "AISTUDIO_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "AISTUDIO_CACHE_TTL")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Logging.Level, "AISTUDIO_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AISTUDIO_LOG_SERVICE")

	setString(&cfg.Encryption.KeyEnv, "AISTUDIO_ENCRYPTION_KEY_ENV")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.MasterDB.Host == "" || cfg.MasterDB.Database == "" {
		return errors.New("master_db.host and master_db.database are required")
	}
	if cfg.MasterDB.Port < 1 || cfg.MasterDB.Port > 65535 {
		return errors.New("master_db.port must be in 1-65535")
	}
	if cfg.MasterDB.MaxConns < 1 {
		return errors.New("master_db.max_conns must be >= 1")
	}
	if cfg.TenantPool.MaxConns < 1 {
		return errors.New("tenant_pool.max_conns must be >= 1")
	}
	if cfg.Migration.Mode != "embedded" && cfg.Migration.Mode != "subprocess" {
		return fmt.Errorf("migration.mode %q must be embedded or subprocess", cfg.Migration.Mode)
	}
	if cfg.Auth.Enabled && cfg.Auth.TokenSecret == "" {
		return errors.New("auth.token_secret is required when auth is enabled")
	}
	return nil
}

// dsn renders a PostgreSQL connection URL from discrete parts.
func dsn(host string, port int, user, password, database string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(user), url.QueryEscape(password), host, port, database)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
