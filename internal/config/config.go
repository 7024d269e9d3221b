// Package config provides hierarchical configuration loading for the
// AI Studio control plane. Precedence: defaults < YAML file < environment
// variables.
package config

import "time"

// Config holds all runtime configuration for the control-plane service.
type Config struct {
	Server     Server     `yaml:"server"`
	MasterDB   MasterDB   `yaml:"master_db"`
	TenantPool TenantPool `yaml:"tenant_pool"`
	Migration  Migration  `yaml:"migration"`
	Auth       Auth       `yaml:"auth"`
	Cache      Cache      `yaml:"cache"`
	NATS       NATS       `yaml:"nats"`
	Logging    Logging    `yaml:"logging"`
	Encryption Encryption `yaml:"encryption"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// MasterDB holds the master PostgreSQL connection configuration. The
// master pool is also the privileged connection the provisioner uses for
// role and database DDL.
type MasterDB struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// TenantPool holds per-tenant connection pool configuration.
type TenantPool struct {
	MaxConns       int32         `yaml:"max_conns"`      // per tenant database
	IdleTTL        time.Duration `yaml:"idle_ttl"`       // evict a tenant pool after this much inactivity
	SweepInterval  time.Duration `yaml:"sweep_interval"` // how often the evictor runs
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Migration holds tenant schema migration configuration.
type Migration struct {
	Mode      string        `yaml:"mode"`       // "embedded" (in-process goose) or "subprocess"
	TenantDir string        `yaml:"tenant_dir"` // migration set for tenant databases (subprocess mode)
	GooseBin  string        `yaml:"goose_bin"`  // goose executable (subprocess mode)
	Timeout   time.Duration `yaml:"timeout"`    // upper bound per migration run; no implicit retry
}

// Auth holds system-user authentication configuration.
type Auth struct {
	Enabled     bool          `yaml:"enabled"`
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

// Cache holds the tenant lookup cache configuration.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
}

// NATS holds tenant lifecycle event publishing configuration. Leave URL
// empty to disable event publishing.
type NATS struct {
	URL string `yaml:"url"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Encryption holds at-rest encryption settings for tenant database
// passwords in the registry. Leave the key env unset to store plaintext
// (not recommended outside local development).
type Encryption struct {
	KeyEnv string `yaml:"key_env"` // name of the env var holding the base64 AES-256 key
}

// MasterDSN renders the master database connection URL.
func (m MasterDB) MasterDSN() string {
	return dsn(m.Host, m.Port, m.User, m.Password, m.Database)
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "3333",
			CORSOrigin: "http://localhost:3000",
		},
		MasterDB: MasterDB{
			Host:            "127.0.0.1",
			Port:            5432,
			User:            "root",
			Password:        "root",
			Database:        "ai_studio_master",
			MaxConns:        15,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		TenantPool: TenantPool{
			MaxConns:       5,
			IdleTTL:        15 * time.Minute,
			SweepInterval:  time.Minute,
			ConnectTimeout: 10 * time.Second,
		},
		Migration: Migration{
			Mode:      "embedded",
			TenantDir: "migrations/tenant",
			GooseBin:  "goose",
			Timeout:   5 * time.Minute,
		},
		Auth: Auth{
			Enabled:  true,
			TokenTTL: time.Hour,
		},
		Cache: Cache{
			MaxSizeMB: 16,
			TTL:       30 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "ai-studio-api",
		},
		Encryption: Encryption{
			KeyEnv: "AISTUDIO_ENCRYPTION_KEY",
		},
	}
}
