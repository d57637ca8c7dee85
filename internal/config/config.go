package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Storage backends supported by the key-value collaborator.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the full service configuration, loaded once at startup.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Seed      bool            `yaml:"seed"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr renders the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds the Postgres DSN.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// RateLimitConfig throttles the login endpoint per client IP.
type RateLimitConfig struct {
	LoginBurst     int `yaml:"login_burst"`
	LoginPerSecond int `yaml:"login_per_second"`
}

// Default returns the configuration used when no file or overrides are given.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "", Port: 8080},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379", PoolSize: 10},
		},
		RateLimit: RateLimitConfig{LoginBurst: 5, LoginPerSecond: 2},
		Seed:      true,
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides, then validates the result. An empty path skips the
// file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRANSLOGICA_HTTP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRANSLOGICA_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRANSLOGICA_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("TRANSLOGICA_PG_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("TRANSLOGICA_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("TRANSLOGICA_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("TRANSLOGICA_SEED"); v != "" {
		if seed, err := strconv.ParseBool(v); err == nil {
			cfg.Seed = seed
		}
	}
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return fmt.Errorf("storage backend %s requires redis addr", BackendRedis)
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
			return fmt.Errorf("storage backend %s requires a dsn", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.RateLimit.LoginBurst <= 0 || c.RateLimit.LoginPerSecond <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	return nil
}
