package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// ServerConfig configures the tier that owns the business rules and the store.
type ServerConfig struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

type HTTPConfig struct {
	Port                int `yaml:"port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

type GRPCConfig struct {
	Enabled    bool      `yaml:"enabled"`
	Port       int       `yaml:"port"`
	Reflection bool      `yaml:"reflection"`
	TLS        TLSConfig `yaml:"tls"`
	// HealthIntervalSeconds controls how often the store is pinged to
	// refresh the health status.
	HealthIntervalSeconds int `yaml:"health_interval_seconds"`
}

type TLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

// RateLimitConfig is a token bucket per acting user.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GatewayConfig configures the validating front tier.
type GatewayConfig struct {
	HTTP           HTTPConfig             `yaml:"http"`
	ServerURL      string                 `yaml:"server_url"`
	TimeoutSeconds int                    `yaml:"timeout_seconds"`
	RateLimit      GatewayRateLimitConfig `yaml:"rate_limit"`
}

// GatewayRateLimitConfig is a fixed window shared between gateway replicas
// through Redis.
type GatewayRateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

type DatabaseConfig struct {
	Driver         string         `yaml:"driver"`
	Path           string         `yaml:"path"`
	Postgres       PostgresConfig `yaml:"postgres"`
	ConnectRetries int            `yaml:"connect_retries"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN renders the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", p.Host),
		fmt.Sprintf("port=%d", p.Port),
		fmt.Sprintf("dbname=%s", p.DBName),
		fmt.Sprintf("sslmode=%s", p.SSLMode),
	}
	if p.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", p.User))
	}
	if p.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", p.Password))
	}
	return strings.Join(parts, " ")
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables may come from the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite3")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("database.postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	u, err := url.Parse(c.Gateway.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("gateway.server_url must be an absolute http(s) URL, got %q", c.Gateway.ServerURL)
	}

	if c.Server.RateLimit.RPS < 0 {
		return errors.New("server.rate_limit.rps must not be negative")
	}
	if c.Gateway.RateLimit.Requests < 0 || c.Gateway.RateLimit.WindowSeconds < 0 {
		return errors.New("gateway.rate_limit values must not be negative")
	}

	if c.Backup.Enabled && c.Database.Driver != DriverSQLite {
		return errors.New("backup is only supported for the sqlite3 driver")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}

	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 9090
	}
	if c.Server.HTTP.ReadTimeoutSeconds == 0 {
		c.Server.HTTP.ReadTimeoutSeconds = 5
	}
	if c.Server.HTTP.WriteTimeoutSeconds == 0 {
		c.Server.HTTP.WriteTimeoutSeconds = 15
	}
	if c.Server.GRPC.Port == 0 {
		c.Server.GRPC.Port = 9190
	}
	if c.Server.GRPC.HealthIntervalSeconds == 0 {
		c.Server.GRPC.HealthIntervalSeconds = 15
	}
	if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 5
	}

	if c.Gateway.HTTP.Port == 0 {
		c.Gateway.HTTP.Port = 8080
	}
	if c.Gateway.HTTP.ReadTimeoutSeconds == 0 {
		c.Gateway.HTTP.ReadTimeoutSeconds = 5
	}
	if c.Gateway.HTTP.WriteTimeoutSeconds == 0 {
		c.Gateway.HTTP.WriteTimeoutSeconds = 15
	}
	if c.Gateway.ServerURL == "" {
		c.Gateway.ServerURL = fmt.Sprintf("http://localhost:%d", c.Server.HTTP.Port)
	}
	c.Gateway.ServerURL = strings.TrimRight(c.Gateway.ServerURL, "/")
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 10
	}
	if c.Gateway.RateLimit.Requests > 0 && c.Gateway.RateLimit.WindowSeconds == 0 {
		c.Gateway.RateLimit.WindowSeconds = 60
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "data/shareit.db"
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.Database.ConnectRetries == 0 {
		c.Database.ConnectRetries = 5
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9100
	}
}
