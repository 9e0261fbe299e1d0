package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionBackendBolt  = "bolt"
	SessionBackendRedis = "redis"

	minSecretLength = 32
	devSecret       = "pendientes-development-secret-do-not-use"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string           `yaml:"app_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Database    DatabaseConfig   `yaml:"database"`
	Session     SessionConfig    `yaml:"session"`
	Redis       RedisConfig      `yaml:"redis"`
	Context     ContextConfig    `yaml:"context"`
	Logger      LoggerConfig     `yaml:"logger"`
	Migrations  MigrationsConfig `yaml:"migrations"`
	Monitor     MonitorConfig    `yaml:"monitor"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Path            string        `yaml:"path"`
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	SSLMode         string        `yaml:"sslmode"`
}

type SessionConfig struct {
	Backend         string        `yaml:"backend"`
	Path            string        `yaml:"path"`
	Secret          string        `yaml:"secret"`
	CookieName      string        `yaml:"cookie_name"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ContextConfig struct {
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type MigrationsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from environment variables (optionally .env and a
// YAML file named by CONFIG_FILE) on top of defaults. Environment variables win
// over the file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		AppName:     "pendientes",
		Environment: "development",
		HTTP: HTTPConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			Path:            "./data/tareas.db",
			Host:            "localhost",
			Port:            "5432",
			Name:            "pendientes",
			User:            "pendientes",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			MaxConnLifetime: time.Hour,
			SSLMode:         "disable",
		},
		Session: SessionConfig{
			Backend:         SessionBackendBolt,
			Path:            "./data/sessions.db",
			CookieName:      "pendientes_session",
			TTL:             7 * 24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379",
		},
		Context: ContextConfig{
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "json",
		},
		Migrations: MigrationsConfig{Enabled: true},
		Monitor:    MonitorConfig{Interval: 30 * time.Second},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	content := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(content), c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.AppName = getString("APP_NAME", c.AppName)
	c.Environment = getString("APP_ENV", c.Environment)

	c.HTTP.Host = getString("SERVER_HOST", c.HTTP.Host)
	c.HTTP.Port = getString("SERVER_PORT", c.HTTP.Port)
	c.HTTP.ReadTimeout = getDuration("SERVER_READ_TIMEOUT", c.HTTP.ReadTimeout)
	c.HTTP.WriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", c.HTTP.WriteTimeout)
	c.HTTP.IdleTimeout = getDuration("SERVER_IDLE_TIMEOUT", c.HTTP.IdleTimeout)

	c.Database.Driver = strings.ToLower(getString("DB_DRIVER", c.Database.Driver))
	c.Database.Path = getString("SQLITE_PATH", c.Database.Path)
	c.Database.URL = getString("DATABASE_URL", c.Database.URL)
	c.Database.Host = getString("DB_HOST", c.Database.Host)
	c.Database.Port = getString("DB_PORT", c.Database.Port)
	c.Database.Name = getString("DB_NAME", c.Database.Name)
	c.Database.User = getString("DB_USER", c.Database.User)
	c.Database.Password = getString("DB_PASSWORD", c.Database.Password)
	c.Database.MaxOpenConns = getInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.MaxConnLifetime = getDuration("DB_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.SSLMode = getString("DB_SSLMODE", c.Database.SSLMode)

	c.Session.Backend = strings.ToLower(getString("SESSION_BACKEND", c.Session.Backend))
	c.Session.Path = getString("SESSION_DB_PATH", c.Session.Path)
	c.Session.Secret = getString("SECRET_KEY", c.Session.Secret)
	c.Session.CookieName = getString("SESSION_COOKIE_NAME", c.Session.CookieName)
	c.Session.CookieSecure = getBool("SESSION_COOKIE_SECURE", c.Session.CookieSecure)
	c.Session.TTL = getDuration("SESSION_TTL", c.Session.TTL)
	c.Session.CleanupInterval = getDuration("SESSION_CLEANUP_INTERVAL", c.Session.CleanupInterval)

	c.Redis.URL = getString("REDIS_URL", c.Redis.URL)
	c.Redis.Password = getString("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getInt("REDIS_DB", c.Redis.DB)

	c.Context.RequestTimeout = getDuration("REQUEST_TIMEOUT_SECONDS", c.Context.RequestTimeout)
	c.Context.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT_SECONDS", c.Context.ShutdownTimeout)

	c.Logger.Level = getString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Encoding = getString("LOG_ENCODING", c.Logger.Encoding)

	c.Migrations.Enabled = getBool("RUN_MIGRATIONS", c.Migrations.Enabled)
	c.Monitor.Interval = getDuration("MONITOR_INTERVAL", c.Monitor.Interval)
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Session.Backend {
	case SessionBackendBolt, SessionBackendRedis:
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.Session.Backend)
	}

	if c.Session.Secret == "" {
		if c.IsProduction() {
			return errors.New("SECRET_KEY is required in production")
		}
		c.Session.Secret = devSecret
	}
	if len(c.Session.Secret) < minSecretLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretLength)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// PostgresURL returns the explicit DATABASE_URL or one assembled from parts.
func (c DatabaseConfig) PostgresURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
