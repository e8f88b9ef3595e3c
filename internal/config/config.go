// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// Application defaults. The env-default tags on AppConfig must match them.
const (
	DefaultAppName   = "Modular Todo List API"
	DefaultVersion   = "1.0.0"
	DefaultAPIPrefix = "/api/v1"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
}

type AppConfig struct {
	Name        string `env:"PROJECT_NAME" env-default:"Modular Todo List API"`
	Version     string `env:"VERSION" env-default:"1.0.0"`
	APIPrefix   string `env:"API_V1_STR" env-default:"/api/v1"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"INFO"`
}

type ServerConfig struct {
	HTTPPort         string        `env:"HTTP_PORT" env-default:"8000"`
	GRPCPort         string        `env:"GRPC_PORT" env-default:"50051"`
	GRPCEnabled      bool          `env:"GRPC_ENABLED" env-default:"false"`
	EnableReflection bool          `env:"ENABLE_REFLECTION" env-default:"false"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" env-default:"15s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" env-default:"postgres"`
	Host            string        `env:"POSTGRES_HOST" env-required:"true"`
	Port            int           `env:"POSTGRES_PORT" env-default:"5432"`
	User            string        `env:"POSTGRES_USER" env-required:"true"`
	Password        string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName          string        `env:"POSTGRES_DB" env-required:"true"`
	SSLMode         string        `env:"POSTGRES_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

// Load reads the optional env file and then the process environment.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			var pe *os.PathError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("load env file %q: %w", envFile, err)
			}
			log.Printf("No %s file found", envFile)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

// LoadApp reads only the application and server sections. It is used by
// commands that never touch the database.
func LoadApp(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg.App); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg.Server); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot express as tags.
func (c *Config) Validate() error {
	var problems []string

	if !strings.HasPrefix(c.App.APIPrefix, "/") {
		problems = append(problems, "API_V1_STR must start with '/'")
	}

	switch c.Database.Driver {
	case DriverPQ, DriverPGX:
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	if c.Database.MaxOpenConns <= 0 {
		problems = append(problems, "DB_MAX_OPEN_CONNS must be positive")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		problems = append(problems, "DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if c.Server.ShutdownTimeout <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// DefaultApp is the application section as it reads from an empty
// environment.
func DefaultApp() AppConfig {
	return AppConfig{
		Name:        DefaultAppName,
		Version:     DefaultVersion,
		APIPrefix:   DefaultAPIPrefix,
		Environment: "development",
		LogLevel:    "INFO",
	}
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// DSN builds a postgres connection URL understood by both lib/pq and pgx.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
