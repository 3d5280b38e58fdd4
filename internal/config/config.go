// Package config loads the service settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	GRPCToken      string
	DBDriver       string
	DBPath         string
	SeedOnStart    bool
	RabbitURL      string
	RabbitExchange string
	LogLevel       string
	LogFormat      string
	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	AdminEmail     string
	AdminPassword  string
	ShutdownGrace  time.Duration
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       getEnv("BOOKSHOP_HTTP_ADDR", ":8080"),
		GRPCAddr:       getEnv("BOOKSHOP_GRPC_ADDR", "127.0.0.1:50051"),
		GRPCToken:      getEnv("BOOKSHOP_GRPC_TOKEN", ""),
		DBDriver:       getEnv("BOOKSHOP_DB_DRIVER", "sqlite"),
		DBPath:         getEnv("BOOKSHOP_DB_PATH", "./data/bookshop.db"),
		RabbitURL:      getEnv("RABBIT_URL", ""),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "bookshop.events"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "auto"),
		CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
	}

	var err error
	if cfg.SeedOnStart, err = strconv.ParseBool(getEnv("BOOKSHOP_SEED", "false")); err != nil {
		return nil, fmt.Errorf("BOOKSHOP_SEED: %w", err)
	}
	if cfg.RateLimit, err = strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "120")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS: %w", err)
	}
	if cfg.RateWindow, err = time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.ShutdownGrace, err = time.ParseDuration(getEnv("SHUTDOWN_GRACE", "10s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_GRACE: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return fmt.Errorf("rate limit must be positive (got %d per %s)", c.RateLimit, c.RateWindow)
	}
	if c.GRPCToken == "" && !isLoopback(c.GRPCAddr) {
		return fmt.Errorf("BOOKSHOP_GRPC_TOKEN is required when gRPC listens on %q", c.GRPCAddr)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// isLoopback reports whether addr only accepts local connections.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
