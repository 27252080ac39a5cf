package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process configuration
type Config struct {
	Port         int
	DBPath       string
	JWTSecret    string
	LogLevel     string
	LogFormat    string
	CatalogURL   string
	CatalogToken string
	CatalogFile  string
	BaseURL      string
	CORSOrigins  []string
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Port:        8081,
		DBPath:      "discround.db",
		LogLevel:    "info",
		LogFormat:   "text",
		CORSOrigins: []string{"*"},
	}
}

// Load reads an optional .env file and then the environment.
// Call Validate after applying command-line overrides.
func Load() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	cfg := Defaults()

	if v := os.Getenv("DISCROUND_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DISCROUND_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DISCROUND_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DISCROUND_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("DISCROUND_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.JWTSecret = os.Getenv("DISCROUND_JWT_SECRET")
	cfg.CatalogURL = os.Getenv("DISCROUND_CATALOG_URL")
	cfg.CatalogToken = os.Getenv("DISCROUND_CATALOG_TOKEN")
	cfg.CatalogFile = os.Getenv("DISCROUND_CATALOG_FILE")
	cfg.BaseURL = strings.TrimSuffix(os.Getenv("DISCROUND_BASE_URL"), "/")

	return cfg, nil
}

// Validate checks the final configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("DISCROUND_JWT_SECRET environment variable is not set")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.CatalogURL != "" && c.CatalogFile != "" {
		return fmt.Errorf("DISCROUND_CATALOG_URL and DISCROUND_CATALOG_FILE are mutually exclusive")
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
