package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Feedback backends.
const (
	BackendSQLite   = "sqlite"
	BackendJSON     = "json"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

// Config is the typed application configuration.
type Config struct {
	Database  DatabaseConfig
	Feedback  FeedbackConfig
	Server     ServerConfig
	Estimator  EstimatorConfig
	Classifier ClassifierConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// FeedbackConfig selects and configures the feedback backend.
type FeedbackConfig struct {
	Backend             string
	JSONPath            string
	PostgresDSN         string
	PostgresMaxConn     int
	PostgresMaxIdleConn int
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host           string
	AllowedOrigins []string
	Port           int
	RateLimit      float64
	Burst          int
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EstimatorConfig holds the estimation knobs operators may tune.
type EstimatorConfig struct {
	ExtraConstant float64
	AllowanceCm   float64
}

// ClassifierConfig adds keywords to the built-in dictionary, keyed by category.
type ClassifierConfig struct {
	Keywords map[model.Category][]string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/weightbot/weightbot.db")
	v.SetDefault("feedback.backend", BackendSQLite)
	v.SetDefault("feedback.json_path", "$HOME/.local/share/weightbot/feedback.json")
	v.SetDefault("feedback.postgres_max_conn", 10)
	v.SetDefault("feedback.postgres_max_idle_conn", 5)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("estimator.extra_constant", 0.1)
	v.SetDefault("estimator.allowance_cm", 0.0)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applying defaults for unset keys.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Feedback: FeedbackConfig{
			Backend:             strings.ToLower(strings.TrimSpace(v.GetString("feedback.backend"))),
			JSONPath:            ExpandPath(v.GetString("feedback.json_path")),
			PostgresDSN:         v.GetString("feedback.postgres_dsn"),
			PostgresMaxConn:     v.GetInt("feedback.postgres_max_conn"),
			PostgresMaxIdleConn: v.GetInt("feedback.postgres_max_idle_conn"),
		},
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
			RateLimit:      v.GetFloat64("server.rate_limit"),
			Burst:          v.GetInt("server.burst"),
		},
		Estimator: EstimatorConfig{
			ExtraConstant: v.GetFloat64("estimator.extra_constant"),
			AllowanceCm:   v.GetFloat64("estimator.allowance_cm"),
		},
		Classifier: ClassifierConfig{
			Keywords: make(map[model.Category][]string),
		},
	}

	for name, words := range v.GetStringMapStringSlice("classifier.keywords") {
		category, ok := model.ParseCategory(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("%w: classifier.keywords: unknown category %q", common.ErrInvalidConfig, name)
		}
		cfg.Classifier.Keywords[category] = words
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Feedback.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case BackendJSON:
		if c.Feedback.JSONPath == "" {
			return fmt.Errorf("%w: feedback.json_path", common.ErrMissingConfig)
		}
	case BackendPostgres:
		if c.Feedback.PostgresDSN == "" {
			return fmt.Errorf("%w: feedback.postgres_dsn", common.ErrMissingConfig)
		}
	case BackendSheets:
	default:
		return fmt.Errorf("%w: unknown feedback backend %q", common.ErrInvalidConfig, c.Feedback.Backend)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", common.ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("%w: server rate limit cannot be negative", common.ErrInvalidConfig)
	}
	if c.Estimator.ExtraConstant < 0 || c.Estimator.AllowanceCm < 0 {
		return fmt.Errorf("%w: estimator constants cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// LoadDotEnv loads environment variables from the given .env files. Missing files are
// skipped and variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(ExpandPath(path)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}
