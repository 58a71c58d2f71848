package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
		// CreateLimit is the number of assessment creations allowed per caller per CreateWindow.
		CreateLimit  int    `yaml:"create_limit"`
		CreateWindow string `yaml:"create_window"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Generator struct {
		BaseURL          string `yaml:"base_url"`
		Model            string `yaml:"model"`
		Timeout          string `yaml:"timeout"`
		DefaultQuestions int    `yaml:"default_questions"`
		MaxQuestions     int    `yaml:"max_questions"`
	} `yaml:"generator"`
	Auth struct {
		Mode       string `yaml:"mode"`
		JWTSecret  string `yaml:"jwt_secret"`
		JWTIssuer  string `yaml:"jwt_issuer"`
		SessionTTL string `yaml:"session_ttl"`
	} `yaml:"auth"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
}

const (
	AuthModeJWT     = "jwt"
	AuthModeSession = "session"
)

// Load reads YAML config from path and applies environment overrides. A missing file
// yields defaults so the service can run from the environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeJWT
	}
	cfg.Auth.Mode = strings.ToLower(cfg.Auth.Mode)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Postgres.URL, "DATABASE_URL")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Generator.BaseURL, "GENERATOR_URL")
	override(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	override(&cfg.Log.Mode, "LOG_MODE")
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
