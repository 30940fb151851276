// Package config loads farmdash settings from an optional TOML file and the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

const (
	defaultAddr       = ":8000"
	defaultLocale     = "en"
	defaultSessionTTL = 30 * time.Minute
	defaultRate       = 10
	defaultBurst      = 20
)

// Config holds application configuration
type Config struct {
	Addr   string `toml:"addr"`
	DBPath string `toml:"db_path"`

	// Farm API. Empty means plans are stored in the local database.
	APIURL        string  `toml:"api_url"`
	APIToken      string  `toml:"api_token"`
	RatePerSecond float64 `toml:"rate_per_second"`
	RateBurst     int     `toml:"rate_burst"`

	Locale     string `toml:"locale"`
	SessionTTL string `toml:"session_ttl"`
	// ExpertID is written into every plan the wizard saves
	ExpertID string `toml:"expert_id"`
	Actor    string `toml:"actor"`
}

var (
	globalConfig *Config
	once         sync.Once
)

// Initialize loads the configuration from FARMDASH_CONFIG (if set) and the environment
func Initialize() {
	cfg, err := Load(os.Getenv("FARMDASH_CONFIG"))
	if err != nil {
		logger.LogErr(err, "falling back to default configuration")
		cfg = Defaults()
		cfg.ApplyEnvOverrides()
	}
	globalConfig = cfg
}

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		if globalConfig == nil {
			Initialize()
		}
	})
	return globalConfig
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Addr:          defaultAddr,
		DBPath:        defaultDBPath(),
		RatePerSecond: defaultRate,
		RateBurst:     defaultBurst,
		Locale:        defaultLocale,
		SessionTTL:    defaultSessionTTL.String(),
	}
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "farmdash.db")
	}
	return filepath.Join(homeDir, ".local", "share", "farmdash", "farmdash.db")
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, serr.Wrap(err, "failed to decode config file", "path", path)
		}
	}
	cfg.ApplyEnvOverrides()

	if _, err := time.ParseDuration(cfg.SessionTTL); err != nil {
		return nil, serr.Wrap(err, "invalid session_ttl", "value", cfg.SessionTTL)
	}
	return cfg, nil
}

// ApplyEnvOverrides replaces settings with any FARMDASH_* / FARM_API_* variables set
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FARMDASH_ADDR"); v != "" {
		c.Addr = v
	}
	if v, ok := os.LookupEnv("FARMDASH_DB"); ok {
		c.DBPath = v
	}
	if v := os.Getenv("FARM_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("FARM_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("FARM_API_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("FARMDASH_LOCALE"); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("FARMDASH_SESSION_TTL"); v != "" {
		c.SessionTTL = v
	}
	if v := os.Getenv("FARMDASH_EXPERT_ID"); v != "" {
		c.ExpertID = v
	}
	if v := os.Getenv("FARMDASH_ACTOR"); v != "" {
		c.Actor = v
	}
}

// SessionIdle returns how long an untouched wizard session survives
func (c *Config) SessionIdle() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return defaultSessionTTL
	}
	return d
}

// UseRemoteAPI reports whether plans go to an external farm API
func (c *Config) UseRemoteAPI() bool {
	return c.APIURL != ""
}
