// Package config loads streamwatch settings.
//
// Settings come from an optional streamwatch.yaml (searched in ., ./config
// and the platform config directory), then STREAMWATCH_* environment
// variables, e.g. STREAMWATCH_POLL_INTERVAL=500ms or
// STREAMWATCH_THRESHOLDS_MEMORY_WARNING=80.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streamwatch/internal/models"
	"streamwatch/internal/services"

	"github.com/spf13/viper"
)

const (
	appDir     = "streamwatch"
	configName = "streamwatch"
	envPrefix  = "STREAMWATCH"
)

// Config holds every runtime setting.
type Config struct {
	Server     ServerConfig                   `mapstructure:"server"`
	Poll       PollConfig                     `mapstructure:"poll"`
	History    HistoryConfig                  `mapstructure:"history"`
	Process    ProcessConfig                  `mapstructure:"process"`
	GPU        GPUConfig                      `mapstructure:"gpu"`
	Storage    StorageConfig                  `mapstructure:"storage"`
	Auth       AuthConfig                     `mapstructure:"auth"`
	Security   SecurityConfig                 `mapstructure:"security"`
	Log        LogConfig                      `mapstructure:"log"`
	Thresholds map[string]services.Thresholds `mapstructure:"thresholds"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type PollConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type HistoryConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type ProcessConfig struct {
	Names []string `mapstructure:"names"`
}

type GPUConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	NvidiaSMIPath string `mapstructure:"nvidia_smi_path"`
}

type StorageConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type AuthConfig struct {
	Secret      string        `mapstructure:"secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	IPWhitelist    []string `mapstructure:"ip_whitelist"`
	RateLimit      float64  `mapstructure:"rate_limit"`
	RateBurst      int      `mapstructure:"rate_burst"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("poll.fetch_timeout", 10*time.Second)
	v.SetDefault("history.capacity", services.DefaultHistoryCapacity)
	v.SetDefault("process.names", services.DefaultProcessNames)
	v.SetDefault("gpu.enabled", true)
	v.SetDefault("gpu.nvidia_smi_path", "")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.retention_days", 14)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_expiry", 90*24*time.Hour)
	v.SetDefault("security.allowed_origins", []string{})
	v.SetDefault("security.ip_whitelist", []string{})
	v.SetDefault("security.rate_limit", 100.0)
	v.SetDefault("security.rate_burst", 200)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configuration. If path is empty the default search locations
// are used and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindThresholdEnv(v); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if base, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(base, appDir))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unable to decode config: %w", err)
	}
	fillThresholdPairs(v, &cfg)

	if cfg.Storage.Path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("config: unable to determine config directory: %w", err)
		}
		cfg.Storage.Path = filepath.Join(base, appDir, "streamwatch.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges that viper cannot express.
func (c *Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("config: poll.interval must be positive, got %v", c.Poll.Interval)
	}
	if c.History.Capacity <= 0 {
		return fmt.Errorf("config: history.capacity must be positive, got %d", c.History.Capacity)
	}
	if _, err := c.ThresholdTable(); err != nil {
		return err
	}
	return nil
}

// ThresholdTable converts the configured overrides to a services table.
func (c *Config) ThresholdTable() (services.ThresholdTable, error) {
	table := services.ThresholdTable{}
	for name, th := range c.Thresholds {
		domain, ok := parseDomain(name)
		if !ok {
			return nil, fmt.Errorf("config: unknown threshold domain %q", name)
		}
		if th.Warning >= th.Critical {
			return nil, fmt.Errorf("config: thresholds.%s: warning %.1f must be below critical %.1f", name, th.Warning, th.Critical)
		}
		table[domain] = th
	}
	return table, nil
}

// bindThresholdEnv registers thresholds.<domain>.{warning,critical} with
// viper. The thresholds map has no defaults, so AutomaticEnv alone never
// sees those keys.
func bindThresholdEnv(v *viper.Viper) error {
	for _, d := range models.Domains {
		for _, side := range []string{"warning", "critical"} {
			key := thresholdKey(d, side)
			env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			if err := v.BindEnv(key, env); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillThresholdPairs completes a domain override that sets only one side
// with the default for the other.
func fillThresholdPairs(v *viper.Viper, cfg *Config) {
	defaults := services.DefaultThresholds()
	for _, d := range models.Domains {
		th, ok := cfg.Thresholds[string(d)]
		if !ok {
			continue
		}
		if !v.IsSet(thresholdKey(d, "warning")) {
			th.Warning = defaults[d].Warning
		}
		if !v.IsSet(thresholdKey(d, "critical")) {
			th.Critical = defaults[d].Critical
		}
		cfg.Thresholds[string(d)] = th
	}
}

func thresholdKey(d models.Domain, side string) string {
	return "thresholds." + string(d) + "." + side
}

func parseDomain(name string) (models.Domain, bool) {
	for _, d := range models.Domains {
		if strings.EqualFold(string(d), name) {
			return d, true
		}
	}
	return "", false
}
