// Package config holds the settings shared by every pdxtran command. Values
// come from flags, PDXTRAN_* environment variables, a .env file and an
// optional YAML config file, in that order of precedence.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/pdxtran/internal/batch"
	"github.com/valpere/pdxtran/internal/locfile"
	"github.com/valpere/pdxtran/internal/translator"
)

const (
	EnvPrefix  = "PDXTRAN"
	AutoSource = "auto"
)

type Config struct {
	DB           string                   `mapstructure:"db"`
	Source       string                   `mapstructure:"source"`
	Target       string                   `mapstructure:"target"`
	Service      translator.ServiceConfig `mapstructure:"service"`
	Workers      int                      `mapstructure:"workers"`
	Limit        int                      `mapstructure:"limit"`
	Cooldown     time.Duration            `mapstructure:"cooldown"`
	Progress     time.Duration            `mapstructure:"progress_interval"`
	Check        bool                     `mapstructure:"check_language"`
	StartPath    string                   `mapstructure:"start_path"`
	SourceSuffix string                   `mapstructure:"source_suffix"`
	TargetSuffix string                   `mapstructure:"target_suffix"`
	LogLevel     string                   `mapstructure:"log_level"`
	LogFormat    string                   `mapstructure:"log_format"`
}

// SetDefaults registers every key with its default so that environment
// variables are picked up for all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", "pdxtran.db")
	v.SetDefault("source", "en")
	v.SetDefault("target", "es")
	v.SetDefault("service.name", "google")
	v.SetDefault("service.credentials", "")
	v.SetDefault("service.api_key", "")
	v.SetDefault("service.models", []string{})
	v.SetDefault("service.base_url", "")
	v.SetDefault("service.email", "")
	v.SetDefault("service.timeout", time.Duration(0))
	v.SetDefault("workers", 4)
	v.SetDefault("limit", 0)
	v.SetDefault("cooldown", batch.DefaultCooldown)
	v.SetDefault("progress_interval", batch.DefaultProgressInterval)
	v.SetDefault("check_language", true)
	v.SetDefault("start_path", ".")
	v.SetDefault("source_suffix", locfile.SourceSuffix)
	v.SetDefault("target_suffix", locfile.TargetSuffix)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Setup prepares v to read PDXTRAN_* variables and, when path is set, a
// config file.
func Setup(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return fmt.Errorf("db is required")
	}
	if c.Source != AutoSource {
		if err := validLanguage("source", c.Source); err != nil {
			return err
		}
	}
	if err := validLanguage("target", c.Target); err != nil {
		return err
	}
	if c.Source == c.Target {
		return fmt.Errorf("source and target must differ, both are %q", c.Target)
	}
	name := strings.ToLower(strings.TrimSpace(c.Service.Name))
	if !slices.Contains(translator.Names, name) {
		return fmt.Errorf("unknown service %q (known: %s)", c.Service.Name, strings.Join(translator.Names, ", "))
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be positive")
	}
	if c.Progress <= 0 {
		return fmt.Errorf("progress_interval must be positive")
	}
	if c.SourceSuffix == "" || c.TargetSuffix == "" {
		return fmt.Errorf("source_suffix and target_suffix are required")
	}
	if c.SourceSuffix == c.TargetSuffix {
		return fmt.Errorf("source_suffix and target_suffix must differ")
	}
	return nil
}

// Batch returns the worker pool settings.
func (c *Config) Batch() batch.Config {
	return batch.Config{
		Workers:          c.Workers,
		Limit:            c.Limit,
		Cooldown:         c.Cooldown,
		ProgressInterval: c.Progress,
	}
}

func validLanguage(field, code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%s language is required", field)
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("%s language %q: %w", field, code, err)
	}
	return nil
}
