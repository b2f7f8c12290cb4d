package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, Setup(v, ""))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "pdxtran.db", cfg.DB)
	assert.Equal(t, "en", cfg.Source)
	assert.Equal(t, "es", cfg.Target)
	assert.Equal(t, "google", cfg.Service.Name)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 60*time.Second, cfg.Cooldown)
	assert.True(t, cfg.Check)
	assert.Equal(t, "english.yml", cfg.SourceSuffix)
	assert.Equal(t, "spanish.yml", cfg.TargetSuffix)

	b := cfg.Batch()
	assert.Equal(t, 4, b.Workers)
	assert.Equal(t, 10*time.Second, b.ProgressInterval)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PDXTRAN_WORKERS", "8")
	t.Setenv("PDXTRAN_SERVICE_NAME", "openrouter")
	t.Setenv("PDXTRAN_SERVICE_API_KEY", "secret")
	t.Setenv("PDXTRAN_COOLDOWN", "2m")
	t.Setenv("PDXTRAN_CHECK_LANGUAGE", "false")

	v := viper.New()
	require.NoError(t, Setup(v, ""))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "openrouter", cfg.Service.Name)
	assert.Equal(t, "secret", cfg.Service.APIKey)
	assert.Equal(t, 2*time.Minute, cfg.Cooldown)
	assert.False(t, cfg.Check)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdxtran.yaml")
	content := `db: postgres://localhost/pdx
target: pt-BR
service:
  name: ollama
  base_url: http://gpu:11434
  models: [llama3, qwen2]
progress_interval: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	require.NoError(t, Setup(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/pdx", cfg.DB)
	assert.Equal(t, "pt-BR", cfg.Target)
	assert.Equal(t, "http://gpu:11434", cfg.Service.BaseURL)
	assert.Equal(t, []string{"llama3", "qwen2"}, cfg.Service.Models)
	assert.Equal(t, 30*time.Second, cfg.Progress)
}

func TestSetup_MissingFile(t *testing.T) {
	err := Setup(viper.New(), filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DB:           "pdxtran.db",
			Source:       "en",
			Target:       "es",
			Workers:      2,
			Cooldown:     time.Minute,
			Progress:     time.Second,
			SourceSuffix: "english.yml",
			TargetSuffix: "spanish.yml",
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "auto source", modify: func(c *Config) { c.Source = "auto" }},
		{name: "service is case insensitive", modify: func(c *Config) { c.Service.Name = "MyMemory" }},
		{name: "no db", modify: func(c *Config) { c.DB = " " }, wantErr: true},
		{name: "bad source", modify: func(c *Config) { c.Source = "not a tag" }, wantErr: true},
		{name: "auto target", modify: func(c *Config) { c.Target = "auto" }, wantErr: true},
		{name: "empty target", modify: func(c *Config) { c.Target = "" }, wantErr: true},
		{name: "same languages", modify: func(c *Config) { c.Target = "en" }, wantErr: true},
		{name: "unknown service", modify: func(c *Config) { c.Service.Name = "deepl" }, wantErr: true},
		{name: "no workers", modify: func(c *Config) { c.Workers = 0 }, wantErr: true},
		{name: "negative limit", modify: func(c *Config) { c.Limit = -1 }, wantErr: true},
		{name: "zero cooldown", modify: func(c *Config) { c.Cooldown = 0 }, wantErr: true},
		{name: "zero progress", modify: func(c *Config) { c.Progress = 0 }, wantErr: true},
		{name: "same suffixes", modify: func(c *Config) { c.TargetSuffix = "english.yml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			cfg.Service.Name = "google"
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
