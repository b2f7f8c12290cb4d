package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRateLimited is returned (wrapped) when a backend refuses a request
// because too many were sent. Callers should back off and retry later.
var ErrRateLimited = errors.New("translation backend rate limited")

type ServiceConfig struct {
	Name        string        `mapstructure:"name" json:"name"`
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Models      []string      `mapstructure:"models" json:"models"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Email       string        `mapstructure:"email" json:"email"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

// Service is a single translation backend.
type Service interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error)
}

// Limiter is implemented by backends that reject long requests. MaxChars
// is the longest text, in runes, one request may carry.
type Limiter interface {
	MaxChars() int
}

// Names lists the backends New can build.
var Names = []string{"google", "mymemory", "systran", "ollama", "openrouter"}

// New builds the backend named by cfg.Name.
func New(ctx context.Context, cfg ServiceConfig) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "google", "":
		return NewGoogleService(ctx, cfg.Credentials)
	case "mymemory":
		return NewMyMemoryService(cfg.Email, cfg.BaseURL, cfg.Timeout), nil
	case "systran":
		return NewSystranService(cfg.APIKey, cfg.BaseURL, cfg.Timeout), nil
	case "ollama":
		return NewOllamaTranslator(cfg.BaseURL, cfg.Models, cfg.Timeout), nil
	case "openrouter":
		return NewOpenRouterService(cfg.APIKey, cfg.BaseURL, cfg.Models, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown translation service %q", cfg.Name)
	}
}

func rateLimited(service string, detail string) error {
	return fmt.Errorf("%s: %s: %w", service, detail, ErrRateLimited)
}
