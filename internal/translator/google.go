package translator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GoogleService struct {
	client *translate.Client
}

var _ io.Closer = (*GoogleService)(nil)

// NewGoogleService opens one Cloud Translation client that is shared by
// every request. An empty credentials path falls back to application
// default credentials.
func NewGoogleService(ctx context.Context, credentials string) (*GoogleService, error) {
	opts := []option.ClientOption{}
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google translate client: %w", err)
	}
	return &GoogleService{client: client}, nil
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetLangTag, err := language.Parse(req.TargetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language: %w", err)
	}

	// Text format keeps the backend from HTML-escaping apostrophes.
	opts := &translate.Options{Format: translate.Text}
	if req.SourceLang != "" && req.SourceLang != "auto" {
		sourceLangTag, err := language.Parse(req.SourceLang)
		if err != nil {
			result.Error = fmt.Sprintf("invalid source language: %v", err)
			return result, fmt.Errorf("invalid source language: %w", err)
		}
		opts.Source = sourceLangTag
	}

	translations, err := s.client.Translate(ctx, []string{req.Text}, targetLangTag, opts)
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		if isGoogleRateLimit(err) {
			return result, rateLimited(s.Name(), err.Error())
		}
		return result, fmt.Errorf("translation failed: %w", err)
	}

	if len(translations) == 0 {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	result.TranslatedText = translations[0].Text
	return result, nil
}

func (s *GoogleService) Close() error {
	return s.client.Close()
}

func isGoogleRateLimit(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}
