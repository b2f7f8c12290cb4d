package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	systranHost       = "api-systran-systran-translation-v1.p.rapidapi.com"
	defaultSystranURL = "https://" + systranHost
)

// SystranService calls Systran through RapidAPI.
type SystranService struct {
	apiKey  string
	baseURL string
	http    *jsonClient
}

func NewSystranService(apiKey, baseURL string, timeout time.Duration) *SystranService {
	if baseURL == "" {
		baseURL = defaultSystranURL
	}
	return &SystranService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newJSONClient("systran", timeout),
	}
}

func (s *SystranService) Name() string {
	return "systran"
}

type systranRequest struct {
	Text   []string `json:"text"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type systranResponse struct {
	Outputs []struct {
		Output string `json:"output"`
		Error  string `json:"error"`
	} `json:"outputs"`
}

func (s *SystranService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if s.apiKey == "" {
		result.Error = errNoAPIKey.Error()
		return result, fmt.Errorf("systran: %w", errNoAPIKey)
	}

	source := req.SourceLang
	if source == "" {
		source = "auto"
	}

	header := http.Header{}
	header.Set("X-RapidAPI-Key", s.apiKey)
	header.Set("X-RapidAPI-Host", systranHost)

	var resp systranResponse
	err := s.http.post(ctx, s.baseURL+"/translation/text/translate", header, systranRequest{
		Text:   []string{req.Text},
		Source: source,
		Target: req.TargetLang,
		Format: "text",
	}, &resp)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("systran: %w", err)
	}

	if len(resp.Outputs) == 0 || resp.Outputs[0].Output == "" {
		err := errors.New("empty translation response")
		if len(resp.Outputs) > 0 && resp.Outputs[0].Error != "" {
			err = errors.New(resp.Outputs[0].Error)
		}
		result.Error = err.Error()
		return result, fmt.Errorf("systran: %w", err)
	}

	result.TranslatedText = resp.Outputs[0].Output
	return result, nil
}
