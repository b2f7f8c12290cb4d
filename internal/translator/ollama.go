package translator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// DefaultOllamaModels are tried in order when none are configured.
var DefaultOllamaModels = []string{
	"llama3.2",
	"gemma2:2b",
	"qwen2.5:3b",
	"mistral:7b",
}

// OllamaTranslator asks a self-hosted Ollama server. A full request queue
// (503) counts as a rate limit.
type OllamaTranslator struct {
	baseURL string
	models  []string
	http    *jsonClient
}

func NewOllamaTranslator(baseURL string, models []string, timeout time.Duration) *OllamaTranslator {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if len(models) == 0 {
		models = DefaultOllamaModels
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaTranslator{
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  models,
		http:    newJSONClient("ollama", timeout, http.StatusTooManyRequests, http.StatusServiceUnavailable),
	}
}

func (s *OllamaTranslator) Name() string {
	return "ollama"
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (s *OllamaTranslator) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	prompt := buildFragmentPrompt(req.SourceLang, req.TargetLang, req.Text)
	text, model, err := tryModels(s.models, func(model string) (string, error) {
		var resp ollamaResponse
		err := s.http.post(ctx, s.baseURL+"/api/generate", nil, ollamaRequest{
			Model:   model,
			Prompt:  prompt,
			Options: map[string]any{"temperature": 0.2},
		}, &resp)
		return resp.Response, err
	})
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("ollama: %w", err)
	}

	result.TranslatedText = cleanLLMOutput(text)
	result.Metadata = map[string]string{"model": model}
	return result, nil
}

// buildFragmentPrompt asks for a bare translation of one text fragment. The
// fragments come from a larger game string, so the model must not complete
// or punctuate them.
func buildFragmentPrompt(sourceLang, targetLang, text string) string {
	return fmt.Sprintf(`Translate the following video game text fragment from %s to %s.
It may be part of a longer sentence; do not complete it or add punctuation.
Only respond with the translation, nothing else.

Text: "%s"

Translation:`, promptLanguage(sourceLang), targetLang, text)
}

func promptLanguage(code string) string {
	if code == "" || code == "auto" {
		return "the detected language"
	}
	return code
}
