package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// DefaultOpenRouterModels are free-tier models tried in order when none are
// configured. Free models are rate limited per model, so the next one is
// tried before the whole request counts as rate limited.
var DefaultOpenRouterModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
	"meta-llama/llama-3.1-8b-instruct:free",
}

var errNoAPIKey = errors.New("API key required")

type OpenRouterService struct {
	apiKey  string
	baseURL string
	models  []string
	http    *jsonClient
}

func NewOpenRouterService(apiKey, baseURL string, models []string, timeout time.Duration) *OpenRouterService {
	if baseURL == "" {
		baseURL = defaultOpenRouterURL
	}
	if len(models) == 0 {
		models = DefaultOpenRouterModels
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  models,
		http:    newJSONClient("openrouter", timeout),
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (s *OpenRouterService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if s.apiKey == "" {
		result.Error = errNoAPIKey.Error()
		return result, fmt.Errorf("openrouter: %w", errNoAPIKey)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.apiKey)
	header.Set("X-Title", "pdxtran")

	messages := []chatMessage{
		{Role: "system", Content: localiserPrompt(req.SourceLang, req.TargetLang)},
		{Role: "user", Content: req.Text},
	}

	var usage chatResponse
	text, model, err := tryModels(s.models, func(model string) (string, error) {
		var resp chatResponse
		err := s.http.post(ctx, s.baseURL+"/chat/completions", header, chatRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   1024,
			Temperature: 0.2,
		}, &resp)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("empty response from API")
		}
		usage = resp
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("openrouter: %w", err)
	}

	result.TranslatedText = cleanLLMOutput(text)
	result.Metadata = map[string]string{
		"model":             model,
		"prompt_tokens":     strconv.Itoa(usage.Usage.PromptTokens),
		"completion_tokens": strconv.Itoa(usage.Usage.CompletionTokens),
	}
	return result, nil
}

func localiserPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf("You are a professional video game localiser. Translate the user's text fragment from %s to %s. "+
		"The fragment may be part of a longer sentence; do not complete it. "+
		"Only respond with the translation, nothing else. No explanations, no quotes, just the translation.",
		promptLanguage(sourceLang), targetLang)
}
