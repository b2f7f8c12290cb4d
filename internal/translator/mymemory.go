package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMyMemoryURL = "https://api.mymemory.translated.net"
	myMemoryMaxChars   = 500
)

// MyMemoryService uses the free MyMemory API. An email raises the daily
// quota from 5000 to 50000 characters.
type MyMemoryService struct {
	email   string
	baseURL string
	http    *jsonClient
}

func NewMyMemoryService(email, baseURL string, timeout time.Duration) *MyMemoryService {
	if baseURL == "" {
		baseURL = defaultMyMemoryURL
	}
	return &MyMemoryService{
		email:   email,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newJSONClient("mymemory", timeout),
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

// MaxChars is the query length limit of the public MyMemory API.
func (s *MyMemoryService) MaxChars() int {
	return myMemoryMaxChars
}

// looseInt decodes a number that the API sometimes sends as a string.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("responseStatus %s: %w", b, err)
	}
	*n = looseInt(v)
	return nil
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string      `json:"translatedText"`
		Match          json.Number `json:"match"`
	} `json:"responseData"`
	ResponseStatus  looseInt `json:"responseStatus"`
	ResponseDetails string   `json:"responseDetails"`
	QuotaFinished   bool     `json:"quotaFinished"`
}

func (s *MyMemoryService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	source := req.SourceLang
	if source == "" || source == "auto" {
		source = "autodetect"
	}

	query := url.Values{}
	query.Set("q", req.Text)
	query.Set("langpair", source+"|"+req.TargetLang)
	if s.email != "" {
		query.Set("de", s.email)
	}

	var resp myMemoryResponse
	if err := s.http.get(ctx, s.baseURL+"/get?"+query.Encode(), &resp); err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("mymemory: %w", err)
	}

	// Quota exhaustion is reported in the body with an HTTP 200.
	if resp.QuotaFinished || resp.ResponseStatus == http.StatusTooManyRequests {
		result.Error = resp.ResponseDetails
		return result, rateLimited(s.Name(), resp.ResponseDetails)
	}
	if resp.ResponseStatus != http.StatusOK {
		result.Error = fmt.Sprintf("API error: %s (%d)", resp.ResponseDetails, resp.ResponseStatus)
		return result, fmt.Errorf("mymemory: API error %d: %s", resp.ResponseStatus, resp.ResponseDetails)
	}

	result.TranslatedText = resp.ResponseData.TranslatedText
	result.Metadata = map[string]string{"match": resp.ResponseData.Match.String()}
	return result, nil
}
