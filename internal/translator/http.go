package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"
)

// StatusError is a non-200 answer from an HTTP backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.Code)
	}
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

// jsonClient talks JSON to one backend. Statuses listed in busy are
// reported as ErrRateLimited.
type jsonClient struct {
	service string
	client  *http.Client
	busy    []int
}

func newJSONClient(service string, timeout time.Duration, busy ...int) *jsonClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if len(busy) == 0 {
		busy = []int{http.StatusTooManyRequests}
	}
	return &jsonClient{
		service: service,
		client:  &http.Client{Timeout: timeout},
		busy:    busy,
	}
}

func (c *jsonClient) post(ctx context.Context, url string, header http.Header, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.do(req, out)
}

func (c *jsonClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *jsonClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if slices.Contains(c.busy, resp.StatusCode) {
		return fmt.Errorf("status %d: %w", resp.StatusCode, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.service, err)
	}
	return nil
}

// tryModels asks each model in order until one answers. A model that is rate
// limited or fails hands over to the next. The error is ErrRateLimited only
// when every model was rate limited.
func tryModels(models []string, ask func(model string) (string, error)) (string, string, error) {
	var (
		errs    []error
		limited int
	)
	for _, model := range models {
		text, err := ask(model)
		if err == nil {
			return text, model, nil
		}
		if errors.Is(err, ErrRateLimited) {
			limited++
		}
		errs = append(errs, fmt.Errorf("%s: %w", model, err))
	}
	if len(errs) == 0 {
		return "", "", errors.New("no models configured")
	}
	if limited == len(errs) {
		return "", "", errs[len(errs)-1]
	}

	var failures []error
	for _, err := range errs {
		if !errors.Is(err, ErrRateLimited) {
			failures = append(failures, err)
		}
	}
	return "", "", errors.Join(failures...)
}
