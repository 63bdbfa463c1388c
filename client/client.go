// Package client talks to a novelbit server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"novelbit/api/models"
	"novelbit/fingerprint"
)

var ErrServiceUnavailable = errors.New("fingerprint service unavailable")

// Client is a fingerprint.Fingerprinter backed by POST /api/fingerprint.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ fingerprint.Fingerprinter = (*Client)(nil)

func (c *Client) FingerprintText(ctx context.Context, text string) (fingerprint.Result, error) {
	var resp models.FingerprintResponse
	if err := c.post(ctx, "/api/fingerprint", models.FingerprintRequest{Text: text}, &resp); err != nil {
		return fingerprint.Result{}, err
	}
	return resultOf(resp), nil
}

func (c *Client) FingerprintTexts(ctx context.Context, texts []string) ([]fingerprint.Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([]fingerprint.Result, 0, len(texts))
	for start := 0; start < len(texts); start += models.MaxBatchTexts {
		chunk := texts[start:min(start+models.MaxBatchTexts, len(texts))]
		var resp models.FingerprintBatchResponse
		if err := c.post(ctx, "/api/fingerprint/batch", models.FingerprintBatchRequest{Texts: chunk}, &resp); err != nil {
			return nil, err
		}
		if len(resp.Results) != len(chunk) {
			return nil, fmt.Errorf("expected %d fingerprints, got %d", len(chunk), len(resp.Results))
		}
		for _, r := range resp.Results {
			out = append(out, resultOf(r))
		}
	}
	return out, nil
}

func (c *Client) Provider() string { return "remote" }

// Health reports whether the server answers GET /health.
func (c *Client) Health(ctx context.Context) (models.HealthResponse, error) {
	var resp models.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

func resultOf(r models.FingerprintResponse) fingerprint.Result {
	return fingerprint.Result{
		Fingerprint: fingerprint.Fingerprint{Max: r.Max, Min: r.Min},
		Length:      r.Length,
		Valid:       r.Valid,
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(jsonData), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
			e := models.NewAPIError(apiErr.Error.Code, apiErr.Error.Message, nil)
			if resp.StatusCode >= 500 {
				return fmt.Errorf("%w: %w", ErrServiceUnavailable, e)
			}
			return e
		}
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
