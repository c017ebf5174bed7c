package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// upstreamError carries a non-2xx upstream status and its raw body text
// verbatim. The gateway never retries; retry policy belongs to the caller.
type upstreamError struct {
	Status int
	Body   string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// apiClient issues REST calls against the upstream server's versioned API.
// Callers supply exact paths under apiRootPath.
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logEnabled bool
}

func newAPIClient(cfg *Config) *apiClient {
	return &apiClient{
		baseURL:    cfg.ServerBaseURL,
		token:      cfg.APIToken,
		httpClient: http.DefaultClient,
		logEnabled: cfg.LogEnabled,
	}
}

func (c *apiClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *apiClient) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *apiClient) request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.logEnabled {
		log.Printf("<api> %s %s", method, path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &upstreamError{Status: resp.StatusCode, Body: string(data)}
	}
	return json.RawMessage(data), nil
}
