// Package remote implements extract.Extractor against an HTTP extraction
// service.
//
// The service receives the raw item content and returns concept-name strings.
// Any transport, status or decode failure wraps extract.ErrExtraction so the
// pipeline's retry loop treats it as retryable.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/phasorlabs/phasor/pkg/extract"
)

const (
	// DefaultTimeout bounds a single extraction request.
	DefaultTimeout = 30 * time.Second

	extractPath = "/v1/extract"
)

// Extractor calls an external concept extraction service.
type Extractor struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the remote extractor.
type Config struct {
	// BaseURL is the extraction service URL (e.g. "http://localhost:8090").
	BaseURL string

	// Timeout bounds a single request. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// extractRequest is the request body sent to the extraction service.
type extractRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// extractResponse is the response from the extraction service.
type extractResponse struct {
	Concepts []string `json:"concepts"`
}

// NewExtractor creates a remote extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("extraction service URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Extractor{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Method names this extractor for provenance records.
func (e *Extractor) Method() string {
	return "remote"
}

// Extract posts the item content to the extraction service and decodes the
// concept list.
func (e *Extractor) Extract(ctx context.Context, name string, data []byte) ([]string, error) {
	body, err := json.Marshal(extractRequest{Name: name, Content: string(data)})
	if err != nil {
		return nil, fmt.Errorf("encoding extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+extractPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: service returned status %d", extract.ErrExtraction, resp.StatusCode)
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", extract.ErrExtraction, err)
	}

	return decoded.Concepts, nil
}
