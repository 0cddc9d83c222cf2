package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultEngineTimeout = 30 * time.Second

// HTTPEngineConfig configures the remote translation endpoint.
type HTTPEngineConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

func (c HTTPEngineConfig) validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("translation endpoint is required")
	}
	return nil
}

// HTTPEngine calls a remote translation service over JSON HTTP.
// Thread-safe for concurrent use.
type HTTPEngine struct {
	config     HTTPEngineConfig
	httpClient *http.Client
}

func NewHTTPEngine(config HTTPEngineConfig) (*HTTPEngine, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}
	return &HTTPEngine{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type wireRequest struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Items          []Item `json:"items"`
}

type wireResponse struct {
	Items []Item `json:"items"`
	Error string `json:"error,omitempty"`
}

// Translate sends the batch to the remote engine. Every failure mode
// wraps ErrEngineUnavailable so callers can degrade uniformly.
func (e *HTTPEngine) Translate(ctx context.Context, req BatchRequest) (BatchResponse, error) {
	if len(req.Items) == 0 {
		return BatchResponse{}, nil
	}

	payload := wireRequest{
		SourceLanguage: req.Source.String(),
		TargetLanguage: req.Target.String(),
		Items:          req.Items,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return BatchResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.config.APIKey)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if os.IsTimeout(err) {
			return BatchResponse{}, fmt.Errorf("%w: request timed out: %v", ErrEngineUnavailable, err)
		}
		return BatchResponse{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("%w: failed to read response: %v", ErrEngineUnavailable, err)
	}

	var wire wireResponse
	if err := json.Unmarshal(responseBody, &wire); err != nil {
		return BatchResponse{}, fmt.Errorf("%w: failed to parse response: %v", ErrEngineUnavailable, err)
	}
	if wire.Error != "" {
		return BatchResponse{}, fmt.Errorf("%w: %s", ErrEngineUnavailable, wire.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return BatchResponse{}, fmt.Errorf("%w: status %d: %s", ErrEngineUnavailable, resp.StatusCode, string(responseBody))
	}

	return BatchResponse{Items: wire.Items}, nil
}

var _ Engine = (*HTTPEngine)(nil)
