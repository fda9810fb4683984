package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/pkg/config"
)

type extractorClient struct {
	baseURL    string
	apiKey     string
	profile    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewExtractorClient builds the client for the external face-embedding
// engine. The configured profile is sent with every request so enrollment
// and recognition always extract under the same settings.
func NewExtractorClient(cfg config.ExtractorConfig, logger zerolog.Logger) interfaces.ExtractorClient {
	return &extractorClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		profile: cfg.Profile,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

type extractRequest struct {
	Image   string `json:"image"`
	Profile string `json:"profile,omitempty"`
}

type extractResponse struct {
	Faces []models.FaceDetection `json:"faces"`
}

func (c *extractorClient) Extract(ctx context.Context, image []byte) ([]models.FaceDetection, error) {
	payload := extractRequest{
		Image:   base64.StdEncoding.EncodeToString(image),
		Profile: c.profile,
	}

	var response extractResponse
	if err := c.makeRequest(ctx, "POST", "/v1/embeddings", payload, &response); err != nil {
		return nil, fmt.Errorf("failed to extract embeddings: %w", err)
	}

	return response.Faces, nil
}

// makeRequest makes an HTTP request with retries and exponential backoff.
func (c *extractorClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}, response interface{}) error {
	fullURL := c.baseURL + endpoint

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(1<<(attempt-1))): // Exponential backoff
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(payload))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("url", fullURL).Msg("Extractor request failed, retrying")
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if err := json.Unmarshal(respBody, response); err != nil {
				lastErr = fmt.Errorf("failed to unmarshal response: %w", err)
				continue
			}
			return nil
		}

		lastErr = fmt.Errorf("extractor returned status %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not succeed on retry.
			return lastErr
		}
	}

	return lastErr
}
