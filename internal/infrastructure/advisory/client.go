// Package advisory calls the external negotiation advisor over HTTP.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/event-market/event-market/internal/domain/negotiation"
)

// ErrUnavailable covers every way the advisor can fail to produce usable
// advice: disabled, unreachable, slow, non-2xx or malformed.
var ErrUnavailable = errors.New("advisory service unavailable")

// Client posts offer pairs to the advisor endpoint.
type Client struct {
	url    string
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a client. An empty url yields a client that always
// reports ErrUnavailable.
func NewClient(url string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "advisory").Logger(),
	}
}

type suggestResponse struct {
	Success bool                `json:"success"`
	Data    *negotiation.Advice `json:"data"`
	Message string              `json:"message"`
}

// Suggest asks for a middle-ground offer.
func (c *Client) Suggest(ctx context.Context, req negotiation.AdviceRequest) (*negotiation.Advice, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "Event-Market-Negotiation/1.0")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out suggestResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if !out.Success || out.Data == nil || out.Data.AIOffer <= 0 {
		return nil, fmt.Errorf("%w: no usable suggestion", ErrUnavailable)
	}

	c.logger.Debug().
		Str("event_request_id", req.EventRequestID.String()).
		Float64("ai_offer", out.Data.AIOffer).
		Dur("duration", time.Since(start)).
		Msg("advice received")
	return out.Data, nil
}
