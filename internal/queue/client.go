// Package queue implements the client side of the alert queue backend: the
// fetch-next-alert poll request and the delivery acknowledgement that removes
// a consumed alert from the backend queue.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

const requestTimeout = 30 * time.Second

// Client talks to the queue backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a queue client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// fetchResponse is the wire shape of the fetch-next-alert response. A null or
// missing data field means nothing is pending.
type fetchResponse struct {
	Data        json.RawMessage `json:"data"`
	DeliveryTag int64           `json:"delivery_tag"`
}

// FetchNext asks the backend for the next pending alert. It returns the
// normalized alert and its delivery handle, or a nil alert when the queue has
// nothing pending.
func (c *Client) FetchNext(ctx context.Context) (*alert.Alert, alert.DeliveryHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get_alerta", nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success - parse response below
	case http.StatusTooManyRequests:
		return nil, 0, fmt.Errorf("rate limit exceeded (HTTP 429): too many requests")
	case http.StatusInternalServerError:
		return nil, 0, fmt.Errorf("server error (HTTP 500): queue backend internal error")
	default:
		return nil, 0, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	var fetched fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return nil, 0, fmt.Errorf("failed to parse fetch response: %w", err)
	}

	if len(fetched.Data) == 0 || string(fetched.Data) == "null" {
		return nil, 0, nil
	}

	a, err := alert.Parse(fetched.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse alert payload: %w", err)
	}

	c.logger.Debug("fetched pending alert",
		slog.String("device", a.Device.ID),
		slog.Int64("deliveryTag", fetched.DeliveryTag))

	return &a, alert.DeliveryHandle(fetched.DeliveryTag), nil
}

// ackRequest is the wire shape of the acknowledgement request body.
type ackRequest struct {
	DeliveryTag int64 `json:"delivery_tag"`
}

// Ack confirms consumption of the alert identified by handle, removing it
// from the backend queue. Acknowledging a handle the backend no longer knows
// is not an error from the caller's perspective; the backend rejects it and
// the client reports only transport-level failures.
func (c *Client) Ack(ctx context.Context, handle alert.DeliveryHandle) error {
	body, err := json.Marshal(ackRequest{DeliveryTag: int64(handle)})
	if err != nil {
		return fmt.Errorf("failed to marshal ack request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ack_alerta", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create ack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ack rejected with HTTP status %d", resp.StatusCode)
	}

	c.logger.Debug("acknowledged alert delivery", slog.Int64("deliveryTag", int64(handle)))
	return nil
}
