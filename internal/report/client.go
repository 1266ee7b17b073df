package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

const requestTimeout = 30 * time.Second

// Client talks to the report-processing backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a report client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// SubmitResult carries the backend's response to a report submission. The
// backend decides the representation: a rendered PDF, a JSON document, or
// plain text, distinguished by the response content type.
type SubmitResult struct {
	ContentType string
	PDF         []byte
	Document    map[string]interface{}
	Text        string
}

// Submit sends a police report to the backend and interprets the response
// body according to its content type.
func (c *Client) Submit(ctx context.Context, r PoliceReport) (*SubmitResult, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ia/recibir_alerta", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("report rejected with HTTP status %d", resp.StatusCode)
	}

	result := &SubmitResult{ContentType: responseMediaType(resp)}

	switch result.ContentType {
	case "application/pdf":
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read report PDF: %w", err)
		}
		result.PDF = data
	case "application/json":
		if err := json.NewDecoder(resp.Body).Decode(&result.Document); err != nil {
			return nil, fmt.Errorf("failed to parse report response: %w", err)
		}
	default:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read report response: %w", err)
		}
		result.Text = string(data)
	}

	c.logger.Info("report submitted",
		slog.String("reportId", r.ID),
		slog.String("responseType", result.ContentType))

	return result, nil
}

// completeFieldsRequest is the wire shape of the field-completion request.
type completeFieldsRequest struct {
	AlertData   alert.Alert `json:"alertData"`
	EmptyFields []string    `json:"camposVacios"`
}

// completeFieldsResponse is the wire shape of the field-completion response.
// completados arrives either as an object or as a JSON-encoded string of one.
type completeFieldsResponse struct {
	Completed json.RawMessage `json:"completados"`
}

// CompleteFields asks the backend to fill the report fields the alert left
// empty. The mapping of field name to suggested value is returned; an
// unparseable response degrades to an empty mapping rather than an error.
func (c *Client) CompleteFields(ctx context.Context, a alert.Alert, emptyFields []string) (map[string]interface{}, error) {
	body, err := json.Marshal(completeFieldsRequest{AlertData: a, EmptyFields: emptyFields})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/completar-campos", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion rejected with HTTP status %d", resp.StatusCode)
	}

	var decoded completeFieldsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse completion response: %w", err)
	}

	return parseCompleted(decoded.Completed, c.logger), nil
}

// parseCompleted normalizes the completados payload: an object is used as-is,
// a string is parsed as embedded JSON, and anything unparseable yields an
// empty mapping.
func parseCompleted(raw json.RawMessage, logger *slog.Logger) map[string]interface{} {
	if len(raw) == 0 {
		return map[string]interface{}{}
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		return obj
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			return obj
		}
	}

	logger.Warn("discarding unparseable field-completion payload")
	return map[string]interface{}{}
}

// responseMediaType extracts the bare media type from the Content-Type
// header, tolerating charset parameters.
func responseMediaType(resp *http.Response) string {
	ct := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}
