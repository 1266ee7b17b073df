package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// PageSize is the number of officers returned per roster page.
const PageSize = 5

const requestTimeout = 30 * time.Second

// Officer is a member of the police roster.
type Officer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Rank      string `json:"rank"`
	Badge     string `json:"badge"`
}

// FullName joins the officer's first and last names.
func (o Officer) FullName() string {
	if o.LastName == "" {
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}

// Page is one page of the roster.
type Page struct {
	Officers   []Officer `json:"officers"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Total      int       `json:"total"`
}

// rosterEntry is the wire shape of one roster record.
type rosterEntry struct {
	ID             json.Number `json:"id"`
	Identification struct {
		Name  string `json:"nombre"`
		Rank  string `json:"rango"`
		Badge string `json:"placa"`
	} `json:"identificacion"`
}

// Client fetches the police roster from the personnel backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a roster client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// FetchAll retrieves the full roster from the backend.
func (c *Client) FetchAll(ctx context.Context) ([]Officer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/policias/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create roster request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roster request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster request failed with HTTP status %d", resp.StatusCode)
	}

	var entries []rosterEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse roster response: %w", err)
	}

	officers := make([]Officer, 0, len(entries))
	for _, e := range entries {
		officers = append(officers, adaptEntry(e))
	}

	c.logger.Debug("fetched roster", slog.Int("officers", len(officers)))

	return officers, nil
}

// FetchPage retrieves one page of the roster. The backend returns the whole
// roster in a single response, so paging happens on this side. Page numbers
// start at 1; out-of-range pages clamp to the nearest valid page.
func (c *Client) FetchPage(ctx context.Context, page int) (Page, error) {
	officers, err := c.FetchAll(ctx)
	if err != nil {
		return Page{}, err
	}
	return paginate(officers, page), nil
}

// paginate slices the roster into the requested page.
func paginate(officers []Officer, page int) Page {
	total := len(officers)
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Officers:   officers[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
}

// adaptEntry flattens a roster record into an Officer. The backend stores
// the full name in a single field; everything after the first space counts
// as the last name.
func adaptEntry(e rosterEntry) Officer {
	first, last := splitName(e.Identification.Name)
	return Officer{
		ID:        e.ID.String(),
		FirstName: first,
		LastName:  last,
		Rank:      e.Identification.Rank,
		Badge:     e.Identification.Badge,
	}
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
