// ABOUTME: HTTP client for the gumgum.gg tournament deck API
// ABOUTME: Maps every HTTP outcome onto the deck service error taxonomy

package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/professormeta/tcg-agent/internal/bootstrap"
)

const userAgent = "OnePieceTCGAgent/2.0"

// ErrNoDecksFound indicates the API answered successfully with zero matching
// decks. Distinct from any service failure.
var ErrNoDecksFound = errors.New("no matching tournament decks found")

// ServiceError is a transient or permanent failure of the deck API.
type ServiceError struct {
	Reason    string
	Transient bool
	Err       error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deck API: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("deck API: %s", e.Reason)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Record is one tournament deck as returned by the API.
type Record struct {
	Leader     string   `json:"leader"`
	Set        string   `json:"set"`
	Region     string   `json:"region"`
	Author     string   `json:"author"`
	Tournament string   `json:"tournament"`
	Event      string   `json:"event"`
	Decklist   []string `json:"decklist"`
}

// Client queries the deck API with bearer authentication.
type Client struct {
	endpoint   string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a deck API client. Endpoint and secret must both be
// present; Query fails fast otherwise.
func NewClient(endpoint, secret string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		secret:   secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "deck-api"),
	}
}

// Query fetches tournament decks matching the filter and returns the most
// recent record. The API returns records newest-first; no client-side sorting
// is applied. Results are never cached.
func (c *Client) Query(ctx context.Context, f Filter) (*Record, error) {
	if c.endpoint == "" {
		return nil, &ServiceError{Reason: "endpoint not configured; check " + bootstrap.EnvDeckEndpoint}
	}
	if c.secret == "" {
		return nil, &ServiceError{Reason: "API key not configured; check " + bootstrap.EnvDeckSecret}
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &ServiceError{Reason: "invalid endpoint", Err: err}
	}
	q := reqURL.Query()
	q.Set("region", f.Region)
	q.Set("set", f.Set)
	q.Set("leader", f.Leader)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &ServiceError{Reason: "building request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, &ServiceError{Reason: "request timeout; the service may be experiencing high load", Transient: true, Err: err}
		}
		return nil, &ServiceError{Reason: "cannot connect; check network connectivity or service availability", Transient: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &ServiceError{Reason: "authentication failed, invalid API key"}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &ServiceError{Reason: "access forbidden, check API key permissions"}
	case resp.StatusCode == http.StatusNotFound:
		// The API never 404s a valid search; this is endpoint misconfiguration.
		return nil, &ServiceError{Reason: "endpoint not found, check API endpoint configuration"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ServiceError{Reason: "rate limit exceeded, please try again later", Transient: true}
	case resp.StatusCode >= 500:
		return nil, &ServiceError{Reason: fmt.Sprintf("server error (HTTP %d), service temporarily unavailable", resp.StatusCode), Transient: true}
	case resp.StatusCode != http.StatusOK:
		return nil, &ServiceError{Reason: fmt.Sprintf("unexpected HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Reason: "reading response", Transient: true, Err: err}
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &ServiceError{Reason: "malformed response", Err: err}
	}

	if len(records) == 0 {
		c.logger.Info("no decks found",
			"region", f.Region, "set", f.Set, "leader", f.Leader)
		return nil, ErrNoDecksFound
	}

	return &records[0], nil
}
