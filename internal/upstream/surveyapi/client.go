// Package surveyapi is the client for the onboarding-survey service.
package surveyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CampusTransit/CT-Backend/internal/upstream/provider"
)

// Client talks to the survey service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Receipt is the survey service's acknowledgement of a submission.
type Receipt struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetByUser returns the user's survey record, or nil when the user has not
// completed the survey. A transport or server failure is returned as an
// error, distinct from the legitimate "no record" case, so callers can tell
// a first-time user from an outage.
func (c *Client) GetByUser(ctx context.Context, userID string) (json.RawMessage, error) {
	start := time.Now()
	url := c.baseURL + "/surveys/by-user/" + userID
	provider.LogRequest("surveyapi", "GET", url, nil)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("surveyapi", "get by user", err)
		return nil, fmt.Errorf("survey request: %w", err)
	}
	defer resp.Body.Close()
	provider.LogResponse("surveyapi", resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("survey status %d", resp.StatusCode)
	}

	var record json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		provider.LogError("surveyapi", "decode", err)
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// Some backends answer 200 with a JSON null instead of 404.
	if string(record) == "null" {
		return nil, nil
	}
	return record, nil
}

// Submit stores a completed survey. The record must already embed the
// payment id produced by the payment service; the survey backend rejects
// records without one.
func (c *Client) Submit(ctx context.Context, record json.RawMessage) (Receipt, error) {
	start := time.Now()
	url := c.baseURL + "/surveys"
	provider.LogRequest("surveyapi", "POST", url, nil)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(record))
	if err != nil {
		return Receipt{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("surveyapi", "submit", err)
		return Receipt{}, fmt.Errorf("survey request: %w", err)
	}
	defer resp.Body.Close()
	provider.LogResponse("surveyapi", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, fmt.Errorf("survey submit status %d", resp.StatusCode)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode response: %w", err)
	}
	return receipt, nil
}
