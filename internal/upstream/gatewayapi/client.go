// Package gatewayapi is the client for the external payment gateway. The
// gateway owns the actual money movement; this service only initiates a
// checkout and later asks whether it completed.
package gatewayapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CampusTransit/CT-Backend/internal/upstream/provider"
)

// StatusCompleted is the gateway's terminal success status. The gateway has
// been seen spelling it with either case, so compare case-insensitively.
const StatusCompleted = "completed"

// Client talks to the payment gateway.
type Client struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
}

func NewClient(baseURL, appKey string) *Client {
	return &Client{
		baseURL: baseURL,
		appKey:  appKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CheckoutResult is the gateway's answer to a create call: where to send the
// user's browser.
type CheckoutResult struct {
	RedirectURL string `json:"redirectUrl"`
}

// VerifyResult is the gateway's answer to an execute/verify call.
type VerifyResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"trxID"`
}

// Completed reports whether the gateway considers the payment settled.
func (v VerifyResult) Completed() bool {
	return strings.EqualFold(v.Status, StatusCompleted)
}

// Create opens a checkout for the given amount and order id. The callback
// URL is where the gateway redirects the browser afterwards. An answer
// without a redirect URL is an error: there is nowhere to send the user.
func (c *Client) Create(ctx context.Context, amount int, orderID, phoneNumber, callbackURL string) (CheckoutResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":      amount,
		"orderId":     orderID,
		"phoneNumber": phoneNumber,
		"callbackUrl": callbackURL,
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	url := c.baseURL + "/checkout/create"
	provider.LogRequest("gateway", "POST", url, map[string]interface{}{
		"orderId": orderID,
		"amount":  amount,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.appKey != "" {
		req.Header.Set("X-App-Key", c.appKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("gateway", "create", err)
		return CheckoutResult{}, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()
	provider.LogResponse("gateway", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CheckoutResult{}, fmt.Errorf("gateway create status %d", resp.StatusCode)
	}

	var result CheckoutResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		provider.LogError("gateway", "decode create", err)
		return CheckoutResult{}, fmt.Errorf("decode response: %w", err)
	}
	if result.RedirectURL == "" {
		return CheckoutResult{}, fmt.Errorf("gateway response missing redirect url")
	}
	return result, nil
}

// Verify asks the gateway whether the order with the given id has settled.
func (c *Client) Verify(ctx context.Context, orderID string) (VerifyResult, error) {
	body, err := json.Marshal(map[string]string{
		"orderId": orderID,
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	url := c.baseURL + "/checkout/execute"
	provider.LogRequest("gateway", "POST", url, map[string]interface{}{
		"orderId": orderID,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return VerifyResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.appKey != "" {
		req.Header.Set("X-App-Key", c.appKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("gateway", "verify", err)
		return VerifyResult{}, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()
	provider.LogResponse("gateway", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return VerifyResult{}, fmt.Errorf("gateway verify status %d", resp.StatusCode)
	}

	var result VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		provider.LogError("gateway", "decode verify", err)
		return VerifyResult{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}
