// Package paymentapi is the client for the payment-record service, which is
// the system of record for settled payments.
package paymentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CampusTransit/CT-Backend/internal/upstream/provider"
)

// Client talks to the payment-record service.
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

// Record describes one settled payment.
type Record struct {
	UserID        string `json:"userId"`
	UserName      string `json:"userName"`
	PaymentMethod string `json:"paymentMethod"`
	Amount        int    `json:"amount"`
	PhoneNumber   string `json:"phoneNumber"`
	TransactionID string `json:"transactionId"`
}

// Create stores a payment record and returns the service-assigned payment id.
func (c *Client) Create(ctx context.Context, record Record) (string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	url := c.baseURL + "/payments"
	provider.LogRequest("paymentapi", "POST", url, map[string]interface{}{
		"userId": record.UserID,
		"trxId":  record.TransactionID,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("paymentapi", "create", err)
		return "", fmt.Errorf("payment request: %w", err)
	}
	defer resp.Body.Close()
	provider.LogResponse("paymentapi", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("payment create status %d", resp.StatusCode)
	}

	var payload struct {
		PaymentID string `json:"paymentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if payload.PaymentID == "" {
		return "", fmt.Errorf("payment response missing paymentId")
	}
	return payload.PaymentID, nil
}
