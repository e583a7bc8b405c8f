// Package authapi is the client for the upstream authentication service.
// It owns boundary normalization: whatever shape the backend uses for the
// email-verification flag, the rest of the codebase only ever sees a bool.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/CampusTransit/CT-Backend/internal/upstream/provider"
	"golang.org/x/text/unicode/norm"
)

// Client talks to the auth service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an auth API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// User is the normalized user record returned by the auth service.
type User struct {
	ID         string `json:"id"`
	DisplayID  string `json:"display_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Verified   bool   `json:"verified"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	AvatarURL  string `json:"avatar_url"`
}

// LoginResult is a successful login: the user plus the opaque backend token.
type LoginResult struct {
	User  User
	Token string
}

// wireUser matches the backend response, with the verification flag kept raw
// so it can be tolerantly parsed regardless of backend type drift.
type wireUser struct {
	ID         string          `json:"id"`
	DisplayID  string          `json:"displayId"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	Role       string          `json:"role"`
	IsVerified json.RawMessage `json:"isVerified"`
	Department string          `json:"department"`
	Phone      string          `json:"phone"`
	AvatarURL  string          `json:"avatarUrl"`
}

func (w wireUser) normalize() User {
	return User{
		ID:         w.ID,
		DisplayID:  w.DisplayID,
		Username:   w.Username,
		Email:      w.Email,
		Role:       w.Role,
		Verified:   ParseVerified(w.IsVerified),
		Department: w.Department,
		Phone:      w.Phone,
		AvatarURL:  w.AvatarURL,
	}
}

// Login authenticates the given credentials and returns the user and token.
// A non-2xx response comes back as an error carrying the backend's message.
func (c *Client) Login(ctx context.Context, id, password string) (LoginResult, error) {
	// Login ids arrive from arbitrary browser input methods; NFC keeps
	// composed and decomposed forms of the same name from being distinct ids.
	id = norm.NFC.String(id)

	body, err := json.Marshal(map[string]string{
		"id":       id,
		"password": password,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	url := c.baseURL + "/auth/login"
	provider.LogRequest("authapi", "POST", url, map[string]interface{}{"id": id})

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("authapi", "login", err)
		return LoginResult{}, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()
	provider.LogResponse("authapi", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return LoginResult{}, fmt.Errorf("login failed: %s", readErrorMessage(resp))
	}

	var payload struct {
		User  wireUser `json:"user"`
		Token string   `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		provider.LogError("authapi", "decode login", err)
		return LoginResult{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Token == "" {
		return LoginResult{}, fmt.Errorf("login response missing token")
	}

	return LoginResult{User: payload.User.normalize(), Token: payload.Token}, nil
}

// UpdatePassword changes the password for the given account.
func (c *Client) UpdatePassword(ctx context.Context, email, currentPass, newPass string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":           email,
		"currentPassword": currentPass,
		"newPassword":     newPass,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	url := c.baseURL + "/auth/update-password"
	provider.LogRequest("authapi", "POST", url, nil)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("authapi", "update password", err)
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()
	provider.LogResponse("authapi", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("update password failed: %s", readErrorMessage(resp))
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return payload.Message, nil
}

// readErrorMessage extracts a backend error message, falling back to the
// raw body then the HTTP status.
func readErrorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(raw) == 0 {
		return resp.Status
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return string(raw)
}
