package linksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a qrlink handshake service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with a sane default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doJSON sends an optional JSON body and decodes a JSON reply into target.
// Non-2xx replies come back as *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := parseErrorResponse(resp, data); err != nil {
		return err
	}

	if target != nil {
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreateHandshake starts a new handshake. The desktop renders the returned
// QRPayload and then polls Status (or uses PollUntilDone).
func (c *Client) CreateHandshake(ctx context.Context, req CreateHandshakeRequest) (*CreateHandshakeResponse, error) {
	var out CreateHandshakeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/handshakes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches the current state of a handshake.
func (c *Client) Status(ctx context.Context, id string) (*HandshakeStatus, error) {
	var out HandshakeStatus
	if err := c.doJSON(ctx, http.MethodGet, "/v1/handshakes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scan reports that a device camera picked up the QR code.
func (c *Client) Scan(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/handshakes/"+url.PathEscape(id)+"/scan", nil, nil)
}

// Confirm approves the handshake on behalf of identity. source must be on
// the server's allow-list.
func (c *Client) Confirm(ctx context.Context, id, identity, source string) error {
	req := ConfirmHandshakeRequest{UserIdentity: identity, Source: source}
	return c.doJSON(ctx, http.MethodPost, "/v1/handshakes/"+url.PathEscape(id)+"/confirm", req, nil)
}

// Reject refuses the handshake.
func (c *Client) Reject(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/handshakes/"+url.PathEscape(id)+"/reject", nil, nil)
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness checks if the service is ready to take traffic.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
