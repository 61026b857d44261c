package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayClient implements Chat against the bot-gateway sidecar's HTTP
// API. The sidecar owns the actual chat-platform connection; this
// client only forwards capability calls.
type GatewayClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGatewayClient creates a client for the gateway at baseURL.
func NewGatewayClient(baseURL, token string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ Chat = (*GatewayClient)(nil)

func (c *GatewayClient) SendMessage(ctx context.Context, channelID, text string) (MessageRef, error) {
	body, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return "", err
	}

	data, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages", channelID), bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode send response: %w", err)
	}
	return MessageRef(resp.MessageID), nil
}

func (c *GatewayClient) PinMessage(ctx context.Context, channelID string, ref MessageRef) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/channels/%s/pins/%s", channelID, ref), nil)
	return err
}

func (c *GatewayClient) UnpinMessage(ctx context.Context, channelID string, ref MessageRef) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/channels/%s/pins/%s", channelID, ref), nil)
	return err
}

func (c *GatewayClient) FetchUserName(ctx context.Context, userID string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%s", userID), nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode user response: %w", err)
	}
	return resp.Username, nil
}

func (c *GatewayClient) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(responseBody))
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return responseBody, nil
}
