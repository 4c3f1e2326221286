package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultAPIBaseURL = "https://chat.example.org/api/v10"

// restClient implements Surface over the platform's REST API with
// bot-token auth and a bounded per-request timeout.
type restClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewREST returns a Surface backed by the platform REST API.
func NewREST(token, baseURL string) Surface {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &restClient{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiMessage struct {
	ID string `json:"id"`
}

func (c *restClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat api: status %d: %s", resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (c *restClient) Send(ctx context.Context, channelID string, msg Message) (string, error) {
	var created apiMessage
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, msg, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *restClient) Edit(ctx context.Context, channelID, messageID string, msg Message) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodPatch, path, msg, nil)
}

func (c *restClient) Delete(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *restClient) React(ctx context.Context, channelID, messageID, emoji string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		channelID, messageID, url.PathEscape(emoji))
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

func (c *restClient) ClearReactions(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions", channelID, messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *restClient) SendDirect(ctx context.Context, userID string, msg Message) (string, error) {
	var dm struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/@me/channels",
		map[string]string{"recipient_id": userID}, &dm); err != nil {
		return "", fmt.Errorf("open dm: %w", err)
	}
	return c.Send(ctx, dm.ID, msg)
}
