// Package zoom wraps the parts of the Zoom REST API the bot needs:
// server-to-server OAuth, meeting creation, and meeting lookup, plus
// the webhook payload types.
package zoom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.zoom.us/v2"
	defaultAuthURL = "https://zoom.us/oauth/token"

	requestTimeout = 10 * time.Second

	// Refresh the token a little before Zoom expires it, so a call
	// started near the boundary does not race the expiry.
	tokenPad = 30 * time.Second
)

// ErrNotFound is returned when Zoom reports 404 for a meeting id.
var ErrNotFound = errors.New("zoom: meeting not found")

// ProviderError is any non-2xx answer from Zoom other than a meeting 404.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("zoom: status %d: %s", e.Status, e.Body)
}

// Meeting is the subset of Zoom's meeting object the bot uses.
type Meeting struct {
	ID       int64  `json:"id"`
	HostID   string `json:"host_id"`
	Topic    string `json:"topic"`
	JoinURL  string `json:"join_url"`
	Passcode string `json:"password"`
}

// Client talks to Zoom with account-credentials OAuth. The token is the
// only mutable shared state; it is guarded by a mutex, and a concurrent
// surplus refresh is harmless.
type Client struct {
	accountID    string
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string
	httpClient   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewClient(accountID, clientID, clientSecret, baseURL, authURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if authURL == "" {
		authURL = defaultAuthURL
	}
	return &Client{
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		authURL:      authURL,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// bearer returns a valid access token, re-authenticating when the held
// one is missing or close to expiry. A refresh failure fails the call.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Add(tokenPad).Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {c.accountID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Status: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}

	c.token = tok.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// do performs one authenticated request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoom request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &ProviderError{Status: resp.StatusCode, Body: string(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

type createMeetingRequest struct {
	Topic    string          `json:"topic,omitempty"`
	Type     int             `json:"type"`
	Settings meetingSettings `json:"settings"`
}

type meetingSettings struct {
	JoinBeforeHost bool   `json:"join_before_host"`
	WaitingRoom    bool   `json:"waiting_room"`
	MuteUponEntry  bool   `json:"mute_upon_entry"`
	Audio          string `json:"audio"`
}

// CreateMeeting creates an instant meeting under the owner's account.
// No retry on failure; the caller surfaces the error to the operator.
func (c *Client) CreateMeeting(ctx context.Context, owner, topic string) (*Meeting, error) {
	req := createMeetingRequest{
		Topic: topic,
		Type:  1, // instant
		Settings: meetingSettings{
			JoinBeforeHost: true,
			WaitingRoom:    false,
			MuteUponEntry:  true,
			Audio:          "both",
		},
	}

	var m Meeting
	path := "/users/" + url.PathEscape(owner) + "/meetings"
	if err := c.do(ctx, http.MethodPost, path, req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMeeting fetches a meeting by id. Returns ErrNotFound on 404.
func (c *Client) GetMeeting(ctx context.Context, meetingID int64) (*Meeting, error) {
	var m Meeting
	path := fmt.Sprintf("/meetings/%d", meetingID)
	if err := c.do(ctx, http.MethodGet, path, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
