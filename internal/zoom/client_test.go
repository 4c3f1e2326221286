package zoom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient wires a Client against two httptest servers: one
// playing the OAuth endpoint, one the API.
func newTestClient(t *testing.T, api http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var tokenCalls int32
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token request must use basic auth")
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "account_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "acct-1", r.Form.Get("account_id"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(auth.Close)

	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	return NewClient("acct-1", "client-id", "client-secret", apiSrv.URL, auth.URL), &tokenCalls
}

func TestCreateMeeting(t *testing.T) {
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/alice@x/meetings", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1), body["type"], "instant meeting expected")

		json.NewEncoder(w).Encode(map[string]any{
			"id":       111,
			"join_url": "https://zoom.example/j/111",
			"password": "sign123",
		})
	})

	m, err := client.CreateMeeting(context.Background(), "alice@x", "")
	require.NoError(t, err)
	assert.Equal(t, int64(111), m.ID)
	assert.Equal(t, "https://zoom.example/j/111", m.JoinURL)
	assert.Equal(t, "sign123", m.Passcode)
	assert.Equal(t, int32(1), *tokenCalls)
}

func TestTokenReusedAcrossCalls(t *testing.T) {
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 111})
	})

	ctx := context.Background()
	_, err := client.GetMeeting(ctx, 111)
	require.NoError(t, err)
	_, err = client.GetMeeting(ctx, 111)
	require.NoError(t, err)

	assert.Equal(t, int32(1), *tokenCalls, "token must be cached until near expiry")
}

func TestGetMeetingNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":3001}`, http.StatusNotFound)
	})

	_, err := client.GetMeeting(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMeetingProviderError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream sad", http.StatusInternalServerError)
	})

	_, err := client.CreateMeeting(context.Background(), "alice@x", "")

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusInternalServerError, provErr.Status)
}

func TestEventMeetingID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want int64
		ok   bool
	}{
		{"normal", "111", 111, true},
		{"missing", "", 0, false},
		{"garbage", "abc", 0, false},
	}
	for _, tc := range tests {
		ev := &Event{Payload: Payload{Object: Object{ID: tc.id}}}
		got, ok := ev.MeetingID()
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}
