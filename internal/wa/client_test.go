package wa

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"local leading zero", "081234567890", "6281234567890"},
		{"already international", "6281234567890", "6281234567890"},
		{"bare subscriber number", "81234567890", "6281234567890"},
		{"formatted with symbols", "+62 812-3456-7890", "6281234567890"},
		{"spaces and dots", "0812.3456.7890", "6281234567890"},
		{"empty", "", ""},
		{"symbols only", "+- ()", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeNumber(tc.input))
		})
	}
}

func TestFormatChatID(t *testing.T) {
	assert.Equal(t, "6281234567890@c.us", FormatChatID("081234567890"))
}

func TestSendText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/sendText", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Session: "default", APIKey: "secret"}, testLogger(), nil)

	ok := client.SendText(context.Background(), "081234567890", "halo")
	require.True(t, ok)
	assert.Equal(t, "default", got["session"])
	assert.Equal(t, "6281234567890@c.us", got["chatId"])
	assert.Equal(t, "halo", got["text"])
}

func TestSendTextGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, testLogger(), nil)
	assert.False(t, client.SendText(context.Background(), "0812", "halo"))
}

func TestSendTextUnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(Config{BaseURL: srv.URL}, testLogger(), nil)
	assert.False(t, client.SendText(context.Background(), "0812", "halo"))
}

func TestGetSessionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sessions/main", r.URL.Path)
		json.NewEncoder(w).Encode(SessionStatus{Name: "main", Status: "WORKING"})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Session: "main"}, testLogger(), nil)

	status := client.GetSessionStatus(context.Background())
	require.NotNil(t, status)
	assert.True(t, status.Ready())
	assert.True(t, client.IsSessionReady(context.Background()))
}

func TestSessionNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SessionStatus{Name: "default", Status: "SCAN_QR_CODE"})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, testLogger(), nil)
	assert.False(t, client.IsSessionReady(context.Background()))
}

func TestSessionStatusUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(Config{BaseURL: srv.URL}, testLogger(), nil)
	assert.Nil(t, client.GetSessionStatus(context.Background()))
	assert.False(t, client.IsSessionReady(context.Background()))
}
