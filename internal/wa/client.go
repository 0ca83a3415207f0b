package wa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"indekost/internal/metrics"
)

const sessionStatusWorking = "WORKING"

// Config holds gateway client configuration.
type Config struct {
	BaseURL string
	Session string
	APIKey  string
	Timeout time.Duration
}

// Client provides typed access to a WAHA-compatible WhatsApp HTTP
// gateway. Send failures are converted into a boolean result and a log
// entry; the client never surfaces a hard error for an undelivered
// message and performs no retries. The next scheduled run is the retry.
type Client struct {
	logger  *slog.Logger
	baseURL string
	session string
	apiKey  string
	http    *http.Client
	metrics *metrics.Metrics
}

// New creates a new gateway client.
func New(cfg Config, logger *slog.Logger, metricRegistry *metrics.Metrics) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	session := cfg.Session
	if session == "" {
		session = "default"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		logger:  logger.With("component", "wa"),
		baseURL: base,
		session: session,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		metrics: metricRegistry,
	}
}

// SessionStatus mirrors the gateway's session state response.
type SessionStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Ready reports whether the session can deliver messages.
func (s *SessionStatus) Ready() bool {
	return s != nil && s.Status == sessionStatusWorking
}

// GetSessionStatus queries the gateway for the session state. A nil
// result means the gateway was unreachable or answered with an error.
func (c *Client) GetSessionStatus(ctx context.Context) *SessionStatus {
	url := fmt.Sprintf("%s/api/sessions/%s", c.baseURL, c.session)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("build session status request", "error", err)
		return nil
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("sessions", "error", start)
		c.logger.Error("gateway session status failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe("sessions", fmt.Sprint(resp.StatusCode), start)
		c.logger.Error("gateway session status non-success", "status", resp.StatusCode)
		return nil
	}
	c.observe("sessions", fmt.Sprint(resp.StatusCode), start)

	var status SessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		c.logger.Error("decode session status", "error", err)
		return nil
	}
	return &status
}

// IsSessionReady reports whether the gateway session is in the WORKING
// state. Used as the scheduler's pre-flight check.
func (c *Client) IsSessionReady(ctx context.Context) bool {
	return c.GetSessionStatus(ctx).Ready()
}

// SendText delivers a text message to the given WhatsApp number. The
// number is normalized to international format before sending. Network
// errors and non-success responses yield false, never an error.
func (c *Client) SendText(ctx context.Context, to, text string) bool {
	chatID := FormatChatID(to)

	payload, err := json.Marshal(map[string]string{
		"session": c.session,
		"chatId":  chatID,
		"text":    text,
	})
	if err != nil {
		c.logger.Error("marshal send payload", "error", err)
		return false
	}

	url := c.baseURL + "/api/sendText"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("build send request", "error", err)
		return false
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("sendText", "error", start)
		c.countSend("error")
		c.logger.Error("gateway send failed", "to", chatID, "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.observe("sendText", fmt.Sprint(resp.StatusCode), start)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.countSend("failed")
		c.logger.Error("gateway send non-success", "to", chatID, "status", resp.StatusCode)
		return false
	}

	c.countSend("sent")
	c.logger.Info("whatsapp message sent", "to", chatID)
	return true
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}

func (c *Client) observe(endpoint, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayRequests.WithLabelValues(endpoint, status).Inc()
	c.metrics.GatewayLatency.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}

func (c *Client) countSend(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.WAOutgoingMessages.WithLabelValues("text", outcome).Inc()
}

// NormalizeNumber converts a phone number to canonical Indonesian
// international format: digits only, leading "0" replaced by "62", and a
// single "62" prefix guaranteed.
func NormalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	if !strings.HasPrefix(digits, "62") {
		digits = "62" + digits
	}
	return digits
}

// FormatChatID builds the gateway chat identifier (628xxx@c.us).
func FormatChatID(number string) string {
	return NormalizeNumber(number) + "@c.us"
}
