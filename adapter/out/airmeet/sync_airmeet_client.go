// Package airmeet implements the event-platform port against the Airmeet
// public API.
package airmeet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
	"airsync_server/pkg/apperr"
	"airsync_server/pkg/httputil"
)

const (
	// defaultTokenTTL applies when the auth response carries no expiry.
	// Airmeet tokens are long-lived.
	defaultTokenTTL = 29 * 24 * time.Hour

	// tokenRefreshMargin refreshes the token ahead of its actual expiry so
	// in-flight requests never carry a token about to lapse.
	tokenRefreshMargin = time.Hour
)

// Config holds the Airmeet API credentials and addressing.
type Config struct {
	BaseURL     string
	AccessKey   string
	SecretKey   string
	CommunityID string
}

// Client is the Airmeet API client. It owns the access-token lifecycle:
// tokens are fetched lazily, cached until close to expiry, and refreshed
// through singleflight so concurrent deliveries trigger at most one auth
// call. A 401 mid-request invalidates the cache and retries exactly once.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time

	authGroup singleflight.Group
}

var _ out.EventPlatform = (*Client)(nil)

// NewClient creates an Airmeet client with a pooled HTTP transport.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: httputil.NewClient(httputil.AirmeetClientConfig()),
		log:  log.With().Str("component", "airmeet").Logger(),
	}
}

// ============================================================
// Event reads
// ============================================================

func (c *Client) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	var result struct {
		Events []*domain.Event `json:"events"`
	}
	path := fmt.Sprintf("/v2/community/%s/events", url.PathEscape(c.cfg.CommunityID))
	if err := c.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

func (c *Client) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	var event domain.Event
	path := fmt.Sprintf("/v2/events/%s", url.PathEscape(eventID))
	if err := c.Get(ctx, path, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) GetEventAttendees(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	var result struct {
		Attendees []*domain.Attendee `json:"attendees"`
	}
	path := fmt.Sprintf("/v2/events/%s/attendees", url.PathEscape(eventID))
	if err := c.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Attendees, nil
}

func (c *Client) GetSessionAttendance(ctx context.Context, eventID, sessionID string) ([]*domain.SessionAttendance, error) {
	var result struct {
		Attendance []*domain.SessionAttendance `json:"attendance"`
	}
	path := fmt.Sprintf("/v2/events/%s/sessions/%s/attendance", url.PathEscape(eventID), url.PathEscape(sessionID))
	if err := c.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Attendance, nil
}

func (c *Client) GetBoothActivity(ctx context.Context, eventID string) ([]*domain.BoothActivity, error) {
	var result struct {
		Activities []*domain.BoothActivity `json:"boothActivity"`
	}
	path := fmt.Sprintf("/v2/events/%s/booth-activity", url.PathEscape(eventID))
	if err := c.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Activities, nil
}

func (c *Client) GetParticipantRegistration(ctx context.Context, eventID, email string) (*domain.ParticipantRegistration, error) {
	var reg domain.ParticipantRegistration
	path := fmt.Sprintf("/v2/events/%s/registrations?email=%s", url.PathEscape(eventID), url.QueryEscape(email))
	if err := c.Get(ctx, path, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ============================================================
// Webhook management
// ============================================================

func (c *Client) RegisterWebhook(ctx context.Context, desc *out.WebhookDescriptor) error {
	path := "/platform-integration/v1/webhook-register"
	if desc.AirmeetID != "" {
		path += "?airmeetId=" + url.QueryEscape(desc.AirmeetID)
	}
	return c.Post(ctx, path, desc, nil)
}

func (c *Client) ListWebhooks(ctx context.Context, airmeetID string) ([]*out.PlatformWebhook, error) {
	var result struct {
		Webhooks []*out.PlatformWebhook `json:"webhooks"`
	}
	path := "/platform-integration/v1/webhook-list"
	if airmeetID != "" {
		path += "?airmeetId=" + url.QueryEscape(airmeetID)
	}
	if err := c.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Webhooks, nil
}

// ============================================================
// Transport
// ============================================================

// Get issues an authenticated GET and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post issues an authenticated JSON POST and decodes the response into
// result when result is non-nil.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	status, data, err := c.roundTrip(ctx, method, path, body, token)
	if err != nil {
		return apperr.ExternalError("airmeet", err)
	}

	// Expired or revoked token: reauthenticate and retry once.
	if status == http.StatusUnauthorized {
		c.invalidateToken(token)
		token, err = c.accessToken(ctx)
		if err != nil {
			return err
		}
		status, data, err = c.roundTrip(ctx, method, path, body, token)
		if err != nil {
			return apperr.ExternalError("airmeet", err)
		}
	}

	if status < 200 || status >= 300 {
		c.log.Error().
			Int("status", status).
			Str("method", method).
			Str("path", path).
			Msg("airmeet request failed")
		return apperr.ExternalError("airmeet", fmt.Errorf("%s %s: status %d", method, path, status))
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return apperr.ExternalError("airmeet", fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, token string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Airmeet-Access-Token", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// ============================================================
// Token lifecycle
// ============================================================

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, expiry := c.token, c.tokenExpiry
	c.mu.RUnlock()
	if token != "" && time.Until(expiry) > tokenRefreshMargin {
		return token, nil
	}

	v, err, _ := c.authGroup.Do("auth", func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		c.mu.RLock()
		token, expiry := c.token, c.tokenExpiry
		c.mu.RUnlock()
		if token != "" && time.Until(expiry) > tokenRefreshMargin {
			return token, nil
		}
		return c.authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/auth/token", nil)
	if err != nil {
		return "", apperr.AuthFailed("airmeet", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Airmeet-Access-Key", c.cfg.AccessKey)
	req.Header.Set("X-Airmeet-Secret-Key", c.cfg.SecretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.AuthFailed("airmeet", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.AuthFailed("airmeet", fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var payload struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"` // seconds, optional
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperr.AuthFailed("airmeet", fmt.Errorf("decode token response: %w", err))
	}
	if payload.Token == "" {
		return "", apperr.AuthFailed("airmeet", fmt.Errorf("token endpoint returned empty token"))
	}

	ttl := defaultTokenTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}

	c.mu.Lock()
	c.token = payload.Token
	c.tokenExpiry = time.Now().Add(ttl)
	c.mu.Unlock()

	c.log.Info().Time("expires_at", time.Now().Add(ttl)).Msg("airmeet token refreshed")
	return payload.Token, nil
}

// invalidateToken clears the cache, but only if the rejected token is still
// the cached one. A concurrent refresh may already have replaced it.
func (c *Client) invalidateToken(rejected string) {
	c.mu.Lock()
	if c.token == rejected {
		c.token = ""
		c.tokenExpiry = time.Time{}
	}
	c.mu.Unlock()
}
