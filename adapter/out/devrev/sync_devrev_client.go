// Package devrev implements the record-store port against the DevRev API.
package devrev

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
	"airsync_server/pkg/apperr"
	"airsync_server/pkg/httputil"
)

// Config holds the DevRev API credentials and addressing.
type Config struct {
	BaseURL string
	Token   string
}

// Client is the DevRev API client. Every store operation is a JSON POST
// with a static bearer token. Calls run through a circuit breaker so a
// degraded store sheds load fast instead of queueing webhook deliveries
// behind timeouts.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

var _ out.RecordStore = (*Client)(nil)

// NewClient creates a DevRev client with a pooled HTTP transport.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	l := log.With().Str("component", "devrev").Logger()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "devrev",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures > 5 {
				return true
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return &Client{
		cfg:     cfg,
		http:    httputil.NewClient(httputil.DevRevClientConfig()),
		breaker: breaker,
		log:     l,
	}
}

// ============================================================
// Accounts
// ============================================================

func (c *Client) AccountsList(ctx context.Context, filter *out.AccountListFilter) ([]*domain.Account, error) {
	var result struct {
		Accounts []*domain.Account `json:"accounts"`
	}
	if err := c.post(ctx, "/accounts.list", filter, &result); err != nil {
		return nil, err
	}
	return result.Accounts, nil
}

func (c *Client) AccountsCreate(ctx context.Context, req *out.AccountCreateRequest) (*domain.Account, error) {
	var result struct {
		Account *domain.Account `json:"account"`
	}
	if err := c.post(ctx, "/accounts.create", req, &result); err != nil {
		return nil, err
	}
	return result.Account, nil
}

// ============================================================
// Rev users (contacts)
// ============================================================

func (c *Client) RevUsersList(ctx context.Context, filter *out.RevUserListFilter) ([]*domain.Contact, error) {
	var result struct {
		RevUsers []*domain.Contact `json:"rev_users"`
	}
	if err := c.post(ctx, "/rev-users.list", filter, &result); err != nil {
		return nil, err
	}
	return result.RevUsers, nil
}

func (c *Client) RevUsersCreate(ctx context.Context, req *out.RevUserCreateRequest) (*domain.Contact, error) {
	var result struct {
		RevUser *domain.Contact `json:"rev_user"`
	}
	if err := c.post(ctx, "/rev-users.create", req, &result); err != nil {
		return nil, err
	}
	return result.RevUser, nil
}

// ============================================================
// Custom objects and schemas
// ============================================================

func (c *Client) CustomObjectsCreate(ctx context.Context, req *out.CustomObjectRequest) (string, error) {
	var result struct {
		CustomObject *out.CustomObject `json:"custom_object"`
	}
	if err := c.post(ctx, "/custom-objects.create", req, &result); err != nil {
		return "", err
	}
	if result.CustomObject == nil {
		return "", nil
	}
	return result.CustomObject.ID, nil
}

func (c *Client) CustomObjectsList(ctx context.Context, filter *out.CustomObjectListFilter) ([]*out.CustomObject, error) {
	var result struct {
		CustomObjects []*out.CustomObject `json:"custom_objects"`
	}
	if err := c.post(ctx, "/custom-objects.list", filter, &result); err != nil {
		return nil, err
	}
	return result.CustomObjects, nil
}

func (c *Client) SchemasCustomSet(ctx context.Context, schema *out.CustomSchema) error {
	return c.post(ctx, "/schemas.custom.set", schema, nil)
}

// ============================================================
// Timeline
// ============================================================

func (c *Client) TimelineEntriesCreate(ctx context.Context, req *out.TimelineEntryRequest) error {
	return c.post(ctx, "/timeline-entries.create", req, nil)
}

// ============================================================
// Transport
// ============================================================

type httpResult struct {
	status int
	body   []byte
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperr.ExternalError("devrev", fmt.Errorf("encode request: %w", err))
	}

	v, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(ctx, path, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Warn().Str("path", path).Msg("devrev circuit open, request rejected")
		}
		return apperr.ExternalError("devrev", err)
	}
	res := v.(*httpResult)

	switch {
	case res.status == http.StatusConflict:
		return apperr.Conflict(fmt.Sprintf("devrev %s: record already exists", path))
	case res.status == http.StatusUnauthorized || res.status == http.StatusForbidden:
		return apperr.AuthFailed("devrev", fmt.Errorf("%s: status %d", path, res.status))
	case res.status < 200 || res.status >= 300:
		c.log.Error().
			Int("status", res.status).
			Str("path", path).
			Msg("devrev request failed")
		return apperr.ExternalError("devrev", fmt.Errorf("%s: status %d", path, res.status))
	}

	if result == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, result); err != nil {
		return apperr.ExternalError("devrev", fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

// roundTrip performs one request. Client-side 4xx responses count as
// breaker successes: they are this service's fault, not the store's.
func (c *Client) roundTrip(ctx context.Context, path string, payload []byte) (*httpResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return &httpResult{status: resp.StatusCode, body: body}, nil
}
