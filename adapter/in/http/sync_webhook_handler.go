// Package http holds the inbound HTTP handlers.
package http

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"airsync_server/core/domain"
	"airsync_server/core/service/webhook"
	"airsync_server/pkg/response"
)

// DeliveryDedupeTTL bounds how long a delivery key blocks replays at the
// HTTP boundary. Replays past the window still dedupe on the record store's
// unique keys.
const DeliveryDedupeTTL = 5 * time.Minute

// WebhookMetrics counts webhook deliveries by outcome.
type WebhookMetrics struct {
	Processed  int64
	Duplicates int64
	Errors     int64
}

// WebhookHandler receives event-platform webhook deliveries and runs them
// through the dispatch pipeline. Redis is optional: when absent, every
// delivery goes straight to the pipeline and idempotency rests entirely on
// the store's unique keys.
type WebhookHandler struct {
	dispatcher *webhook.Dispatcher
	redis      *redis.Client
	log        zerolog.Logger
	metrics    WebhookMetrics
}

// NewWebhookHandler creates a webhook handler. redisClient may be nil.
func NewWebhookHandler(dispatcher *webhook.Dispatcher, redisClient *redis.Client, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		redis:      redisClient,
		log:        log.With().Str("component", "webhook_handler").Logger(),
	}
}

// GetMetrics returns a consistent snapshot of the delivery counters.
func (h *WebhookHandler) GetMetrics() WebhookMetrics {
	return WebhookMetrics{
		Processed:  atomic.LoadInt64(&h.metrics.Processed),
		Duplicates: atomic.LoadInt64(&h.metrics.Duplicates),
		Errors:     atomic.LoadInt64(&h.metrics.Errors),
	}
}

// Register mounts the webhook routes.
func (h *WebhookHandler) Register(app *fiber.App) {
	app.Post("/webhooks/registration", h.Registration)
	app.Post("/webhooks/event-entry", h.EventEntry)
	app.Post("/webhooks/cta-click", h.CTAClick)
}

// Registration handles the attendee-added webhook.
func (h *WebhookHandler) Registration(c *fiber.Ctx) error {
	var payload domain.RegistrationPayload
	if err := c.BodyParser(&payload); err != nil {
		atomic.AddInt64(&h.metrics.Errors, 1)
		return response.Error(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", "malformed registration payload")
	}

	key := h.deliveryKey("registration", payload.AirmeetID, payload.Email)
	if h.isDuplicate(c.Context(), key) {
		return response.OK(c, &domain.DispatchResult{Success: true})
	}

	result, err := h.dispatcher.HandleRegistration(c.Context(), &payload)
	if err != nil {
		h.failed(key)
		return err
	}

	atomic.AddInt64(&h.metrics.Processed, 1)
	return response.OK(c, result)
}

// EventEntry handles the attendee-entered-event webhook.
func (h *WebhookHandler) EventEntry(c *fiber.Ctx) error {
	var payload domain.EventEntryPayload
	if err := c.BodyParser(&payload); err != nil {
		atomic.AddInt64(&h.metrics.Errors, 1)
		return response.Error(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", "malformed event entry payload")
	}

	key := h.deliveryKey("event-entry", payload.AirmeetID, payload.Email)
	if h.isDuplicate(c.Context(), key) {
		return response.OK(c, &domain.DispatchResult{Success: true})
	}

	result, err := h.dispatcher.HandleEventEntry(c.Context(), &payload)
	if err != nil {
		h.failed(key)
		return err
	}

	atomic.AddInt64(&h.metrics.Processed, 1)
	return response.OK(c, result)
}

// CTAClick handles the attendee-clicked-CTA webhook.
func (h *WebhookHandler) CTAClick(c *fiber.Ctx) error {
	var payload domain.CTAClickPayload
	if err := c.BodyParser(&payload); err != nil {
		atomic.AddInt64(&h.metrics.Errors, 1)
		return response.Error(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", "malformed CTA click payload")
	}

	key := h.deliveryKey("cta-click", payload.AirmeetID, payload.Email)
	if h.isDuplicate(c.Context(), key) {
		return response.OK(c, &domain.DispatchResult{Success: true})
	}

	result, err := h.dispatcher.HandleCTAClick(c.Context(), &payload)
	if err != nil {
		h.failed(key)
		return err
	}

	atomic.AddInt64(&h.metrics.Processed, 1)
	return response.OK(c, result)
}

func (h *WebhookHandler) deliveryKey(kind, airmeetID, email string) string {
	return "delivery:" + kind + ":" + airmeetID + ":" + strings.ToLower(strings.TrimSpace(email))
}

// isDuplicate claims the delivery key via SETNX. Redis errors fail open:
// a delivery is never dropped because the dedupe layer is down.
func (h *WebhookHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.redis == nil {
		return false
	}
	ok, err := h.redis.SetNX(ctx, key, "1", DeliveryDedupeTTL).Result()
	if err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("delivery dedupe check failed")
		return false
	}
	if !ok {
		atomic.AddInt64(&h.metrics.Duplicates, 1)
		h.log.Debug().Str("key", key).Msg("duplicate delivery skipped")
		return true
	}
	return false
}

// failed counts the error and releases the delivery key so the platform's
// retry of the same delivery is not treated as a duplicate.
func (h *WebhookHandler) failed(key string) {
	atomic.AddInt64(&h.metrics.Errors, 1)
	if h.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = h.redis.Del(ctx, key)
}
