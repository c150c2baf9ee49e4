package http

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"airsync_server/core/service/webhook"
	"airsync_server/pkg/apperr"
	"airsync_server/pkg/response"
)

// AdminHandler exposes the operational endpoints: webhook registration,
// subscription listing, and delivery metrics. All routes require the
// static admin bearer token.
type AdminHandler struct {
	registrar *webhook.Registrar
	webhooks  *WebhookHandler
	token     string
	log       zerolog.Logger
}

// NewAdminHandler creates an admin handler. An empty token disables the
// admin surface entirely.
func NewAdminHandler(registrar *webhook.Registrar, webhooks *WebhookHandler, token string, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		registrar: registrar,
		webhooks:  webhooks,
		token:     token,
		log:       log.With().Str("component", "admin_handler").Logger(),
	}
}

// Register mounts the admin routes.
func (h *AdminHandler) Register(app *fiber.App) {
	admin := app.Group("/admin", h.requireToken)
	admin.Post("/webhooks/register", h.RegisterWebhooks)
	admin.Get("/webhooks", h.ListWebhooks)
	admin.Get("/webhooks/metrics", h.Metrics)
}

func (h *AdminHandler) requireToken(c *fiber.Ctx) error {
	if h.token == "" {
		return apperr.Unauthorized("admin endpoints are disabled")
	}
	auth := c.Get(fiber.HeaderAuthorization)
	presented, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(h.token)) != 1 {
		return apperr.Unauthorized("invalid admin token")
	}
	return c.Next()
}

// RegisterWebhooks subscribes all webhooks on the event platform. An
// optional airmeetId query parameter scopes the subscriptions to one event.
func (h *AdminHandler) RegisterWebhooks(c *fiber.Ctx) error {
	airmeetID := c.Query("airmeetId")
	if err := h.registrar.RegisterAll(c.Context(), airmeetID); err != nil {
		return err
	}
	return response.Created(c, fiber.Map{
		"registered": len(h.registrar.Descriptors(airmeetID)),
		"airmeet_id": airmeetID,
	})
}

// ListWebhooks returns the platform's current webhook subscriptions.
func (h *AdminHandler) ListWebhooks(c *fiber.Ctx) error {
	webhooks, err := h.registrar.List(c.Context(), c.Query("airmeetId"))
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"webhooks": webhooks,
		"total":    len(webhooks),
	})
}

// Metrics returns the webhook delivery counters.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	m := h.webhooks.GetMetrics()
	return response.OK(c, fiber.Map{
		"processed":  m.Processed,
		"duplicates": m.Duplicates,
		"errors":     m.Errors,
	})
}
