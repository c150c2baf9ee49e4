package out

import (
	"context"

	"airsync_server/core/domain"
)

// EventPlatform defines the outbound port for the event platform API.
// All calls are bearer-authenticated; the adapter owns the token lifecycle
// and retries exactly once on a 401.
type EventPlatform interface {
	// Event reads
	ListEvents(ctx context.Context) ([]*domain.Event, error)
	GetEvent(ctx context.Context, eventID string) (*domain.Event, error)
	GetEventAttendees(ctx context.Context, eventID string) ([]*domain.Attendee, error)
	GetSessionAttendance(ctx context.Context, eventID, sessionID string) ([]*domain.SessionAttendance, error)
	GetBoothActivity(ctx context.Context, eventID string) ([]*domain.BoothActivity, error)
	GetParticipantRegistration(ctx context.Context, eventID, email string) (*domain.ParticipantRegistration, error)

	// Webhook management
	RegisterWebhook(ctx context.Context, desc *WebhookDescriptor) error
	ListWebhooks(ctx context.Context, airmeetID string) ([]*PlatformWebhook, error)

	// Generic escape hatch for endpoints without a typed wrapper
	Get(ctx context.Context, path string, result any) error
	Post(ctx context.Context, path string, body, result any) error
}

// WebhookDescriptor describes one webhook subscription on the event platform.
type WebhookDescriptor struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	TriggerMetaInfoID string `json:"triggerMetaInfoId"`
	URL               string `json:"url"`
	PlatformName      string `json:"platformName"`
	AirmeetID         string `json:"airmeetId,omitempty"`
}

// PlatformWebhook is a webhook subscription as reported by the platform.
type PlatformWebhook struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TriggerMetaInfoID string `json:"triggerMetaInfoId"`
	URL               string `json:"url"`
	Status            string `json:"status,omitempty"`
}
