package webhook

import (
	"context"

	"github.com/rs/zerolog"

	"airsync_server/core/port/out"
)

// Webhook trigger identifiers on the event platform.
const (
	TriggerAttendeeAdded   = "trigger.airmeet.attendee.added"
	TriggerAttendeeEntered = "trigger.attendee.entered_airmeet"
	TriggerAttendeeCTA     = "trigger.attendee.clicked_cta"
)

// platformName identifies this integration in webhook subscriptions.
const platformName = "DevRev"

// Registrar manages the three webhook subscriptions this service depends on.
type Registrar struct {
	platform out.EventPlatform
	baseURL  string
	log      zerolog.Logger
}

// NewRegistrar creates a registrar that subscribes callbacks under baseURL.
func NewRegistrar(platform out.EventPlatform, baseURL string, log zerolog.Logger) *Registrar {
	return &Registrar{
		platform: platform,
		baseURL:  baseURL,
		log:      log.With().Str("component", "registrar").Logger(),
	}
}

// Descriptors returns the full webhook set in registration order. An empty
// airmeetID subscribes community-wide.
func (r *Registrar) Descriptors(airmeetID string) []*out.WebhookDescriptor {
	return []*out.WebhookDescriptor{
		{
			Name:              "Registration Sync",
			Description:       "Syncs new event registrations to the record store",
			TriggerMetaInfoID: TriggerAttendeeAdded,
			URL:               r.baseURL + "/webhooks/registration",
			PlatformName:      platformName,
			AirmeetID:         airmeetID,
		},
		{
			Name:              "Event Entry Tracking",
			Description:       "Tracks attendees entering the event",
			TriggerMetaInfoID: TriggerAttendeeEntered,
			URL:               r.baseURL + "/webhooks/event-entry",
			PlatformName:      platformName,
			AirmeetID:         airmeetID,
		},
		{
			Name:              "CTA Click Tracking",
			Description:       "Tracks attendee CTA clicks during the event",
			TriggerMetaInfoID: TriggerAttendeeCTA,
			URL:               r.baseURL + "/webhooks/cta-click",
			PlatformName:      platformName,
			AirmeetID:         airmeetID,
		},
	}
}

// RegisterAll subscribes all three webhooks in order, stopping at the first
// failure so a partial registration is visible rather than silently skipped.
func (r *Registrar) RegisterAll(ctx context.Context, airmeetID string) error {
	for _, desc := range r.Descriptors(airmeetID) {
		if err := r.platform.RegisterWebhook(ctx, desc); err != nil {
			r.log.Error().Err(err).
				Str("webhook", desc.Name).
				Str("trigger", desc.TriggerMetaInfoID).
				Msg("webhook registration failed")
			return err
		}
		r.log.Info().
			Str("webhook", desc.Name).
			Str("url", desc.URL).
			Msg("webhook registered")
	}
	return nil
}

// List returns the platform's current webhook subscriptions.
func (r *Registrar) List(ctx context.Context, airmeetID string) ([]*out.PlatformWebhook, error) {
	return r.platform.ListWebhooks(ctx, airmeetID)
}
