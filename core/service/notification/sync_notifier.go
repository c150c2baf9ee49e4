// Package notification posts best-effort activity alerts onto the record
// store timeline.
package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
)

const contactURLBase = "https://app.devrev.ai/contacts/"

// Alert describes one activity worth surfacing to the account owner.
type Alert struct {
	ContactID    string
	ContactName  string
	EventName    string
	ActivityType domain.ActivityType
	Timestamp    string
}

// Notifier posts high-intent alerts as private timeline comments on a
// configured owner object. Notification is strictly best-effort: a failure
// must never fail the activity that triggered it, so callers log the
// returned error and move on.
type Notifier struct {
	store   out.RecordStore
	ownerID string
	log     zerolog.Logger
}

// NewNotifier creates a notifier posting to the given owner object. An
// empty owner ID disables notification entirely.
func NewNotifier(store out.RecordStore, ownerID string, log zerolog.Logger) *Notifier {
	return &Notifier{
		store:   store,
		ownerID: ownerID,
		log:     log.With().Str("component", "notifier").Logger(),
	}
}

// Notify posts one alert. Returns nil without posting when no owner is
// configured.
func (n *Notifier) Notify(ctx context.Context, alert *Alert) error {
	if n.ownerID == "" {
		return nil
	}

	err := n.store.TimelineEntriesCreate(ctx, &out.TimelineEntryRequest{
		Object:     n.ownerID,
		Type:       "timeline_comment",
		Body:       formatAlert(alert),
		Visibility: "private",
	})
	if err != nil {
		n.log.Warn().Err(err).
			Str("contact_id", alert.ContactID).
			Str("activity_type", string(alert.ActivityType)).
			Msg("failed to post activity alert")
		return err
	}

	n.log.Info().
		Str("contact_id", alert.ContactID).
		Str("activity_type", string(alert.ActivityType)).
		Msg("posted activity alert")
	return nil
}

func formatAlert(alert *Alert) string {
	name := alert.ContactName
	if name == "" {
		name = alert.ContactID
	}
	return fmt.Sprintf(
		"🔔 High Intent Activity Alert!\n\nContact %s %s %q at %s.\nView contact: %s%s",
		name,
		activityDescription(alert.ActivityType),
		alert.EventName,
		alert.Timestamp,
		contactURLBase,
		alert.ContactID,
	)
}

func activityDescription(t domain.ActivityType) string {
	switch t {
	case domain.ActivityEventEntry:
		return "joined the event"
	case domain.ActivityCTAClick:
		return "clicked a CTA in"
	default:
		return "interacted with"
	}
}
