// Package webhook implements the inbound webhook pipeline: validate,
// resolve, enrich, record, notify.
package webhook

import (
	"context"

	"github.com/rs/zerolog"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
	"airsync_server/core/service/activity"
	"airsync_server/core/service/identity"
	"airsync_server/core/service/notification"
	"airsync_server/pkg/apperr"
)

// Dispatcher runs one webhook delivery through the full pipeline.
// Resolution and recording failures fail the delivery so the platform
// retries it; enrichment and notification failures are logged and absorbed.
type Dispatcher struct {
	resolver *identity.Resolver
	recorder *activity.Recorder
	notifier *notification.Notifier
	platform out.EventPlatform
	log      zerolog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(
	resolver *identity.Resolver,
	recorder *activity.Recorder,
	notifier *notification.Notifier,
	platform out.EventPlatform,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		recorder: recorder,
		notifier: notifier,
		platform: platform,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// HandleRegistration processes one attendee-added delivery.
func (d *Dispatcher) HandleRegistration(ctx context.Context, p *domain.RegistrationPayload) (*domain.DispatchResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	in := &domain.ContactInput{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.PhoneNumber,
		City:      p.City,
		Country:   p.Country,
		JobTitle:  p.Designation,
	}
	res, err := d.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	rec := &domain.RegistrationRecord{
		ContactID:            res.ContactID,
		Email:                p.Email,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		AirmeetID:            p.AirmeetID,
		AirmeetName:          p.AirmeetName,
		RegistrationDateTime: p.RegistrationDateTime,
		AttendanceType:       attendanceType(p.AttendanceType),
		PhoneNumber:          p.PhoneNumber,
		City:                 p.City,
		Country:              p.Country,
		Designation:          p.Designation,
		Organization:         p.Organisation,
		UTMSource:            p.UTMSource,
		UTMMedium:            p.UTMMedium,
		UTMCampaign:          p.UTMCampaign,
		UTMTerm:              p.UTMTerm,
		UTMContent:           p.UTMContent,
		CustomFields:         p.CustomFields,
	}
	if reg := d.lookupParticipantRegistration(ctx, p.AirmeetID, p.Email); reg != nil {
		rec.RegistrationLink = reg.RegistrationLink
	}

	if _, err := d.recorder.RecordRegistration(ctx, rec); err != nil {
		return nil, err
	}

	return &domain.DispatchResult{Success: true, ContactID: res.ContactID}, nil
}

// HandleEventEntry processes one attendee-entered-event delivery.
func (d *Dispatcher) HandleEventEntry(ctx context.Context, p *domain.EventEntryPayload) (*domain.DispatchResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res, err := d.resolve(ctx, &domain.ContactInput{Email: p.Email})
	if err != nil {
		return nil, err
	}

	rec := &domain.EngagementRecord{
		ContactID:         res.ContactID,
		EventID:           p.AirmeetID,
		EventName:         p.AirmeetName,
		ActivityTimestamp: p.Timestamp,
	}
	d.enrichFromEvent(ctx, p.AirmeetID, rec)

	if _, err := d.recorder.RecordEventEntry(ctx, rec); err != nil {
		return nil, err
	}

	d.notify(ctx, res, &notification.Alert{
		ContactID:    res.ContactID,
		ContactName:  localPart(p.Email),
		EventName:    rec.EventName,
		ActivityType: domain.ActivityEventEntry,
		Timestamp:    p.Timestamp,
	})

	return &domain.DispatchResult{Success: true, ContactID: res.ContactID}, nil
}

// HandleCTAClick processes one attendee-clicked-CTA delivery. The CTA
// fields are checked before resolution so an unusable delivery creates no
// store records at all.
func (d *Dispatcher) HandleCTAClick(ctx context.Context, p *domain.CTAClickPayload) (*domain.DispatchResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.CTALink == "" || p.CTAText == "" {
		return nil, apperr.MissingCTAFields()
	}

	res, err := d.resolve(ctx, &domain.ContactInput{Email: p.Email})
	if err != nil {
		return nil, err
	}

	rec := &domain.EngagementRecord{
		ContactID:         res.ContactID,
		EventID:           p.AirmeetID,
		EventName:         p.AirmeetName,
		ActivityTimestamp: p.Timestamp,
		CTALink:           p.CTALink,
		CTAText:           p.CTAText,
	}
	d.enrichFromEvent(ctx, p.AirmeetID, rec)

	if _, err := d.recorder.RecordCTAClick(ctx, rec); err != nil {
		return nil, err
	}

	d.notify(ctx, res, &notification.Alert{
		ContactID:    res.ContactID,
		ContactName:  localPart(p.Email),
		EventName:    rec.EventName,
		ActivityType: domain.ActivityCTAClick,
		Timestamp:    p.Timestamp,
	})

	return &domain.DispatchResult{Success: true, ContactID: res.ContactID}, nil
}

func (d *Dispatcher) resolve(ctx context.Context, in *domain.ContactInput) (*domain.ResolveResult, error) {
	res, err := d.resolver.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	if res.ContactID == "" {
		return nil, apperr.ContactResolutionFailed(in.Email)
	}
	return res, nil
}

// enrichFromEvent fills event window and registration link from live event
// metadata. Any failure here is absorbed: the record is still written, just
// without the optional fields.
func (d *Dispatcher) enrichFromEvent(ctx context.Context, eventID string, rec *domain.EngagementRecord) {
	event, err := d.platform.GetEvent(ctx, eventID)
	if err != nil {
		d.log.Warn().Err(err).Str("event_id", eventID).Msg("event enrichment failed")
		return
	}
	if event == nil {
		return
	}
	rec.EventStartDate = event.StartDate
	rec.EventEndDate = event.EndDate
	if rec.EventName == "" {
		rec.EventName = event.Name
	}
}

func (d *Dispatcher) lookupParticipantRegistration(ctx context.Context, eventID, email string) *domain.ParticipantRegistration {
	reg, err := d.platform.GetParticipantRegistration(ctx, eventID, email)
	if err != nil {
		d.log.Warn().Err(err).Str("event_id", eventID).Msg("registration enrichment failed")
		return nil
	}
	return reg
}

// notify posts an account-owner alert for contacts linked to an account.
// Unlinked (generic-domain) contacts have no owner to alert.
func (d *Dispatcher) notify(ctx context.Context, res *domain.ResolveResult, alert *notification.Alert) {
	if res.AccountID == "" {
		return
	}
	// best-effort: the notifier already logged the failure
	_ = d.notifier.Notify(ctx, alert)
}

func attendanceType(t string) string {
	if t == "" {
		return "VIRTUAL"
	}
	return t
}

func localPart(email string) string {
	in := domain.ContactInput{Email: email}
	return in.DisplayName()
}
