package activity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
	"airsync_server/pkg/apperr"
)

// Recorder persists registration and engagement activity as write-once
// custom objects. Unique keys are pure functions of the activity identity,
// so replayed deliveries produce a store-side conflict instead of a second
// record.
type Recorder struct {
	store out.RecordStore
	log   zerolog.Logger

	mu          sync.Mutex
	schemaReady map[string]bool
}

// NewRecorder creates a new recorder.
func NewRecorder(store out.RecordStore, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:       store,
		log:         log.With().Str("component", "recorder").Logger(),
		schemaReady: make(map[string]bool),
	}
}

// RegistrationKey is the unique key for a registration record: one record
// per (event, normalized email) pair.
func RegistrationKey(airmeetID, email string) string {
	return airmeetID + ":" + strings.ToLower(strings.TrimSpace(email))
}

// EngagementKey is the unique key for an engagement record: one record per
// (activity type, event, contact) triple.
func EngagementKey(activityType domain.ActivityType, eventID, contactID string) string {
	return fmt.Sprintf("%s:%s:%s", activityType, eventID, contactID)
}

// RecordRegistration writes one registration record and returns its store
// ID. A conflict means the registration was already recorded; it is treated
// as success and the existing record's ID is returned when it can be found.
func (r *Recorder) RecordRegistration(ctx context.Context, rec *domain.RegistrationRecord) (string, error) {
	if err := r.ensureSchema(ctx, LeafTypeRegistration); err != nil {
		return "", err
	}

	key := RegistrationKey(rec.AirmeetID, rec.Email)
	fields := map[string]any{
		"contact_id":   rec.ContactID,
		"airmeet_id":   rec.AirmeetID,
		"airmeet_name": rec.AirmeetName,
		"email":        strings.ToLower(strings.TrimSpace(rec.Email)),
	}
	putIfSet(fields, "registered_at", rec.RegistrationDateTime)
	putIfSet(fields, "first_name", rec.FirstName)
	putIfSet(fields, "last_name", rec.LastName)
	putIfSet(fields, "attendance_type", rec.AttendanceType)
	putIfSet(fields, "registration_link", rec.RegistrationLink)
	putIfSet(fields, "phone_number", rec.PhoneNumber)
	putIfSet(fields, "city", rec.City)
	putIfSet(fields, "country", rec.Country)
	putIfSet(fields, "job_title", rec.Designation)
	putIfSet(fields, "utm_source", rec.UTMSource)
	putIfSet(fields, "utm_medium", rec.UTMMedium)
	putIfSet(fields, "utm_campaign", rec.UTMCampaign)
	putIfSet(fields, "utm_term", rec.UTMTerm)
	putIfSet(fields, "utm_content", rec.UTMContent)
	if len(rec.CustomFields) > 0 {
		bag := make(map[string]any, len(rec.CustomFields))
		for _, cf := range rec.CustomFields {
			bag[cf.FieldID] = cf.Value
		}
		fields["airmeet_custom_fields"] = bag
	}

	title := strings.TrimSpace(fmt.Sprintf("Registration: %s %s - %s", rec.FirstName, rec.LastName, rec.AirmeetName))

	return r.create(ctx, &out.CustomObjectRequest{
		LeafType:     LeafTypeRegistration,
		UniqueKey:    key,
		Title:        title,
		CustomFields: fields,
	})
}

// RecordEventEntry writes one event-entry engagement record.
func (r *Recorder) RecordEventEntry(ctx context.Context, rec *domain.EngagementRecord) (string, error) {
	rec.ActivityType = domain.ActivityEventEntry
	return r.recordEngagement(ctx, rec)
}

// RecordCTAClick writes one CTA-click engagement record. Both the CTA link
// and text must be present; the check runs before any store write.
func (r *Recorder) RecordCTAClick(ctx context.Context, rec *domain.EngagementRecord) (string, error) {
	if rec.CTALink == "" || rec.CTAText == "" {
		return "", apperr.MissingCTAFields()
	}
	rec.ActivityType = domain.ActivityCTAClick
	return r.recordEngagement(ctx, rec)
}

func (r *Recorder) recordEngagement(ctx context.Context, rec *domain.EngagementRecord) (string, error) {
	if err := r.ensureSchema(ctx, LeafTypeEngagement); err != nil {
		return "", err
	}

	key := EngagementKey(rec.ActivityType, rec.EventID, rec.ContactID)
	fields := map[string]any{
		"contact_id":       rec.ContactID,
		"event_id":         rec.EventID,
		"event_name":       rec.EventName,
		"activity_type":    string(rec.ActivityType),
		"engagement_score": Score(rec.ActivityType),
	}
	putIfSet(fields, "activity_timestamp", rec.ActivityTimestamp)
	putIfSet(fields, "cta_link", rec.CTALink)
	putIfSet(fields, "cta_text", rec.CTAText)
	putIfSet(fields, "event_start_date", rec.EventStartDate)
	putIfSet(fields, "event_end_date", rec.EventEndDate)
	putIfSet(fields, "registration_link", rec.RegistrationLink)

	return r.create(ctx, &out.CustomObjectRequest{
		LeafType:     LeafTypeEngagement,
		UniqueKey:    key,
		CustomFields: fields,
	})
}

// GetRegistration looks up an existing registration record by its unique
// key. Returns nil when no record exists.
func (r *Recorder) GetRegistration(ctx context.Context, airmeetID, email string) (*out.CustomObject, error) {
	objects, err := r.store.CustomObjectsList(ctx, &out.CustomObjectListFilter{
		LeafType:   LeafTypeRegistration,
		UniqueKeys: []string{RegistrationKey(airmeetID, email)},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	return objects[0], nil
}

// create performs the store write and absorbs conflicts: a conflict on a
// deterministic key means a replayed delivery, not a failure.
func (r *Recorder) create(ctx context.Context, req *out.CustomObjectRequest) (string, error) {
	id, err := r.store.CustomObjectsCreate(ctx, req)
	if err == nil {
		r.log.Info().
			Str("leaf_type", req.LeafType).
			Str("unique_key", req.UniqueKey).
			Str("record_id", id).
			Msg("recorded activity")
		return id, nil
	}
	if !apperr.IsConflict(err) {
		return "", apperr.RecordCreationFailed(req.LeafType, err)
	}

	r.log.Debug().
		Str("leaf_type", req.LeafType).
		Str("unique_key", req.UniqueKey).
		Msg("activity already recorded, skipping")

	objects, listErr := r.store.CustomObjectsList(ctx, &out.CustomObjectListFilter{
		LeafType:   req.LeafType,
		UniqueKeys: []string{req.UniqueKey},
		Limit:      1,
	})
	if listErr != nil || len(objects) == 0 {
		return "", nil
	}
	return objects[0].ID, nil
}

// ensureSchema registers the leaf-type schema once per process lifetime.
// A conflict from the store means the schema already exists and counts as
// registered. Concurrent first writes may both issue the call; the store
// treats the set as an upsert so the race is harmless.
func (r *Recorder) ensureSchema(ctx context.Context, leafType string) error {
	r.mu.Lock()
	ready := r.schemaReady[leafType]
	r.mu.Unlock()
	if ready {
		return nil
	}

	schema := schemaForLeafType(leafType)
	if schema == nil {
		return apperr.Internal(fmt.Sprintf("unknown leaf type %q", leafType))
	}

	if err := r.store.SchemasCustomSet(ctx, schema); err != nil && !apperr.IsConflict(err) {
		return apperr.ExternalError("schema registration", err)
	}

	r.mu.Lock()
	r.schemaReady[leafType] = true
	r.mu.Unlock()

	r.log.Debug().Str("leaf_type", leafType).Msg("leaf type schema registered")
	return nil
}

func putIfSet(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
