package webhook

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"airsync_server/core/domain"
	"airsync_server/core/port/out"
	"airsync_server/core/service/activity"
	"airsync_server/core/service/identity"
	"airsync_server/core/service/notification"
	"airsync_server/pkg/apperr"
	"airsync_server/pkg/logger"
)

// fakeStore backs the whole pipeline in-memory.
type fakeStore struct {
	accounts []*domain.Account
	contacts []*domain.Contact
	objects  map[string]*out.CustomObject
	timeline []*out.TimelineEntryRequest
	nextID   int

	failTimeline bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]*out.CustomObject)}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) AccountsList(_ context.Context, filter *out.AccountListFilter) ([]*domain.Account, error) {
	for _, a := range s.accounts {
		for _, d := range filter.Domains {
			for _, have := range a.Domains {
				if have == d {
					return []*domain.Account{a}, nil
				}
			}
		}
	}
	return nil, nil
}

func (s *fakeStore) AccountsCreate(_ context.Context, req *out.AccountCreateRequest) (*domain.Account, error) {
	a := &domain.Account{ID: s.id("ACC"), DisplayName: req.DisplayName, Domains: req.Domains}
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *fakeStore) RevUsersList(_ context.Context, filter *out.RevUserListFilter) ([]*domain.Contact, error) {
	for _, c := range s.contacts {
		for _, e := range filter.Email {
			if c.Email == e {
				return []*domain.Contact{c}, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeStore) RevUsersCreate(_ context.Context, req *out.RevUserCreateRequest) (*domain.Contact, error) {
	c := &domain.Contact{ID: s.id("REV"), DisplayName: req.DisplayName, Email: req.Email, AccountID: req.AccountID}
	s.contacts = append(s.contacts, c)
	return c, nil
}

func (s *fakeStore) CustomObjectsCreate(_ context.Context, req *out.CustomObjectRequest) (string, error) {
	if _, exists := s.objects[req.UniqueKey]; exists {
		return "", apperr.Conflict("record already exists")
	}
	obj := &out.CustomObject{
		ID:           s.id("OBJ"),
		LeafType:     req.LeafType,
		UniqueKey:    req.UniqueKey,
		CustomFields: req.CustomFields,
	}
	s.objects[req.UniqueKey] = obj
	return obj.ID, nil
}

func (s *fakeStore) CustomObjectsList(_ context.Context, filter *out.CustomObjectListFilter) ([]*out.CustomObject, error) {
	var result []*out.CustomObject
	for _, key := range filter.UniqueKeys {
		if obj, ok := s.objects[key]; ok {
			result = append(result, obj)
		}
	}
	return result, nil
}

func (s *fakeStore) SchemasCustomSet(context.Context, *out.CustomSchema) error { return nil }

func (s *fakeStore) TimelineEntriesCreate(_ context.Context, req *out.TimelineEntryRequest) error {
	if s.failTimeline {
		return apperr.ExternalError("devrev", fmt.Errorf("boom"))
	}
	s.timeline = append(s.timeline, req)
	return nil
}

// fakePlatform provides enrichment data and records webhook registrations.
type fakePlatform struct {
	event       *domain.Event
	failGet     bool
	registered  []*out.WebhookDescriptor
	failOnIndex int // 1-based; 0 disables
}

func (p *fakePlatform) ListEvents(context.Context) ([]*domain.Event, error) { return nil, nil }

func (p *fakePlatform) GetEvent(context.Context, string) (*domain.Event, error) {
	if p.failGet {
		return nil, apperr.ExternalError("airmeet", fmt.Errorf("boom"))
	}
	return p.event, nil
}

func (p *fakePlatform) GetEventAttendees(context.Context, string) ([]*domain.Attendee, error) {
	return nil, nil
}

func (p *fakePlatform) GetSessionAttendance(context.Context, string, string) ([]*domain.SessionAttendance, error) {
	return nil, nil
}

func (p *fakePlatform) GetBoothActivity(context.Context, string) ([]*domain.BoothActivity, error) {
	return nil, nil
}

func (p *fakePlatform) GetParticipantRegistration(context.Context, string, string) (*domain.ParticipantRegistration, error) {
	if p.failGet {
		return nil, apperr.ExternalError("airmeet", fmt.Errorf("boom"))
	}
	return &domain.ParticipantRegistration{RegistrationLink: "https://airmeet.example/r/1"}, nil
}

func (p *fakePlatform) RegisterWebhook(_ context.Context, desc *out.WebhookDescriptor) error {
	if p.failOnIndex > 0 && len(p.registered)+1 == p.failOnIndex {
		return apperr.ExternalError("airmeet", fmt.Errorf("boom"))
	}
	p.registered = append(p.registered, desc)
	return nil
}

func (p *fakePlatform) ListWebhooks(context.Context, string) ([]*out.PlatformWebhook, error) {
	result := make([]*out.PlatformWebhook, 0, len(p.registered))
	for i, d := range p.registered {
		result = append(result, &out.PlatformWebhook{
			ID:                fmt.Sprintf("wh-%d", i+1),
			Name:              d.Name,
			TriggerMetaInfoID: d.TriggerMetaInfoID,
			URL:               d.URL,
		})
	}
	return result, nil
}

func (p *fakePlatform) Get(context.Context, string, any) error       { return nil }
func (p *fakePlatform) Post(context.Context, string, any, any) error { return nil }

func newTestDispatcher(store *fakeStore, platform *fakePlatform, ownerID string) *Dispatcher {
	log := logger.Nop()
	return NewDispatcher(
		identity.NewResolver(store, identity.NewDomainRules(), log),
		activity.NewRecorder(store, log),
		notification.NewNotifier(store, ownerID, log),
		platform,
		log,
	)
}

func testEvent() *domain.Event {
	return &domain.Event{
		ID:        "evt-42",
		Name:      "Launch Day",
		StartDate: "2026-03-01T09:00:00Z",
		EndDate:   "2026-03-01T17:00:00Z",
	}
}

func TestHandleRegistrationPipeline(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePlatform{event: testEvent()}, "don:owner")

	result, err := d.HandleRegistration(context.Background(), &domain.RegistrationPayload{
		Email:                "jane@acme.com",
		FirstName:            "Jane",
		LastName:             "Doe",
		AirmeetID:            "evt-42",
		AirmeetName:          "Launch Day",
		RegistrationDateTime: "2026-02-20T08:00:00Z",
	})
	if err != nil {
		t.Fatalf("HandleRegistration: %v", err)
	}
	if !result.Success || result.ContactID == "" {
		t.Fatalf("result = %+v", result)
	}

	obj := store.objects["evt-42:jane@acme.com"]
	if obj == nil {
		t.Fatal("registration record not written")
	}
	if obj.CustomFields["registration_link"] != "https://airmeet.example/r/1" {
		t.Errorf("registration_link = %v, want enrichment value", obj.CustomFields["registration_link"])
	}

	// Registrations are not high-intent; no owner alert is posted.
	if len(store.timeline) != 0 {
		t.Errorf("timeline entries = %d, want 0", len(store.timeline))
	}
}

func TestHandleRegistrationMissingEmail(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePlatform{}, "")

	_, err := d.HandleRegistration(context.Background(), &domain.RegistrationPayload{
		AirmeetID: "evt-42",
	})
	if !apperr.IsCode(err, apperr.CodeInvalidPayload) {
		t.Fatalf("error = %v, want INVALID_PAYLOAD", err)
	}
	if len(store.contacts) != 0 || len(store.objects) != 0 {
		t.Error("invalid payload must not touch the store")
	}
}

func TestHandleEventEntryEnrichment(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePlatform{event: testEvent()}, "don:owner")

	result, err := d.HandleEventEntry(context.Background(), &domain.EventEntryPayload{
		Email:       "jane@acme.com",
		AirmeetID:   "evt-42",
		AirmeetName: "Launch Day",
		Timestamp:   "2026-03-01T10:30:00Z",
	})
	if err != nil {
		t.Fatalf("HandleEventEntry: %v", err)
	}

	obj := store.objects["event_entry:evt-42:"+result.ContactID]
	if obj == nil {
		t.Fatalf("engagement record not written, have %v", store.objects)
	}
	if obj.CustomFields["event_start_date"] != "2026-03-01T09:00:00Z" {
		t.Errorf("event_start_date = %v", obj.CustomFields["event_start_date"])
	}
	if obj.CustomFields["engagement_score"] != 10 {
		t.Errorf("engagement_score = %v, want 10", obj.CustomFields["engagement_score"])
	}
	if len(store.timeline) != 1 || !strings.Contains(store.timeline[0].Body, "joined the event") {
		t.Errorf("timeline = %+v", store.timeline)
	}
}

func TestHandleEventEntryEnrichmentFailureSwallowed(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePlatform{failGet: true}, "")

	result, err := d.HandleEventEntry(context.Background(), &domain.EventEntryPayload{
		Email:       "jane@acme.com",
		AirmeetID:   "evt-42",
		AirmeetName: "Launch Day",
		Timestamp:   "2026-03-01T10:30:00Z",
	})
	if err != nil {
		t.Fatalf("enrichment failure must not fail the delivery: %v", err)
	}

	obj := store.objects["event_entry:evt-42:"+result.ContactID]
	if obj == nil {
		t.Fatal("record must still be written without enrichment")
	}
	if _, present := obj.CustomFields["event_start_date"]; present {
		t.Error("failed enrichment must leave optional fields unset")
	}
}

func TestHandleCTAClickMissingFieldsRejectedEarly(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePlatform{}, "")

	_, err := d.HandleCTAClick(context.Background(), &domain.CTAClickPayload{
		Email:     "jane@acme.com",
		AirmeetID: "evt-42",
		CTAText:   "Book a demo",
	})
	if !apperr.IsCode(err, apperr.CodeMissingCTAField) {
		t.Fatalf("error = %v, want MISSING_CTA_FIELDS", err)
	}
	if len(store.contacts) != 0 {
		t.Error("CTA validation must run before contact resolution")
	}
}

func TestHandleCTAClickGenericDomainSkipsNotify(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePlatform{event: testEvent()}, "don:owner")

	result, err := d.HandleCTAClick(context.Background(), &domain.CTAClickPayload{
		Email:       "jane@gmail.com",
		AirmeetID:   "evt-42",
		AirmeetName: "Launch Day",
		Timestamp:   "2026-03-01T10:45:00Z",
		CTALink:     "https://example.com/demo",
		CTAText:     "Book a demo",
	})
	if err != nil {
		t.Fatalf("HandleCTAClick: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if len(store.accounts) != 0 {
		t.Error("generic domain must not create an account")
	}
	if len(store.timeline) != 0 {
		t.Error("unlinked contact has no owner to notify")
	}
	if store.objects["cta_click:evt-42:"+result.ContactID] == nil {
		t.Error("engagement record must still be written")
	}
}

func TestNotifyFailureSwallowed(t *testing.T) {
	store := newFakeStore()
	store.failTimeline = true
	d := newTestDispatcher(store, &fakePlatform{event: testEvent()}, "don:owner")

	result, err := d.HandleEventEntry(context.Background(), &domain.EventEntryPayload{
		Email:       "jane@acme.com",
		AirmeetID:   "evt-42",
		AirmeetName: "Launch Day",
		Timestamp:   "2026-03-01T10:30:00Z",
	})
	if err != nil {
		t.Fatalf("notification failure must not fail the delivery: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
}

func TestRegistrarRegisterAll(t *testing.T) {
	platform := &fakePlatform{}
	r := NewRegistrar(platform, "https://sync.example.com", logger.Nop())

	if err := r.RegisterAll(context.Background(), ""); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	want := []struct {
		name    string
		trigger string
		url     string
	}{
		{"Registration Sync", TriggerAttendeeAdded, "https://sync.example.com/webhooks/registration"},
		{"Event Entry Tracking", TriggerAttendeeEntered, "https://sync.example.com/webhooks/event-entry"},
		{"CTA Click Tracking", TriggerAttendeeCTA, "https://sync.example.com/webhooks/cta-click"},
	}
	if len(platform.registered) != len(want) {
		t.Fatalf("registered %d webhooks, want %d", len(platform.registered), len(want))
	}
	for i, w := range want {
		got := platform.registered[i]
		if got.Name != w.name || got.TriggerMetaInfoID != w.trigger || got.URL != w.url {
			t.Errorf("webhook[%d] = %+v, want %+v", i, got, w)
		}
		if got.PlatformName != "DevRev" {
			t.Errorf("webhook[%d] platform = %q", i, got.PlatformName)
		}
	}
}

func TestRegistrarStopsOnFirstFailure(t *testing.T) {
	platform := &fakePlatform{failOnIndex: 2}
	r := NewRegistrar(platform, "https://sync.example.com", logger.Nop())

	if err := r.RegisterAll(context.Background(), "evt-42"); err == nil {
		t.Fatal("expected error from second registration")
	}
	if len(platform.registered) != 1 {
		t.Errorf("registered %d webhooks before failure, want 1", len(platform.registered))
	}
}

func TestRegistrarScopesToEvent(t *testing.T) {
	platform := &fakePlatform{}
	r := NewRegistrar(platform, "https://sync.example.com", logger.Nop())

	if err := r.RegisterAll(context.Background(), "evt-42"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	for i, desc := range platform.registered {
		if desc.AirmeetID != "evt-42" {
			t.Errorf("webhook[%d] airmeetId = %q, want evt-42", i, desc.AirmeetID)
		}
	}
}
