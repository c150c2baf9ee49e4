package domain

// ActivityType identifies the kind of interaction recorded against a contact.
type ActivityType string

const (
	ActivityRegistration ActivityType = "registration"
	ActivityEventEntry   ActivityType = "event_entry"
	ActivityCTAClick     ActivityType = "cta_click"
)

// CustomField is a free-form registration field forwarded by the event platform.
type CustomField struct {
	FieldID string `json:"fieldId"`
	Value   any    `json:"value"`
}

// RegistrationRecord is the input for a registration activity write.
// Timestamps are carried as the platform's wire strings; this service never
// interprets them, only stores them.
type RegistrationRecord struct {
	ContactID            string
	Email                string
	FirstName            string
	LastName             string
	AirmeetID            string
	AirmeetName          string
	RegistrationDateTime string
	AttendanceType       string // IN-PERSON or VIRTUAL, defaults to VIRTUAL

	PhoneNumber  string
	City         string
	Country      string
	Designation  string
	Organization string

	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string

	// RegistrationLink is filled by event-platform enrichment when available.
	RegistrationLink string

	CustomFields []CustomField
}

// EngagementRecord is the input for an event-entry or CTA-click activity write.
type EngagementRecord struct {
	ContactID         string
	EventID           string
	EventName         string
	ActivityType      ActivityType
	ActivityTimestamp string

	// CTA fields, required for cta_click only.
	CTALink string
	CTAText string

	// Enrichment fields, filled from live event metadata when available.
	EventStartDate   string
	EventEndDate     string
	RegistrationLink string
}

// DispatchResult is returned by the webhook pipeline on success.
type DispatchResult struct {
	Success   bool   `json:"success"`
	ContactID string `json:"contact_id"`
}
