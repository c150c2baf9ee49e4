package domain

import "airsync_server/pkg/apperr"

// Inbound webhook payloads, one explicit variant per webhook kind.
// The event platform posts these as loose JSON; parsing into a typed variant
// and calling Validate happens at the HTTP boundary before any domain call.

// RegistrationPayload is the attendee-added webhook body.
type RegistrationPayload struct {
	Email                string        `json:"email"`
	FirstName            string        `json:"firstName"`
	LastName             string        `json:"lastName"`
	PhoneNumber          string        `json:"phoneNumber,omitempty"`
	City                 string        `json:"city,omitempty"`
	Country              string        `json:"country,omitempty"`
	Designation          string        `json:"designation,omitempty"`
	Organisation         string        `json:"organisation,omitempty"`
	AirmeetID            string        `json:"airmeetId"`
	AirmeetName          string        `json:"airmeetName"`
	RegistrationDateTime string        `json:"registrationDateTime"`
	AttendanceType       string        `json:"attendanceType,omitempty"`
	UTMSource            string        `json:"utmSource,omitempty"`
	UTMMedium            string        `json:"utmMedium,omitempty"`
	UTMCampaign          string        `json:"utmCampaign,omitempty"`
	UTMTerm              string        `json:"utmTerm,omitempty"`
	UTMContent           string        `json:"utmContent,omitempty"`
	CustomFields         []CustomField `json:"customFields,omitempty"`
}

func (p *RegistrationPayload) Validate() error {
	if p.Email == "" {
		return apperr.InvalidPayload("registration payload missing email")
	}
	if p.AirmeetID == "" {
		return apperr.InvalidPayload("registration payload missing airmeetId")
	}
	return nil
}

// EventEntryPayload is the attendee-entered-event webhook body.
type EventEntryPayload struct {
	Email       string `json:"email"`
	AirmeetID   string `json:"airmeetId"`
	AirmeetName string `json:"airmeetName"`
	Timestamp   string `json:"timestamp"`
}

func (p *EventEntryPayload) Validate() error {
	if p.Email == "" {
		return apperr.InvalidPayload("event entry payload missing email")
	}
	if p.AirmeetID == "" {
		return apperr.InvalidPayload("event entry payload missing airmeetId")
	}
	return nil
}

// CTAClickPayload is the attendee-clicked-CTA webhook body.
type CTAClickPayload struct {
	Email       string `json:"email"`
	AirmeetID   string `json:"airmeetId"`
	AirmeetName string `json:"airmeetName"`
	Timestamp   string `json:"timestamp"`
	CTALink     string `json:"ctaLink"`
	CTAText     string `json:"ctaText"`
}

func (p *CTAClickPayload) Validate() error {
	if p.Email == "" {
		return apperr.InvalidPayload("CTA click payload missing email")
	}
	if p.AirmeetID == "" {
		return apperr.InvalidPayload("CTA click payload missing airmeetId")
	}
	return nil
}
