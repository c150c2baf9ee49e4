package domain

import "strings"

// Account is a CRM-side organization record, keyed by normalized domain.
// The domain is stored both in domains and external_refs so lookups succeed
// against stores that only index one of the two fields.
type Account struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Domains      []string `json:"domains,omitempty"`
	ExternalRefs []string `json:"external_refs,omitempty"`
}

// Contact is a CRM-side person record, keyed by normalized email.
type Contact struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AccountID   string `json:"account,omitempty"`
}

// ContactInput carries the inbound identity of an email-identified actor.
// Only Email is required; the rest is forwarded to the store when non-empty.
type ContactInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	City      string
	Country   string
	JobTitle  string
}

// DisplayName returns the contact display name: "First Last" when a name was
// provided, otherwise the local part of the email.
func (in *ContactInput) DisplayName() string {
	if in.FirstName != "" && in.LastName != "" {
		return in.FirstName + " " + in.LastName
	}
	if in.FirstName != "" {
		return in.FirstName
	}
	if local, _, ok := strings.Cut(in.Email, "@"); ok {
		return local
	}
	return in.Email
}

// ResolveResult is the outcome of account/contact resolution.
// AccountID is empty for generic-domain contacts.
type ResolveResult struct {
	AccountID  string `json:"account_id,omitempty"`
	ContactID  string `json:"contact_id"`
	NewAccount bool   `json:"is_new_account"`
	NewContact bool   `json:"is_new_contact"`
}
