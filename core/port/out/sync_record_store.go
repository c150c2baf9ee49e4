package out

import (
	"context"

	"airsync_server/core/domain"
)

// RecordStore defines the outbound port for the CRM-like record store.
// The store is the only persistence this service has; every method maps to
// one JSON-POST endpoint. Conflict (409-class) responses surface as
// apperr.CodeConflict so callers can treat already-applied writes as success.
type RecordStore interface {
	AccountsList(ctx context.Context, filter *AccountListFilter) ([]*domain.Account, error)
	AccountsCreate(ctx context.Context, req *AccountCreateRequest) (*domain.Account, error)

	RevUsersList(ctx context.Context, filter *RevUserListFilter) ([]*domain.Contact, error)
	RevUsersCreate(ctx context.Context, req *RevUserCreateRequest) (*domain.Contact, error)

	CustomObjectsCreate(ctx context.Context, req *CustomObjectRequest) (string, error)
	CustomObjectsList(ctx context.Context, filter *CustomObjectListFilter) ([]*CustomObject, error)

	SchemasCustomSet(ctx context.Context, schema *CustomSchema) error

	TimelineEntriesCreate(ctx context.Context, req *TimelineEntryRequest) error
}

// AccountListFilter selects accounts by domain or external reference.
// Exactly one of Domains/ExternalRefs is set per call; the resolver issues
// the external-ref query only as a fallback after a domain-index miss.
type AccountListFilter struct {
	Domains      []string `json:"domains,omitempty"`
	ExternalRefs []string `json:"external_refs,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// AccountCreateRequest creates one organization record.
type AccountCreateRequest struct {
	DisplayName  string   `json:"display_name"`
	Domains      []string `json:"domains"`
	ExternalRefs []string `json:"external_refs"`
}

// RevUserListFilter selects contacts by exact email match.
type RevUserListFilter struct {
	Email []string `json:"email,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

// RevUserCreateRequest creates one person record. Optional fields are
// omitted from the wire payload when empty.
type RevUserCreateRequest struct {
	DisplayName  string   `json:"display_name"`
	Email        string   `json:"email"`
	AccountID    string   `json:"account,omitempty"`
	PhoneNumbers []string `json:"phone_numbers,omitempty"`
	City         string   `json:"city,omitempty"`
	Country      string   `json:"country,omitempty"`
	JobTitle     string   `json:"job_title,omitempty"`
}

// CustomObjectRequest creates one write-once activity record.
type CustomObjectRequest struct {
	LeafType     string         `json:"leaf_type"`
	UniqueKey    string         `json:"unique_key"`
	Title        string         `json:"title,omitempty"`
	CustomFields map[string]any `json:"custom_fields"`
}

// CustomObject is one stored activity record.
type CustomObject struct {
	ID           string         `json:"id"`
	LeafType     string         `json:"leaf_type"`
	UniqueKey    string         `json:"unique_key"`
	Title        string         `json:"title,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// CustomObjectListFilter selects activity records by unique key.
type CustomObjectListFilter struct {
	LeafType   string   `json:"leaf_type"`
	UniqueKeys []string `json:"unique_keys,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// CustomSchema registers the field schema of one custom leaf type.
type CustomSchema struct {
	Type         string        `json:"type"`
	Description  string        `json:"description"`
	LeafType     string        `json:"leaf_type"`
	Fields       []SchemaField `json:"fields"`
	IsCustomLeaf bool          `json:"is_custom_leaf_type"`
	IDPrefix     string        `json:"id_prefix"`
}

// SchemaField is one field definition within a custom schema.
type SchemaField struct {
	Name          string   `json:"name"`
	FieldType     string   `json:"field_type"`
	Description   string   `json:"description,omitempty"`
	Required      bool     `json:"required,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// TimelineEntryRequest posts a timeline comment onto a store object.
type TimelineEntryRequest struct {
	Object     string `json:"object"`
	Type       string `json:"type"`
	Body       string `json:"body"`
	Visibility string `json:"visibility,omitempty"`
}
