package activity

import "airsync_server/core/port/out"

// Leaf types owned by this service in the record store.
const (
	LeafTypeRegistration = "airmeet_registration"
	LeafTypeEngagement   = "airmeet_engagement"
)

// registrationSchema is the field schema registered for the registration
// leaf type before the first registration write of a process lifetime.
func registrationSchema() *out.CustomSchema {
	return &out.CustomSchema{
		Type:         "tenant_fragment",
		Description:  "Attributes for Airmeet registration tracking",
		LeafType:     LeafTypeRegistration,
		IsCustomLeaf: true,
		IDPrefix:     "AMREG",
		Fields: []out.SchemaField{
			{Name: "contact_id", FieldType: "string", Description: "ID of the associated contact"},
			{Name: "registered_at", FieldType: "datetime", Description: "When the registration occurred"},
			{Name: "airmeet_id", FieldType: "string", Description: "Airmeet event ID"},
			{Name: "airmeet_name", FieldType: "string", Description: "Name of the Airmeet event"},
			{Name: "email", FieldType: "string", Description: "Registrant email address"},
			{Name: "first_name", FieldType: "string", Description: "Registrant first name", Required: false},
			{Name: "last_name", FieldType: "string", Description: "Registrant last name", Required: false},
			{Name: "attendance_type", FieldType: "enum", Description: "Registration attendance type", AllowedValues: []string{"IN-PERSON", "VIRTUAL"}},
			{Name: "registration_link", FieldType: "string", Description: "Link used for event registration", Required: false},
			{Name: "phone_number", FieldType: "string", Description: "Registrant phone number", Required: false},
			{Name: "city", FieldType: "string", Description: "Registrant city", Required: false},
			{Name: "country", FieldType: "string", Description: "Registrant country", Required: false},
			{Name: "job_title", FieldType: "string", Description: "Registrant job title", Required: false},
			{Name: "utm_source", FieldType: "string", Description: "UTM source parameter from registration", Required: false},
			{Name: "utm_medium", FieldType: "string", Description: "UTM medium parameter from registration", Required: false},
			{Name: "utm_campaign", FieldType: "string", Description: "UTM campaign parameter from registration", Required: false},
			{Name: "utm_term", FieldType: "string", Description: "UTM term parameter from registration", Required: false},
			{Name: "utm_content", FieldType: "string", Description: "UTM content parameter from registration", Required: false},
		},
	}
}

// engagementSchema is the field schema registered for the engagement leaf
// type. Event window and registration link are enrichment fields and may be
// absent on any given record.
func engagementSchema() *out.CustomSchema {
	return &out.CustomSchema{
		Type:         "tenant_fragment",
		Description:  "Attributes for Airmeet engagement tracking",
		LeafType:     LeafTypeEngagement,
		IsCustomLeaf: true,
		IDPrefix:     "AMENG",
		Fields: []out.SchemaField{
			{Name: "contact_id", FieldType: "string", Description: "ID of the associated contact"},
			{Name: "event_id", FieldType: "string", Description: "Airmeet event ID"},
			{Name: "event_name", FieldType: "string", Description: "Name of the Airmeet event"},
			{Name: "activity_type", FieldType: "enum", Description: "Type of engagement activity", AllowedValues: []string{"event_entry", "cta_click"}},
			{Name: "activity_timestamp", FieldType: "datetime", Description: "When the activity occurred"},
			{Name: "engagement_score", FieldType: "int", Description: "Fixed intent weight of the activity type"},
			{Name: "cta_link", FieldType: "string", Description: "URL of the CTA button (for CTA clicks only)", Required: false},
			{Name: "cta_text", FieldType: "string", Description: "Text of the CTA button (for CTA clicks only)", Required: false},
			{Name: "event_start_date", FieldType: "datetime", Description: "Event start, from live event metadata", Required: false},
			{Name: "event_end_date", FieldType: "datetime", Description: "Event end, from live event metadata", Required: false},
			{Name: "registration_link", FieldType: "string", Description: "Registration link, from live event metadata", Required: false},
		},
	}
}

// schemaForLeafType returns the bootstrap schema payload for a leaf type.
func schemaForLeafType(leafType string) *out.CustomSchema {
	switch leafType {
	case LeafTypeRegistration:
		return registrationSchema()
	case LeafTypeEngagement:
		return engagementSchema()
	default:
		return nil
	}
}
