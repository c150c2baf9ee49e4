package domain

// Event is the read-only event entity fetched from the event platform.
// It is used to enrich activity records and is never persisted locally.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Timezone  string         `json:"timezone"`
	Sessions  []EventSession `json:"sessions"`
}

// EventSession is one session within an event.
type EventSession struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  int    `json:"duration"`
}

// Attendee is a registered participant of an event.
type Attendee struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Phone       string `json:"phone,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	JobTitle    string `json:"jobTitle,omitempty"`
	Company     string `json:"company,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
}

// SessionAttendance is one attendee's presence in one session.
type SessionAttendance struct {
	AttendeeID string `json:"attendeeId"`
	SessionID  string `json:"sessionId"`
	JoinTime   string `json:"joinTime"`
	LeaveTime  string `json:"leaveTime"`
	TimeSpent  int    `json:"timeSpent"`
}

// BoothActivity is one attendee interaction with an event booth.
type BoothActivity struct {
	AttendeeID   string `json:"attendeeId"`
	BoothID      string `json:"boothId"`
	ActivityType string `json:"activityType"` // visit, download, question
	Timestamp    string `json:"timestamp"`
	Details      string `json:"details,omitempty"`
}

// ParticipantRegistration is the per-participant registration info for an event.
type ParticipantRegistration struct {
	RegistrationLink string `json:"registrationLink"`
}
