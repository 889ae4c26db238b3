package app

import (
	"errors"
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Recoverable conditions surfaced to callers. Handlers map these to HTTP
// codes; everything else is treated as a data-layer failure.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidWindowFormat    = errors.New("invalid window time format")
	ErrOverlapRejected        = errors.New("time range overlaps an existing entry")
	ErrDuplicateActiveBooking = errors.New("applicant already holds an active booking with this interviewer")
	ErrSlotUnavailable        = errors.New("slot is not available")
	ErrSlugTaken              = errors.New("slug already in use")
	ErrCalendarNotConnected   = errors.New("interviewer has not connected a calendar")
)

// AvailabilityWindow is one offerable block on one calendar day for one
// interviewer. StartTime/EndTime are "HH:MM"; DurationMins is computed from
// them at creation and never re-derived afterwards.
type AvailabilityWindow struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"-"`
	InterviewerID string    `json:"interviewer_id,omitempty"`
	Day           string    `json:"date"` // "YYYY-MM-DD"
	StartTime     string    `json:"start_time" binding:"required"`
	EndTime       string    `json:"end_time" binding:"required"`
	DurationMins  int       `json:"duration_minutes"`
	EventTypeID   string    `json:"event_type_id,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// DayAvailability groups one interviewer-day's windows for list responses.
type DayAvailability struct {
	Date  string               `json:"date"`
	Slots []AvailabilityWindow `json:"slots"`
}

type Booking struct {
	ID               string        `json:"id"`
	OrgID            string        `json:"-"`
	InterviewerID    string        `json:"interviewer_id"`
	InterviewerName  string        `json:"interviewer_name,omitempty"`
	InterviewerEmail string        `json:"interviewer_email,omitempty"`
	ApplicantName    string        `json:"applicant_name"`
	ApplicantEmail   string        `json:"applicant_email"`
	ApplicantPhone   string        `json:"applicant_phone,omitempty"`
	StartAtUTC       time.Time     `json:"start_at_utc"`
	EndAtUTC         time.Time     `json:"end_at_utc"`
	DurationMins     int           `json:"duration_minutes"`
	EventTypeID      string        `json:"event_type_id,omitempty"`
	EventTypeTitle   string        `json:"event_type_title,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	MeetingLink      string        `json:"meeting_link,omitempty"`
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at,omitempty"`
}

// EventType is a named booking category with its own slug, used to scope
// availability and public booking pages per interview format.
type EventType struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"-"`
	InterviewerID string    `json:"interviewer_id,omitempty"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	Color         string    `json:"color,omitempty"`
	MeetingLink   string    `json:"meeting_link,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

type Interviewer struct {
	ID               string    `json:"id"`
	OrgID            string    `json:"-"`
	Name             string    `json:"name,omitempty"`
	Email            string    `json:"email"`
	MeetingLink      string    `json:"meeting_link,omitempty"`
	OrganizationName string    `json:"organization_name,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// CalendarCredentials holds an interviewer's stored OAuth token pair.
type CalendarCredentials struct {
	OrgID         string
	InterviewerID string
	AccessToken   string
	RefreshToken  string
	Connected     bool
	UpdatedAt     time.Time
}
