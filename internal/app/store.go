package app

import (
	"context"
	"time"
)

// Store is the persistence boundary. The pgx implementation lives in db.go;
// tests substitute an in-memory fake.
type Store interface {
	UpsertInterviewer(ctx context.Context, itv *Interviewer) error
	GetInterviewer(ctx context.Context, orgID, id string) (*Interviewer, error)

	InsertWindow(ctx context.Context, w *AvailabilityWindow) error
	ListWindows(ctx context.Context, orgID, interviewerID, day string) ([]AvailabilityWindow, error)
	ListAllWindows(ctx context.Context, orgID, interviewerID string) ([]AvailabilityWindow, error)
	GetWindow(ctx context.Context, orgID, interviewerID, windowID string) (*AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, w *AvailabilityWindow) error
	DeleteWindow(ctx context.Context, orgID, interviewerID, windowID string) error
	ClearDay(ctx context.Context, orgID, interviewerID, day string) error

	InsertEventType(ctx context.Context, et *EventType) error
	ListEventTypes(ctx context.Context, orgID, interviewerID string) ([]EventType, error)
	GetEventType(ctx context.Context, orgID, interviewerID, id string) (*EventType, error)
	GetEventTypeBySlug(ctx context.Context, orgID, interviewerID, slug string) (*EventType, error)
	UpdateEventType(ctx context.Context, et *EventType) error
	DeleteEventType(ctx context.Context, orgID, interviewerID, id string) error

	// CreateBooking inserts inside a transaction that locks conflicting rows
	// first; a conflict either way surfaces as ErrOverlapRejected.
	CreateBooking(ctx context.Context, b *Booking, pendingCutoff time.Time) error
	GetBooking(ctx context.Context, orgID, id string) (*Booking, error)
	ListBookings(ctx context.Context, orgID, interviewerID string, from, to time.Time, filtered bool) ([]Booking, error)
	ListActiveBookingsInRange(ctx context.Context, orgID, interviewerID string, from, to time.Time) ([]Booking, error)
	ListActiveBookingsForApplicant(ctx context.Context, orgID, interviewerID, email string) ([]Booking, error)
	CancelBooking(ctx context.Context, orgID, id string) error

	SaveCalendarCredentials(ctx context.Context, creds *CalendarCredentials) error
	GetCalendarCredentials(ctx context.Context, orgID, interviewerID string) (*CalendarCredentials, error)
}
