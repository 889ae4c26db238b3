package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarService wraps the Google Calendar OAuth flow and event creation.
// A booking that fails to sync stays booked; callers only log the failure.
type CalendarService struct {
	config *oauth2.Config
	store  Store
	log    *slog.Logger
}

// NewCalendarService returns nil when the OAuth client is not configured;
// callers treat a nil service as "calendar integration disabled".
func NewCalendarService(clientID, clientSecret, redirectURL string, store Store, log *slog.Logger) *CalendarService {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &CalendarService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		store: store,
		log:   log,
	}
}

// AuthURL builds the consent URL for an interviewer. Offline access plus
// forced consent so Google returns a refresh token every time.
func (s *CalendarService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// EncodeState packs the interviewer id and a timestamp into the OAuth state
// parameter so the callback can attribute the token.
func EncodeState(interviewerID string) string {
	return fmt.Sprintf("itv_%s_%d", interviewerID, time.Now().Unix())
}

// DecodeState extracts the interviewer id from a state built by EncodeState.
func DecodeState(state string) (string, error) {
	rest, ok := strings.CutPrefix(state, "itv_")
	if !ok {
		return "", fmt.Errorf("malformed state %q", state)
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", fmt.Errorf("malformed state %q", state)
	}
	return rest[:i], nil
}

// Connect exchanges the callback code for tokens and stores them against the
// interviewer.
func (s *CalendarService) Connect(ctx context.Context, orgID, interviewerID, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	return s.store.SaveCalendarCredentials(ctx, &CalendarCredentials{
		OrgID:         orgID,
		InterviewerID: interviewerID,
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
		Connected:     true,
	})
}

// SyncBooking creates a calendar event for the booking on the interviewer's
// primary calendar. Returns ErrCalendarNotConnected when no credentials are
// stored.
func (s *CalendarService) SyncBooking(ctx context.Context, b *Booking) error {
	creds, err := s.store.GetCalendarCredentials(ctx, b.OrgID, b.InterviewerID)
	if errors.Is(err, ErrNotFound) {
		return ErrCalendarNotConnected
	}
	if err != nil {
		return err
	}
	if !creds.Connected {
		return ErrCalendarNotConnected
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(s.config.Client(ctx, token)))
	if err != nil {
		return fmt.Errorf("create calendar service: %w", err)
	}

	event := buildCalendarEvent(b)
	if _, err := srv.Events.Insert("primary", event).SendUpdates("all").Do(); err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	s.log.Info("booking synced to calendar", "booking_id", b.ID, "interviewer_id", b.InterviewerID)
	return nil
}

func buildCalendarEvent(b *Booking) *calendar.Event {
	summary := b.EventTypeTitle
	if summary == "" {
		summary = "Interview"
	}

	var desc strings.Builder
	if b.MeetingLink != "" {
		fmt.Fprintf(&desc, "Meeting Link: %s\n\n", b.MeetingLink)
	}
	if b.Notes != "" {
		fmt.Fprintf(&desc, "Notes: %s", b.Notes)
	}

	interviewerName := b.InterviewerName
	if interviewerName == "" {
		interviewerName = "Interviewer"
	}

	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		Location:    b.MeetingLink,
		Start: &calendar.EventDateTime{
			DateTime: b.StartAtUTC.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: b.EndAtUTC.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		Attendees: []*calendar.EventAttendee{
			{Email: b.ApplicantEmail, DisplayName: b.ApplicantName},
			{Email: b.InterviewerEmail, DisplayName: interviewerName},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 15},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
}
