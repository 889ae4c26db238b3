package app

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// App carries the wired dependencies for all HTTP handlers.
type App struct {
	Store    Store
	Calendar *CalendarService
	Log      *slog.Logger

	// DefaultOrg is the tenant used when the request carries no X-Org-ID.
	DefaultOrg string
	// HoldTTL bounds how long a PENDING booking blocks slots (0 = forever).
	HoldTTL time.Duration
}

// orgID resolves the tenant for a request.
func (a *App) orgID(c *gin.Context) string {
	if v := c.GetHeader("X-Org-ID"); v != "" {
		return v
	}
	return a.DefaultOrg
}

// pendingCutoff is the created_at threshold below which PENDING holds no
// longer block, for pushing the TTL rule into SQL.
func (a *App) pendingCutoff(now time.Time) time.Time {
	if a.HoldTTL <= 0 {
		return time.Time{}
	}
	return now.Add(-a.HoldTTL)
}

// fail maps domain errors to HTTP responses. Conflicts carry a machine code
// so the client can distinguish "pick another time" from "you already have a
// booking".
func (a *App) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ErrOverlapRejected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "OVERLAP_REJECTED"})
	case errors.Is(err, ErrDuplicateActiveBooking):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "DUPLICATE_ACTIVE_BOOKING"})
	case errors.Is(err, ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "SLOT_UNAVAILABLE"})
	case errors.Is(err, ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "SLUG_TAKEN"})
	case errors.Is(err, ErrInvalidWindowFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		a.Log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// PUT /api/users/:id/profile
func (a *App) UpsertProfileHandler(c *gin.Context) {
	var itv Interviewer
	if err := c.BindJSON(&itv); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	itv.ID = c.Param("id")
	itv.OrgID = a.orgID(c)
	if itv.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}
	if err := a.Store.UpsertInterviewer(c.Request.Context(), &itv); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, itv)
}

// GET /api/public/:id/profile
func (a *App) GetProfileHandler(c *gin.Context) {
	itv, err := a.Store.GetInterviewer(c.Request.Context(), a.orgID(c), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, itv)
}

// POST /api/users/:id/availability
// Accepts a list of windows, each carrying its date. Every window is
// validated against the windows already stored for that day before it is
// persisted; a rejected window aborts the request.
func (a *App) SetAvailabilityHandler(c *gin.Context) {
	interviewerID := c.Param("id")
	orgID := a.orgID(c)

	var payload []AvailabilityWindow
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	var saved []AvailabilityWindow
	for i := range payload {
		w := &payload[i]
		w.OrgID = orgID
		w.InterviewerID = interviewerID
		if w.Day == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date required (YYYY-MM-DD)"})
			return
		}
		if _, err := time.Parse("2006-01-02", w.Day); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		if err := NormalizeWindow(w); err != nil {
			a.fail(c, err)
			return
		}

		existing, err := a.Store.ListWindows(ctx, orgID, interviewerID, w.Day)
		if err != nil {
			a.fail(c, err)
			return
		}
		if err := ValidateWindow(*w, existing); err != nil {
			a.fail(c, err)
			return
		}

		w.ID = uuid.NewString()
		if err := a.Store.InsertWindow(ctx, w); err != nil {
			a.fail(c, err)
			return
		}
		saved = append(saved, *w)
	}

	c.JSON(http.StatusCreated, saved)
}

// GET /api/users/:id/availability?date=YYYY-MM-DD
// Without a date, returns every configured day grouped by date.
func (a *App) ListAvailabilityHandler(c *gin.Context) {
	interviewerID := c.Param("id")
	orgID := a.orgID(c)
	day := c.Query("date")
	ctx := c.Request.Context()

	var (
		windows []AvailabilityWindow
		err     error
	)
	if day != "" {
		windows, err = a.Store.ListWindows(ctx, orgID, interviewerID, day)
	} else {
		windows, err = a.Store.ListAllWindows(ctx, orgID, interviewerID)
	}
	if err != nil {
		a.fail(c, err)
		return
	}

	byDay := map[string][]AvailabilityWindow{}
	for _, w := range windows {
		byDay[w.Day] = append(byDay[w.Day], w)
	}
	days := make([]DayAvailability, 0, len(byDay))
	for d, slots := range byDay {
		days = append(days, DayAvailability{Date: d, Slots: slots})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	c.JSON(http.StatusOK, days)
}

// PUT /api/users/:id/availability/:window_id
func (a *App) UpdateAvailabilityHandler(c *gin.Context) {
	interviewerID := c.Param("id")
	orgID := a.orgID(c)

	var payload AvailabilityWindow
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload.ID = c.Param("window_id")
	payload.OrgID = orgID
	payload.InterviewerID = interviewerID
	ctx := c.Request.Context()

	// the update keeps the stored day, so the overlap check must run against
	// it rather than whatever (if anything) the payload claims
	stored, err := a.Store.GetWindow(ctx, orgID, interviewerID, payload.ID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if payload.Day != "" && payload.Day != stored.Day {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date cannot be changed, delete the window and create a new one"})
		return
	}
	payload.Day = stored.Day

	if err := NormalizeWindow(&payload); err != nil {
		a.fail(c, err)
		return
	}
	existing, err := a.Store.ListWindows(ctx, orgID, interviewerID, stored.Day)
	if err != nil {
		a.fail(c, err)
		return
	}
	// ValidateWindow skips the window being updated by ID
	if err := ValidateWindow(payload, existing); err != nil {
		a.fail(c, err)
		return
	}
	if err := a.Store.UpdateWindow(ctx, &payload); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// DELETE /api/users/:id/availability/:window_id
func (a *App) DeleteAvailabilityHandler(c *gin.Context) {
	err := a.Store.DeleteWindow(c.Request.Context(), a.orgID(c), c.Param("id"), c.Param("window_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DELETE /api/users/:id/availability?date=YYYY-MM-DD
func (a *App) ClearDayHandler(c *gin.Context) {
	day := c.Query("date")
	if day == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date required"})
		return
	}
	if err := a.Store.ClearDay(c.Request.Context(), a.orgID(c), c.Param("id"), day); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// slugify turns an event type title into a URL slug.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// POST /api/users/:id/event-types
func (a *App) CreateEventTypeHandler(c *gin.Context) {
	var et EventType
	if err := c.BindJSON(&et); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if et.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	et.ID = uuid.NewString()
	et.OrgID = a.orgID(c)
	et.InterviewerID = c.Param("id")
	if et.Slug == "" {
		et.Slug = slugify(et.Title)
	}
	if et.Color == "" {
		et.Color = "#6366f1"
	}
	if err := a.Store.InsertEventType(c.Request.Context(), &et); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, et)
}

// GET /api/users/:id/event-types
func (a *App) ListEventTypesHandler(c *gin.Context) {
	types, err := a.Store.ListEventTypes(c.Request.Context(), a.orgID(c), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	if types == nil {
		types = []EventType{}
	}
	c.JSON(http.StatusOK, types)
}

// PUT /api/users/:id/event-types/:etype_id
func (a *App) UpdateEventTypeHandler(c *gin.Context) {
	var et EventType
	if err := c.BindJSON(&et); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	et.ID = c.Param("etype_id")
	et.OrgID = a.orgID(c)
	et.InterviewerID = c.Param("id")
	if et.Slug == "" && et.Title != "" {
		et.Slug = slugify(et.Title)
	}
	if err := a.Store.UpdateEventType(c.Request.Context(), &et); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, et)
}

// DELETE /api/users/:id/event-types/:etype_id
func (a *App) DeleteEventTypeHandler(c *gin.Context) {
	err := a.Store.DeleteEventType(c.Request.Context(), a.orgID(c), c.Param("id"), c.Param("etype_id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/public/:id/event-types/:slug
func (a *App) GetEventTypeBySlugHandler(c *gin.Context) {
	et, err := a.Store.GetEventTypeBySlug(c.Request.Context(), a.orgID(c), c.Param("id"), c.Param("slug"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, et)
}

// GET /api/public/:id/slots?date=YYYY-MM-DD[&event_type=ID]
// The public booking page: offerable start times for one day, overlap- and
// past-filtered.
func (a *App) GetSlotsHandler(c *gin.Context) {
	interviewerID := c.Param("id")
	orgID := a.orgID(c)

	dateStr := c.Query("date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date required (YYYY-MM-DD)"})
		return
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	eventTypeID := c.Query("event_type")
	ctx := c.Request.Context()

	windows, err := a.Store.ListWindows(ctx, orgID, interviewerID, dateStr)
	if err != nil {
		a.fail(c, err)
		return
	}

	dayStart := day.UTC()
	dayEnd := dayStart.Add(24 * time.Hour)
	active, err := a.Store.ListActiveBookingsInRange(ctx, orgID, interviewerID, dayStart, dayEnd)
	if err != nil {
		a.fail(c, err)
		return
	}

	now := time.Now().UTC()
	slots, malformed := ResolveSlots(day, windows, eventTypeID, BlockingBookings(active, now, a.HoldTTL), now)
	for _, id := range malformed {
		a.Log.Warn("skipping malformed availability window", "window_id", id, "interviewer_id", interviewerID)
	}
	if slots == nil {
		slots = []Slot{}
	}

	c.JSON(http.StatusOK, gin.H{"date": dateStr, "slots": slots})
}

type createBookingReq struct {
	ApplicantName  string `json:"applicant_name" binding:"required"`
	ApplicantEmail string `json:"applicant_email" binding:"required,email"`
	ApplicantPhone string `json:"applicant_phone,omitempty"`
	Notes          string `json:"notes,omitempty"`
	StartAtUTCStr  string `json:"start_at_utc" binding:"required"` // RFC3339
	EventTypeID    string `json:"event_type_id,omitempty"`
	// Hold creates the booking as a PENDING hold instead of CONFIRMED. Holds
	// block the slot like confirmed bookings until they expire (HoldTTL).
	Hold bool `json:"hold,omitempty"`
}

// POST /api/public/:id/bookings
// Books a resolved slot. The offered set is recomputed from fresh data at
// submission time rather than trusting the page's earlier render, then the
// insert itself re-checks conflicts inside a transaction.
func (a *App) CreateBookingHandler(c *gin.Context) {
	interviewerID := c.Param("id")
	orgID := a.orgID(c)

	var req createBookingReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartAtUTCStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_at_utc"})
		return
	}
	start = start.UTC()
	ctx := c.Request.Context()
	now := time.Now().UTC()

	itv, err := a.Store.GetInterviewer(ctx, orgID, interviewerID)
	if err != nil {
		a.fail(c, err)
		return
	}

	var eventType *EventType
	if req.EventTypeID != "" {
		eventType, err = a.Store.GetEventType(ctx, orgID, interviewerID, req.EventTypeID)
		if err != nil {
			a.fail(c, err)
			return
		}
	}

	// recompute the offerable set for the slot's day
	dateStr := start.Format("2006-01-02")
	day, _ := time.Parse("2006-01-02", dateStr)
	windows, err := a.Store.ListWindows(ctx, orgID, interviewerID, dateStr)
	if err != nil {
		a.fail(c, err)
		return
	}
	active, err := a.Store.ListActiveBookingsInRange(ctx, orgID, interviewerID, day, day.Add(24*time.Hour))
	if err != nil {
		a.fail(c, err)
		return
	}
	blocking := BlockingBookings(active, now, a.HoldTTL)
	slots, _ := ResolveSlots(day, windows, req.EventTypeID, blocking, now)

	var matched *Slot
	for i := range slots {
		if slots[i].StartUTC.Equal(start) {
			matched = &slots[i]
			break
		}
	}
	if matched == nil {
		a.fail(c, ErrSlotUnavailable)
		return
	}

	applicantBookings, err := a.Store.ListActiveBookingsForApplicant(ctx, orgID, interviewerID, req.ApplicantEmail)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := CheckBooking(matched.StartUTC, matched.EndUTC, blocking, applicantBookings, now, a.HoldTTL); err != nil {
		a.fail(c, err)
		return
	}

	booking := &Booking{
		ID:               uuid.NewString(),
		OrgID:            orgID,
		InterviewerID:    interviewerID,
		InterviewerName:  itv.Name,
		InterviewerEmail: itv.Email,
		ApplicantName:    req.ApplicantName,
		ApplicantEmail:   req.ApplicantEmail,
		ApplicantPhone:   req.ApplicantPhone,
		StartAtUTC:       matched.StartUTC,
		EndAtUTC:         matched.EndUTC,
		DurationMins:     matched.DurationMins,
		Notes:            req.Notes,
		MeetingLink:      itv.MeetingLink,
		Status:           StatusConfirmed,
	}
	if req.Hold {
		booking.Status = StatusPending
	}
	if eventType != nil {
		booking.EventTypeID = eventType.ID
		booking.EventTypeTitle = eventType.Title
		if eventType.MeetingLink != "" {
			booking.MeetingLink = eventType.MeetingLink
		}
	}

	if err := a.Store.CreateBooking(ctx, booking, a.pendingCutoff(now)); err != nil {
		a.fail(c, err)
		return
	}

	// best effort: a failed sync is logged, the booking stands
	synced := false
	if a.Calendar != nil {
		switch err := a.Calendar.SyncBooking(ctx, booking); {
		case err == nil:
			synced = true
		case errors.Is(err, ErrCalendarNotConnected):
			a.Log.Info("calendar not connected, skipping sync", "interviewer_id", interviewerID)
		default:
			a.Log.Warn("calendar sync failed", "booking_id", booking.ID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":         booking,
		"calendar_synced": synced,
	})
}

// GET /api/public/:id/bookings/active?email=
// The "you already have a booking" lookup for the public page.
func (a *App) ActiveBookingHandler(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}
	bookings, err := a.Store.ListActiveBookingsForApplicant(c.Request.Context(), a.orgID(c), c.Param("id"), email)
	if err != nil {
		a.fail(c, err)
		return
	}
	now := time.Now().UTC()
	if b := ActiveFutureBooking(bookings, now, a.HoldTTL); b != nil {
		c.JSON(http.StatusOK, b)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no active booking"})
}

// GET /api/users/:id/bookings?from=ISO&to=ISO
func (a *App) ListBookingsHandler(c *gin.Context) {
	interviewerID := c.Param("id")
	orgID := a.orgID(c)
	fromStr := c.Query("from")
	toStr := c.Query("to")

	var (
		from time.Time
		to   time.Time
		err  error
	)
	if fromStr != "" && toStr != "" {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
			return
		}
	}

	bookings, err := a.Store.ListBookings(c.Request.Context(), orgID, interviewerID, from, to, fromStr != "" && toStr != "")
	if err != nil {
		a.fail(c, err)
		return
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// DELETE /api/bookings/:id (also mounted publicly for applicant cancels)
func (a *App) CancelBookingHandler(c *gin.Context) {
	err := a.Store.CancelBooking(c.Request.Context(), a.orgID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		// missing and already-cancelled look the same to the caller
		c.JSON(http.StatusConflict, gin.H{"error": "booking not found or already cancelled"})
		return
	}
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/calendar/auth?user_id=
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar integration not configured"})
		return
	}
	interviewerID := c.Query("user_id")
	if interviewerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	state := EncodeState(interviewerID)
	c.JSON(http.StatusOK, gin.H{"auth_url": a.Calendar.AuthURL(state), "state": state})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar integration not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	interviewerID, err := DecodeState(c.Query("state"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}
	if err := a.Calendar.Connect(c.Request.Context(), a.orgID(c), interviewerID, code); err != nil {
		a.Log.Error("calendar connect failed", "interviewer_id", interviewerID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to exchange code for token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "calendar connected", "interviewer_id": interviewerID})
}

// POST /api/bookings/:id/sync
func (a *App) SyncBookingHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar integration not configured"})
		return
	}
	booking, err := a.Store.GetBooking(c.Request.Context(), a.orgID(c), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.Calendar.SyncBooking(c.Request.Context(), booking); err != nil {
		if errors.Is(err, ErrCalendarNotConnected) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "CALENDAR_NOT_CONNECTED"})
			return
		}
		a.Log.Warn("calendar sync failed", "booking_id", booking.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create calendar event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
