package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store over Postgres.
type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{DB: pool}
}

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func (s *PGStore) UpsertInterviewer(ctx context.Context, itv *Interviewer) error {
	now := time.Now().UTC()
	q := `INSERT INTO interviewers (id, org_id, name, email, meeting_link, organization_name, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
	      ON CONFLICT (org_id, id) DO UPDATE
	      SET name=EXCLUDED.name, email=EXCLUDED.email, meeting_link=EXCLUDED.meeting_link,
	          organization_name=EXCLUDED.organization_name, updated_at=EXCLUDED.updated_at`
	_, err := s.DB.Exec(ctx, q, itv.ID, itv.OrgID, itv.Name, itv.Email, itv.MeetingLink, itv.OrganizationName, now)
	if err != nil {
		return err
	}
	itv.UpdatedAt = now
	return nil
}

func (s *PGStore) GetInterviewer(ctx context.Context, orgID, id string) (*Interviewer, error) {
	q := `SELECT id, org_id, name, email, meeting_link, organization_name, created_at, updated_at
	      FROM interviewers WHERE org_id=$1 AND id=$2`
	var itv Interviewer
	err := s.DB.QueryRow(ctx, q, orgID, id).Scan(&itv.ID, &itv.OrgID, &itv.Name, &itv.Email,
		&itv.MeetingLink, &itv.OrganizationName, &itv.CreatedAt, &itv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &itv, nil
}

func (s *PGStore) InsertWindow(ctx context.Context, w *AvailabilityWindow) error {
	now := time.Now().UTC()
	q := `INSERT INTO availability_windows
	      (id, org_id, interviewer_id, day, start_time, end_time, duration_minutes, event_type_id, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8::text,'')::uuid,$9,$9)`
	_, err := s.DB.Exec(ctx, q, w.ID, w.OrgID, w.InterviewerID, w.Day,
		w.StartTime, w.EndTime, w.DurationMins, w.EventTypeID, now)
	if err != nil {
		return err
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	return nil
}

func (s *PGStore) scanWindows(rows pgx.Rows) ([]AvailabilityWindow, error) {
	defer rows.Close()
	var out []AvailabilityWindow
	for rows.Next() {
		var w AvailabilityWindow
		var day time.Time
		var eventTypeID *string
		if err := rows.Scan(&w.ID, &w.OrgID, &w.InterviewerID, &day, &w.StartTime, &w.EndTime,
			&w.DurationMins, &eventTypeID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.Day = day.Format("2006-01-02")
		if eventTypeID != nil {
			w.EventTypeID = *eventTypeID
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *PGStore) ListWindows(ctx context.Context, orgID, interviewerID, day string) ([]AvailabilityWindow, error) {
	q := `SELECT id, org_id, interviewer_id, day, start_time, end_time, duration_minutes, event_type_id, created_at, updated_at
	      FROM availability_windows
	      WHERE org_id=$1 AND interviewer_id=$2 AND day=$3
	      ORDER BY start_time`
	rows, err := s.DB.Query(ctx, q, orgID, interviewerID, day)
	if err != nil {
		return nil, err
	}
	return s.scanWindows(rows)
}

func (s *PGStore) ListAllWindows(ctx context.Context, orgID, interviewerID string) ([]AvailabilityWindow, error) {
	q := `SELECT id, org_id, interviewer_id, day, start_time, end_time, duration_minutes, event_type_id, created_at, updated_at
	      FROM availability_windows
	      WHERE org_id=$1 AND interviewer_id=$2
	      ORDER BY day, start_time`
	rows, err := s.DB.Query(ctx, q, orgID, interviewerID)
	if err != nil {
		return nil, err
	}
	return s.scanWindows(rows)
}

func (s *PGStore) GetWindow(ctx context.Context, orgID, interviewerID, windowID string) (*AvailabilityWindow, error) {
	q := `SELECT id, org_id, interviewer_id, day, start_time, end_time, duration_minutes, event_type_id, created_at, updated_at
	      FROM availability_windows
	      WHERE org_id=$1 AND interviewer_id=$2 AND id=$3`
	var w AvailabilityWindow
	var day time.Time
	var eventTypeID *string
	err := s.DB.QueryRow(ctx, q, orgID, interviewerID, windowID).Scan(
		&w.ID, &w.OrgID, &w.InterviewerID, &day, &w.StartTime, &w.EndTime,
		&w.DurationMins, &eventTypeID, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	w.Day = day.Format("2006-01-02")
	if eventTypeID != nil {
		w.EventTypeID = *eventTypeID
	}
	return &w, nil
}

func (s *PGStore) UpdateWindow(ctx context.Context, w *AvailabilityWindow) error {
	now := time.Now().UTC()
	q := `UPDATE availability_windows
	      SET start_time=$1, end_time=$2, duration_minutes=$3, event_type_id=NULLIF($4::text,'')::uuid, updated_at=$5
	      WHERE id=$6 AND org_id=$7 AND interviewer_id=$8
	      RETURNING id`
	var id string
	err := s.DB.QueryRow(ctx, q, w.StartTime, w.EndTime, w.DurationMins, w.EventTypeID, now,
		w.ID, w.OrgID, w.InterviewerID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	w.UpdatedAt = now
	return nil
}

func (s *PGStore) DeleteWindow(ctx context.Context, orgID, interviewerID, windowID string) error {
	res, err := s.DB.Exec(ctx,
		`DELETE FROM availability_windows WHERE org_id=$1 AND interviewer_id=$2 AND id=$3`,
		orgID, interviewerID, windowID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ClearDay(ctx context.Context, orgID, interviewerID, day string) error {
	_, err := s.DB.Exec(ctx,
		`DELETE FROM availability_windows WHERE org_id=$1 AND interviewer_id=$2 AND day=$3`,
		orgID, interviewerID, day)
	return err
}

func (s *PGStore) InsertEventType(ctx context.Context, et *EventType) error {
	now := time.Now().UTC()
	q := `INSERT INTO event_types (id, org_id, interviewer_id, title, slug, description, color, meeting_link, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)`
	_, err := s.DB.Exec(ctx, q, et.ID, et.OrgID, et.InterviewerID, et.Title, et.Slug,
		et.Description, et.Color, et.MeetingLink, now)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrSlugTaken, et.Slug)
	}
	if err != nil {
		return err
	}
	et.CreatedAt = now
	et.UpdatedAt = now
	return nil
}

const eventTypeCols = `id, org_id, interviewer_id, title, slug, description, color, meeting_link, created_at, updated_at`

func scanEventType(row pgx.Row) (*EventType, error) {
	var et EventType
	err := row.Scan(&et.ID, &et.OrgID, &et.InterviewerID, &et.Title, &et.Slug,
		&et.Description, &et.Color, &et.MeetingLink, &et.CreatedAt, &et.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &et, nil
}

func (s *PGStore) ListEventTypes(ctx context.Context, orgID, interviewerID string) ([]EventType, error) {
	q := `SELECT ` + eventTypeCols + ` FROM event_types WHERE org_id=$1 AND interviewer_id=$2 ORDER BY created_at`
	rows, err := s.DB.Query(ctx, q, orgID, interviewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EventType
	for rows.Next() {
		var et EventType
		if err := rows.Scan(&et.ID, &et.OrgID, &et.InterviewerID, &et.Title, &et.Slug,
			&et.Description, &et.Color, &et.MeetingLink, &et.CreatedAt, &et.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, rows.Err()
}

func (s *PGStore) GetEventType(ctx context.Context, orgID, interviewerID, id string) (*EventType, error) {
	q := `SELECT ` + eventTypeCols + ` FROM event_types WHERE org_id=$1 AND interviewer_id=$2 AND id=$3`
	return scanEventType(s.DB.QueryRow(ctx, q, orgID, interviewerID, id))
}

func (s *PGStore) GetEventTypeBySlug(ctx context.Context, orgID, interviewerID, slug string) (*EventType, error) {
	q := `SELECT ` + eventTypeCols + ` FROM event_types WHERE org_id=$1 AND interviewer_id=$2 AND slug=$3`
	return scanEventType(s.DB.QueryRow(ctx, q, orgID, interviewerID, slug))
}

func (s *PGStore) UpdateEventType(ctx context.Context, et *EventType) error {
	now := time.Now().UTC()
	q := `UPDATE event_types
	      SET title=$1, slug=$2, description=$3, color=$4, meeting_link=$5, updated_at=$6
	      WHERE id=$7 AND org_id=$8 AND interviewer_id=$9
	      RETURNING id`
	var id string
	err := s.DB.QueryRow(ctx, q, et.Title, et.Slug, et.Description, et.Color, et.MeetingLink,
		now, et.ID, et.OrgID, et.InterviewerID).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrSlugTaken, et.Slug)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	et.UpdatedAt = now
	return nil
}

func (s *PGStore) DeleteEventType(ctx context.Context, orgID, interviewerID, id string) error {
	res, err := s.DB.Exec(ctx,
		`DELETE FROM event_types WHERE org_id=$1 AND interviewer_id=$2 AND id=$3`,
		orgID, interviewerID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const bookingCols = `id, org_id, interviewer_id, interviewer_name, interviewer_email,
	applicant_name, applicant_email, applicant_phone, start_at_utc, end_at_utc,
	duration_minutes, event_type_id, event_type_title, notes, meeting_link, status, created_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var eventTypeID *string
	err := row.Scan(&b.ID, &b.OrgID, &b.InterviewerID, &b.InterviewerName, &b.InterviewerEmail,
		&b.ApplicantName, &b.ApplicantEmail, &b.ApplicantPhone, &b.StartAtUTC, &b.EndAtUTC,
		&b.DurationMins, &eventTypeID, &b.EventTypeTitle, &b.Notes, &b.MeetingLink, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if eventTypeID != nil {
		b.EventTypeID = *eventTypeID
	}
	return &b, nil
}

func (s *PGStore) scanBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()
	var out []Booking
	for rows.Next() {
		var b Booking
		var eventTypeID *string
		if err := rows.Scan(&b.ID, &b.OrgID, &b.InterviewerID, &b.InterviewerName, &b.InterviewerEmail,
			&b.ApplicantName, &b.ApplicantEmail, &b.ApplicantPhone, &b.StartAtUTC, &b.EndAtUTC,
			&b.DurationMins, &eventTypeID, &b.EventTypeTitle, &b.Notes, &b.MeetingLink, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		if eventTypeID != nil {
			b.EventTypeID = *eventTypeID
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBooking locks conflicting rows, re-checks the overlap inside the
// transaction, and inserts. Both the locked pre-check and the table's
// exclusion constraint report ErrOverlapRejected. Expired PENDING holds
// (created before pendingCutoff) must not keep blocking the interval, but
// the exclusion constraint still sees them, so they are flipped to
// CANCELLED here before the insert.
func (s *PGStore) CreateBooking(ctx context.Context, b *Booking, pendingCutoff time.Time) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if !pendingCutoff.IsZero() {
		expireQ := `UPDATE bookings SET status='CANCELLED'
		            WHERE org_id=$1 AND interviewer_id=$2
		              AND status='PENDING' AND created_at < $3
		              AND start_at_utc < $5 AND $4 < end_at_utc`
		if _, err := tx.Exec(ctx, expireQ, b.OrgID, b.InterviewerID, pendingCutoff, b.StartAtUTC, b.EndAtUTC); err != nil {
			return err
		}
	}

	checkQ := `SELECT id FROM bookings
	           WHERE org_id=$1 AND interviewer_id=$2
	             AND status <> 'CANCELLED'
	             AND start_at_utc < $4 AND $3 < end_at_utc
	           LIMIT 1 FOR UPDATE`
	var conflictID string
	err = tx.QueryRow(ctx, checkQ, b.OrgID, b.InterviewerID, b.StartAtUTC, b.EndAtUTC).Scan(&conflictID)
	if err == nil {
		return ErrOverlapRejected
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	now := time.Now().UTC()
	insertQ := `INSERT INTO bookings (` + bookingCols + `)
	            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12::text,'')::uuid,$13,$14,$15,$16,$17)`
	_, err = tx.Exec(ctx, insertQ, b.ID, b.OrgID, b.InterviewerID, b.InterviewerName, b.InterviewerEmail,
		b.ApplicantName, b.ApplicantEmail, b.ApplicantPhone, b.StartAtUTC, b.EndAtUTC,
		b.DurationMins, b.EventTypeID, b.EventTypeTitle, b.Notes, b.MeetingLink, b.Status, now)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return ErrOverlapRejected
	}
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	b.CreatedAt = now
	return nil
}

func (s *PGStore) GetBooking(ctx context.Context, orgID, id string) (*Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE org_id=$1 AND id=$2`
	return scanBooking(s.DB.QueryRow(ctx, q, orgID, id))
}

func (s *PGStore) ListBookings(ctx context.Context, orgID, interviewerID string, from, to time.Time, filtered bool) ([]Booking, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filtered {
		q := `SELECT ` + bookingCols + ` FROM bookings
		      WHERE org_id=$1 AND interviewer_id=$2 AND start_at_utc >= $3 AND start_at_utc < $4
		      ORDER BY start_at_utc`
		rows, err = s.DB.Query(ctx, q, orgID, interviewerID, from, to)
	} else {
		q := `SELECT ` + bookingCols + ` FROM bookings
		      WHERE org_id=$1 AND interviewer_id=$2
		      ORDER BY start_at_utc`
		rows, err = s.DB.Query(ctx, q, orgID, interviewerID)
	}
	if err != nil {
		return nil, err
	}
	return s.scanBookings(rows)
}

func (s *PGStore) ListActiveBookingsInRange(ctx context.Context, orgID, interviewerID string, from, to time.Time) ([]Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings
	      WHERE org_id=$1 AND interviewer_id=$2 AND status <> 'CANCELLED'
	        AND start_at_utc < $4 AND end_at_utc > $3
	      ORDER BY start_at_utc`
	rows, err := s.DB.Query(ctx, q, orgID, interviewerID, from, to)
	if err != nil {
		return nil, err
	}
	return s.scanBookings(rows)
}

func (s *PGStore) ListActiveBookingsForApplicant(ctx context.Context, orgID, interviewerID, email string) ([]Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings
	      WHERE org_id=$1 AND interviewer_id=$2 AND applicant_email=$3 AND status <> 'CANCELLED'
	      ORDER BY start_at_utc`
	rows, err := s.DB.Query(ctx, q, orgID, interviewerID, email)
	if err != nil {
		return nil, err
	}
	return s.scanBookings(rows)
}

// CancelBooking flips status to CANCELLED. CANCELLED is terminal, so a
// second cancel reports ErrNotFound the same as a missing row.
func (s *PGStore) CancelBooking(ctx context.Context, orgID, id string) error {
	res, err := s.DB.Exec(ctx,
		`UPDATE bookings SET status='CANCELLED' WHERE org_id=$1 AND id=$2 AND status <> 'CANCELLED'`,
		orgID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) SaveCalendarCredentials(ctx context.Context, creds *CalendarCredentials) error {
	now := time.Now().UTC()
	q := `INSERT INTO calendar_credentials (org_id, interviewer_id, access_token, refresh_token, connected, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6)
	      ON CONFLICT (org_id, interviewer_id) DO UPDATE
	      SET access_token=EXCLUDED.access_token, refresh_token=EXCLUDED.refresh_token,
	          connected=EXCLUDED.connected, updated_at=EXCLUDED.updated_at`
	_, err := s.DB.Exec(ctx, q, creds.OrgID, creds.InterviewerID, creds.AccessToken,
		creds.RefreshToken, creds.Connected, now)
	return err
}

func (s *PGStore) GetCalendarCredentials(ctx context.Context, orgID, interviewerID string) (*CalendarCredentials, error) {
	q := `SELECT org_id, interviewer_id, access_token, refresh_token, connected, updated_at
	      FROM calendar_credentials WHERE org_id=$1 AND interviewer_id=$2`
	var c CalendarCredentials
	err := s.DB.QueryRow(ctx, q, orgID, interviewerID).Scan(&c.OrgID, &c.InterviewerID,
		&c.AccessToken, &c.RefreshToken, &c.Connected, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
