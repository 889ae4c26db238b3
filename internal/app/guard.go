package app

import "time"

// IsBlocking reports whether a booking still reserves its interval. CANCELLED
// never blocks. PENDING is an expiring hold: once it is older than holdTTL it
// stops blocking so an abandoned form cannot occupy a slot forever. A zero
// holdTTL disables expiry and PENDING blocks like CONFIRMED.
func IsBlocking(b Booking, now time.Time, holdTTL time.Duration) bool {
	switch b.Status {
	case StatusCancelled:
		return false
	case StatusPending:
		if holdTTL > 0 && !b.CreatedAt.IsZero() && now.Sub(b.CreatedAt) > holdTTL {
			return false
		}
	}
	return true
}

// BlockingBookings filters to the bookings that still reserve their interval.
func BlockingBookings(bookings []Booking, now time.Time, holdTTL time.Duration) []Booking {
	var out []Booking
	for _, b := range bookings {
		if IsBlocking(b, now, holdTTL) {
			out = append(out, b)
		}
	}
	return out
}

// CheckBooking is the double-booking guard run immediately before a booking
// is persisted, over a freshly fetched snapshot.
//
// It rejects with ErrOverlapRejected when the requested interval overlaps a
// blocking booking for the interviewer, and with ErrDuplicateActiveBooking
// when the applicant already holds a future blocking booking with the same
// interviewer. The two conditions are distinct so callers can offer a
// "view or cancel your existing booking" path instead of "pick another time".
//
// This check-then-act is best effort; the database closes the remaining race
// with an exclusion constraint at insert time.
func CheckBooking(start, end time.Time, interviewerBookings, applicantBookings []Booking, now time.Time, holdTTL time.Duration) error {
	for _, b := range interviewerBookings {
		if !IsBlocking(b, now, holdTTL) {
			continue
		}
		if overlaps(start, end, b.StartAtUTC, b.EndAtUTC) {
			return ErrOverlapRejected
		}
	}
	for _, b := range applicantBookings {
		if !IsBlocking(b, now, holdTTL) {
			continue
		}
		if b.StartAtUTC.After(now) {
			return ErrDuplicateActiveBooking
		}
	}
	return nil
}

// ActiveFutureBooking returns the applicant's first future blocking booking,
// or nil when none exists.
func ActiveFutureBooking(bookings []Booking, now time.Time, holdTTL time.Duration) *Booking {
	for i, b := range bookings {
		if IsBlocking(b, now, holdTTL) && b.StartAtUTC.After(now) {
			return &bookings[i]
		}
	}
	return nil
}
