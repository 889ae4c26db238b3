package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const holdTTL = 30 * time.Minute

func TestCheckBookingRejectsOverlap(t *testing.T) {
	now := at("08:00")
	interviewer := []Booking{bookingAt("09:15", "09:45")}

	err := CheckBooking(at("09:00"), at("09:30"), interviewer, nil, now, holdTTL)
	assert.ErrorIs(t, err, ErrOverlapRejected)
}

func TestCheckBookingAllowsBackToBack(t *testing.T) {
	now := at("08:00")
	interviewer := []Booking{bookingAt("09:30", "10:00")}

	assert.NoError(t, CheckBooking(at("09:00"), at("09:30"), interviewer, nil, now, holdTTL))
}

func TestCheckBookingRejectsDuplicateActiveBooking(t *testing.T) {
	now := at("08:00")
	applicant := []Booking{bookingAt("15:00", "15:30")}

	err := CheckBooking(at("09:00"), at("09:30"), nil, applicant, now, holdTTL)
	assert.ErrorIs(t, err, ErrDuplicateActiveBooking)
}

func TestCheckBookingIgnoresPastApplicantBooking(t *testing.T) {
	// an already-finished interview does not count as the one active booking
	now := at("16:00")
	applicant := []Booking{bookingAt("09:00", "09:30")}

	assert.NoError(t, CheckBooking(at("17:00"), at("17:30"), nil, applicant, now, holdTTL))
}

func TestCheckBookingIgnoresCancelled(t *testing.T) {
	now := at("08:00")
	cancelled := bookingAt("09:00", "09:30")
	cancelled.Status = StatusCancelled

	assert.NoError(t, CheckBooking(at("09:00"), at("09:30"), []Booking{cancelled}, []Booking{cancelled}, now, holdTTL))
}

func TestCheckBookingOverlapTakesPrecedence(t *testing.T) {
	// both conditions hold; the slot conflict is reported first so the UI
	// sends the user to pick another time before surfacing the duplicate
	now := at("08:00")
	b := bookingAt("09:00", "09:30")

	err := CheckBooking(at("09:00"), at("09:30"), []Booking{b}, []Booking{b}, now, holdTTL)
	assert.ErrorIs(t, err, ErrOverlapRejected)
}

func TestIsBlockingPendingHoldExpiry(t *testing.T) {
	now := at("10:00")

	fresh := bookingAt("14:00", "14:30")
	fresh.Status = StatusPending
	fresh.CreatedAt = now.Add(-10 * time.Minute)
	assert.True(t, IsBlocking(fresh, now, holdTTL))

	stale := bookingAt("14:00", "14:30")
	stale.Status = StatusPending
	stale.CreatedAt = now.Add(-2 * time.Hour)
	assert.False(t, IsBlocking(stale, now, holdTTL))

	// zero TTL disables expiry
	assert.True(t, IsBlocking(stale, now, 0))

	// CONFIRMED never expires
	confirmed := bookingAt("14:00", "14:30")
	confirmed.CreatedAt = now.Add(-2 * time.Hour)
	assert.True(t, IsBlocking(confirmed, now, holdTTL))
}

func TestBlockingBookingsFilters(t *testing.T) {
	now := at("10:00")

	cancelled := bookingAt("11:00", "11:30")
	cancelled.Status = StatusCancelled
	stalePending := bookingAt("12:00", "12:30")
	stalePending.Status = StatusPending
	stalePending.CreatedAt = now.Add(-time.Hour)
	confirmed := bookingAt("13:00", "13:30")

	out := BlockingBookings([]Booking{cancelled, stalePending, confirmed}, now, holdTTL)
	assert.Len(t, out, 1)
	assert.Equal(t, confirmed.StartAtUTC, out[0].StartAtUTC)
}

func TestActiveFutureBooking(t *testing.T) {
	now := at("10:00")

	past := bookingAt("08:00", "08:30")
	future := bookingAt("15:00", "15:30")

	got := ActiveFutureBooking([]Booking{past, future}, now, holdTTL)
	if assert.NotNil(t, got) {
		assert.Equal(t, future.StartAtUTC, got.StartAtUTC)
	}

	assert.Nil(t, ActiveFutureBooking([]Booking{past}, now, holdTTL))
	assert.Nil(t, ActiveFutureBooking(nil, now, holdTTL))
}
