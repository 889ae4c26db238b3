package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

func window(id, start, end string, eventTypeID string) AvailabilityWindow {
	startMin, _ := parseHHMM(start)
	endMin, _ := parseHHMM(end)
	return AvailabilityWindow{
		ID:           id,
		Day:          testDay.Format("2006-01-02"),
		StartTime:    start,
		EndTime:      end,
		DurationMins: endMin - startMin,
		EventTypeID:  eventTypeID,
	}
}

func bookingAt(start, end string) Booking {
	return Booking{
		Status:     StatusConfirmed,
		StartAtUTC: at(start),
		EndAtUTC:   at(end),
	}
}

// at builds an instant on testDay from "HH:MM".
func at(hhmm string) time.Time {
	min, err := parseHHMM(hhmm)
	if err != nil {
		panic(err)
	}
	return testDay.Add(time.Duration(min) * time.Minute)
}

func TestResolveSlotsOpenDay(t *testing.T) {
	// window 09:00-09:30, no bookings, now 08:00
	slots, malformed := ResolveSlots(testDay, []AvailabilityWindow{window("w1", "09:00", "09:30", "")}, "", nil, at("08:00"))

	require.Empty(t, malformed)
	require.Len(t, slots, 1)
	assert.Equal(t, at("09:00"), slots[0].StartUTC)
	assert.Equal(t, at("09:30"), slots[0].EndUTC)
	assert.Equal(t, 30, slots[0].DurationMins)
}

func TestResolveSlotsExcludesOverlappingBooking(t *testing.T) {
	// booking 09:15-09:45 overlaps the 09:00-09:30 window
	slots, _ := ResolveSlots(testDay,
		[]AvailabilityWindow{window("w1", "09:00", "09:30", "")},
		"",
		[]Booking{bookingAt("09:15", "09:45")},
		at("08:00"))

	assert.Empty(t, slots)
}

func TestResolveSlotsBackToBackBookingDoesNotConflict(t *testing.T) {
	// booking starts exactly when the window ends; half-open intervals touch
	// without conflicting
	slots, _ := ResolveSlots(testDay,
		[]AvailabilityWindow{window("w1", "09:00", "09:30", "")},
		"",
		[]Booking{bookingAt("09:30", "10:00")},
		at("08:00"))

	require.Len(t, slots, 1)
	assert.Equal(t, at("09:00"), slots[0].StartUTC)
}

func TestResolveSlotsExcludesPastStart(t *testing.T) {
	// now is inside the window, so its start has already passed
	slots, _ := ResolveSlots(testDay, []AvailabilityWindow{window("w1", "09:00", "09:30", "")}, "", nil, at("09:05"))
	assert.Empty(t, slots)

	// a start exactly at now is also excluded
	slots, _ = ResolveSlots(testDay, []AvailabilityWindow{window("w1", "09:00", "09:30", "")}, "", nil, at("09:00"))
	assert.Empty(t, slots)
}

func TestResolveSlotsEventTypeFilter(t *testing.T) {
	windows := []AvailabilityWindow{
		window("w1", "09:00", "09:30", "type-a"),
		window("w2", "10:00", "10:45", "type-b"),
	}

	slots, _ := ResolveSlots(testDay, windows, "type-a", nil, at("08:00"))
	require.Len(t, slots, 1)
	assert.Equal(t, "type-a", slots[0].EventTypeID)

	// no filter: both windows participate
	slots, _ = ResolveSlots(testDay, windows, "", nil, at("08:00"))
	assert.Len(t, slots, 2)
}

func TestResolveSlotsHeterogeneousDurations(t *testing.T) {
	windows := []AvailabilityWindow{
		window("w1", "09:00", "09:30", ""),
		window("w2", "10:00", "11:00", ""),
	}
	slots, _ := ResolveSlots(testDay, windows, "", nil, at("08:00"))

	require.Len(t, slots, 2)
	assert.Equal(t, 30, slots[0].DurationMins)
	assert.Equal(t, 60, slots[1].DurationMins)
}

func TestResolveSlotsSortsByStart(t *testing.T) {
	windows := []AvailabilityWindow{
		window("w2", "14:00", "14:30", ""),
		window("w1", "09:00", "09:30", ""),
		window("w3", "11:00", "11:30", ""),
	}
	slots, _ := ResolveSlots(testDay, windows, "", nil, at("08:00"))

	require.Len(t, slots, 3)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].StartUTC.Before(slots[i].StartUTC))
	}
}

func TestResolveSlotsSkipsMalformedWindow(t *testing.T) {
	windows := []AvailabilityWindow{
		{ID: "bad", StartTime: "9am", EndTime: "10am", DurationMins: 60},
		window("w1", "09:00", "09:30", ""),
	}
	slots, malformed := ResolveSlots(testDay, windows, "", nil, at("08:00"))

	require.Len(t, slots, 1)
	assert.Equal(t, []string{"bad"}, malformed)
}

// Identical inputs must give identical output: the resolver keeps no state.
func TestResolveSlotsIdempotent(t *testing.T) {
	windows := []AvailabilityWindow{
		window("w1", "09:00", "09:30", "type-a"),
		window("w2", "10:00", "10:45", ""),
	}
	bookings := []Booking{bookingAt("10:00", "10:45")}

	first, _ := ResolveSlots(testDay, windows, "", bookings, at("08:00"))
	second, _ := ResolveSlots(testDay, windows, "", bookings, at("08:00"))
	assert.Equal(t, first, second)
}

// No returned candidate may start at or before now, for any now.
func TestResolveSlotsNeverOffersPast(t *testing.T) {
	windows := []AvailabilityWindow{
		window("w1", "08:00", "08:30", ""),
		window("w2", "10:00", "10:30", ""),
		window("w3", "12:00", "12:30", ""),
	}
	for _, now := range []time.Time{at("07:00"), at("08:00"), at("10:15"), at("13:00")} {
		slots, _ := ResolveSlots(testDay, windows, "", nil, now)
		for _, s := range slots {
			assert.True(t, s.StartUTC.After(now), "slot %v offered at now=%v", s.StartUTC, now)
		}
	}
}

// No returned candidate may intersect any active booking.
func TestResolveSlotsNeverOffersConflicts(t *testing.T) {
	windows := []AvailabilityWindow{
		window("w1", "09:00", "09:30", ""),
		window("w2", "09:30", "10:00", ""),
		window("w3", "10:00", "10:30", ""),
		window("w4", "11:00", "12:00", ""),
	}
	bookings := []Booking{
		bookingAt("09:30", "10:00"),
		bookingAt("11:30", "11:45"),
	}
	slots, _ := ResolveSlots(testDay, windows, "", bookings, at("08:00"))

	require.Len(t, slots, 2)
	for _, s := range slots {
		for _, b := range bookings {
			assert.False(t, overlaps(s.StartUTC, s.EndUTC, b.StartAtUTC, b.EndAtUTC))
		}
	}
}

func TestOverlapsSymmetric(t *testing.T) {
	cases := []struct{ aStart, aEnd, bStart, bEnd string }{
		{"09:00", "09:30", "09:15", "09:45"},
		{"09:00", "09:30", "09:30", "10:00"},
		{"09:00", "10:00", "09:15", "09:45"},
		{"09:00", "09:30", "11:00", "11:30"},
		{"09:00", "09:30", "09:00", "09:30"},
	}
	for _, tc := range cases {
		got := overlaps(at(tc.aStart), at(tc.aEnd), at(tc.bStart), at(tc.bEnd))
		flipped := overlaps(at(tc.bStart), at(tc.bEnd), at(tc.aStart), at(tc.aEnd))
		assert.Equal(t, got, flipped, "overlap not symmetric for %v", tc)
	}
}

func TestParseHHMM(t *testing.T) {
	min, err := parseHHMM("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, min)

	// trailing seconds from older rows are tolerated
	min, err = parseHHMM("14:05:00")
	require.NoError(t, err)
	assert.Equal(t, 14*60+5, min)

	_, err = parseHHMM("9am")
	assert.ErrorIs(t, err, ErrInvalidWindowFormat)

	_, err = parseHHMM("25:00")
	assert.ErrorIs(t, err, ErrInvalidWindowFormat)
}
