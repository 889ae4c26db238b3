package app

import (
	"fmt"
	"sort"
	"time"
)

// Slot is an offerable candidate produced by ResolveSlots. Durations vary per
// window, so each slot carries its own.
type Slot struct {
	StartUTC     time.Time `json:"start_utc"`
	EndUTC       time.Time `json:"end_utc"`
	DurationMins int       `json:"duration_minutes"`
	EventTypeID  string    `json:"event_type_id,omitempty"`
}

// overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not conflict.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// parseHHMM parses a "HH:MM" clock string into minutes since midnight.
func parseHHMM(s string) (int, error) {
	if len(s) < 5 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWindowFormat, s)
	}
	// tolerate "09:00:00" style values from older rows
	tt, err := time.Parse("15:04", s[:5])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWindowFormat, s)
	}
	return tt.Hour()*60 + tt.Minute(), nil
}

// ResolveSlots computes the offerable start times for one interviewer-day.
//
// Windows are filtered by eventTypeID when it is non-empty, anchored to day
// in UTC, and dropped when they start at or before now or overlap any entry
// in activeBookings. Callers pass only bookings that still block; cancelled
// and expired holds must already be filtered out (see IsBlocking).
//
// Malformed windows are skipped rather than failing the whole resolution;
// their IDs are returned so the caller can log a warning. The result is
// sorted ascending by start time. Pure: identical inputs give identical
// output.
func ResolveSlots(day time.Time, windows []AvailabilityWindow, eventTypeID string, activeBookings []Booking, now time.Time) ([]Slot, []string) {
	year, month, dayNum := day.UTC().Date()

	var slots []Slot
	var malformed []string
	for _, w := range windows {
		if eventTypeID != "" && w.EventTypeID != eventTypeID {
			continue
		}

		startMin, err := parseHHMM(w.StartTime)
		if err != nil {
			malformed = append(malformed, w.ID)
			continue
		}

		start := time.Date(year, month, dayNum, startMin/60, startMin%60, 0, 0, time.UTC)
		end := start.Add(time.Duration(w.DurationMins) * time.Minute)

		// never offer a slot that has already begun
		if !start.After(now) {
			continue
		}

		conflict := false
		for _, b := range activeBookings {
			if overlaps(start, end, b.StartAtUTC, b.EndAtUTC) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		slots = append(slots, Slot{
			StartUTC:     start,
			EndUTC:       end,
			DurationMins: w.DurationMins,
			EventTypeID:  w.EventTypeID,
		})
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartUTC.Before(slots[j].StartUTC) })
	return slots, malformed
}
