package app

import "fmt"

// NormalizeWindow validates a window's time fields and fills in its duration.
// When the request supplies a duration it must match end-start; the stored
// value is derived, never an independent source of truth.
func NormalizeWindow(w *AvailabilityWindow) error {
	startMin, err := parseHHMM(w.StartTime)
	if err != nil {
		return err
	}
	endMin, err := parseHHMM(w.EndTime)
	if err != nil {
		return err
	}
	if endMin <= startMin {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidWindowFormat)
	}
	if w.DurationMins != 0 && w.DurationMins != endMin-startMin {
		return fmt.Errorf("%w: duration_minutes does not match start/end", ErrInvalidWindowFormat)
	}
	w.DurationMins = endMin - startMin
	return nil
}

// ValidateWindow rejects a candidate window that conflicts with an existing
// window on the same day, using the same half-open overlap test the resolver
// applies to bookings. The candidate must already be normalized.
func ValidateWindow(candidate AvailabilityWindow, existing []AvailabilityWindow) error {
	cStart, err := parseHHMM(candidate.StartTime)
	if err != nil {
		return err
	}
	cEnd, err := parseHHMM(candidate.EndTime)
	if err != nil {
		return err
	}

	for _, w := range existing {
		if w.ID == candidate.ID {
			continue
		}
		wStart, err := parseHHMM(w.StartTime)
		if err != nil {
			// a malformed stored window cannot be compared; skip it the way
			// the resolver does
			continue
		}
		wEnd, err := parseHHMM(w.EndTime)
		if err != nil {
			continue
		}
		if cStart < wEnd && wStart < cEnd {
			return fmt.Errorf("%w: %s-%s conflicts with %s-%s", ErrOverlapRejected,
				candidate.StartTime, candidate.EndTime, w.StartTime, w.EndTime)
		}
	}
	return nil
}
