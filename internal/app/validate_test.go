package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWindowComputesDuration(t *testing.T) {
	w := AvailabilityWindow{StartTime: "09:00", EndTime: "10:15"}
	require.NoError(t, NormalizeWindow(&w))
	assert.Equal(t, 75, w.DurationMins)
}

func TestNormalizeWindowRejectsBadOrdering(t *testing.T) {
	w := AvailabilityWindow{StartTime: "10:00", EndTime: "09:00"}
	assert.ErrorIs(t, NormalizeWindow(&w), ErrInvalidWindowFormat)

	w = AvailabilityWindow{StartTime: "10:00", EndTime: "10:00"}
	assert.ErrorIs(t, NormalizeWindow(&w), ErrInvalidWindowFormat)
}

func TestNormalizeWindowRejectsDurationMismatch(t *testing.T) {
	// a supplied duration must agree with end-start; it is derived, not trusted
	w := AvailabilityWindow{StartTime: "09:00", EndTime: "09:30", DurationMins: 45}
	assert.ErrorIs(t, NormalizeWindow(&w), ErrInvalidWindowFormat)

	w = AvailabilityWindow{StartTime: "09:00", EndTime: "09:30", DurationMins: 30}
	assert.NoError(t, NormalizeWindow(&w))
}

func TestNormalizeWindowRejectsUnparseableTimes(t *testing.T) {
	w := AvailabilityWindow{StartTime: "morning", EndTime: "10:00"}
	assert.ErrorIs(t, NormalizeWindow(&w), ErrInvalidWindowFormat)
}

func TestValidateWindowRejectsOverlap(t *testing.T) {
	existing := []AvailabilityWindow{window("w1", "09:00", "10:00", "")}

	err := ValidateWindow(window("w2", "09:30", "10:30", ""), existing)
	assert.ErrorIs(t, err, ErrOverlapRejected)

	// containment counts as overlap too
	err = ValidateWindow(window("w3", "08:00", "11:00", ""), existing)
	assert.ErrorIs(t, err, ErrOverlapRejected)
}

func TestValidateWindowAllowsBackToBack(t *testing.T) {
	existing := []AvailabilityWindow{window("w1", "09:00", "10:00", "")}

	assert.NoError(t, ValidateWindow(window("w2", "10:00", "10:30", ""), existing))
	assert.NoError(t, ValidateWindow(window("w3", "08:00", "09:00", ""), existing))
}

func TestValidateWindowSkipsSelfOnUpdate(t *testing.T) {
	existing := []AvailabilityWindow{window("w1", "09:00", "10:00", "")}

	// updating w1 in place must not conflict with its own stored row
	updated := window("w1", "09:15", "10:15", "")
	assert.NoError(t, ValidateWindow(updated, existing))
}

func TestValidateWindowIgnoresMalformedStoredWindows(t *testing.T) {
	existing := []AvailabilityWindow{
		{ID: "bad", StartTime: "nope", EndTime: "also nope"},
		window("w1", "13:00", "14:00", ""),
	}
	assert.NoError(t, ValidateWindow(window("w2", "09:00", "09:30", ""), existing))
	assert.ErrorIs(t, ValidateWindow(window("w3", "13:30", "14:30", ""), existing), ErrOverlapRejected)
}
