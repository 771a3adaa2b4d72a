package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		day  time.Time
		want int
	}{
		{name: "same day", day: start, want: 0},
		{name: "next day", day: time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC), want: 1},
		{name: "one week later", day: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), want: 8},
		{name: "month boundary", day: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), want: 31},
		{name: "before start", day: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(start, tt.day))
		})
	}
}

func TestDaysBetweenAcrossDaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-03-10 loses an hour in New York; elapsed seconds / 86400 would undercount.
	before := time.Date(2024, 3, 9, 0, 30, 0, 0, loc)
	after := time.Date(2024, 3, 11, 0, 15, 0, 0, loc)
	assert.Less(t, after.Sub(before), 48*time.Hour)
	assert.Equal(t, 2, DaysBetween(before, after))

	// Autumn shift gains an hour.
	before = time.Date(2024, 11, 2, 23, 45, 0, 0, loc)
	after = time.Date(2024, 11, 3, 23, 30, 0, 0, loc)
	assert.Greater(t, after.Sub(before), 23*time.Hour)
	assert.Equal(t, 1, DaysBetween(before, after))
}

func TestDateIn(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	instant := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), DateIn(instant, loc))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DateIn(instant, time.UTC))
}

func TestAt(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got := At(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 19, 30, loc)
	assert.Equal(t, "2024-06-01T19:30:00+02:00", got.Format(time.RFC3339))
}
