package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDates_Tomorrow(t *testing.T) {
	// "tomorrow" must be today+1 in the resolved zone regardless of the
	// time of day "now" is evaluated.
	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)

	for _, hour := range []int{0, 9, 23} {
		now := time.Date(2025, 3, 14, hour, 30, 0, 0, loc)
		start, end := resolveDatesAt("weather in Goa tomorrow", now, "UTC", 2)
		assert.Equal(t, "2025-03-15", start, "hour=%d", hour)
		assert.Equal(t, "2025-03-16", end, "hour=%d", hour)
	}
}

func TestResolveDates_Today(t *testing.T) {
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	start, end := resolveDatesAt("plan a trip today", now, "UTC", 3)
	assert.Equal(t, "2025-03-14", start)
	assert.Equal(t, "2025-03-16", end)
}

func TestResolveDates_TodayWinsOverTomorrow(t *testing.T) {
	// Marker chain is exclusive: the first match wins.
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	start, _ := resolveDatesAt("today or tomorrow", now, "UTC", 1)
	assert.Equal(t, "2025-03-14", start)
}

func TestResolveDates_NextWeek(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			// 2025-03-10 is a Monday; "next week" jumps a full 7 days.
			name: "on a Monday",
			now:  time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			want: "2025-03-17",
		},
		{
			// 2025-03-14 is a Friday; coming Monday is the 17th.
			name: "on a Friday",
			now:  time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
			want: "2025-03-17",
		},
		{
			// 2025-03-16 is a Sunday.
			name: "on a Sunday",
			now:  time.Date(2025, 3, 16, 10, 0, 0, 0, time.UTC),
			want: "2025-03-17",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := resolveDatesAt("plan for next week", tt.now, "UTC", 2)
			assert.Equal(t, tt.want, start)
		})
	}
}

func TestResolveDates_NoMarkerDefaultsToToday(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	start, _ := resolveDatesAt("plan 3 days in Tokyo", now, "UTC", 3)
	assert.Equal(t, "2025-03-14", start)
}

func TestResolveDates_OneDayTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	start, end := resolveDatesAt("weather in Delhi", now, "UTC", 1)
	assert.Equal(t, start, end)
}

func TestResolveDates_UnknownZoneFallsBackToUTC(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	start, end := resolveDatesAt("tomorrow", now, "Mars/Olympus_Mons", 2)
	assert.Equal(t, "2025-03-15", start)
	assert.Equal(t, "2025-03-16", end)
}

func TestResolveDates_ISTFixedOffset(t *testing.T) {
	// 23:00 UTC is already the next calendar day in IST (+05:30); the
	// resolved local date matters, not the UTC one.
	got := loadZone("Asia/Kolkata")
	require.NotNil(t, got)

	now := time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)
	start, _ := resolveDatesAt("weather today", now, "Asia/Kolkata", 1)
	assert.Equal(t, "2025-03-15", start)
}
