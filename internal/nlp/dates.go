package nlp

import (
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// istZone is the fixed-offset stand-in used when the IANA database is not
// available on the host (e.g. stripped containers) and Indian Standard Time
// was requested.
var istZone = time.FixedZone("IST", 5*3600+30*60)

// loadZone resolves a zone name without ever failing: unknown zones fall
// back to a fixed IST offset for the Indian identifiers, else UTC.
func loadZone(tzName string) *time.Location {
	loc, err := time.LoadLocation(tzName)
	if err == nil {
		return loc
	}
	if tzName == "Asia/Kolkata" || tzName == "Asia/Calcutta" {
		return istZone
	}
	return time.UTC
}

// ResolveDates maps a free-text phrase to a concrete (start, end) pair of
// ISO 8601 calendar dates in the named zone. defaultDays is the trip length
// and must already be >= 1; a 1-day trip has start == end.
func ResolveDates(text, tzName string, defaultDays int) (string, string) {
	return resolveDatesAt(text, time.Now(), tzName, defaultDays)
}

func resolveDatesAt(text string, now time.Time, tzName string, defaultDays int) (string, string) {
	loc := loadZone(tzName)
	now = now.In(loc)
	lower := strings.ToLower(text)

	// Exclusive priority chain: first marker wins, no combination logic.
	var start time.Time
	switch {
	case strings.Contains(lower, "today"):
		start = now
	case strings.Contains(lower, "tomorrow"):
		start = now.AddDate(0, 0, 1)
	case strings.Contains(lower, "next week"):
		daysUntilMonday := (int(time.Monday) - int(now.Weekday()) + 7) % 7
		if daysUntilMonday == 0 {
			// Already Monday: "next week" means a full week out, never today.
			daysUntilMonday = 7
		}
		start = now.AddDate(0, 0, daysUntilMonday)
	default:
		start = now
	}

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	endDay := startDay.AddDate(0, 0, defaultDays-1)
	return startDay.Format(isoDate), endDay.Format(isoDate)
}
