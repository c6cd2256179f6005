package stats

import (
	"fmt"
	"time"
)

// DayFormat is the canonical calendar-day layout used everywhere a
// completion date is stored or compared.
const DayFormat = "2006-01-02"

// Day collapses any point in time to its UTC calendar day at midnight.
// UTC is the single timezone policy for day boundaries across mark,
// unmark, streak and rate computation.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a time as its canonical YYYY-MM-DD day string.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// mustDay is for ledger-sourced dates, which the uniqueness invariant
// guarantees are well formed. A parse failure here is a programming error.
func mustDay(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}
