package stats

import "time"

// NormalizeDate collapses caller-supplied date input to the canonical
// YYYY-MM-DD day string. Plain day strings pass through after validation;
// RFC 3339 timestamps are reduced to their UTC calendar day.
func NormalizeDate(s string) (string, error) {
	if d, err := ParseDay(s); err == nil {
		return FormatDay(d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", err
	}
	return FormatDay(t), nil
}
