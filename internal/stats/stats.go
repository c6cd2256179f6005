// Package stats derives habit statistics from completion ledger snapshots.
// Every function is pure: it takes the completion dates and a reference
// "today" and returns a result, with no side effects and no clock access.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Streak returns the current consecutive-day streak for the given
// completion dates. The chain may end today or yesterday: a day that has
// not been completed yet does not break an ongoing streak. The first gap
// stops the count. Future-dated completions are ignored.
//
// dates come straight from the ledger; duplicates violate the ledger's
// one-event-per-day invariant and cause a panic rather than an error.
func Streak(dates []string, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := sortedDaysDesc(dates)
	cursor := Day(today)
	yesterday := cursor.AddDate(0, 0, -1)

	streak := 0
	var prev time.Time
	for _, d := range days {
		if d.After(cursor) {
			continue
		}
		if streak == 0 {
			if !d.Equal(cursor) && !d.Equal(yesterday) {
				return 0
			}
			streak = 1
			prev = d
			continue
		}
		if !d.Equal(prev.AddDate(0, 0, -1)) {
			break
		}
		streak++
		prev = d
	}
	return streak
}

// TotalCompletions is the ledger event count. It exists so callers always
// recompute the total from the ledger instead of incrementing a counter.
func TotalCompletions(dates []string) int {
	return len(dates)
}

// CompletionRate returns the integer percentage of days completed within
// the trailing window [today-(windowDays-1), today], both ends inclusive.
// A non-positive window yields 0. The result is clamped to 0-100.
func CompletionRate(dates []string, today time.Time, windowDays int) int {
	if windowDays <= 0 {
		return 0
	}

	end := Day(today)
	start := end.AddDate(0, 0, -(windowDays - 1))

	count := 0
	for _, s := range dates {
		d := mustDay(s)
		if !d.Before(start) && !d.After(end) {
			count++
		}
	}

	rate := int(math.Round(100 * float64(count) / float64(windowDays)))
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

func sortedDaysDesc(dates []string) []time.Time {
	days := make([]time.Time, len(dates))
	for i, s := range dates {
		days[i] = mustDay(s)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1]) {
			panic(fmt.Sprintf("duplicate completion date %s", days[i].Format(DayFormat)))
		}
	}
	return days
}
