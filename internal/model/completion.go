package model

// CompletionEvent records that a habit was done on one calendar day.
// Date is a UTC calendar day in YYYY-MM-DD form; at most one event may
// exist per (HabitID, Date). Events are never updated in place: toggling
// a day off and on again deletes and recreates the row, so Timestamp
// always reflects the latest mark.
type CompletionEvent struct {
	ID        string `json:"id"`
	HabitID   string `json:"habit_id"`
	UserID    string `json:"user_id"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"`
}
