package model

import "time"

// Habit is a tracked recurring behavior owned by one user. Streak and
// TotalCompletions are denormalized projections of the completion ledger:
// they are rewritten after every ledger change and must never be adjusted
// anywhere else.
type Habit struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Color            string    `json:"color"`
	Icon             string    `json:"icon,omitempty"`
	Frequency        string    `json:"frequency"`
	Streak           int       `json:"streak"`
	TotalCompletions int       `json:"total_completions"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

const (
	DefaultColor     = "#3B82F6"
	DefaultFrequency = "daily"
)
