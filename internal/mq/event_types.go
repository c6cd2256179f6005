package mq

// Change notifications emitted after every successful engine mutation.
// Consumers (notification schedulers, dashboards) pull habit state through
// the API; these payloads only say what changed.

type HabitCreatedPayload struct {
	HabitID string `json:"habit_id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
}

type HabitCompletedPayload struct {
	HabitID          string `json:"habit_id"`
	UserID           string `json:"user_id"`
	Date             string `json:"date"`
	Streak           int    `json:"streak"`
	TotalCompletions int    `json:"total_completions"`
}

type HabitUncompletedPayload struct {
	HabitID          string `json:"habit_id"`
	UserID           string `json:"user_id"`
	Date             string `json:"date"`
	Streak           int    `json:"streak"`
	TotalCompletions int    `json:"total_completions"`
}

type HabitDeletedPayload struct {
	HabitID string `json:"habit_id"`
	UserID  string `json:"user_id"`
}
