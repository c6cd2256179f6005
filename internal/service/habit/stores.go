package habit

import (
	"context"

	"habit-service/internal/model"
)

// HabitStore is the persistence surface the engine needs for habit rows.
// The pgx repositories implement it; tests use the in-memory stores from
// testing.go.
type HabitStore interface {
	Insert(ctx context.Context, h *model.Habit) error
	FindByID(ctx context.Context, id string) (*model.Habit, error)
	ListByUser(ctx context.Context, userID string) ([]model.Habit, error)
	ListAll(ctx context.Context) ([]model.Habit, error)
	Update(ctx context.Context, h *model.Habit) error
	UpdateStats(ctx context.Context, id string, streak, totalCompletions int) error
	DeleteWithCompletions(ctx context.Context, id string) error
}

// CompletionStore is the ledger surface. Insert must return
// model.ErrDuplicateCompletion on a (habit, date) collision and
// DeleteByHabitDate must return model.ErrNotFound when nothing was there.
type CompletionStore interface {
	Insert(ctx context.Context, e *model.CompletionEvent) error
	DeleteByHabitDate(ctx context.Context, habitID, date string) error
	ListByHabit(ctx context.Context, habitID string) ([]model.CompletionEvent, error)
	DatesByHabit(ctx context.Context, habitID string) ([]string, error)
}

// EventPublisher receives change notifications after every successful
// mutation. *mq.Producer satisfies it.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}
