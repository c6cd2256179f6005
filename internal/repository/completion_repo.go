package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habit-service/internal/model"
)

// uniqueViolation is the Postgres error code raised by the unique index on
// (habit_id, date). It backs the one-event-per-day invariant even across
// processes.
const uniqueViolation = "23505"

type CompletionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCompletionRepository(db *pgxpool.Pool, logger *zap.Logger) *CompletionRepository {
	return &CompletionRepository{
		db:     db,
		logger: logger,
	}
}

// Insert creates a completion event. Returns model.ErrDuplicateCompletion
// when an event already exists for (habit_id, date).
func (r *CompletionRepository) Insert(ctx context.Context, e *model.CompletionEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
        INSERT INTO habit_completions (id, habit_id, user_id, date, timestamp)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.db.Exec(ctx, query, e.ID, e.HabitID, e.UserID, e.Date, e.Timestamp)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateCompletion
		}
		r.logger.Error("Failed to insert completion",
			zap.String("habit_id", e.HabitID),
			zap.String("date", e.Date),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Completion inserted",
		zap.String("habit_id", e.HabitID),
		zap.String("date", e.Date),
	)
	return nil
}

// DeleteByHabitDate removes the event for (habit_id, date). Returns
// model.ErrNotFound when no such event exists; repeated unmarks on an
// absent date keep failing rather than silently succeeding.
func (r *CompletionRepository) DeleteByHabitDate(ctx context.Context, habitID, date string) error {
	query := `
        DELETE FROM habit_completions
        WHERE habit_id = $1 AND date = $2
    `
	tag, err := r.db.Exec(ctx, query, habitID, date)
	if err != nil {
		r.logger.Error("Failed to delete completion",
			zap.String("habit_id", habitID),
			zap.String("date", date),
			zap.Error(err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	r.logger.Info("Completion deleted",
		zap.String("habit_id", habitID),
		zap.String("date", date),
	)
	return nil
}

// ListByHabit returns all events for a habit, newest day first.
func (r *CompletionRepository) ListByHabit(ctx context.Context, habitID string) ([]model.CompletionEvent, error) {
	query := `
        SELECT id, habit_id, user_id, date, timestamp
        FROM habit_completions
        WHERE habit_id = $1
        ORDER BY date DESC
    `

	rows, err := r.db.Query(ctx, query, habitID)
	if err != nil {
		r.logger.Error("Failed to list completions", zap.String("habit_id", habitID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	events := []model.CompletionEvent{}
	for rows.Next() {
		var e model.CompletionEvent
		if err := rows.Scan(&e.ID, &e.HabitID, &e.UserID, &e.Date, &e.Timestamp); err != nil {
			r.logger.Error("Failed to scan completion", zap.Error(err))
			return nil, err
		}
		events = append(events, e)
	}

	return events, nil
}

// DatesByHabit returns only the completion dates for a habit, newest first.
// This is the snapshot the stats calculator consumes.
func (r *CompletionRepository) DatesByHabit(ctx context.Context, habitID string) ([]string, error) {
	query := `
        SELECT date
        FROM habit_completions
        WHERE habit_id = $1
        ORDER BY date DESC
    `

	rows, err := r.db.Query(ctx, query, habitID)
	if err != nil {
		r.logger.Error("Failed to list completion dates", zap.String("habit_id", habitID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}

	return dates, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
