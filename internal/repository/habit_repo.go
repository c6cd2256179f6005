package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habit-service/internal/model"
)

const habitColumns = `id, user_id, title, description, color, icon, frequency, streak, total_completions, created_at, updated_at`

type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{
		db:     db,
		logger: logger,
	}
}

func (r *HabitRepository) Insert(ctx context.Context, h *model.Habit) error {
	r.logger.Debug("Inserting habit",
		zap.String("user_id", h.UserID),
		zap.String("title", h.Title),
	)

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	query := `
        INSERT INTO habits (id, user_id, title, description, color, icon, frequency, streak, total_completions)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0)
        RETURNING streak, total_completions, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		h.ID,
		h.UserID,
		h.Title,
		h.Description,
		h.Color,
		h.Icon,
		h.Frequency,
	).Scan(&h.Streak, &h.TotalCompletions, &h.CreatedAt, &h.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert habit", zap.Error(err))
		return err
	}

	r.logger.Info("Habit inserted successfully",
		zap.String("id", h.ID),
		zap.String("user_id", h.UserID),
	)
	return nil
}

func (r *HabitRepository) FindByID(ctx context.Context, id string) (*model.Habit, error) {
	query := `
        SELECT ` + habitColumns + `
        FROM habits
        WHERE id = $1
    `
	var h model.Habit
	err := r.db.QueryRow(ctx, query, id).Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.Description,
		&h.Color,
		&h.Icon,
		&h.Frequency,
		&h.Streak,
		&h.TotalCompletions,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *HabitRepository) ListByUser(ctx context.Context, userID string) ([]model.Habit, error) {
	r.logger.Debug("Listing habits for user", zap.String("user_id", userID))

	query := `
        SELECT ` + habitColumns + `
        FROM habits
        WHERE user_id = $1
        ORDER BY created_at DESC
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.Description,
			&h.Color,
			&h.Icon,
			&h.Frequency,
			&h.Streak,
			&h.TotalCompletions,
			&h.CreatedAt,
			&h.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		habits = append(habits, h)
	}

	r.logger.Debug("Listed habits",
		zap.String("user_id", userID),
		zap.Int("count", len(habits)),
	)
	return habits, nil
}

func (r *HabitRepository) ListAll(ctx context.Context) ([]model.Habit, error) {
	query := `
        SELECT ` + habitColumns + `
        FROM habits
        ORDER BY created_at DESC
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list all habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.Description,
			&h.Color,
			&h.Icon,
			&h.Frequency,
			&h.Streak,
			&h.TotalCompletions,
			&h.CreatedAt,
			&h.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		habits = append(habits, h)
	}

	return habits, nil
}

// Update rewrites the editable attributes of a habit.
func (r *HabitRepository) Update(ctx context.Context, h *model.Habit) error {
	query := `
        UPDATE habits
        SET title = $1, description = $2, color = $3, icon = $4, frequency = $5, updated_at = NOW()
        WHERE id = $6
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		h.Title,
		h.Description,
		h.Color,
		h.Icon,
		h.Frequency,
		h.ID,
	).Scan(&h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		r.logger.Error("Failed to update habit", zap.String("id", h.ID), zap.Error(err))
		return err
	}
	return nil
}

// UpdateStats is the single writer of the denormalized streak and
// total_completions columns.
func (r *HabitRepository) UpdateStats(ctx context.Context, id string, streak, totalCompletions int) error {
	query := `
        UPDATE habits
        SET streak = $1, total_completions = $2, updated_at = NOW()
        WHERE id = $3
    `
	tag, err := r.db.Exec(ctx, query, streak, totalCompletions, id)
	if err != nil {
		r.logger.Error("Failed to update habit stats", zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteWithCompletions removes a habit and its whole completion ledger in
// one transaction, so no partial deletion is ever observable.
func (r *HabitRepository) DeleteWithCompletions(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM habit_completions WHERE habit_id = $1`, id); err != nil {
		r.logger.Error("Failed to delete habit completions", zap.String("habit_id", id), zap.Error(err))
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete habit", zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete transaction: %w", err)
	}

	r.logger.Info("Habit deleted", zap.String("id", id))
	return nil
}
