package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"habit-service/internal/model"
	"habit-service/internal/mq"
	"habit-service/internal/stats"
	"habit-service/pkg/metrics"
	"habit-service/pkg/util"
)

const rateCacheTTL = time.Hour

// Service is the habit engine: it owns the completion ledger invariants and
// is the only writer of the denormalized streak / total_completions stats.
// All mutations on one habit are serialized through a per-habit lock so the
// stats are never computed against a half-mutated ledger.
type Service struct {
	habits      HabitStore
	completions CompletionStore
	producer    EventPublisher
	cache       *redis.Client
	locks       *util.KeyMutex
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(habits HabitStore, completions CompletionStore, producer EventPublisher, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		habits:      habits,
		completions: completions,
		producer:    producer,
		cache:       cache,
		locks:       util.NewKeyMutex(),
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the reference clock. Tests use it to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateHabitInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Frequency   string `json:"frequency"`
}

type UpdateHabitInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	Frequency   *string `json:"frequency"`
}

// CreateHabit creates a habit with zeroed statistics.
func (s *Service) CreateHabit(ctx context.Context, userID string, in CreateHabitInput) (*model.Habit, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}

	h := &model.Habit{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		Frequency:   in.Frequency,
	}
	if h.Color == "" {
		h.Color = model.DefaultColor
	}
	if h.Frequency == "" {
		h.Frequency = model.DefaultFrequency
	}

	if err := s.habits.Insert(ctx, h); err != nil {
		return nil, err
	}

	s.publish("habit.created", mq.HabitCreatedPayload{
		HabitID: h.ID,
		UserID:  h.UserID,
		Title:   h.Title,
	})
	return h, nil
}

func (s *Service) GetHabit(ctx context.Context, userID, habitID string) (*model.Habit, error) {
	return s.ownedHabit(ctx, userID, habitID)
}

func (s *Service) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	return s.habits.ListByUser(ctx, userID)
}

// UpdateHabit edits title/description/color/icon/frequency. Statistics are
// untouched: they belong to the recompute path alone.
func (s *Service) UpdateHabit(ctx context.Context, userID, habitID string, in UpdateHabitInput) (*model.Habit, error) {
	h, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
		}
		h.Title = title
	}
	if in.Description != nil {
		h.Description = *in.Description
	}
	if in.Color != nil {
		h.Color = *in.Color
	}
	if in.Icon != nil {
		h.Icon = *in.Icon
	}
	if in.Frequency != nil {
		h.Frequency = *in.Frequency
	}

	if err := s.habits.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// DeleteHabit removes the habit and cascades its whole completion ledger.
func (s *Service) DeleteHabit(ctx context.Context, userID, habitID string) error {
	unlock := s.locks.Lock(habitID)
	defer unlock()

	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return err
	}

	if err := s.habits.DeleteWithCompletions(ctx, habitID); err != nil {
		return err
	}

	s.invalidateRates(ctx, habitID)
	s.publish("habit.deleted", mq.HabitDeletedPayload{
		HabitID: habitID,
		UserID:  userID,
	})
	return nil
}

// MarkComplete appends a completion event for (habit, date) and recomputes
// the habit's statistics. The caller-supplied date is collapsed to its UTC
// calendar day; a second mark on the same day fails with
// model.ErrDuplicateCompletion. Future dates are accepted here; rejecting
// them is a caller policy, not a ledger rule.
func (s *Service) MarkComplete(ctx context.Context, userID, habitID, date string) (*model.Habit, error) {
	day, err := stats.NormalizeDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", model.ErrValidation, date)
	}

	unlock := s.locks.Lock(habitID)
	defer unlock()

	h, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	event := &model.CompletionEvent{
		HabitID:   habitID,
		UserID:    userID,
		Date:      day,
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.completions.Insert(ctx, event); err != nil {
		if errors.Is(err, model.ErrDuplicateCompletion) {
			metrics.IncrementCompletionMarked("conflict")
		} else {
			metrics.IncrementCompletionMarked("error")
		}
		return nil, err
	}
	metrics.IncrementCompletionMarked("success")

	s.invalidateRates(ctx, habitID)
	s.recompute(ctx, h)

	s.publish("habit.completed", mq.HabitCompletedPayload{
		HabitID:          h.ID,
		UserID:           h.UserID,
		Date:             day,
		Streak:           h.Streak,
		TotalCompletions: h.TotalCompletions,
	})
	return h, nil
}

// UnmarkComplete removes the completion event for (habit, date) and
// recomputes statistics. Unmarking an absent date fails with
// model.ErrNotFound and changes nothing.
func (s *Service) UnmarkComplete(ctx context.Context, userID, habitID, date string) (*model.Habit, error) {
	day, err := stats.NormalizeDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", model.ErrValidation, date)
	}

	unlock := s.locks.Lock(habitID)
	defer unlock()

	h, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if err := s.completions.DeleteByHabitDate(ctx, habitID, day); err != nil {
		return nil, err
	}

	s.invalidateRates(ctx, habitID)
	s.recompute(ctx, h)

	s.publish("habit.uncompleted", mq.HabitUncompletedPayload{
		HabitID:          h.ID,
		UserID:           h.UserID,
		Date:             day,
		Streak:           h.Streak,
		TotalCompletions: h.TotalCompletions,
	})
	return h, nil
}

// ListCompletions returns the habit's ledger, newest day first.
func (s *Service) ListCompletions(ctx context.Context, userID, habitID string) ([]model.CompletionEvent, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	return s.completions.ListByHabit(ctx, habitID)
}

// CompletionRate returns the integer completion percentage for the trailing
// window ending today. Lookups are cached per (habit, window, day); a cache
// outage silently degrades to recomputing from the ledger.
func (s *Service) CompletionRate(ctx context.Context, userID, habitID string, windowDays int) (int, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return 0, err
	}
	if windowDays <= 0 {
		return 0, nil
	}

	today := s.now()
	key := rateCacheKey(habitID, windowDays, stats.FormatDay(today))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Int(); err == nil {
			return cached, nil
		}
	}

	dates, err := s.completions.DatesByHabit(ctx, habitID)
	if err != nil {
		return 0, err
	}
	rate := stats.CompletionRate(dates, today, windowDays)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rate, rateCacheTTL).Err(); err != nil {
			s.logger.Warn("Failed to cache completion rate", zap.String("habit_id", habitID), zap.Error(err))
		}
	}
	return rate, nil
}

// GamificationSummary is the level / achievement projection over all of a
// user's habits.
type GamificationSummary struct {
	TotalCompletions int                 `json:"total_completions"`
	BestStreak       int                 `json:"best_streak"`
	Progress         stats.LevelProgress `json:"progress"`
	Achievements     []stats.Achievement `json:"achievements"`
}

func (s *Service) Gamification(ctx context.Context, userID string) (*GamificationSummary, error) {
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := 0
	best := 0
	for _, h := range habits {
		total += h.TotalCompletions
		if h.Streak > best {
			best = h.Streak
		}
	}

	return &GamificationSummary{
		TotalCompletions: total,
		BestStreak:       best,
		Progress:         stats.Progress(total),
		Achievements:     stats.Achievements(best, total),
	}, nil
}

// RefreshAllStats recomputes statistics for every habit. The streak depends
// on "today", so the daily worker calls this to repair habits nobody
// touched since yesterday.
func (s *Service) RefreshAllStats(ctx context.Context) error {
	habits, err := s.habits.ListAll(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for i := range habits {
		h := habits[i]
		unlock := s.locks.Lock(h.ID)
		if err := s.recomputeStrict(ctx, &h); err != nil {
			failed++
		}
		unlock()
	}

	s.logger.Info("Refreshed habit statistics",
		zap.Int("habits", len(habits)),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return fmt.Errorf("failed to refresh stats for %d of %d habits", failed, len(habits))
	}
	return nil
}

// recompute rebuilds the denormalized stats from the ledger. The ledger
// mutation has already committed, so a failure here must not undo it: the
// stats stay stale until the next successful recompute, and the habit
// returned to the caller keeps its previous values.
func (s *Service) recompute(ctx context.Context, h *model.Habit) {
	if err := s.recomputeStrict(ctx, h); err != nil {
		metrics.IncrementStatsRecomputeFailure()
		s.logger.Error("Stats recompute failed, denormalized stats are stale",
			zap.String("habit_id", h.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) recomputeStrict(ctx context.Context, h *model.Habit) error {
	dates, err := s.completions.DatesByHabit(ctx, h.ID)
	if err != nil {
		return err
	}

	streak := stats.Streak(dates, s.now())
	total := stats.TotalCompletions(dates)

	if err := s.habits.UpdateStats(ctx, h.ID, streak, total); err != nil {
		return err
	}

	h.Streak = streak
	h.TotalCompletions = total
	return nil
}

func (s *Service) ownedHabit(ctx context.Context, userID, habitID string) (*model.Habit, error) {
	h, err := s.habits.FindByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	// A foreign habit is indistinguishable from a missing one.
	if h.UserID != userID {
		return nil, model.ErrNotFound
	}
	return h, nil
}

func (s *Service) publish(routingKey string, payload any) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func (s *Service) invalidateRates(ctx context.Context, habitID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("rate:%s:*", habitID)
	keys, err := s.cache.Keys(ctx, pattern).Result()
	if err != nil {
		s.logger.Warn("Failed to scan rate cache keys", zap.String("habit_id", habitID), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("Failed to invalidate rate cache", zap.String("habit_id", habitID), zap.Error(err))
	}
}

func rateCacheKey(habitID string, windowDays int, day string) string {
	return fmt.Sprintf("rate:%s:%d:%s", habitID, windowDays, day)
}
