package habit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"habit-service/internal/model"
)

type capturedEvent struct {
	routingKey string
	payload    any
}

type memPublisher struct {
	events []capturedEvent
}

func (p *memPublisher) Publish(routingKey string, payload any) error {
	p.events = append(p.events, capturedEvent{routingKey, payload})
	return nil
}

func newTestService(t *testing.T, today string) (*Service, *MemoryHabitStore, *MemoryCompletionStore, *memPublisher) {
	t.Helper()

	habits := NewMemoryHabitStore()
	completions := NewMemoryCompletionStore()
	habits.Completions = completions
	producer := &memPublisher{}

	svc := NewService(habits, completions, producer, nil, zap.NewNop())

	now, err := time.Parse(time.RFC3339, today+"T15:04:05Z")
	require.NoError(t, err)
	svc.WithClock(func() time.Time { return now })

	return svc, habits, completions, producer
}

func createHabit(t *testing.T, svc *Service, userID string) *model.Habit {
	t.Helper()
	h, err := svc.CreateHabit(context.Background(), userID, CreateHabitInput{Title: "Read"})
	require.NoError(t, err)
	return h
}

func TestCreateHabit(t *testing.T) {
	ctx := context.Background()
	svc, _, _, producer := newTestService(t, "2024-01-12")

	h, err := svc.CreateHabit(ctx, "u1", CreateHabitInput{Title: "  Meditate  "})
	require.NoError(t, err)

	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "Meditate", h.Title)
	assert.Equal(t, model.DefaultColor, h.Color)
	assert.Equal(t, model.DefaultFrequency, h.Frequency)
	assert.Zero(t, h.Streak)
	assert.Zero(t, h.TotalCompletions)

	require.Len(t, producer.events, 1)
	assert.Equal(t, "habit.created", producer.events[0].routingKey)
}

func TestCreateHabit_EmptyTitle(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-01-12")

	_, err := svc.CreateHabit(ctx, "u1", CreateHabitInput{Title: "   "})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestMarkComplete_RecomputesStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _, producer := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	for _, date := range []string{"2024-01-10", "2024-01-11", "2024-01-12"} {
		updated, err := svc.MarkComplete(ctx, "u1", h.ID, date)
		require.NoError(t, err)
		h = updated
	}

	assert.Equal(t, 3, h.Streak)
	assert.Equal(t, 3, h.TotalCompletions)

	// created + three completed events
	require.Len(t, producer.events, 4)
	assert.Equal(t, "habit.completed", producer.events[3].routingKey)
}

func TestMarkComplete_DuplicateDate(t *testing.T) {
	ctx := context.Background()
	svc, _, completions, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	_, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)

	_, err = svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	assert.ErrorIs(t, err, model.ErrDuplicateCompletion)

	// the ledger still holds exactly one event for that day
	events, err := completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMarkComplete_NormalizesTimestampInput(t *testing.T) {
	ctx := context.Background()
	svc, _, completions, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	_, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12T23:45:00Z")
	require.NoError(t, err)

	events, err := completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2024-01-12", events[0].Date)

	// the normalized day collides with a plain-day mark
	_, err = svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	assert.ErrorIs(t, err, model.ErrDuplicateCompletion)
}

func TestMarkComplete_InvalidDate(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	_, err := svc.MarkComplete(ctx, "u1", h.ID, "12/01/2024")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestMarkComplete_FutureDateAllowed(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	updated, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalCompletions)
	assert.Equal(t, 0, updated.Streak)
}

func TestMarkComplete_ForeignHabit(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	_, err := svc.MarkComplete(ctx, "u2", h.ID, "2024-01-12")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUnmarkComplete(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	_, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)

	updated, err := svc.UnmarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)
	assert.Zero(t, updated.Streak)
	assert.Zero(t, updated.TotalCompletions)
}

func TestUnmarkComplete_MissingDate(t *testing.T) {
	ctx := context.Background()
	svc, _, completions, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	_, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-11")
	require.NoError(t, err)

	_, err = svc.UnmarkComplete(ctx, "u1", h.ID, "2024-01-12")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// repeated unmark keeps failing, it does not silently succeed
	_, err = svc.UnmarkComplete(ctx, "u1", h.ID, "2024-01-12")
	assert.ErrorIs(t, err, model.ErrNotFound)

	events, err := completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMarkUnmarkMark_FreshTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, _, completions, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	base := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	now := base
	svc.WithClock(func() time.Time { return now })

	_, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)

	events, err := completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)
	firstID, firstTS := events[0].ID, events[0].Timestamp

	_, err = svc.UnmarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)

	now = base.Add(5 * time.Minute)
	_, err = svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)

	events, err = completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEqual(t, firstID, events[0].ID)
	assert.Greater(t, events[0].Timestamp, firstTS)
}

func TestTotalNeverDriftsFromLedger(t *testing.T) {
	ctx := context.Background()
	svc, habits, completions, _ := newTestService(t, "2024-01-20")
	h := createHabit(t, svc, "u1")

	marks := []string{"2024-01-03", "2024-01-07", "2024-01-15", "2024-01-19", "2024-01-20"}
	for _, d := range marks {
		_, err := svc.MarkComplete(ctx, "u1", h.ID, d)
		require.NoError(t, err)
	}
	_, err := svc.UnmarkComplete(ctx, "u1", h.ID, "2024-01-07")
	require.NoError(t, err)

	stored, err := habits.FindByID(ctx, h.ID)
	require.NoError(t, err)
	events, err := completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)

	assert.Equal(t, len(events), stored.TotalCompletions)
}

func TestDeleteHabit_CascadesLedger(t *testing.T) {
	ctx := context.Background()
	svc, _, completions, producer := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	_, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteHabit(ctx, "u1", h.ID))

	_, err = svc.GetHabit(ctx, "u1", h.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	events, err := completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	last := producer.events[len(producer.events)-1]
	assert.Equal(t, "habit.deleted", last.routingKey)
}

func TestCompletionRate(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-03-30")
	h := createHabit(t, svc, "u1")

	marks := []string{
		"2024-03-01", "2024-03-04", "2024-03-08", "2024-03-11",
		"2024-03-15", "2024-03-19", "2024-03-22", "2024-03-26", "2024-03-30",
	}
	for _, d := range marks {
		_, err := svc.MarkComplete(ctx, "u1", h.ID, d)
		require.NoError(t, err)
	}

	rate, err := svc.CompletionRate(ctx, "u1", h.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, rate)

	// guard, not an error
	rate, err = svc.CompletionRate(ctx, "u1", h.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, rate)
}

func TestUpdateHabit(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	title := "Read more"
	color := "#EF4444"
	updated, err := svc.UpdateHabit(ctx, "u1", h.ID, UpdateHabitInput{Title: &title, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Read more", updated.Title)
	assert.Equal(t, "#EF4444", updated.Color)

	empty := " "
	_, err = svc.UpdateHabit(ctx, "u1", h.ID, UpdateHabitInput{Title: &empty})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRecomputeFailureKeepsLedgerMutation(t *testing.T) {
	ctx := context.Background()
	svc, habits, completions, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	habits.FailUpdateStats = true

	// the ledger write sticks even though the stats write fails
	_, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-12")
	require.NoError(t, err)

	events, err := completions.ListByHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	stale, err := habits.FindByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Zero(t, stale.TotalCompletions)

	// next successful recompute repairs the stats
	habits.FailUpdateStats = false
	updated, err := svc.MarkComplete(ctx, "u1", h.ID, "2024-01-11")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalCompletions)
	assert.Equal(t, 2, updated.Streak)
}

func TestGamification(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t, "2024-01-12")

	a := createHabit(t, svc, "u1")
	b := createHabit(t, svc, "u1")

	for _, d := range []string{"2024-01-10", "2024-01-11", "2024-01-12"} {
		_, err := svc.MarkComplete(ctx, "u1", a.ID, d)
		require.NoError(t, err)
	}
	_, err := svc.MarkComplete(ctx, "u1", b.ID, "2024-01-12")
	require.NoError(t, err)

	summary, err := svc.Gamification(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalCompletions)
	assert.Equal(t, 3, summary.BestStreak)
	assert.Equal(t, 40, summary.Progress.Experience)
	assert.Equal(t, 1, summary.Progress.Level)

	unlocked := map[string]bool{}
	for _, ach := range summary.Achievements {
		unlocked[ach.ID] = ach.Unlocked
	}
	assert.True(t, unlocked["first-steps"])
	assert.False(t, unlocked["streak-master"])
}

func TestRefreshAllStats(t *testing.T) {
	ctx := context.Background()
	svc, habits, _, _ := newTestService(t, "2024-01-12")
	h := createHabit(t, svc, "u1")

	for _, d := range []string{"2024-01-11", "2024-01-12"} {
		_, err := svc.MarkComplete(ctx, "u1", h.ID, d)
		require.NoError(t, err)
	}
	stored, err := habits.FindByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Streak)

	// two days later the chain is broken; a refresh must notice even
	// though nobody touched the ledger
	later, err := time.Parse(time.RFC3339, "2024-01-14T08:00:00Z")
	require.NoError(t, err)
	svc.WithClock(func() time.Time { return later })

	require.NoError(t, svc.RefreshAllStats(ctx))

	stored, err = habits.FindByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Streak)
	assert.Equal(t, 2, stored.TotalCompletions)
}
