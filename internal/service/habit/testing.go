package habit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"habit-service/internal/model"
)

// MemoryHabitStore is an in-memory HabitStore for tests.
type MemoryHabitStore struct {
	mu     sync.RWMutex
	habits map[string]model.Habit

	// FailUpdateStats makes UpdateStats fail, to exercise the
	// stale-stats-after-committed-mutation path.
	FailUpdateStats bool

	// Completions, when set, receives the cascade from
	// DeleteWithCompletions the way the transactional repository does.
	Completions *MemoryCompletionStore
}

func NewMemoryHabitStore() *MemoryHabitStore {
	return &MemoryHabitStore{habits: make(map[string]model.Habit)}
}

func (s *MemoryHabitStore) Insert(ctx context.Context, h *model.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	s.habits[h.ID] = *h
	return nil
}

func (s *MemoryHabitStore) FindByID(ctx context.Context, id string) (*model.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &h, nil
}

func (s *MemoryHabitStore) ListByUser(ctx context.Context, userID string) ([]model.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Habit{}
	for _, h := range s.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryHabitStore) ListAll(ctx context.Context) ([]model.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Habit{}
	for _, h := range s.habits {
		out = append(out, h)
	}
	return out, nil
}

func (s *MemoryHabitStore) Update(ctx context.Context, h *model.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.habits[h.ID]; !ok {
		return model.ErrNotFound
	}
	h.UpdatedAt = time.Now().UTC()
	s.habits[h.ID] = *h
	return nil
}

func (s *MemoryHabitStore) UpdateStats(ctx context.Context, id string, streak, totalCompletions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpdateStats {
		return context.DeadlineExceeded
	}
	h, ok := s.habits[id]
	if !ok {
		return model.ErrNotFound
	}
	h.Streak = streak
	h.TotalCompletions = totalCompletions
	h.UpdatedAt = time.Now().UTC()
	s.habits[id] = h
	return nil
}

func (s *MemoryHabitStore) DeleteWithCompletions(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.habits[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.habits, id)

	if s.Completions != nil {
		s.Completions.deleteAllForHabit(id)
	}
	return nil
}

// MemoryCompletionStore is an in-memory CompletionStore for tests. It
// enforces the same (habit, date) uniqueness as the Postgres index.
type MemoryCompletionStore struct {
	mu     sync.RWMutex
	events map[string]model.CompletionEvent // keyed habitID+"|"+date
}

func NewMemoryCompletionStore() *MemoryCompletionStore {
	return &MemoryCompletionStore{events: make(map[string]model.CompletionEvent)}
}

func completionKey(habitID, date string) string {
	return habitID + "|" + date
}

func (s *MemoryCompletionStore) Insert(ctx context.Context, e *model.CompletionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := completionKey(e.HabitID, e.Date)
	if _, ok := s.events[key]; ok {
		return model.ErrDuplicateCompletion
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.events[key] = *e
	return nil
}

func (s *MemoryCompletionStore) DeleteByHabitDate(ctx context.Context, habitID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := completionKey(habitID, date)
	if _, ok := s.events[key]; !ok {
		return model.ErrNotFound
	}
	delete(s.events, key)
	return nil
}

func (s *MemoryCompletionStore) ListByHabit(ctx context.Context, habitID string) ([]model.CompletionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.CompletionEvent{}
	for _, e := range s.events {
		if e.HabitID == habitID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *MemoryCompletionStore) deleteAllForHabit(habitID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.events {
		if e.HabitID == habitID {
			delete(s.events, key)
		}
	}
}

func (s *MemoryCompletionStore) DatesByHabit(ctx context.Context, habitID string) ([]string, error) {
	events, err := s.ListByHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	dates := make([]string, len(events))
	for i, e := range events {
		dates[i] = e.Date
	}
	return dates, nil
}
