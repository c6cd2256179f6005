package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"habit-service/internal/model"
	"habit-service/internal/service/auth"
	"habit-service/internal/service/habit"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by email
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]model.User)}
}

func (s *memUserStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.Email] = *u
	return nil
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()

	habits := habit.NewMemoryHabitStore()
	completions := habit.NewMemoryCompletionStore()
	habits.Completions = completions
	habitService := habit.NewService(habits, completions, nil, nil, logger)

	authService := auth.NewService(newMemUserStore(), testSecret)

	return NewRouter(
		NewAuthHandler(authService, logger),
		NewHabitHandler(habitService, logger),
		NewCompletionHandler(habitService, logger),
		NewGamificationHandler(habitService, logger),
		testSecret,
		nil,
	)
}

func doJSON(t *testing.T, r *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerAndLogin(t *testing.T, r *Router, email string) string {
	t.Helper()

	creds := map[string]string{"email": email, "password": "hunter22"}
	w := doJSON(t, r, http.MethodPost, "/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAPI_FullHabitLifecycle(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "alice@example.com")

	// create
	w := doJSON(t, r, http.MethodPost, "/habits", token, map[string]string{"title": "Run"})
	require.Equal(t, http.StatusCreated, w.Code)
	habitID, _ := decode(t, w)["id"].(string)
	require.NotEmpty(t, habitID)

	// mark today complete (empty body defaults to today)
	w = doJSON(t, r, http.MethodPost, "/habits/"+habitID+"/complete", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["total_completions"])
	assert.Equal(t, float64(1), body["streak"])

	// duplicate mark conflicts
	w = doJSON(t, r, http.MethodPost, "/habits/"+habitID+"/complete", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// rate over the default window
	w = doJSON(t, r, http.MethodGet, "/habits/"+habitID+"/rate?window=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decode(t, w)["rate"])

	// gamification reflects the single completion
	w = doJSON(t, r, http.MethodGet, "/gamification", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total_completions"])

	// unmark, then the day is free again
	w = doJSON(t, r, http.MethodDelete, "/habits/"+habitID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total_completions"])

	w = doJSON(t, r, http.MethodDelete, "/habits/"+habitID+"/complete", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// delete cascades
	w = doJSON(t, r, http.MethodDelete, "/habits/"+habitID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/habits/"+habitID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Validation(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "bob@example.com")

	w := doJSON(t, r, http.MethodPost, "/habits", token, map[string]string{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/habits", token, map[string]string{"title": "Read"})
	require.Equal(t, http.StatusCreated, w.Code)
	habitID, _ := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/habits/%s/complete", habitID), token, map[string]string{"date": "not-a-date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_AuthRequired(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/habits", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/habits", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_OwnershipIsolation(t *testing.T) {
	r := newTestRouter(t)
	alice := registerAndLogin(t, r, "alice@example.com")
	mallory := registerAndLogin(t, r, "mallory@example.com")

	w := doJSON(t, r, http.MethodPost, "/habits", alice, map[string]string{"title": "Journal"})
	require.Equal(t, http.StatusCreated, w.Code)
	habitID, _ := decode(t, w)["id"].(string)

	// another user's habit is indistinguishable from a missing one
	w = doJSON(t, r, http.MethodGet, "/habits/"+habitID, mallory, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/habits/"+habitID+"/complete", mallory, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/habits/"+habitID, mallory, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Health(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
