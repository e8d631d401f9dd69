package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"example.com/dutyroster/internal/storage/memory"
	"example.com/dutyroster/internal/usecase"
)

func newTestHandler() http.Handler {
	store := memory.New()
	return New(Services{
		Assignments: usecase.NewAssignmentService(store, store),
		Schedules:   usecase.NewScheduleService(store, store),
		Resolver:    usecase.NewResolverService(store, store),
		Completions: usecase.NewCompletionService(store),
		Locations:   store,
		Users:       store,
	}, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestDueListFlow(t *testing.T) {
	h := newTestHandler()

	rec, loc := doJSON(t, h, http.MethodPost, "/locations", map[string]any{"name": "north branch"})
	require.Equal(t, http.StatusCreated, rec.Code)
	locationID := int64(loc["id"].(float64))

	rec, task := doJSON(t, h, http.MethodPost, "/tasks", map[string]any{
		"title":       "check fridge temperature",
		"answer_kind": "number",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	taskID := int64(task["id"].(float64))

	rec, asg := doJSON(t, h, http.MethodPost, "/assignments", map[string]any{
		"task_id":     taskID,
		"type":        "global",
		"location_id": locationID,
		"schedule": map[string]any{
			"kind":         "every_n_days",
			"start_date":   "2024-01-01",
			"every_n_days": 3,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assignmentID := int64(asg["id"].(float64))

	// due on a matching day, pending
	rec, due := doJSON(t, h, http.MethodGet, fmt.Sprintf("/locations/%d/due?date=2024-01-04", locationID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := due["items"].([]any)
	require.Len(t, items, 1)
	require.False(t, items[0].(map[string]any)["done"].(bool))

	// not due off-cycle
	rec, due = doJSON(t, h, http.MethodGet, fmt.Sprintf("/locations/%d/due?date=2024-01-05", locationID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, due["items"], 0)

	// complete it, then it reads done
	rec, _ = doJSON(t, h, http.MethodPost, fmt.Sprintf("/assignments/%d/complete", assignmentID), map[string]any{
		"location_id": locationID,
		"date":        "2024-01-04",
		"user_id":     7,
		"answer":      "4.5",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, due = doJSON(t, h, http.MethodGet, fmt.Sprintf("/locations/%d/due?date=2024-01-04", locationID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items = due["items"].([]any)
	require.Len(t, items, 1)
	require.True(t, items[0].(map[string]any)["done"].(bool))

	// next occurrence from the completed day
	rec, next := doJSON(t, h, http.MethodGet, fmt.Sprintf("/assignments/%d/next?after=2024-01-04", assignmentID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2024-01-07", next["next"])
}

func TestMoveEndpointCreatesOverride(t *testing.T) {
	h := newTestHandler()

	_, loc := doJSON(t, h, http.MethodPost, "/locations", map[string]any{"name": "south branch"})
	locationID := int64(loc["id"].(float64))
	_, task := doJSON(t, h, http.MethodPost, "/tasks", map[string]any{"title": "mop floor", "answer_kind": "photo"})
	_, asg := doJSON(t, h, http.MethodPost, "/assignments", map[string]any{
		"task_id":     int64(task["id"].(float64)),
		"type":        "global",
		"location_id": locationID,
		"schedule":    map[string]any{"kind": "weekly", "weekday_mask": 1}, // Mondays
	})
	assignmentID := int64(asg["id"].(float64))

	rec, _ := doJSON(t, h, http.MethodPost, fmt.Sprintf("/assignments/%d/move", assignmentID), map[string]any{
		"location_id": locationID,
		"from_date":   "2024-03-04",
		"to_date":     "2024-03-06",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	_, due := doJSON(t, h, http.MethodGet, fmt.Sprintf("/locations/%d/due?date=2024-03-04", locationID), nil)
	require.Len(t, due["items"], 0)
	_, due = doJSON(t, h, http.MethodGet, fmt.Sprintf("/locations/%d/due?date=2024-03-06", locationID), nil)
	require.Len(t, due["items"], 1)
}

func TestValidationErrors(t *testing.T) {
	h := newTestHandler()

	rec, _ := doJSON(t, h, http.MethodPost, "/tasks", map[string]any{"title": "x", "answer_kind": "voice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/locations/1/due?date=not-a-date", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/assignments/1/schedule/interval", map[string]any{
		"every_n_days": -1,
		"start_date":   "2024-01-01",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown assignment surfaces as 404, not 500
	rec, _ = doJSON(t, h, http.MethodPost, "/assignments/42/schedule/single", map[string]any{"date": "2024-01-01"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}
