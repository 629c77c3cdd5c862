package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	backend "thinkink-backend/internal/api"
	"thinkink-backend/internal/database"
	"thinkink-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func historyItem(userId uuid.UUID, feature, status string, age time.Duration) *database.HistoryItem {
	return &database.HistoryItem{
		Id:             uuid.New(),
		UserId:         userId,
		FeatureType:    feature,
		InputData:      datatypes.JSON(`{"text":"in"}`),
		OutputData:     datatypes.JSON(`{"summary":"out","word_count":10}`),
		ProcessingTime: 1.5,
		Status:         status,
		CreationTime:   time.Now().UTC().Add(-age),
	}
}

func TestGetHistory(t *testing.T) {
	user, other := testUser(), testUser()

	newest := historyItem(user.Id, database.FeatureNotes, database.ItemCompleted, time.Minute)
	middle := historyItem(user.Id, database.FeatureQuiz, database.ItemCompleted, time.Hour)
	oldest := historyItem(user.Id, database.FeatureNotes, database.ItemFailed, 24*time.Hour)

	db := createDB(t, &user, &other,
		newest, middle, oldest,
		historyItem(other.Id, database.FeatureNotes, database.ItemCompleted, time.Minute),
	)

	router := authedRouter(user, backend.NewHistoryService(db).AddRoutes)

	t.Run("all items newest first", func(t *testing.T) {
		var items []api.HistoryItem
		rec := getJSON(t, router, "/history/", &items)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		require.Len(t, items, 3)
		assert.Equal(t, newest.Id, items[0].Id)
		assert.Equal(t, middle.Id, items[1].Id)
		assert.Equal(t, oldest.Id, items[2].Id)
	})

	t.Run("feature filter", func(t *testing.T) {
		var items []api.HistoryItem
		rec := getJSON(t, router, "/history/?feature_type=quiz", &items)
		require.Equal(t, http.StatusOK, rec.Code)

		require.Len(t, items, 1)
		assert.Equal(t, middle.Id, items[0].Id)
	})

	t.Run("limit and offset", func(t *testing.T) {
		var items []api.HistoryItem
		rec := getJSON(t, router, "/history/?limit=1&offset=1", &items)
		require.Equal(t, http.StatusOK, rec.Code)

		require.Len(t, items, 1)
		assert.Equal(t, middle.Id, items[0].Id)
	})
}

func TestGetHistorySummary(t *testing.T) {
	user := testUser()

	db := createDB(t, &user,
		historyItem(user.Id, database.FeatureNotes, database.ItemCompleted, time.Minute),
		historyItem(user.Id, database.FeatureNotes, database.ItemCompleted, time.Hour),
		historyItem(user.Id, database.FeatureQuiz, database.ItemFailed, 2*time.Hour),
		// Outside the default 30 day window.
		historyItem(user.Id, database.FeatureEli5, database.ItemCompleted, 31*24*time.Hour),
	)

	router := authedRouter(user, backend.NewHistoryService(db).AddRoutes)

	var summary api.HistorySummary
	rec := getJSON(t, router, "/history/summary", &summary)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, map[string]int{"notes": 2, "quiz": 1}, summary.FeatureBreakdown)
	assert.Len(t, summary.RecentActivity, 3)
	assert.Equal(t, 4.5, summary.ProcessingStats.TotalProcessingTime)
	assert.Equal(t, 1.5, summary.ProcessingStats.AverageProcessingTime)
	assert.Equal(t, 66.7, summary.ProcessingStats.SuccessRate)
}

func TestGetFeatureHistory(t *testing.T) {
	user := testUser()

	quiz := historyItem(user.Id, database.FeatureQuiz, database.ItemCompleted, time.Minute)
	db := createDB(t, &user, quiz,
		historyItem(user.Id, database.FeatureNotes, database.ItemCompleted, time.Minute),
	)

	router := authedRouter(user, backend.NewHistoryService(db).AddRoutes)

	var response api.FeatureHistoryResponse
	rec := getJSON(t, router, "/history/feature/quiz", &response)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "quiz", response.FeatureType)
	assert.Equal(t, 1, response.TotalItems)
	require.Len(t, response.Items, 1)
	assert.Equal(t, quiz.Id, response.Items[0].Id)
}

func TestDeleteHistoryItem(t *testing.T) {
	user, other := testUser(), testUser()

	mine := historyItem(user.Id, database.FeatureNotes, database.ItemCompleted, time.Minute)
	theirs := historyItem(other.Id, database.FeatureNotes, database.ItemCompleted, time.Minute)
	db := createDB(t, &user, &other, mine, theirs)

	router := authedRouter(user, backend.NewHistoryService(db).AddRoutes)

	t.Run("deletes own item", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/history/"+mine.Id.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "History item deleted successfully")

		var count int64
		require.NoError(t, db.Model(&database.HistoryItem{}).Where("id = ?", mine.Id).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("cannot delete another user's item", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/history/"+theirs.Id.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "history item not found")
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/history/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestClearHistory(t *testing.T) {
	user := testUser()

	db := createDB(t, &user,
		historyItem(user.Id, database.FeatureNotes, database.ItemCompleted, time.Minute),
		historyItem(user.Id, database.FeatureNotes, database.ItemCompleted, time.Hour),
		historyItem(user.Id, database.FeatureQuiz, database.ItemCompleted, time.Minute),
	)

	router := authedRouter(user, backend.NewHistoryService(db).AddRoutes)

	t.Run("clear one feature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/history/?feature_type=notes", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		response := decode[api.DeletedResponse](t, rec)
		assert.Equal(t, int64(2), response.DeletedCount)
		assert.Equal(t, "Cleared 2 history items", response.Message)
	})

	t.Run("clear the rest", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/history/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[api.DeletedResponse](t, rec)
		assert.Equal(t, int64(1), response.DeletedCount)

		var count int64
		require.NoError(t, db.Model(&database.HistoryItem{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}
