package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	backend "thinkink-backend/internal/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	router := chi.NewRouter()
	backend.NewStatusService(createDB(t)).AddRoutes(router)

	var banner map[string]string
	rec := getJSON(t, router, "/", &banner)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "ThinkInk AI API", banner["message"])
	assert.Equal(t, "1.0.0", banner["version"])
	assert.Equal(t, "running", banner["status"])
}

func TestHealth(t *testing.T) {
	db := createDB(t)
	router := chi.NewRouter()
	backend.NewStatusService(db).AddRoutes(router)

	var health map[string]string
	rec := getJSON(t, router, "/health", &health)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", health["status"])

	t.Run("database down", func(t *testing.T) {
		sqlDb, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDb.Close())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "database unavailable")
	})
}
