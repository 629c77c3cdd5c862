package api_test

import (
	"encoding/json"
	"net/http"
	"strings"
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

func TestCreateMindmap(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	llm := &fakeLLM{response: `{
		"topic": "The Water Cycle",
		"branches": [
			{"name": "Evaporation", "subtopics": [{"name": "Heat", "details": ["Sunlight warms oceans"]}]},
			{"name": "Condensation", "subtopics": [{"name": "Clouds", "details": ["Vapour cools into droplets"]}]}
		]
	}`}
	service := backend.NewMindmapService(db, llm, loadParams(t))
	router := authedRouter(user, service.AddRoutes)

	rec := postJSON(t, router, "/mindmap/create", api.MindmapCreateRequest{Topic: "Water cycle", Subtopics: []string{"rain"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	mindmap := decode[api.MindmapCreateResponse](t, rec)
	assert.Equal(t, "The Water Cycle", mindmap.Topic)
	require.Len(t, mindmap.Branches, 2)
	assert.Equal(t, "Evaporation", mindmap.Branches[0].Name)

	var item database.HistoryItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, database.FeatureMindmap, item.FeatureType)

	// Only the branch count is stored, not the structure.
	var output struct {
		Topic         string `json:"topic"`
		BranchesCount int    `json:"branches_count"`
	}
	require.NoError(t, json.Unmarshal(item.OutputData, &output))
	assert.Equal(t, "The Water Cycle", output.Topic)
	assert.Equal(t, 2, output.BranchesCount)
}

func TestCreateMindmapBackfillsTopic(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	llm := &fakeLLM{response: `{"branches":[{"name":"One","subtopics":[]}]}`}
	router := authedRouter(user, backend.NewMindmapService(db, llm, loadParams(t)).AddRoutes)

	rec := postJSON(t, router, "/mindmap/create", api.MindmapCreateRequest{Topic: "Volcanoes"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	mindmap := decode[api.MindmapCreateResponse](t, rec)
	assert.Equal(t, "Volcanoes", mindmap.Topic)
}

func TestCreateMindmapValidation(t *testing.T) {
	user := testUser()
	db := createDB(t, &user)

	router := authedRouter(user, backend.NewMindmapService(db, &fakeLLM{}, loadParams(t)).AddRoutes)

	manySubtopics := make([]string, 11)
	for i := range manySubtopics {
		manySubtopics[i] = "a"
	}

	tests := []struct {
		name    string
		payload api.MindmapCreateRequest
		message string
	}{
		{"empty topic", api.MindmapCreateRequest{Topic: "  "}, "Topic cannot be empty"},
		{"topic too long", api.MindmapCreateRequest{Topic: strings.Repeat("x", 501)}, "Topic too long"},
		{"too many subtopics", api.MindmapCreateRequest{Topic: "ok", Subtopics: manySubtopics}, "Too many subtopics"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/mindmap/create", tc.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestMindmapStats(t *testing.T) {
	user := testUser()
	now := time.Now().UTC()

	db := createDB(t, &user,
		&database.HistoryItem{
			Id: uuid.New(), UserId: user.Id, FeatureType: database.FeatureMindmap,
			InputData:      datatypes.JSON(`{"topic":"Rome","subtopics":[]}`),
			OutputData:     datatypes.JSON(`{"topic":"Rome","branches_count":4}`),
			ProcessingTime: 2.0, Status: database.ItemCompleted, CreationTime: now,
		},
		&database.HistoryItem{
			Id: uuid.New(), UserId: user.Id, FeatureType: database.FeatureMindmap,
			InputData:      datatypes.JSON(`{"topic":"Rome","subtopics":["senate"]}`),
			OutputData:     datatypes.JSON(`{"topic":"Rome","branches_count":6}`),
			ProcessingTime: 4.0, Status: database.ItemCompleted, CreationTime: now.Add(-time.Hour),
		},
	)

	router := authedRouter(user, backend.NewMindmapService(db, &fakeLLM{}, loadParams(t)).AddRoutes)

	var stats api.MindmapStats
	rec := getJSON(t, router, "/mindmap/stats", &stats)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 2, stats.TotalMindmapsCreated)
	assert.Equal(t, 10, stats.TotalBranches)
	assert.Equal(t, 5.0, stats.AverageBranchesPerMindmap)
	assert.Equal(t, 1, stats.UniqueTopics, "same topic twice counts once")
	assert.Equal(t, 3.0, stats.AverageProcessingTime)
	require.NotNil(t, stats.LastCreated)
}
