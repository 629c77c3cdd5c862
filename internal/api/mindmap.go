package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type MindmapService struct {
	db     *gorm.DB
	llm    ai.LLM
	params *ai.ParamSet
}

func NewMindmapService(db *gorm.DB, llm ai.LLM, params *ai.ParamSet) *MindmapService {
	return &MindmapService{db: db, llm: llm, params: params}
}

func (s *MindmapService) AddRoutes(r chi.Router) {
	r.Route("/mindmap", func(r chi.Router) {
		r.Post("/create", RestHandler(s.Create))
		r.Get("/stats", RestHandler(s.Stats))
	})
}

func (s *MindmapService) Create(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.MindmapCreateRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Topic) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Topic cannot be empty")
	}
	if len(req.Topic) > 500 {
		return nil, CodedErrorf(http.StatusBadRequest, "Topic too long. Maximum 500 characters allowed.")
	}
	if len(req.Subtopics) > 10 {
		return nil, CodedErrorf(http.StatusBadRequest, "Too many subtopics. Maximum 10 subtopics allowed.")
	}

	start := time.Now()
	ctx := r.Context()

	prompt, err := ai.MindmapPrompt(req.Topic, req.Subtopics)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to create mind map")
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("mindmap"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Mind map creation failed: %v", err)
	}

	mindmap, err := ai.DecodeJSON[api.MindmapCreateResponse](raw)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "invalid response from AI service")
	}
	if mindmap.Topic == "" {
		mindmap.Topic = req.Topic
	}
	mindmap.ProcessingTime = elapsedSeconds(start)

	subtopics := req.Subtopics
	if subtopics == nil {
		subtopics = []string{}
	}
	input := struct {
		Topic     string   `json:"topic"`
		Subtopics []string `json:"subtopics"`
	}{Topic: req.Topic, Subtopics: subtopics}

	output := struct {
		Topic         string `json:"topic"`
		BranchesCount int    `json:"branches_count"`
	}{Topic: mindmap.Topic, BranchesCount: len(mindmap.Branches)}

	if _, err := database.SaveHistoryItem(ctx, s.db, user.Id, database.FeatureMindmap, input, output, mindmap.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return mindmap, nil
}

func (s *MindmapService) Stats(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	items, err := userHistory(r.Context(), s.db, user.Id, database.FeatureMindmap)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to get statistics")
	}

	stats := api.MindmapStats{TotalMindmapsCreated: len(items)}

	totalTime := 0.0
	topics := make(map[string]struct{})
	for _, item := range items {
		totalTime += item.ProcessingTime
		stats.TotalBranches += branchCount(item)
		if topic := inputTopic(item); topic != "" {
			topics[topic] = struct{}{}
		}
	}
	stats.UniqueTopics = len(topics)

	if len(items) > 0 {
		stats.AverageBranchesPerMindmap = round1(float64(stats.TotalBranches) / float64(len(items)))
		stats.AverageProcessingTime = round2(totalTime / float64(len(items)))
		stats.LastCreated = formatTime(items[0].CreationTime)
	}

	return stats, nil
}

func branchCount(item database.HistoryItem) int {
	if len(item.OutputData) == 0 {
		return 0
	}
	var out struct {
		BranchesCount int `json:"branches_count"`
	}
	if err := json.Unmarshal(item.OutputData, &out); err != nil {
		return 0
	}
	return out.BranchesCount
}

func inputTopic(item database.HistoryItem) string {
	if len(item.InputData) == 0 {
		return ""
	}
	var in struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(item.InputData, &in); err != nil {
		return ""
	}
	return in.Topic
}
