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

var complexityLevels = []api.ComplexityLevel{
	{Value: "basic", Description: "Simple explanations suitable for beginners or young learners"},
	{Value: "intermediate", Description: "Moderate complexity explanations for students with some background knowledge"},
	{Value: "advanced", Description: "Detailed explanations for advanced learners while still maintaining clarity"},
}

type Eli5Service struct {
	db     *gorm.DB
	llm    ai.LLM
	params *ai.ParamSet
}

func NewEli5Service(db *gorm.DB, llm ai.LLM, params *ai.ParamSet) *Eli5Service {
	return &Eli5Service{db: db, llm: llm, params: params}
}

func (s *Eli5Service) AddRoutes(r chi.Router) {
	r.Route("/eli5", func(r chi.Router) {
		r.Post("/simplify", RestHandler(s.Simplify))
		r.Get("/stats", RestHandler(s.Stats))
	})
}

func (s *Eli5Service) Simplify(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.Eli5SimplifyRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Topic) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Topic cannot be empty")
	}
	if len(req.Topic) > 1000 {
		return nil, CodedErrorf(http.StatusBadRequest, "Topic too long. Maximum 1,000 characters allowed.")
	}

	if req.ComplexityLevel == "" {
		req.ComplexityLevel = "basic"
	}
	switch req.ComplexityLevel {
	case "basic", "intermediate", "advanced":
	default:
		return nil, CodedErrorf(http.StatusBadRequest, "Invalid complexity level. Must be one of: basic, intermediate, advanced")
	}

	start := time.Now()
	ctx := r.Context()

	prompt, err := ai.Eli5Prompt(req.Topic, req.ComplexityLevel)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to simplify topic")
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("eli5"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Topic simplification failed: %v", err)
	}

	simplified, err := ai.DecodeJSON[api.Eli5SimplifyResponse](raw)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "invalid response from AI service")
	}
	if simplified.OriginalTopic == "" {
		simplified.OriginalTopic = req.Topic
	}
	simplified.ProcessingTime = elapsedSeconds(start)

	input := struct {
		Topic           string `json:"topic"`
		ComplexityLevel string `json:"complexity_level"`
	}{Topic: req.Topic, ComplexityLevel: req.ComplexityLevel}

	output := struct {
		OriginalTopic    string `json:"original_topic"`
		KeyConceptsCount int    `json:"key_concepts_count"`
		ExamplesCount    int    `json:"examples_count"`
		AnalogiesCount   int    `json:"analogies_count"`
	}{
		OriginalTopic:    simplified.OriginalTopic,
		KeyConceptsCount: len(simplified.KeyConcepts),
		ExamplesCount:    len(simplified.Examples),
		AnalogiesCount:   len(simplified.Analogies),
	}

	if _, err := database.SaveHistoryItem(ctx, s.db, user.Id, database.FeatureEli5, input, output, simplified.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return simplified, nil
}

func (s *Eli5Service) ComplexityLevels(r *http.Request) (any, error) {
	return api.ComplexityLevelsResponse{ComplexityLevels: complexityLevels}, nil
}

func (s *Eli5Service) Stats(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	items, err := userHistory(r.Context(), s.db, user.Id, database.FeatureEli5)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to get statistics")
	}

	stats := api.Eli5Stats{
		TotalTopicsSimplified: len(items),
		ComplexityBreakdown:   make(map[string]int),
	}

	totalTime := 0.0
	topics := make(map[string]struct{})
	for _, item := range items {
		totalTime += item.ProcessingTime

		var out struct {
			KeyConceptsCount int `json:"key_concepts_count"`
			ExamplesCount    int `json:"examples_count"`
			AnalogiesCount   int `json:"analogies_count"`
		}
		if len(item.OutputData) > 0 {
			if err := json.Unmarshal(item.OutputData, &out); err == nil {
				stats.TotalConceptsExplained += out.KeyConceptsCount
				stats.TotalExamplesProvided += out.ExamplesCount
				stats.TotalAnalogiesUsed += out.AnalogiesCount
			}
		}

		var in struct {
			Topic           string `json:"topic"`
			ComplexityLevel string `json:"complexity_level"`
		}
		if len(item.InputData) > 0 {
			if err := json.Unmarshal(item.InputData, &in); err != nil {
				in.ComplexityLevel = ""
			}
		}
		if in.Topic != "" {
			topics[in.Topic] = struct{}{}
		}
		level := in.ComplexityLevel
		if level == "" {
			level = "unknown"
		}
		stats.ComplexityBreakdown[level]++
	}
	stats.UniqueTopics = len(topics)

	if len(items) > 0 {
		stats.AverageProcessingTime = round2(totalTime / float64(len(items)))
		stats.LastSimplified = formatTime(items[0].CreationTime)
	}

	return stats, nil
}
