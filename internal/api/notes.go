package api

import (
	"net/http"
	"strings"
	"time"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const maxTextChars = 10000

type NotesService struct {
	db     *gorm.DB
	llm    ai.LLM
	params *ai.ParamSet
}

func NewNotesService(db *gorm.DB, llm ai.LLM, params *ai.ParamSet) *NotesService {
	return &NotesService{db: db, llm: llm, params: params}
}

func (s *NotesService) AddRoutes(r chi.Router) {
	r.Route("/notes", func(r chi.Router) {
		r.Post("/summarize", RestHandler(s.Summarize))
		r.Post("/generate", RestHandler(s.Generate))
		r.Post("/extract", RestHandler(s.Extract))
		r.Get("/stats", RestHandler(s.Stats))
	})
}

func (s *NotesService) Summarize(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.NotesSummarizeRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Text cannot be empty")
	}
	if len(req.Text) > maxTextChars {
		return nil, CodedErrorf(http.StatusBadRequest, "Text too long. Maximum 10,000 characters allowed.")
	}

	if req.MaxLength <= 0 {
		req.MaxLength = 500
	}
	if req.SummarizationType == "" {
		req.SummarizationType = "abstractive"
	}
	if req.SummaryMode == "" {
		req.SummaryMode = "narrative"
	}

	if req.SummarizationType != "abstractive" && req.SummarizationType != "extractive" {
		return nil, CodedErrorf(http.StatusBadRequest, "Invalid summarization type. Must be 'abstractive' or 'extractive'")
	}
	switch req.SummaryMode {
	case "narrative", "beginner", "technical", "bullet":
	default:
		return nil, CodedErrorf(http.StatusBadRequest, "Invalid summary mode. Must be 'narrative', 'beginner', 'technical', or 'bullet'")
	}

	start := time.Now()
	ctx := r.Context()

	prompt, err := ai.SummarizeNotesPrompt(req.Text, req.MaxLength, req.SummarizationType, req.SummaryMode, req.UseBloomsTaxonomy)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to summarize notes")
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("notes"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	summary, err := ai.DecodeJSON[api.NotesSummarizeResponse](raw)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "invalid response from AI service")
	}
	summary.ProcessingTime = elapsedSeconds(start)

	input := struct {
		Text      string `json:"text"`
		MaxLength int    `json:"max_length"`
	}{Text: truncateChars(req.Text, 1000), MaxLength: req.MaxLength}

	if _, err := database.SaveHistoryItem(ctx, s.db, user.Id, database.FeatureNotes, input, summary, summary.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return summary, nil
}

func (s *NotesService) Generate(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.NotesGenerateRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Topic) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Topic cannot be empty")
	}
	if len(req.Topic) > 500 {
		return nil, CodedErrorf(http.StatusBadRequest, "Topic too long. Maximum 500 characters allowed.")
	}

	if req.DetailLevel == "" {
		req.DetailLevel = "detailed"
	}
	switch req.DetailLevel {
	case "brief", "detailed", "comprehensive":
	default:
		return nil, CodedErrorf(http.StatusBadRequest, "Invalid detail level. Must be 'brief', 'detailed', or 'comprehensive'")
	}

	start := time.Now()
	ctx := r.Context()

	prompt, err := ai.GenerateNotesPrompt(req.Topic, req.DetailLevel)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to generate notes")
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("notes"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	notes, err := ai.DecodeJSON[api.NotesGenerateResponse](raw)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "invalid response from AI service")
	}
	if notes.Topic == "" {
		notes.Topic = req.Topic
	}
	notes.ProcessingTime = elapsedSeconds(start)

	input := struct {
		Topic       string `json:"topic"`
		DetailLevel string `json:"detail_level"`
	}{Topic: req.Topic, DetailLevel: req.DetailLevel}

	if _, err := database.SaveHistoryItem(ctx, s.db, user.Id, database.FeatureNotesGenerate, input, notes, notes.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return notes, nil
}

func (s *NotesService) Extract(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.NotesExtractRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Text cannot be empty")
	}
	if len(req.Text) > maxTextChars {
		return nil, CodedErrorf(http.StatusBadRequest, "Text too long. Maximum 10,000 characters allowed.")
	}

	start := time.Now()
	ctx := r.Context()

	prompt, err := ai.ExtractKeyPointsPrompt(req.Text)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to extract key points")
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("notes"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI processing failed: %v", err)
	}

	extracted, err := ai.DecodeJSON[api.NotesExtractResponse](raw)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "AI service returned invalid response structure")
	}

	input := struct {
		Text string `json:"text"`
	}{Text: truncateChars(req.Text, 1000)}

	if _, err := database.SaveHistoryItem(ctx, s.db, user.Id, database.FeatureNotesExtract, input, extracted, elapsedSeconds(start), database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return extracted, nil
}

func (s *NotesService) Stats(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	items, err := userHistory(r.Context(), s.db, user.Id, database.FeatureNotes, database.FeatureNotesGenerate, database.FeatureNotesExtract)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to get statistics")
	}

	stats := api.NotesStats{TotalProcessed: len(items)}

	totalTime := 0.0
	for _, item := range items {
		totalTime += item.ProcessingTime
		stats.TotalWords += outputWordCount(item)
	}
	if len(items) > 0 {
		stats.AverageProcessingTime = round2(totalTime / float64(len(items)))
		stats.LastProcessed = formatTime(items[0].CreationTime)
	}

	return stats, nil
}
