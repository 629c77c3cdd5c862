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

type QuizService struct {
	db     *gorm.DB
	llm    ai.LLM
	params *ai.ParamSet
}

func NewQuizService(db *gorm.DB, llm ai.LLM, params *ai.ParamSet) *QuizService {
	return &QuizService{db: db, llm: llm, params: params}
}

func (s *QuizService) AddRoutes(r chi.Router) {
	r.Route("/quiz", func(r chi.Router) {
		r.Post("/generate", RestHandler(s.Generate))
		r.Get("/stats", RestHandler(s.Stats))
	})
}

func (s *QuizService) Generate(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.QuizGenerateRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Text cannot be empty")
	}
	if len(req.Text) > maxTextChars {
		return nil, CodedErrorf(http.StatusBadRequest, "Text too long. Maximum 10,000 characters allowed.")
	}

	if req.NumQuestions == 0 {
		req.NumQuestions = 5
	}
	if req.NumQuestions < 1 || req.NumQuestions > 20 {
		return nil, CodedErrorf(http.StatusBadRequest, "Number of questions must be between 1 and 20")
	}

	start := time.Now()
	ctx := r.Context()

	// Long inputs are cut to the first chunk so the prompt stays within a
	// predictable size. Question quality degrades past that anyway.
	text := req.Text
	if chunks := ai.SplitTextChunks(text, ai.DefaultChunkSize); len(chunks) > 0 {
		text = chunks[0]
	}

	prompt, err := ai.QuizPrompt(text, req.NumQuestions, req.UseBloomsTaxonomy, req.TaxonomyLevels)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to generate quiz")
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("quiz"))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Quiz generation failed: %v", err)
	}

	quiz, err := ai.DecodeJSON[api.QuizGenerateResponse](raw)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "invalid response from AI service")
	}
	if err := ai.RepairQuiz(&quiz); err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Quiz generation failed: %v", err)
	}
	quiz.ProcessingTime = elapsedSeconds(start)

	input := struct {
		Text         string `json:"text"`
		NumQuestions int    `json:"num_questions"`
	}{Text: truncateChars(req.Text, 1000), NumQuestions: req.NumQuestions}

	// History keeps question counts only, not the questions themselves.
	output := struct {
		TotalQuestions int `json:"total_questions"`
		QuestionsCount int `json:"questions_count"`
	}{TotalQuestions: quiz.TotalQuestions, QuestionsCount: len(quiz.Questions)}

	if _, err := database.SaveHistoryItem(ctx, s.db, user.Id, database.FeatureQuiz, input, output, quiz.ProcessingTime, database.ItemCompleted); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history")
	}

	return quiz, nil
}

func (s *QuizService) Stats(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	items, err := userHistory(r.Context(), s.db, user.Id, database.FeatureQuiz)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to get statistics")
	}

	stats := api.QuizStats{TotalQuizzesGenerated: len(items)}

	totalTime := 0.0
	for _, item := range items {
		totalTime += item.ProcessingTime
		stats.TotalQuestions += totalQuestionCount(item)
	}
	if len(items) > 0 {
		stats.AverageQuestionsPerQuiz = round1(float64(stats.TotalQuestions) / float64(len(items)))
		stats.AverageProcessingTime = round2(totalTime / float64(len(items)))
		stats.LastGenerated = formatTime(items[0].CreationTime)
	}

	return stats, nil
}

func totalQuestionCount(item database.HistoryItem) int {
	if len(item.OutputData) == 0 {
		return 0
	}
	var out struct {
		TotalQuestions int `json:"total_questions"`
	}
	if err := json.Unmarshal(item.OutputData, &out); err != nil {
		return 0
	}
	return out.TotalQuestions
}
