package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/research"
	"thinkink-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Word budget for each per-paper summary.
const paperSummaryMaxWords = 500

type ResearchService struct {
	db       *gorm.DB
	llm      ai.LLM
	params   *ai.ParamSet
	searcher research.Searcher
}

func NewResearchService(db *gorm.DB, llm ai.LLM, params *ai.ParamSet, searcher research.Searcher) *ResearchService {
	return &ResearchService{db: db, llm: llm, params: params, searcher: searcher}
}

func (s *ResearchService) AddRoutes(r chi.Router) {
	r.Route("/research", func(r chi.Router) {
		r.Post("/search", RestHandler(s.Search))
		r.Get("/history", RestHandler(s.History))
		r.Get("/history/{item_id}", RestHandler(s.HistoryDetail))
		r.Delete("/history/{item_id}", RestHandler(s.DeleteRecord))
	})
}

func (s *ResearchService) Search(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.ResearchSearchRequest](r)
	if err != nil {
		return nil, err
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, CodedError(http.StatusBadRequest, fmt.Errorf("Search topic cannot be empty"))
	}
	req.NumPapers = clampLimit(req.NumPapers, 5, 20)
	if req.SummarizationType == "" {
		req.SummarizationType = "abstractive"
	}
	if req.SummaryMode == "" {
		req.SummaryMode = "technical"
	}
	if req.SummarizationType != "abstractive" && req.SummarizationType != "extractive" {
		return nil, CodedError(http.StatusBadRequest, fmt.Errorf("Invalid summarization type"))
	}
	switch req.SummaryMode {
	case "narrative", "beginner", "technical", "bullet":
	default:
		return nil, CodedError(http.StatusBadRequest, fmt.Errorf("Invalid summary mode"))
	}

	ctx := r.Context()

	papers, err := s.searcher.SearchPapers(ctx, req.Topic, req.NumPapers)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadGateway, "Paper search failed: %v", err)
	}

	if len(papers) == 0 {
		return api.ResearchSearchResponse{
			Papers:  []api.ResearchPaper{},
			Message: "No papers found. Try modifying your search terms or increasing the number of papers.",
		}, nil
	}

	// Papers whose summary cannot be produced are dropped rather than
	// failing the whole search.
	processed := make([]api.ResearchPaper, 0, len(papers))
	for _, paper := range papers {
		summary, err := s.summarizePaper(ctx, paper, req.SummarizationType, req.SummaryMode)
		if err != nil {
			slog.Error("error processing paper", "title", paper.Title, "error", err)
			continue
		}

		processed = append(processed, api.ResearchPaper{
			Title:           paper.Title,
			Authors:         paper.Authors,
			Year:            paper.Year,
			Citations:       paper.Citations,
			Abstract:        paper.Abstract,
			Url:             paper.URL,
			Venue:           paper.Venue,
			Summary:         summary,
			CitationsFormat: research.FormatCitations(paper.Title, paper.Authors, paper.Year, paper.Venue),
		})
	}

	var comparative *api.ComparativeAnalysis
	if len(processed) > 1 {
		analysis, err := s.comparePapers(ctx, papers, req.SummaryMode)
		if err != nil {
			slog.Error("error generating comparative analysis", "topic", req.Topic, "error", err)
		} else {
			comparative = &analysis
		}
	}

	record := api.ResearchRecord{
		Papers:              processed,
		ComparativeAnalysis: comparative,
		Preferences: api.ResearchPreferences{
			SummarizationType: req.SummarizationType,
			SummaryMode:       req.SummaryMode,
			NumPapers:         req.NumPapers,
		},
	}
	if _, err := database.SaveResearchItem(ctx, s.db, user.Id, req.Topic, req.NumPapers, record); err != nil {
		// The search already succeeded, losing the history row is not
		// worth failing the request over.
		slog.Error("error saving research history", "topic", req.Topic, "error", err)
	}

	return api.ResearchSearchResponse{
		Papers:              processed,
		ComparativeAnalysis: comparative,
		Message:             "Successfully retrieved and analyzed papers.",
	}, nil
}

func (s *ResearchService) summarizePaper(ctx context.Context, paper research.Paper, summarizationType, summaryMode string) (api.PaperSummary, error) {
	if strings.TrimSpace(paper.Abstract) == "" {
		return api.PaperSummary{
			Summary:      "Abstract not available for summarization.",
			KeyFindings:  []string{"Unable to extract key findings without abstract."},
			Methodology:  "Not available",
			Implications: "Not available",
		}, nil
	}

	prompt, err := ai.PaperSummaryPrompt(paper.Abstract, summarizationType, summaryMode, paperSummaryMaxWords)
	if err != nil {
		return api.PaperSummary{}, err
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("research"))
	if err != nil {
		return api.PaperSummary{}, err
	}

	summary, err := ai.DecodeJSON[api.PaperSummary](raw)
	if err != nil {
		return api.PaperSummary{}, err
	}
	if summary.KeyFindings == nil {
		summary.KeyFindings = []string{}
	}

	return summary, nil
}

func (s *ResearchService) comparePapers(ctx context.Context, papers []research.Paper, summaryMode string) (api.ComparativeAnalysis, error) {
	refs := make([]ai.PaperRef, 0, len(papers))
	for _, paper := range papers {
		refs = append(refs, ai.PaperRef{Title: paper.Title, Year: paper.Year, Abstract: paper.Abstract})
	}

	prompt, err := ai.ComparativeAnalysisPrompt(refs, summaryMode)
	if err != nil {
		return api.ComparativeAnalysis{}, err
	}

	raw, err := s.llm.Generate(ctx, "", prompt, s.params.For("research"))
	if err != nil {
		return api.ComparativeAnalysis{}, err
	}

	analysis, err := ai.DecodeJSON[api.ComparativeAnalysis](raw)
	if err != nil {
		return api.ComparativeAnalysis{}, err
	}
	if analysis.CommonThemes == nil {
		analysis.CommonThemes = []string{}
	}
	if analysis.KeyDifferences == nil {
		analysis.KeyDifferences = []string{}
	}

	return analysis, nil
}

type researchHistoryParams struct {
	Limit int `schema:"limit"`
}

func (s *ResearchService) History(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[researchHistoryParams](r)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(params.Limit, 20, 100)

	var items []database.ResearchItem
	err = s.db.WithContext(r.Context()).
		Where("user_id = ?", user.Id).
		Order("creation_time DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to fetch research history")
	}

	var total int64
	err = s.db.WithContext(r.Context()).
		Model(&database.ResearchItem{}).
		Where("user_id = ?", user.Id).
		Count(&total).Error
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to fetch research history")
	}

	return api.ResearchHistoryResponse{Items: convertResearchItems(items), Total: int(total)}, nil
}

func (s *ResearchService) HistoryDetail(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	itemId, err := URLParamUUID(r, "item_id")
	if err != nil {
		return nil, err
	}

	var item database.ResearchItem
	err = s.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", itemId, user.Id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "Research record not found")
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to fetch research record")
	}

	return convertResearchItem(item), nil
}

func (s *ResearchService) DeleteRecord(r *http.Request) (any, error) {
	user, err := RequireUser(r)
	if err != nil {
		return nil, err
	}

	itemId, err := URLParamUUID(r, "item_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", itemId, user.Id).
		Delete(&database.ResearchItem{})
	if result.Error != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to delete research record")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "Research record not found")
	}

	return api.MessageResponse{Message: "Research record deleted successfully"}, nil
}
