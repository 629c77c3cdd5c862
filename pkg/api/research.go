package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ResearchSearchRequest struct {
	Topic             string `json:"topic"`
	NumPapers         int    `json:"num_papers"`
	SummarizationType string `json:"summarization_type"`
	SummaryMode       string `json:"summary_mode"`
}

// PaperSummary is the per-paper digest produced by the summarizer.
type PaperSummary struct {
	Summary      string   `json:"summary"`
	KeyFindings  []string `json:"key_findings"`
	Methodology  string   `json:"methodology"`
	Implications string   `json:"implications"`
}

type CitationsFormat struct {
	Apa  string `json:"apa"`
	Ieee string `json:"ieee"`
}

type ResearchPaper struct {
	Title           string          `json:"title"`
	Authors         []string        `json:"authors"`
	Year            string          `json:"year"`
	Citations       int             `json:"citations"`
	Abstract        string          `json:"abstract"`
	Url             string          `json:"url"`
	Venue           string          `json:"venue"`
	Summary         PaperSummary    `json:"summary"`
	CitationsFormat CitationsFormat `json:"citations_format"`
}

type ComparativeAnalysis struct {
	CommonThemes          []string `json:"common_themes"`
	KeyDifferences        []string `json:"key_differences"`
	ResearchTrends        string   `json:"research_trends"`
	MethodologyComparison string   `json:"methodology_comparison"`
	TimelineEvolution     string   `json:"timeline_evolution"`
	GapsAndOpportunities  string   `json:"gaps_and_opportunities"`
}

type ResearchSearchResponse struct {
	Papers              []ResearchPaper      `json:"papers"`
	ComparativeAnalysis *ComparativeAnalysis `json:"comparative_analysis,omitempty"`
	Message             string               `json:"message,omitempty"`
}

type ResearchPreferences struct {
	SummarizationType string `json:"summarization_type"`
	SummaryMode       string `json:"summary_mode"`
	NumPapers         int    `json:"num_papers"`
}

// ResearchRecord is the stored form of one search, returned by the history
// endpoint alongside the row id and timestamp.
type ResearchRecord struct {
	Papers              []ResearchPaper      `json:"papers"`
	ComparativeAnalysis *ComparativeAnalysis `json:"comparative_analysis,omitempty"`
	Preferences         ResearchPreferences  `json:"preferences"`
}

type ResearchHistoryItem struct {
	Id        uuid.UUID       `json:"id"`
	Topic     string          `json:"topic"`
	Results   json.RawMessage `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
}

type ResearchHistoryResponse struct {
	Items []ResearchHistoryItem `json:"items"`
	Total int                   `json:"total"`
}
