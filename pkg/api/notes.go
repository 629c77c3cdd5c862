package api

type NotesSummarizeRequest struct {
	Text              string `json:"text"`
	MaxLength         int    `json:"max_length"`
	SummarizationType string `json:"summarization_type"` // abstractive or extractive
	SummaryMode       string `json:"summary_mode"`       // narrative, beginner, technical, bullet
	UseBloomsTaxonomy bool   `json:"use_blooms_taxonomy"`
}

type BloomsTaxonomy struct {
	Remember   []string `json:"remember,omitempty"`
	Understand []string `json:"understand,omitempty"`
	Apply      []string `json:"apply,omitempty"`
	Analyze    []string `json:"analyze,omitempty"`
	Evaluate   []string `json:"evaluate,omitempty"`
	Create     []string `json:"create,omitempty"`
}

type NotesSummarizeResponse struct {
	Summary        string          `json:"summary"`
	KeyPoints      []string        `json:"key_points"`
	WordCount      int             `json:"word_count"`
	BloomsTaxonomy *BloomsTaxonomy `json:"blooms_taxonomy,omitempty"`
	ProcessingTime float64         `json:"processing_time"`
}

type NotesGenerateRequest struct {
	Topic       string `json:"topic"`
	DetailLevel string `json:"detail_level"` // brief, detailed, comprehensive
}

type NotesGenerateResponse struct {
	Topic          string   `json:"topic"`
	Notes          string   `json:"notes"`
	KeyPoints      []string `json:"key_points"`
	WordCount      int      `json:"word_count"`
	ProcessingTime float64  `json:"processing_time"`
}

type NotesExtractRequest struct {
	Text string `json:"text"`
}

type NotesExtractResponse struct {
	KeyPoints      []string `json:"key_points"`
	ImportantFacts []string `json:"important_facts"`
	MainIdeas      []string `json:"main_ideas"`
	Vocabulary     []string `json:"vocabulary"`
}

type NotesStats struct {
	TotalProcessed        int     `json:"total_processed"`
	TotalWords            int     `json:"total_words"`
	AverageProcessingTime float64 `json:"average_processing_time"`
	LastProcessed         *string `json:"last_processed"`
}
