package api

type QuizGenerateRequest struct {
	Text              string   `json:"text"`
	NumQuestions      int      `json:"num_questions"`
	UseBloomsTaxonomy bool     `json:"use_blooms_taxonomy"`
	TaxonomyLevels    []string `json:"taxonomy_levels"`
}

// QuizQuestion options carry their letter prefix ("A) ..."), and
// CorrectAnswer always matches one of Options verbatim.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type QuizGenerateResponse struct {
	Questions      []QuizQuestion `json:"questions"`
	TotalQuestions int            `json:"total_questions"`
	ProcessingTime float64        `json:"processing_time"`
}

type QuizStats struct {
	TotalQuizzesGenerated   int     `json:"total_quizzes_generated"`
	TotalQuestions          int     `json:"total_questions"`
	AverageQuestionsPerQuiz float64 `json:"average_questions_per_quiz"`
	AverageProcessingTime   float64 `json:"average_processing_time"`
	LastGenerated           *string `json:"last_generated"`
}
