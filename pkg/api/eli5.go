package api

type Eli5SimplifyRequest struct {
	Topic           string `json:"topic"`
	ComplexityLevel string `json:"complexity_level"` // basic, intermediate, advanced
}

type Eli5SimplifyResponse struct {
	OriginalTopic     string   `json:"original_topic"`
	SimpleExplanation string   `json:"simple_explanation"`
	KeyConcepts       []string `json:"key_concepts"`
	Examples          []string `json:"examples"`
	Analogies         []string `json:"analogies"`
	ProcessingTime    float64  `json:"processing_time"`
}

type ComplexityLevel struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

type ComplexityLevelsResponse struct {
	ComplexityLevels []ComplexityLevel `json:"complexity_levels"`
}

type Eli5Stats struct {
	TotalTopicsSimplified  int            `json:"total_topics_simplified"`
	TotalConceptsExplained int            `json:"total_concepts_explained"`
	TotalExamplesProvided  int            `json:"total_examples_provided"`
	TotalAnalogiesUsed     int            `json:"total_analogies_used"`
	UniqueTopics           int            `json:"unique_topics"`
	ComplexityBreakdown    map[string]int `json:"complexity_breakdown"`
	AverageProcessingTime  float64        `json:"average_processing_time"`
	LastSimplified         *string        `json:"last_simplified"`
}
