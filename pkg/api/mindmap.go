package api

type MindmapCreateRequest struct {
	Topic     string   `json:"topic"`
	Subtopics []string `json:"subtopics"`
}

type MindmapSubtopic struct {
	Name    string   `json:"name"`
	Details []string `json:"details"`
}

type MindmapBranch struct {
	Name      string            `json:"name"`
	Subtopics []MindmapSubtopic `json:"subtopics"`
}

type MindmapCreateResponse struct {
	Topic          string          `json:"topic"`
	Branches       []MindmapBranch `json:"branches"`
	ProcessingTime float64         `json:"processing_time"`
}

type MindmapStats struct {
	TotalMindmapsCreated      int     `json:"total_mindmaps_created"`
	TotalBranches             int     `json:"total_branches"`
	AverageBranchesPerMindmap float64 `json:"average_branches_per_mindmap"`
	UniqueTopics              int     `json:"unique_topics"`
	AverageProcessingTime     float64 `json:"average_processing_time"`
	LastCreated               *string `json:"last_created"`
}
