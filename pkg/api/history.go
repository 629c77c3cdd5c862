package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryItem is the wire form of one stored feature run. Input and output
// payloads are feature-specific, so they pass through as raw JSON.
type HistoryItem struct {
	Id             uuid.UUID       `json:"id"`
	UserId         uuid.UUID       `json:"user_id"`
	FeatureType    string          `json:"feature_type"`
	InputData      json.RawMessage `json:"input_data"`
	OutputData     json.RawMessage `json:"output_data"`
	ProcessingTime float64         `json:"processing_time"`
	Status         string          `json:"status"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ProcessingStats struct {
	AverageProcessingTime float64 `json:"average_processing_time"`
	SuccessRate           float64 `json:"success_rate"`
	TotalProcessingTime   float64 `json:"total_processing_time"`
}

type HistorySummary struct {
	TotalItems       int             `json:"total_items"`
	FeatureBreakdown map[string]int  `json:"feature_breakdown"`
	RecentActivity   []HistoryItem   `json:"recent_activity"`
	ProcessingStats  ProcessingStats `json:"processing_stats"`
}

type FeatureHistoryResponse struct {
	FeatureType string        `json:"feature_type"`
	TotalItems  int           `json:"total_items"`
	Items       []HistoryItem `json:"items"`
}

type DeletedResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}
