package api

import (
	"time"

	"github.com/google/uuid"
)

// TextSummary is the structured digest produced from extracted text, shared
// by the image OCR and PDF summarization pipelines.
type TextSummary struct {
	MainSummary      string   `json:"main_summary"`
	KeyPoints        []string `json:"key_points"`
	ImportantDetails []string `json:"important_details"`
}

type ImageProcessResponse struct {
	Id             uuid.UUID   `json:"id"`
	UserId         uuid.UUID   `json:"user_id"`
	Filename       string      `json:"filename"`
	ExtractedText  string      `json:"extracted_text"`
	Summary        TextSummary `json:"summary"`
	WordCount      int         `json:"word_count"`
	CharacterCount int         `json:"character_count"`
	ProcessingTime float64     `json:"processing_time"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}

