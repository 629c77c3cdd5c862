package api

import (
	"time"

	"github.com/google/uuid"
)

type WordTimestamp struct {
	Word      string  `json:"word"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

type TranscribeResponse struct {
	Transcription  string          `json:"transcription"`
	Confidence     float64         `json:"confidence"`
	WordCount      int             `json:"word_count"`
	ProcessingTime float64         `json:"processing_time"`
	Duration       float64         `json:"duration,omitempty"`
	Timestamps     []WordTimestamp `json:"timestamps,omitempty"`
	FilePath       string          `json:"file_path,omitempty"`
}

type VoiceSummarizeRequest struct {
	Transcription string `json:"transcription"`
	MaxLength     int    `json:"max_length"`
}

type VoiceSummarizeResponse struct {
	Summary        string   `json:"summary"`
	MainPoints     []string `json:"main_points"`
	WordCount      int      `json:"word_count"`
	KeyPhrases     []string `json:"key_phrases"`
	ActionItems    []string `json:"action_items,omitempty"`
	Context        string   `json:"context"`
	ProcessingTime float64  `json:"processing_time"`
}

type VoiceAnalysisResponse struct {
	Summary               string   `json:"summary"`
	KeyPoints             []string `json:"key_points"`
	TopicsDiscussed       []string `json:"topics_discussed"`
	Sentiment             string   `json:"sentiment"`
	SentimentReasons      []string `json:"sentiment_reasons"`
	ClarityScore          int      `json:"clarity_score"`
	SuggestedImprovements []string `json:"suggested_improvements"`
	ProcessingTime        float64  `json:"processing_time"`
}

type EmotionScores struct {
	Confidence      int `json:"confidence"`
	EnergyLevel     int `json:"energy_level"`
	StressLevel     int `json:"stress_level"`
	MotivationLevel int `json:"motivation_level"`
}

type EmotionAnalysisResponse struct {
	PrimaryEmotion    string        `json:"primary_emotion"`
	EmotionScores     EmotionScores `json:"emotion_scores"`
	Context           string        `json:"context"`
	Suggestions       []string      `json:"suggestions"`
	AdditionalNotes   string        `json:"additional_notes,omitempty"`
	ProcessingTime    float64       `json:"processing_time"`
	AnalysisTimestamp time.Time     `json:"analysis_timestamp"`
}

type TextToSpeechRequest struct {
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
	Translate bool   `json:"translate,omitempty"`
}

type TextToSpeechResponse struct {
	FilePath       string  `json:"file_path"`
	FileName       string  `json:"file_name"`
	Duration       float64 `json:"duration"`
	TranslatedText string  `json:"translated_text,omitempty"`
}

// RecordResponse acknowledges an async recorded-session job. The transcript
// and summary land on the history item once the worker finishes.
type RecordResponse struct {
	ItemId  uuid.UUID `json:"item_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// RecordOutput is what the worker writes to a recorded-session history item.
type RecordOutput struct {
	TranscribeResponse
	Summary *VoiceSummarizeResponse `json:"summary,omitempty"`
}

type RecordingLimits struct {
	MaxDuration     int `json:"max_duration"`
	MinDuration     int `json:"min_duration"`
	DefaultDuration int `json:"default_duration"`
}

type VoiceFormatsResponse struct {
	SupportedFormats  []string        `json:"supported_formats"`
	RecommendedFormat string          `json:"recommended_format"`
	MaxFileSize       string          `json:"max_file_size"`
	RecordingLimits   RecordingLimits `json:"recording_limits"`
}

type VoiceStats struct {
	TotalProcessed        int            `json:"total_processed"`
	TotalWords            int            `json:"total_words"`
	AverageProcessingTime float64        `json:"average_processing_time"`
	FormatBreakdown       map[string]int `json:"format_breakdown"`
	LastProcessed         *string        `json:"last_processed"`
}
