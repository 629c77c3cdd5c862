package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FeatureNotes           string = "notes"
	FeatureNotesGenerate   string = "notes_generate"
	FeatureNotesExtract    string = "notes_extract"
	FeatureQuiz            string = "quiz"
	FeatureMindmap         string = "mindmap"
	FeatureEli5            string = "eli5"
	FeaturePdf             string = "pdf"
	FeatureVoice           string = "voice"
	FeatureVoiceMicrophone string = "voice_microphone"
	FeatureVoiceSummary    string = "voice_summary"
	FeatureVoiceAnalysis   string = "voice_analysis"
	FeatureVoiceEmotion    string = "voice_emotion"
)

const (
	ItemQueued     string = "QUEUED"
	ItemProcessing string = "PROCESSING"
	ItemCompleted  string = "COMPLETED"
	ItemFailed     string = "FAILED"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	FirebaseUid string `gorm:"uniqueIndex;not null"`
	Email       string `gorm:"uniqueIndex;not null"`
	DisplayName string
	PhotoUrl    string
	Provider    string `gorm:"size:40"`

	CreationTime time.Time
	LastLogin    time.Time

	HistoryItems  []HistoryItem  `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	ImageItems    []ImageItem    `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	ResearchItems []ResearchItem `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

type HistoryItem struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;index;not null"`
	User   *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`

	FeatureType string `gorm:"size:40;index;not null"`

	InputData  datatypes.JSON `gorm:"type:jsonb"`
	OutputData datatypes.JSON `gorm:"type:jsonb"`

	ProcessingTime float64
	Status         string `gorm:"size:20;not null"`
	Error          string

	CreationTime   time.Time `gorm:"index"`
	CompletionTime sql.NullTime
}

// ImageItem is kept out of the shared history table: the image workflow has
// its own CRUD surface and stores the full extracted text, which would bloat
// the history payload columns.
type ImageItem struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;index;not null"`
	User   *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`

	Filename    string
	ContentType string `gorm:"size:100"`
	SizeBytes   int64

	ExtractedText string
	Summary       datatypes.JSON `gorm:"type:jsonb"` // {"main_summary":…,"key_points":[…],"important_details":[…]}

	ProcessingTime float64
	Status         string `gorm:"size:20;not null"`
	Error          string

	CreationTime   time.Time `gorm:"index"`
	CompletionTime sql.NullTime
}

type ResearchItem struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;index;not null"`
	User   *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`

	Query      string `gorm:"not null"`
	MaxResults int

	Results datatypes.JSON `gorm:"type:jsonb"`

	CreationTime time.Time `gorm:"index"`
}
