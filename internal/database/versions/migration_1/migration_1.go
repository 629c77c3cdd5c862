package migration_1

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`
}

type ImageItem struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;index;not null"`
	User   *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`

	Filename    string
	ContentType string `gorm:"size:100"`
	SizeBytes   int64

	ExtractedText string
	Summary       datatypes.JSON `gorm:"type:jsonb"`

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

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&ImageItem{}, &ResearchItem{}); err != nil {
		return fmt.Errorf("Migration1 failed: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&ImageItem{}, &ResearchItem{}); err != nil {
		return fmt.Errorf("Rollback1 failed: %w", err)
	}
	return nil
}
