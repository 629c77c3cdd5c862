package migration_0

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

	FirebaseUid string `gorm:"uniqueIndex;not null"`
	Email       string `gorm:"uniqueIndex;not null"`
	DisplayName string
	PhotoUrl    string
	Provider    string `gorm:"size:40"`

	CreationTime time.Time
	LastLogin    time.Time
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

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &HistoryItem{}); err != nil {
		return fmt.Errorf("Migration0 failed: %w", err)
	}
	return nil
}
