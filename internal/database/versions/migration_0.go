package versions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Baseline catalog schema. Later migrations change the tables from this
// state; fresh catalogs skip straight to the latest schema in InitSchema.

type BuildRun struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status           string    `gorm:"size:20;not null"`
	StartTime        time.Time
	CompletionTime   sql.NullTime
	TotalAnnotations int `gorm:"default:0"`

	Shards []ShardFile `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

type ShardFile struct {
	RunId       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Split       string    `gorm:"size:20;primaryKey"`
	ShardIndex  int       `gorm:"primaryKey"`
	TotalShards int
	Path        string
	Status      string `gorm:"size:20;not null"`
	RecordCount int    `gorm:"default:0"`
	SizeBytes   int64  `gorm:"default:0"`

	Error          sql.NullString
	CompletionTime sql.NullTime
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&BuildRun{}, &ShardFile{}); err != nil {
		return fmt.Errorf("error creating catalog tables: %w", err)
	}
	return nil
}
