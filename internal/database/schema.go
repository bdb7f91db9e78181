package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	JobQueued    string = "QUEUED"
	JobRunning   string = "RUNNING"
	JobCompleted string = "COMPLETED"
	JobFailed    string = "FAILED"
)

type BuildRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Status           string `gorm:"size:20;not null"`
	StartTime        time.Time
	CompletionTime   sql.NullTime
	TotalAnnotations int `gorm:"default:0"`

	Shards []ShardFile `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

type ShardFile struct {
	RunId      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Split      string    `gorm:"size:20;primaryKey"`
	ShardIndex int       `gorm:"primaryKey"`

	TotalShards    int
	Path           string
	Status         string `gorm:"size:20;not null"`
	RecordCount    int    `gorm:"default:0"`
	SizeBytes      int64  `gorm:"default:0"`
	Error          sql.NullString
	CompletionTime sql.NullTime
}
