package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Catalog records build runs and the shard files they produce. Sqlite allows
// a single writer, so all writes are serialized.
type Catalog struct {
	db *gorm.DB
	mu sync.Mutex
}

func OpenCatalog(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}

	return NewCatalog(db)
}

func NewCatalog(db *gorm.DB) (*Catalog, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := GetMigrator(db).Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}

	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *Catalog) StartRun() (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	run := BuildRun{
		Id:        uuid.New(),
		Status:    JobRunning,
		StartTime: time.Now().UTC(),
	}
	if err := c.db.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("error creating build run: %w", err)
	}

	slog.Info("build run started", "run_id", run.Id)
	return &Run{catalog: c, Id: run.Id}, nil
}

func (c *Catalog) GetRun(id uuid.UUID) (*BuildRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var run BuildRun
	err := c.db.
		Preload("Shards", func(db *gorm.DB) *gorm.DB {
			return db.Order("split, shard_index")
		}).
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("error getting build run %s: %w", id, err)
	}
	return &run, nil
}

// Run is a started build run. It satisfies shards.Observer.
type Run struct {
	catalog *Catalog
	Id      uuid.UUID
}

func (r *Run) ShardQueued(split string, index, total int, path string) error {
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()

	shard := ShardFile{
		RunId:       r.Id,
		Split:       split,
		ShardIndex:  index,
		TotalShards: total,
		Path:        path,
		Status:      JobQueued,
	}
	if err := r.catalog.db.Create(&shard).Error; err != nil {
		return fmt.Errorf("error recording shard %s: %w", path, err)
	}
	return nil
}

func (r *Run) ShardCompleted(split string, index, records int) error {
	updates := map[string]any{
		"status":          JobCompleted,
		"record_count":    records,
		"completion_time": time.Now().UTC(),
	}
	return r.updateShard(split, index, func(shard ShardFile) map[string]any {
		if info, err := os.Stat(shard.Path); err == nil {
			updates["size_bytes"] = info.Size()
		}
		return updates
	})
}

func (r *Run) ShardFailed(split string, index int, cause error) error {
	return r.updateShard(split, index, func(ShardFile) map[string]any {
		return map[string]any{
			"status":          JobFailed,
			"error":           sql.NullString{String: cause.Error(), Valid: true},
			"completion_time": time.Now().UTC(),
		}
	})
}

func (r *Run) updateShard(split string, index int, updates func(ShardFile) map[string]any) error {
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()

	return r.catalog.db.Transaction(func(txn *gorm.DB) error {
		var shard ShardFile
		if err := txn.First(&shard, "run_id = ? AND split = ? AND shard_index = ?", r.Id, split, index).Error; err != nil {
			return fmt.Errorf("error finding %s shard %d: %w", split, index, err)
		}

		// Model drops zero valued key fields, so shard 0 needs an explicit key.
		result := txn.Model(&ShardFile{}).
			Where("run_id = ? AND split = ? AND shard_index = ?", r.Id, split, index).
			Updates(updates(shard))
		if err := result.Error; err != nil {
			slog.Error("error updating shard status", "run_id", r.Id, "split", split, "shard", index, "error", err)
			return fmt.Errorf("error updating %s shard %d: %w", split, index, err)
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("error updating %s shard %d: %d rows affected", split, index, result.RowsAffected)
		}
		return nil
	})
}

// Finish marks the run COMPLETED or FAILED.
func (r *Run) Finish(status string, totalAnnotations int) error {
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()

	updates := map[string]any{
		"status":            status,
		"total_annotations": totalAnnotations,
		"completion_time":   time.Now().UTC(),
	}
	if err := r.catalog.db.Model(&BuildRun{Id: r.Id}).Updates(updates).Error; err != nil {
		return fmt.Errorf("error finishing build run %s: %w", r.Id, err)
	}

	slog.Info("build run finished", "run_id", r.Id, "status", status)
	return nil
}
