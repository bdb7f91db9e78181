package shards

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"pose-records/internal/annotations"
	"pose-records/internal/records"
	"pose-records/internal/utils"
)

type RecordEncoder interface {
	Encode(anno annotations.NormalizedAnnotation) (*records.Record, error)
}

// Observer is told about each shard's progress. Its methods are called
// concurrently from shard tasks; a returned error fails the shard.
type Observer interface {
	ShardQueued(split string, index, total int, path string) error
	ShardCompleted(split string, index, records int) error
	ShardFailed(split string, index int, cause error) error
}

// Progress counts encoded records.
type Progress interface {
	Add(n int) error
}

type BuilderOptions struct {
	OutputDir string
	// Workers caps the number of shards built at once; 0 uses GOMAXPROCS.
	Workers  int
	Observer Observer
	Progress Progress
}

type Builder struct {
	encoder RecordEncoder
	opts    BuilderOptions
}

func NewBuilder(encoder RecordEncoder, opts BuilderOptions) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Builder{encoder: encoder, opts: opts}
}

type Result struct {
	Split   string
	Index   int
	Total   int
	Path    string
	Records int
}

type shardTask struct {
	split string
	index int
	total int
	path  string
	items []annotations.NormalizedAnnotation
}

// Build partitions items into numShards chunks and writes each chunk to its
// own file in parallel. It returns once every shard task has finished. If any
// shard fails the error names every failed shard, and the files of the split
// must not be used.
func (b *Builder) Build(split string, items []annotations.NormalizedAnnotation, numShards int) ([]Result, error) {
	chunks, err := Partition(items, numShards)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", split, err)
	}

	queue := make(chan shardTask, len(chunks))
	for i, chunk := range chunks {
		task := shardTask{
			split: split,
			index: i,
			total: numShards,
			path:  filepath.Join(b.opts.OutputDir, FileName(split, i, numShards)),
			items: chunk,
		}
		if b.opts.Observer != nil {
			if err := b.opts.Observer.ShardQueued(split, i, numShards, task.path); err != nil {
				return nil, fmt.Errorf("error queueing shard %s: %w", task.path, err)
			}
		}
		queue <- task
	}
	close(queue)

	completed := make(chan utils.CompletedTask[shardTask, Result], len(chunks))
	utils.RunInPool(b.runShard, queue, completed, b.opts.Workers)

	results := make([]Result, len(chunks))
	errs := make([]error, len(chunks))
	for task := range completed {
		if task.Error != nil {
			errs[task.Task.index] = task.Error
		} else {
			results[task.Task.index] = task.Result
		}
	}

	if err := errors.Join(errs...); err != nil {
		return results, fmt.Errorf("split %s failed: %w", split, err)
	}
	return results, nil
}

func (b *Builder) runShard(task shardTask) (Result, error) {
	result, err := b.writeShard(task)
	if err != nil {
		slog.Error("failed building records", "split", task.split, "path", task.path, "error", err)
		if b.opts.Observer != nil {
			if obsErr := b.opts.Observer.ShardFailed(task.split, task.index, err); obsErr != nil {
				err = errors.Join(err, obsErr)
			}
		}
		return Result{}, err
	}

	if b.opts.Observer != nil {
		if err := b.opts.Observer.ShardCompleted(task.split, task.index, result.Records); err != nil {
			return Result{}, fmt.Errorf("shard %s: %w", task.path, err)
		}
	}
	return result, nil
}

func (b *Builder) writeShard(task shardTask) (Result, error) {
	slog.Info("start to build records", "split", task.split, "path", task.path, "annotations", len(task.items))

	f, err := os.Create(task.path)
	if err != nil {
		return Result{}, fmt.Errorf("error creating shard %s: %w", task.path, err)
	}
	defer f.Close()

	w := records.NewWriter(f)
	for _, anno := range task.items {
		rec, err := b.encoder.Encode(anno)
		if err != nil {
			return Result{}, fmt.Errorf("shard %s: encoding %s: %w", task.path, anno.Filename, err)
		}
		if err := w.WriteRecord(rec); err != nil {
			return Result{}, fmt.Errorf("shard %s: writing %s: %w", task.path, anno.Filename, err)
		}
		if b.opts.Progress != nil {
			if err := b.opts.Progress.Add(1); err != nil {
				slog.Debug("error updating progress", "error", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return Result{}, fmt.Errorf("shard %s: %w", task.path, err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("error closing shard %s: %w", task.path, err)
	}

	slog.Info("finished building records", "split", task.split, "path", task.path, "records", w.Count())

	return Result{
		Split:   task.split,
		Index:   task.index,
		Total:   task.total,
		Path:    task.path,
		Records: w.Count(),
	}, nil
}
