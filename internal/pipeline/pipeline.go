package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"pose-records/internal/annotations"
	"pose-records/internal/config"
	"pose-records/internal/database"
	"pose-records/internal/imagecodec"
	"pose-records/internal/records"
	"pose-records/internal/shards"
	"pose-records/internal/storage"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

const (
	TrainSplit = "train"
	ValSplit   = "val"
)

type Split struct {
	Name            string
	AnnotationsPath string
	NumShards       int
	// Limit keeps only the first Limit annotations when positive.
	Limit int
}

// Deps are the optional collaborators of a Driver. A nil Images uses an
// imagecodec.Codec; a nil Catalog or Provider disables cataloging or
// publishing.
type Deps struct {
	Images   records.ImageSource
	Catalog  *database.Catalog
	Provider storage.Provider
}

type Driver struct {
	cfg      *config.Config
	images   records.ImageSource
	catalog  *database.Catalog
	provider storage.Provider
}

func New(cfg *config.Config, deps Deps) *Driver {
	images := deps.Images
	if images == nil {
		images = imagecodec.New(cfg.JPEGQuality)
	}
	return &Driver{
		cfg:      cfg,
		images:   images,
		catalog:  deps.Catalog,
		provider: deps.Provider,
	}
}

func (d *Driver) Splits() []Split {
	return []Split{
		{Name: TrainSplit, AnnotationsPath: d.cfg.TrainAnnotations, NumShards: d.cfg.NumTrainShards, Limit: d.cfg.MaxTrainImages},
		{Name: ValSplit, AnnotationsPath: d.cfg.ValAnnotations, NumShards: d.cfg.NumValShards, Limit: d.cfg.MaxValImages},
	}
}

type SplitSummary struct {
	Name        string
	Annotations int
	Shards      []shards.Result
}

type Summary struct {
	RunId            uuid.UUID
	Splits           []SplitSummary
	TotalAnnotations int
}

// Run loads both splits, builds their shard files and, when a Provider is
// set, publishes each split once all of its shards are written. Any error
// fails the whole run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	if err := d.cfg.Validate(); err != nil {
		return Summary{}, err
	}

	splits := d.Splits()

	slog.Info("start to parse annotations")
	loaded := make([][]annotations.NormalizedAnnotation, len(splits))
	total := 0
	for i, split := range splits {
		raws, err := annotations.Load(split.AnnotationsPath)
		if err != nil {
			return Summary{}, fmt.Errorf("split %s: %w", split.Name, err)
		}
		loaded[i] = annotations.NormalizeAll(raws, d.cfg.ImageDir, split.Limit)
		total += len(loaded[i])

		if len(loaded[i]) > 0 {
			slog.Info("first annotation", "split", split.Name, "annotation", loaded[i][0])
		}
	}

	if err := os.MkdirAll(d.cfg.OutputDir, os.ModePerm); err != nil {
		return Summary{}, fmt.Errorf("error creating output directory %s: %w", d.cfg.OutputDir, err)
	}

	summary := Summary{TotalAnnotations: total}

	opts := shards.BuilderOptions{
		OutputDir: d.cfg.OutputDir,
		Workers:   d.cfg.Workers,
	}

	var run *database.Run
	if d.catalog != nil {
		var err error
		run, err = d.catalog.StartRun()
		if err != nil {
			return Summary{}, err
		}
		summary.RunId = run.Id
		opts.Observer = run
	}

	if d.cfg.ShowProgress {
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetDescription("⏳ building records"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish() //nolint:errcheck
		opts.Progress = bar
	}

	encoder := records.NewEncoder(d.images, records.EncoderOptions{LegacyYFallback: d.cfg.LegacyYFallback})
	builder := shards.NewBuilder(encoder, opts)

	slog.Info("start to build records", "annotations", total, "concurrent_splits", d.cfg.ConcurrentSplits)

	results := make([][]shards.Result, len(splits))
	build := func(ctx context.Context, i int) error {
		res, err := builder.Build(splits[i].Name, loaded[i], splits[i].NumShards)
		if err != nil {
			return err
		}
		results[i] = res
		return d.publish(ctx, splits[i].Name, res)
	}

	var err error
	if d.cfg.ConcurrentSplits {
		g, gctx := errgroup.WithContext(ctx)
		for i := range splits {
			g.Go(func() error { return build(gctx, i) })
		}
		err = g.Wait()
	} else {
		for i := range splits {
			if err = build(ctx, i); err != nil {
				break
			}
		}
	}

	if err != nil {
		if run != nil {
			if finishErr := run.Finish(database.JobFailed, total); finishErr != nil {
				err = errors.Join(err, finishErr)
			}
		}
		return summary, err
	}

	for i, split := range splits {
		summary.Splits = append(summary.Splits, SplitSummary{
			Name:        split.Name,
			Annotations: len(loaded[i]),
			Shards:      results[i],
		})
	}

	if run != nil {
		if err := run.Finish(database.JobCompleted, total); err != nil {
			return summary, err
		}
	}

	slog.Info("successfully wrote annotations", "annotations", total, "output_dir", d.cfg.OutputDir)
	return summary, nil
}

func (d *Driver) publish(ctx context.Context, split string, results []shards.Result) error {
	if d.provider == nil || d.cfg.S3.Bucket == "" {
		return nil
	}

	files := make([]string, len(results))
	for i, res := range results {
		files[i] = res.Path
	}

	if err := storage.PublishFiles(ctx, d.provider, d.cfg.S3.Bucket, d.cfg.S3.Prefix, files); err != nil {
		return fmt.Errorf("error publishing split %s: %w", split, err)
	}
	return nil
}
