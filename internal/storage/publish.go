package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// PublishFiles uploads each file to bucket under prefix, keyed by its base
// name.
func PublishFiles(ctx context.Context, p Provider, bucket, prefix string, files []string) error {
	if err := p.CreateBucket(ctx, bucket); err != nil {
		return err
	}

	for _, file := range files {
		key := path.Join(prefix, filepath.Base(file))
		if err := putFile(ctx, p, bucket, key, file); err != nil {
			return err
		}
	}

	slog.Info("published shard files", "bucket", bucket, "prefix", prefix, "files", len(files))
	return nil
}

func putFile(ctx context.Context, p Provider, bucket, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	return p.PutObject(ctx, bucket, key, f)
}
