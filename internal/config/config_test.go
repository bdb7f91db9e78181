package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./mpii_human_pose_v1_u12_2/train.json", cfg.TrainAnnotations)
	assert.Equal(t, "./mpii_human_pose_v1_u12_2/validation.json", cfg.ValAnnotations)
	assert.Equal(t, "./mpii/images/", cfg.ImageDir)
	assert.Equal(t, "./tfrecords_mpii", cfg.OutputDir)
	assert.Equal(t, 64, cfg.NumTrainShards)
	assert.Equal(t, 8, cfg.NumValShards)
	assert.Equal(t, 0, cfg.MaxTrainImages)
	assert.Equal(t, 0, cfg.MaxValImages)
	assert.True(t, cfg.LegacyYFallback)
	assert.Equal(t, 95, cfg.JPEGQuality)
	assert.Empty(t, cfg.S3.Bucket)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
train_annotations: /data/train.json
num_train_shards: 16
max_val_images: 100
legacy_y_fallback: false
s3:
  bucket: datasets
  prefix: mpii
`), 0o644))

	t.Setenv("NUM_TRAIN_SHARDS", "32")
	t.Setenv("OUTPUT_DIR", "/out")
	t.Setenv("S3_PREFIX", "mpii/v2")
	t.Setenv("CONCURRENT_SPLITS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/train.json", cfg.TrainAnnotations)
	assert.Equal(t, 32, cfg.NumTrainShards)
	assert.Equal(t, 8, cfg.NumValShards)
	assert.Equal(t, 100, cfg.MaxValImages)
	assert.Equal(t, "/out", cfg.OutputDir)
	assert.False(t, cfg.LegacyYFallback)
	assert.True(t, cfg.ConcurrentSplits)
	assert.Equal(t, "datasets", cfg.S3.Bucket)
	assert.Equal(t, "mpii/v2", cfg.S3.Prefix)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
}

func TestLoad_UnknownFileKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_shards: 3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("NUM_VAL_SHARDS", "eight")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero train shards", func(c *Config) { c.NumTrainShards = 0 }},
		{"negative val shards", func(c *Config) { c.NumValShards = -2 }},
		{"negative cap", func(c *Config) { c.MaxTrainImages = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"quality too high", func(c *Config) { c.JPEGQuality = 101 }},
		{"no image dir", func(c *Config) { c.ImageDir = "" }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
