package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

type S3Config struct {
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	Prefix          string `yaml:"prefix" env:"PREFIX"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	Region          string `yaml:"region" env:"REGION"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
}

type Config struct {
	TrainAnnotations string `yaml:"train_annotations" env:"TRAIN_ANNOTATIONS"`
	ValAnnotations   string `yaml:"val_annotations" env:"VAL_ANNOTATIONS"`
	ImageDir         string `yaml:"image_dir" env:"IMAGE_DIR"`
	OutputDir        string `yaml:"output_dir" env:"OUTPUT_DIR"`

	NumTrainShards int `yaml:"num_train_shards" env:"NUM_TRAIN_SHARDS"`
	NumValShards   int `yaml:"num_val_shards" env:"NUM_VAL_SHARDS"`

	// Caps on the number of annotations per split, 0 means all.
	MaxTrainImages int `yaml:"max_train_images" env:"MAX_TRAIN_IMAGES"`
	MaxValImages   int `yaml:"max_val_images" env:"MAX_VAL_IMAGES"`

	Workers          int  `yaml:"workers" env:"WORKERS"`
	ConcurrentSplits bool `yaml:"concurrent_splits" env:"CONCURRENT_SPLITS"`
	LegacyYFallback  bool `yaml:"legacy_y_fallback" env:"LEGACY_Y_FALLBACK"`
	JPEGQuality      int  `yaml:"jpeg_quality" env:"JPEG_QUALITY"`

	CatalogPath string   `yaml:"catalog_path" env:"CATALOG_PATH"`
	S3          S3Config `yaml:"s3" envPrefix:"S3_"`

	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile      string `yaml:"log_file" env:"LOG_FILE"`
	ShowProgress bool   `yaml:"show_progress" env:"SHOW_PROGRESS"`
}

func Default() *Config {
	return &Config{
		TrainAnnotations: "./mpii_human_pose_v1_u12_2/train.json",
		ValAnnotations:   "./mpii_human_pose_v1_u12_2/validation.json",
		ImageDir:         "./mpii/images/",
		OutputDir:        "./tfrecords_mpii",
		NumTrainShards:   64,
		NumValShards:     8,
		LegacyYFallback:  true,
		JPEGQuality:      95,
		S3:               S3Config{Region: "us-east-1"},
		LogLevel:         "info",
	}
}

// Load starts from Default, applies the YAML file at path if one is given,
// then applies any set environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	require := func(name, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s must be set", name))
		}
	}
	require("TRAIN_ANNOTATIONS", c.TrainAnnotations)
	require("VAL_ANNOTATIONS", c.ValAnnotations)
	require("IMAGE_DIR", c.ImageDir)
	require("OUTPUT_DIR", c.OutputDir)

	if c.NumTrainShards < 1 {
		errs = append(errs, fmt.Errorf("NUM_TRAIN_SHARDS must be at least 1, got %d", c.NumTrainShards))
	}
	if c.NumValShards < 1 {
		errs = append(errs, fmt.Errorf("NUM_VAL_SHARDS must be at least 1, got %d", c.NumValShards))
	}
	if c.MaxTrainImages < 0 {
		errs = append(errs, fmt.Errorf("MAX_TRAIN_IMAGES must not be negative, got %d", c.MaxTrainImages))
	}
	if c.MaxValImages < 0 {
		errs = append(errs, fmt.Errorf("MAX_VAL_IMAGES must not be negative, got %d", c.MaxValImages))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("WORKERS must not be negative, got %d", c.Workers))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", c.JPEGQuality))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
