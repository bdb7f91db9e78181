package integrationtests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pose-records/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	bucketName = "test-bucket"

	minioUsername = "admin"
	minioPassword = "password"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := testcontainers.TerminateContainer(minioContainer)
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupTestProvider(t *testing.T, ctx context.Context) *storage.S3Provider {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}

	endpoint := setupMinioContainer(t, ctx)

	provider, err := storage.NewS3Provider(ctx, storage.S3ProviderConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)
	return provider
}

func TestS3Provider_PutAndList(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	provider := setupTestProvider(t, ctx)

	require.NoError(t, provider.CreateBucket(ctx, bucketName))
	// Creating an existing bucket is not an error.
	require.NoError(t, provider.CreateBucket(ctx, bucketName))

	content := []byte("Test content")
	require.NoError(t, provider.PutObject(ctx, bucketName, "mpii/train_0001_of_0001.tfrecords", bytes.NewReader(content)))

	objects, err := provider.ListObjects(ctx, bucketName, "mpii/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "mpii/train_0001_of_0001.tfrecords", objects[0].Name)
	assert.Equal(t, int64(len(content)), objects[0].Size)
}

func TestS3Provider_PublishFiles(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	provider := setupTestProvider(t, ctx)

	dir := t.TempDir()
	var files []string
	for _, name := range []string{"val_0001_of_0002.tfrecords", "val_0002_of_0002.tfrecords"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
		files = append(files, path)
	}

	require.NoError(t, storage.PublishFiles(ctx, provider, bucketName, "mpii", files))

	objects, err := provider.ListObjects(ctx, bucketName, "mpii/")
	require.NoError(t, err)
	assert.Len(t, objects, 2)
}
