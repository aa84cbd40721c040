package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/internal/models"
)

// MinioFiles downloads originals from an S3 compatible bucket into a local
// cache directory. Cached files are reused while their size matches the
// media record; the janitor removes stale ones.
type MinioFiles struct {
	client   *minio.Client
	bucket   string
	cacheDir string
}

func NewMinioFiles(cfg *config.StorageConfig) (*MinioFiles, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create media cache dir: %w", err)
	}
	return &MinioFiles{client: client, bucket: cfg.Bucket, cacheDir: cfg.CacheDir}, nil
}

func (f *MinioFiles) LocalPath(ctx context.Context, asset *models.MediaAsset) (string, bool, error) {
	key := asset.StorageKey()
	path := filepath.Join(f.cacheDir, filepath.FromSlash(key))

	if info, err := os.Stat(path); err == nil && !info.IsDir() && (asset.Size == 0 || info.Size() == asset.Size) {
		return path, true, nil
	}

	if _, err := f.client.StatObject(ctx, f.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return path, false, nil
		}
		return path, false, fmt.Errorf("stat object %s: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return path, false, err
	}
	if err := f.client.FGetObject(ctx, f.bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return path, false, fmt.Errorf("download object %s: %w", key, err)
	}
	return path, true, nil
}

// CacheDir is swept by the janitor.
func (f *MinioFiles) CacheDir() string {
	return f.cacheDir
}
