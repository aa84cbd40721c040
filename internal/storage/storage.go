// Package storage resolves media assets to files on the local filesystem,
// either directly from a disk root or through a download cache in front of an
// S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/internal/models"
)

var ErrMediaMissing = errors.New("media file missing")

// Files gives access to the original bytes of media assets.
type Files interface {
	// LocalPath returns a readable path for the asset's original file. exists
	// is false when the asset has no backing file; err is reserved for
	// backend failures.
	LocalPath(ctx context.Context, asset *models.MediaAsset) (path string, exists bool, err error)
}

// NewFiles builds the Files implementation selected by cfg.Driver.
func NewFiles(cfg *config.StorageConfig) (Files, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalFiles(cfg.Root), nil
	case "s3", "minio":
		return NewMinioFiles(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
