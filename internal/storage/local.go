package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tablostudio/guestflow/internal/models"
)

// LocalFiles serves media from a directory laid out as <root>/<id>/<file_name>.
type LocalFiles struct {
	root string
}

func NewLocalFiles(root string) *LocalFiles {
	return &LocalFiles{root: root}
}

func (f *LocalFiles) LocalPath(_ context.Context, asset *models.MediaAsset) (string, bool, error) {
	path := filepath.Join(f.root, filepath.FromSlash(asset.StorageKey()))
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, false, nil
		}
		return path, false, err
	}
	if info.IsDir() {
		return path, false, nil
	}
	return path, true, nil
}
