package export

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// tempCopyPrefix names the annotated copies written for the embedded metadata
// policy.
const tempCopyPrefix = "iptc_"

// tempFiles tracks the temporary copies of one export call. It is not safe
// for concurrent use and never outlives the call that created it.
type tempFiles struct {
	dir   string
	paths []string
	log   zerolog.Logger
}

func newTempFiles(dir string, log zerolog.Logger) *tempFiles {
	return &tempFiles{dir: dir, log: log}
}

// next registers and returns a fresh path for a copy with the given extension.
// The file itself is created by the caller.
func (t *tempFiles) next(ext string) string {
	name := tempCopyPrefix + uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	p := filepath.Join(t.dir, name)
	t.paths = append(t.paths, p)
	return p
}

// cleanup removes every registered copy. Paths that were never written are
// ignored.
func (t *tempFiles) cleanup() {
	for _, p := range t.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.log.Warn().Err(err).Str("path", p).Msg("Failed to remove temp copy")
		}
	}
	t.paths = nil
}
