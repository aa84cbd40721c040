package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/internal/storage"
	"github.com/tablostudio/guestflow/internal/utils"
	"github.com/tablostudio/guestflow/pkg/iptc"
	"github.com/tablostudio/guestflow/pkg/logger"
)

// ErrArchiveCreate wraps failures to create the archive file itself. Nothing
// is left on disk when it is returned.
var ErrArchiveCreate = errors.New("cannot create archive")

type archiveWriter interface {
	CreateHeader(fh *zip.FileHeader) (io.Writer, error)
	Close() error
}

// zipFile closes the underlying file together with the zip stream.
type zipFile struct {
	*zip.Writer
	file *os.File
}

func (z *zipFile) Close() error {
	err := z.Writer.Close()
	if cerr := z.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func createZip(p string) (archiveWriter, error) {
	f, err := os.Create(p)
	if err != nil {
		return nil, err
	}
	return &zipFile{Writer: zip.NewWriter(f), file: f}, nil
}

// Exporter builds the monitoring report and the selection archive of a
// gallery. Every call works on its own temp files; an Exporter can be shared.
type Exporter struct {
	linker  *services.Linker
	media   services.MediaLookup
	files   storage.Files
	tempDir string
	log     zerolog.Logger

	openArchive func(path string) (archiveWriter, error)
	now         func() time.Time
}

func NewExporter(linker *services.Linker, media services.MediaLookup, files storage.Files, tempDir string) *Exporter {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Exporter{
		linker:      linker,
		media:       media,
		files:       files,
		tempDir:     tempDir,
		log:         logger.Component("export"),
		openArchive: createZip,
		now:         time.Now,
	}
}

// ZipRequest describes one archive export.
type ZipRequest struct {
	Project    models.Project
	GalleryID  uint
	PersonIDs  []uint // empty means the whole roster
	Content    ZipContent
	Filenames  FilenamePolicy
	PersonType PersonTypeFilter
	ReportPath string // optional file copied into the archive root
}

// ExportResult points at a finished archive. The caller owns the file.
type ExportResult struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Persons int    `json:"persons"`
}

// ExportGalleryZip writes the selections of every matching person into a new
// ZIP file under the temp dir:
//
//	{project} ({id})/{person}/{retouched|tablo photo|all}/{file}
//
// Missing media records or files are logged and skipped. Persons without a
// progress record and persons whose selection yields no file get no folder.
func (e *Exporter) ExportGalleryZip(ctx context.Context, req *ZipRequest) (result *ExportResult, err error) {
	start := time.Now()

	links, err := e.linker.Link(ctx, req.Project.ID, req.GalleryID)
	if err != nil {
		return nil, err
	}
	links = filterPersons(links, req.PersonIDs, req.PersonType)

	var ids []uint
	for i := range links {
		if p := links[i].Progress; p != nil {
			for _, cat := range contentCategories(req.Content) {
				ids = append(ids, categoryIDs(p, cat)...)
			}
		}
	}
	media, err := services.LoadMediaIndex(ctx, e.media, services.UniqueMediaIDs(ids, nil, nil))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveCreate, err)
	}
	archivePath := filepath.Join(e.tempDir, fmt.Sprintf("gallery_%d_%s.zip", req.Project.ID, uuid.NewString()))
	archive, err := e.openArchive(archivePath)
	if err != nil {
		_ = os.Remove(archivePath)
		return nil, fmt.Errorf("%w: %w", ErrArchiveCreate, err)
	}

	// Registered first so the copies are removed after the archive is closed.
	temps := newTempFiles(e.tempDir, e.log)
	defer temps.cleanup()

	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = archive.Close()
		}
		if rmErr := os.Remove(archivePath); rmErr != nil && !os.IsNotExist(rmErr) {
			e.log.Warn().Err(rmErr).Str("path", archivePath).Msg("Failed to remove partial archive")
		}
	}()

	run := &archiveRun{
		Exporter: e,
		req:      req,
		archive:  archive,
		media:    media,
		temps:    temps,
		top:      projectFolder(&req.Project),
		folders:  utils.NewUniqueNames(),
		modified: e.now(),
		result:   &ExportResult{Path: archivePath},
	}

	for i := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if links[i].Progress == nil {
			continue
		}
		if err := run.addPerson(ctx, &links[i]); err != nil {
			return nil, err
		}
	}

	if req.ReportPath != "" {
		if err := run.addReport(req.ReportPath, ReportName(&req.Project)); err != nil {
			return nil, err
		}
	}

	closed = true
	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	elapsed := time.Since(start)
	services.ExportDuration.WithLabelValues("zip").Observe(elapsed.Seconds())
	e.log.Info().
		Uint("project_id", req.Project.ID).
		Uint("gallery_id", req.GalleryID).
		Int("persons", run.result.Persons).
		Int("added", run.result.Added).
		Int("skipped", run.result.Skipped).
		Dur("duration", elapsed).
		Msg("Gallery archive exported")
	return run.result, nil
}

// archiveRun is the state of one ExportGalleryZip call.
type archiveRun struct {
	*Exporter
	req      *ZipRequest
	archive  archiveWriter
	media    map[uint]*models.MediaAsset
	temps    *tempFiles
	top      string
	folders  *utils.UniqueNames
	modified time.Time
	result   *ExportResult
}

func (r *archiveRun) addPerson(ctx context.Context, link *services.PersonLink) error {
	personName := personFolder(&link.Person)
	folder := ""
	names := utils.NewUniqueNames()

	for _, cat := range contentCategories(r.req.Content) {
		for i, id := range categoryIDs(link.Progress, cat) {
			asset := r.media[id]
			if asset == nil {
				r.skip(link, id, "", "media record missing")
				continue
			}

			src, exists, err := r.files.LocalPath(ctx, asset)
			if err != nil || !exists {
				reason := "file missing"
				if err != nil {
					reason = err.Error()
				}
				r.skip(link, id, src, reason)
				continue
			}
			if r.req.Filenames == FilenameEmbedded && isJPEG(asset) {
				src = r.annotate(src, asset, link.Person.Name)
			}

			f, err := os.Open(src)
			if err != nil {
				r.skip(link, id, src, err.Error())
				continue
			}

			if folder == "" {
				folder = r.folders.ReserveDir(personName)
			}
			name := names.Reserve(entryName(r.req.Filenames, personName, cat, i+1, asset))
			err = r.write(path.Join(r.top, folder, cat.folder, name), f, zip.Store)
			f.Close()
			if err != nil {
				return err
			}

			r.result.Added++
			services.ExportFiles.WithLabelValues("added").Inc()
		}
	}

	if folder != "" {
		r.result.Persons++
	}
	return nil
}

// annotate returns the path of a temp copy carrying title, or src when the
// embedding failed.
func (r *archiveRun) annotate(src string, asset *models.MediaAsset, title string) string {
	dst := r.temps.next(asset.Extension())
	if err := iptc.EmbedTitleFile(src, dst, title); err != nil {
		r.log.Debug().Err(err).Uint("media_id", asset.ID).Msg("Metadata not embedded")
		return src
	}
	services.ExportFiles.WithLabelValues("annotated").Inc()
	return dst
}

func (r *archiveRun) addReport(reportPath, name string) error {
	f, err := os.Open(reportPath)
	if err != nil {
		r.log.Warn().Err(err).Str("path", reportPath).Msg("Report not added to archive")
		return nil
	}
	defer f.Close()
	return r.write(name, f, zip.Deflate)
}

func (r *archiveRun) write(name string, src io.Reader, method uint16) error {
	w, err := r.archive.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: r.modified,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (r *archiveRun) skip(link *services.PersonLink, mediaID uint, p, reason string) {
	r.result.Skipped++
	services.ExportFiles.WithLabelValues("skipped").Inc()
	r.log.Warn().
		Uint("person_id", link.Person.ID).
		Uint("media_id", mediaID).
		Str("path", p).
		Str("reason", reason).
		Msg("Skipping file")
}

func contentCategories(content ZipContent) []category {
	var cats []category
	for _, cat := range []category{categoryRetouch, categoryTablo, categoryAll} {
		if content.includes(cat) {
			cats = append(cats, cat)
		}
	}
	return cats
}

func categoryIDs(p *models.WorkflowProgress, cat category) []uint {
	switch cat {
	case categoryRetouch:
		return p.EffectiveRetouchIDs()
	case categoryTablo:
		if id := p.EffectiveTabloID(); id != nil {
			return []uint{*id}
		}
	case categoryAll:
		return p.ClaimedIDs()
	}
	return nil
}

// filterPersons applies the id allow-list and the person type filter.
func filterPersons(links []services.PersonLink, personIDs []uint, personType PersonTypeFilter) []services.PersonLink {
	allowed := make(map[uint]struct{}, len(personIDs))
	for _, id := range personIDs {
		allowed[id] = struct{}{}
	}

	out := make([]services.PersonLink, 0, len(links))
	for _, link := range links {
		if len(allowed) > 0 {
			if _, ok := allowed[link.Person.ID]; !ok {
				continue
			}
		}
		if personType != "" && personType != PersonTypeAll && string(link.Person.Type) != string(personType) {
			continue
		}
		out = append(out, link)
	}
	return out
}
