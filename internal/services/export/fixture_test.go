package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/internal/storage"
	"gorm.io/datatypes"
)

// fixture is an in-memory gallery with media files on a temp disk.
type fixture struct {
	t        *testing.T
	root     string
	tempDir  string
	project  models.Project
	persons  []models.RosterPerson
	sessions []models.GuestSession
	progress []models.WorkflowProgress
	media    []models.MediaAsset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:       t,
		root:    t.TempDir(),
		tempDir: t.TempDir(),
		project: models.Project{ID: 42, Name: "12.A Tablo 2024"},
	}
}

// addPerson puts a verified person with the given step data on the roster.
// A nil data leaves the person without a progress record.
func (f *fixture) addPerson(name string, typ models.PersonType, data *models.StepData) uint {
	id := uint(len(f.persons) + 1)
	userID := 100 + id
	f.persons = append(f.persons, models.RosterPerson{ID: id, ProjectID: f.project.ID, Name: name, Type: typ})
	f.sessions = append(f.sessions, models.GuestSession{
		ID:                 id,
		ProjectID:          f.project.ID,
		PersonID:           &id,
		UserID:             &userID,
		VerificationStatus: models.VerificationVerified,
	})
	if data != nil {
		f.progress = append(f.progress, models.WorkflowProgress{
			ID:             id,
			GalleryID:      7,
			UserID:         userID,
			CurrentStep:    models.StepRetouch,
			WorkflowStatus: models.WorkflowInProgress,
			StepData:       datatypes.NewJSONType(*data),
		})
	}
	return id
}

// addMedia registers a media record and, unless missing, writes its file.
func (f *fixture) addMedia(id uint, fileName string, content []byte, missing bool) {
	f.media = append(f.media, models.MediaAsset{ID: id, FileName: fileName})
	if missing {
		return
	}
	dir := filepath.Join(f.root, strconv.FormatUint(uint64(id), 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName), content, 0644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) exporter() *Exporter {
	linker := services.NewLinker(f, f, f)
	return NewExporter(linker, f, storage.NewLocalFiles(f.root), f.tempDir)
}

func (f *fixture) ListPersons(_ context.Context, projectID uint) ([]models.RosterPerson, error) {
	return f.persons, nil
}

func (f *fixture) GetPerson(_ context.Context, projectID, personID uint) (*models.RosterPerson, error) {
	for i := range f.persons {
		if f.persons[i].ID == personID {
			return &f.persons[i], nil
		}
	}
	return nil, services.ErrPersonNotFound
}

func (f *fixture) ListVerifiedSessions(_ context.Context, projectID uint) ([]models.GuestSession, error) {
	return f.sessions, nil
}

func (f *fixture) ListVerifiedSessionsOfPerson(_ context.Context, projectID, personID uint) ([]models.GuestSession, error) {
	var out []models.GuestSession
	for _, s := range f.sessions {
		if *s.PersonID == personID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fixture) ListProgress(_ context.Context, galleryID uint) ([]models.WorkflowProgress, error) {
	return f.progress, nil
}

func (f *fixture) FindProgress(_ context.Context, galleryID, userID uint) (*models.WorkflowProgress, error) {
	for i := range f.progress {
		if f.progress[i].UserID == userID {
			return &f.progress[i], nil
		}
	}
	return nil, nil
}

func (f *fixture) GetMediaByIDs(_ context.Context, ids []uint) ([]models.MediaAsset, error) {
	var out []models.MediaAsset
	for _, id := range ids {
		for _, m := range f.media {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func sampleJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func tempCopies(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, tempCopyPrefix+"*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func idList(v ...uint) []uint { return v }

func idPtr(v uint) *uint { return &v }

func (f *fixture) GetProject(_ context.Context, projectID uint) (*models.Project, error) {
	if projectID != f.project.ID {
		return nil, errors.New("record not found")
	}
	p := f.project
	return &p, nil
}
