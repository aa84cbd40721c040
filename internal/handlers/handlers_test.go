package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zip"
	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/internal/services/export"
	"github.com/tablostudio/guestflow/internal/storage"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	queue   *services.SyncQueue
	tempDir string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := models.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mediaRoot := filepath.Join(dir, "media")
	seed(t, db, mediaRoot)

	store := services.NewGormStore(db)
	linker := services.NewLinker(store, store, store)
	tempDir := filepath.Join(dir, "tmp")
	exporter := export.NewExporter(linker, store, storage.NewLocalFiles(mediaRoot), tempDir)
	jobs := export.NewJobRunner(exporter, store, filepath.Join(dir, "exports"))
	queue := services.NewSyncQueue()
	queue.SetProcessor(jobs.Process)

	monitoringHandler := NewMonitoringHandler(
		services.NewMonitoringService(linker, store),
		services.NewSelectionService(linker, store, storage.NewURLBuilder("http://media.test")),
	)
	exportHandler := NewExportHandler(exporter, store, jobs, queue)

	r := gin.New()
	r.GET("/health", NewHealthHandler(db, queue).CheckHealth)
	api := r.Group("/api")
	api.GET("/galleries/:gallery_id/progress-summary", monitoringHandler.GetProgressSummary)
	gallery := api.Group("/projects/:project_id/galleries/:gallery_id")
	gallery.GET("/monitoring", monitoringHandler.GetMonitoring)
	gallery.GET("/monitoring/export", exportHandler.ExportReport)
	gallery.GET("/persons/:person_id/selections", monitoringHandler.GetPersonSelections)
	gallery.POST("/export-zip", exportHandler.ExportZip)
	gallery.POST("/export-zip/jobs", exportHandler.EnqueueZip)
	api.GET("/exports/:job_id", exportHandler.GetJob)

	return &testEnv{router: r, db: db, queue: queue, tempDir: tempDir}
}

// seed creates project 1 / gallery 7 with Anna (retouch in progress) and
// Bela (never opened).
func seed(t *testing.T, db *gorm.DB, mediaRoot string) {
	t.Helper()
	galleryID := uint(7)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(db.Create(&models.Gallery{ID: galleryID, Name: "Tablo"}).Error)
	must(db.Create(&models.Project{ID: 1, Name: "12.A", GalleryID: &galleryID}).Error)
	anna := models.RosterPerson{ProjectID: 1, Name: "Kovács Anna", Type: models.PersonTypeStudent}
	must(db.Create(&anna).Error)
	must(db.Create(&models.RosterPerson{ProjectID: 1, Name: "Nagy Bela", Type: models.PersonTypeStudent}).Error)

	userID := uint(50)
	must(db.Create(&models.GuestSession{
		ProjectID: 1, PersonID: &anna.ID, UserID: &userID, VerificationStatus: models.VerificationVerified,
	}).Error)
	must(db.Create(&models.MediaAsset{ID: 10, FileName: "IMG_0010.jpg"}).Error)
	must(db.Create(&models.MediaAsset{ID: 11, FileName: "IMG_0011.jpg"}).Error)
	must(db.Create(&models.WorkflowProgress{
		GalleryID:      galleryID,
		UserID:         userID,
		CurrentStep:    models.StepRetouch,
		WorkflowStatus: models.WorkflowInProgress,
		StepData: datatypes.NewJSONType(models.StepData{
			ClaimedMediaIDs: []uint{10, 11},
			RetouchMediaIDs: []uint{10, 11},
		}),
	}).Error)

	for _, m := range []struct{ id, name string }{{"10", "IMG_0010.jpg"}, {"11", "IMG_0011.jpg"}} {
		dir := filepath.Join(mediaRoot, m.id)
		must(os.MkdirAll(dir, 0755))
		must(os.WriteFile(filepath.Join(dir, m.name), []byte("photo "+m.id), 0644))
	}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %s: %v", w.Body.String(), err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestGetMonitoring(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/projects/1/galleries/7/monitoring", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp services.MonitoringResponse
	decodeData(t, w, &resp)
	expected := services.MonitoringSummary{TotalPersons: 2, Opened: 1, NotOpened: 1, InProgress: 1}
	if resp.Summary != expected {
		t.Errorf("summary = %+v, expected %+v", resp.Summary, expected)
	}
	if len(resp.Persons) != 2 || resp.Persons[0].RetouchCount != 2 {
		t.Errorf("persons = %+v", resp.Persons)
	}
}

func TestGetMonitoring_InvalidID(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/projects/abc/galleries/7/monitoring", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetProgressSummary(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/galleries/7/progress-summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var counts services.StepCounts
	decodeData(t, w, &counts)
	if counts.Retouch != 1 || counts.Total != 1 {
		t.Errorf("counts = %+v, expected one record in retouch", counts)
	}
}

func TestGetPersonSelections(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/projects/1/galleries/7/persons/1/selections", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var view services.SelectionView
	decodeData(t, w, &view)
	if len(view.Retouch) != 2 || *view.Retouch[0].URL != "http://media.test/10/IMG_0010.jpg" {
		t.Errorf("view = %+v", view)
	}

	w = env.do("GET", "/api/projects/1/galleries/7/persons/2/selections", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("person without session: status = %d", w.Code)
	}
	decodeData(t, w, &view)
	if len(view.Claimed) != 0 || view.Tablo != nil {
		t.Errorf("view = %+v, expected empty", view)
	}

	w = env.do("GET", "/api/projects/1/galleries/7/persons/99/selections", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown person: status = %d, expected %d", w.Code, http.StatusNotFound)
	}
}

func TestExportReport(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/api/projects/1/galleries/7/monitoring/export?status=in_progress", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "monitoring.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("report should be an xlsx (zip) document")
	}
	if left, _ := filepath.Glob(filepath.Join(env.tempDir, "*")); len(left) != 0 {
		t.Errorf("temp files left: %v", left)
	}

	w = env.do("GET", "/api/projects/1/galleries/7/monitoring/export?status=done", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid status: code = %d, expected %d", w.Code, http.StatusBadRequest)
	}

	w = env.do("GET", "/api/projects/5/galleries/7/monitoring/export", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown project: code = %d, expected %d", w.Code, http.StatusNotFound)
	}
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestExportZip(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/projects/1/galleries/7/export-zip", ZipExportRequest{
		ZipContent:   "retouch_only",
		FilenameMode: "name_based",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Export-Added"); got != "2" {
		t.Errorf("X-Export-Added = %q, expected 2", got)
	}

	names := zipNames(t, w.Body.Bytes())
	expected := map[string]bool{
		"12.A (1)/Kovács Anna/retouched/Kovács Anna_retusalt_1.jpg": true,
		"12.A (1)/Kovács Anna/retouched/Kovács Anna_retusalt_2.jpg": true,
	}
	if len(names) != len(expected) {
		t.Fatalf("entries = %q", names)
	}
	for _, name := range names {
		if !expected[name] {
			t.Errorf("unexpected entry %q", name)
		}
	}
	if left, _ := filepath.Glob(filepath.Join(env.tempDir, "*")); len(left) != 0 {
		t.Errorf("temp files left: %v", left)
	}
}

func TestExportZip_EmptyBodyUsesDefaults(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/projects/1/galleries/7/export-zip", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if names := zipNames(t, w.Body.Bytes()); len(names) != 2 {
		t.Errorf("entries = %q, expected both retouched photos", names)
	}
}

func TestExportZip_InvalidOption(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/projects/1/galleries/7/export-zip", ZipExportRequest{ZipContent: "everything"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusBadRequest)
	}
}

func TestExportJobs(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/projects/1/galleries/7/export-zip/jobs", ZipExportRequest{ZipContent: "all"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var job struct {
		JobID string `json:"job_id"`
		Async bool   `json:"async"`
	}
	decodeData(t, w, &job)
	if job.JobID == "" || job.Async {
		t.Fatalf("job = %+v", job)
	}

	if err := env.queue.Close(); err != nil {
		t.Fatal(err)
	}

	w = env.do("GET", "/api/exports/"+job.JobID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download status = %d, body = %s", w.Code, w.Body.String())
	}
	// retouched x2 and all x2
	if names := zipNames(t, w.Body.Bytes()); len(names) != 4 {
		t.Errorf("entries = %q", names)
	}

	if w := env.do("GET", "/api/exports/not-a-job", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown job: status = %d, expected %d", w.Code, http.StatusNotFound)
	}
}

func TestCheckHealth(t *testing.T) {
	env := setupEnv(t)

	w := env.do("GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "healthy" || body.Components["queue_mode"] != "sync" {
		t.Errorf("health = %+v", body)
	}
}
