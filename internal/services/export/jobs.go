package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tablostudio/guestflow/internal/models"
	"github.com/tablostudio/guestflow/internal/services"
)

// JobState is the lifecycle of a queued export.
type JobState string

const (
	JobPending JobState = "pending"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

var ErrJobNotFound = errors.New("export job not found")

// JobStatus is stored next to the archive as <job-id>.json.
type JobStatus struct {
	JobID      string     `json:"job_id"`
	State      JobState   `json:"state"`
	Error      string     `json:"error,omitempty"`
	Added      int        `json:"added"`
	Skipped    int        `json:"skipped"`
	Persons    int        `json:"persons"`
	QueuedAt   time.Time  `json:"queued_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// JobRunner executes queued archive exports and keeps their results in the
// output directory until the janitor expires them.
type JobRunner struct {
	exporter  *Exporter
	projects  ProjectLookup
	outputDir string
}

// ProjectLookup loads the project an export is generated for.
type ProjectLookup interface {
	GetProject(ctx context.Context, projectID uint) (*models.Project, error)
}

func NewJobRunner(exporter *Exporter, projects ProjectLookup, outputDir string) *JobRunner {
	return &JobRunner{exporter: exporter, projects: projects, outputDir: outputDir}
}

// NewJobID returns a fresh id for an export task.
func NewJobID() string {
	return uuid.NewString()
}

// ValidJobID guards file lookups against ids that are not ours.
func ValidJobID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ArchivePath is where the finished archive of a job is stored.
func (r *JobRunner) ArchivePath(jobID string) string {
	return filepath.Join(r.outputDir, jobID+".zip")
}

func (r *JobRunner) statusPath(jobID string) string {
	return filepath.Join(r.outputDir, jobID+".json")
}

// Submit validates the task options, records it as pending and hands it to
// the queue.
func (r *JobRunner) Submit(queue services.TaskQueue, task *services.ExportTask) error {
	if _, err := taskRequest(task, &models.Project{}); err != nil {
		return err
	}
	if task.JobID == "" {
		task.JobID = NewJobID()
	}
	if task.RequestedAt.IsZero() {
		task.RequestedAt = time.Now()
	}
	if err := r.writeStatus(&JobStatus{JobID: task.JobID, State: JobPending, QueuedAt: task.RequestedAt}); err != nil {
		return err
	}
	return queue.Enqueue(task)
}

// Process runs one queued export. It is the processor of both the sync queue
// and the Redis worker.
func (r *JobRunner) Process(ctx context.Context, task *services.ExportTask) error {
	status := &JobStatus{JobID: task.JobID, State: JobFailed, QueuedAt: task.RequestedAt}
	result, err := r.run(ctx, task)
	now := time.Now()
	status.FinishedAt = &now
	if err != nil {
		status.Error = err.Error()
	} else {
		status.State = JobDone
		status.Added, status.Skipped, status.Persons = result.Added, result.Skipped, result.Persons
	}
	if werr := r.writeStatus(status); werr != nil && err == nil {
		err = werr
	}
	return err
}

func (r *JobRunner) run(ctx context.Context, task *services.ExportTask) (*ExportResult, error) {
	project, err := r.projects.GetProject(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project %d: %w", task.ProjectID, err)
	}
	req, err := taskRequest(task, project)
	if err != nil {
		return nil, err
	}

	if task.IncludeReport {
		report, err := r.exporter.ExportMonitoringReport(ctx, task.ProjectID, task.GalleryID, StatusAll)
		if err != nil {
			return nil, err
		}
		defer os.Remove(report)
		req.ReportPath = report
	}

	result, err := r.exporter.ExportGalleryZip(ctx, req)
	if err != nil {
		return nil, err
	}
	defer os.Remove(result.Path)

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return nil, err
	}
	dst := r.ArchivePath(task.JobID)
	if err := MoveFile(result.Path, dst); err != nil {
		return nil, fmt.Errorf("store archive: %w", err)
	}
	result.Path = dst
	return result, nil
}

// Status reads the recorded state of a job.
func (r *JobRunner) Status(jobID string) (*JobStatus, error) {
	if !ValidJobID(jobID) {
		return nil, ErrJobNotFound
	}
	data, err := os.ReadFile(r.statusPath(jobID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *JobRunner) writeStatus(status *JobStatus) error {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	tmp := r.statusPath(status.JobID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.statusPath(status.JobID))
}

func taskRequest(task *services.ExportTask, project *models.Project) (*ZipRequest, error) {
	content, err := ParseZipContent(task.ZipContent)
	if err != nil {
		return nil, err
	}
	filenames, err := ParseFilenamePolicy(task.FilenameMode)
	if err != nil {
		return nil, err
	}
	personType, err := ParsePersonTypeFilter(task.PersonType)
	if err != nil {
		return nil, err
	}
	return &ZipRequest{
		Project:    *project,
		GalleryID:  task.GalleryID,
		PersonIDs:  task.PersonIDs,
		Content:    content,
		Filenames:  filenames,
		PersonType: personType,
	}, nil
}

// MoveFile renames src to dst and falls back to copying across filesystems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
