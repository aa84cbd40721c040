package handlers

import (
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/internal/services/export"
	"github.com/tablostudio/guestflow/pkg/response"
)

type ExportHandler struct {
	exporter *export.Exporter
	projects export.ProjectLookup
	jobs     *export.JobRunner
	queue    services.TaskQueue
}

func NewExportHandler(exporter *export.Exporter, projects export.ProjectLookup, jobs *export.JobRunner, queue services.TaskQueue) *ExportHandler {
	return &ExportHandler{exporter: exporter, projects: projects, jobs: jobs, queue: queue}
}

type ReportRequest struct {
	Status string `form:"status"`
}

// ZipExportRequest is the body of both archive endpoints. Every field is
// optional.
type ZipExportRequest struct {
	PersonIDs     []uint `json:"person_ids"`
	ZipContent    string `json:"zip_content"`
	FilenameMode  string `json:"filename_mode"`
	PersonType    string `json:"person_type"`
	IncludeReport bool   `json:"include_report"`
}

// ExportReport streams the monitoring spreadsheet
// GET /api/projects/:project_id/galleries/:gallery_id/monitoring/export?status=
func (h *ExportHandler) ExportReport(c *gin.Context) {
	projectID, galleryID, err := scope(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	status, err := export.ParseStatusFilter(req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	project, err := h.projects.GetProject(c.Request.Context(), projectID)
	if err != nil {
		fail(c, err)
		return
	}

	path, err := h.exporter.ExportMonitoringReport(c.Request.Context(), projectID, galleryID, status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Attachment(c, path, export.ReportName(project), true)
}

// ExportZip builds the selection archive and streams it
// POST /api/projects/:project_id/galleries/:gallery_id/export-zip
func (h *ExportHandler) ExportZip(c *gin.Context) {
	task, ok := h.bindZipTask(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	project, err := h.projects.GetProject(ctx, task.ProjectID)
	if err != nil {
		fail(c, err)
		return
	}
	req := &export.ZipRequest{Project: *project, GalleryID: task.GalleryID, PersonIDs: task.PersonIDs}
	if req.Content, err = export.ParseZipContent(task.ZipContent); err != nil {
		fail(c, err)
		return
	}
	if req.Filenames, err = export.ParseFilenamePolicy(task.FilenameMode); err != nil {
		fail(c, err)
		return
	}
	if req.PersonType, err = export.ParsePersonTypeFilter(task.PersonType); err != nil {
		fail(c, err)
		return
	}

	if task.IncludeReport {
		report, err := h.exporter.ExportMonitoringReport(ctx, task.ProjectID, task.GalleryID, export.StatusAll)
		if err != nil {
			fail(c, err)
			return
		}
		defer os.Remove(report)
		req.ReportPath = report
	}

	result, err := h.exporter.ExportGalleryZip(ctx, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("X-Export-Added", strconv.Itoa(result.Added))
	c.Header("X-Export-Skipped", strconv.Itoa(result.Skipped))
	response.Attachment(c, result.Path, export.ArchiveName(project), true)
}

// EnqueueZip queues an archive export and returns its job id
// POST /api/projects/:project_id/galleries/:gallery_id/export-zip/jobs
func (h *ExportHandler) EnqueueZip(c *gin.Context) {
	task, ok := h.bindZipTask(c)
	if !ok {
		return
	}
	if _, err := h.projects.GetProject(c.Request.Context(), task.ProjectID); err != nil {
		fail(c, err)
		return
	}

	if err := h.jobs.Submit(h.queue, task); err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, gin.H{
		"job_id": task.JobID,
		"state":  export.JobPending,
		"async":  h.queue.IsAsync(),
		"url":    "/api/exports/" + task.JobID,
	})
}

// GetJob reports a queued export or downloads its archive once done
// GET /api/exports/:job_id
func (h *ExportHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	status, err := h.jobs.Status(jobID)
	if err != nil {
		fail(c, err)
		return
	}

	switch status.State {
	case export.JobDone:
		response.Attachment(c, h.jobs.ArchivePath(jobID), "export-"+jobID+".zip", false)
	case export.JobPending:
		response.Accepted(c, status)
	default:
		response.Success(c, status)
	}
}

func (h *ExportHandler) bindZipTask(c *gin.Context) (*services.ExportTask, bool) {
	projectID, galleryID, err := scope(c)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	var req ZipExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return nil, false
		}
	}
	return &services.ExportTask{
		ProjectID:     projectID,
		GalleryID:     galleryID,
		PersonIDs:     req.PersonIDs,
		ZipContent:    req.ZipContent,
		FilenameMode:  req.FilenameMode,
		PersonType:    req.PersonType,
		IncludeReport: req.IncludeReport,
		RequestedAt:   time.Now(),
	}, true
}
