package services

import (
	"context"
	"time"

	"github.com/tablostudio/guestflow/internal/models"
)

// StaleAfterDays is the inactivity (in whole days) after which an unfinished
// guest is flagged.
const StaleAfterDays = 5

type MonitoringService struct {
	linker   *Linker
	progress ProgressLookup
	now      func() time.Time
}

func NewMonitoringService(linker *Linker, progress ProgressLookup) *MonitoringService {
	return &MonitoringService{linker: linker, progress: progress, now: time.Now}
}

// MonitoringRow is the per-person line of the monitoring table
type MonitoringRow struct {
	PersonID              uint                   `json:"person_id"`
	Name                  string                 `json:"name"`
	Type                  models.PersonType      `json:"type"`
	HasOpened             bool                   `json:"has_opened"`
	LastActivityAt        *time.Time             `json:"last_activity_at"`
	CurrentStep           *models.WorkflowStep   `json:"current_step"`
	WorkflowStatus        *models.WorkflowStatus `json:"workflow_status"`
	ClaimedCount          int                    `json:"claimed_count"`
	RetouchCount          int                    `json:"retouch_count"`
	HasTabloPhoto         bool                   `json:"has_tablo_photo"`
	FinalizedAt           *time.Time             `json:"finalized_at"`
	DaysSinceLastActivity *int                   `json:"days_since_last_activity"`
	StaleWarning          bool                   `json:"stale_warning"`
}

type MonitoringSummary struct {
	TotalPersons int `json:"total_persons"`
	Opened       int `json:"opened"`
	NotOpened    int `json:"not_opened"`
	Finalized    int `json:"finalized"`
	InProgress   int `json:"in_progress"`
	StaleCount   int `json:"stale_count"`
}

type MonitoringResponse struct {
	Persons []MonitoringRow   `json:"persons"`
	Summary MonitoringSummary `json:"summary"`
}

// StepCounts is the funnel view: in-progress records per current step plus
// finalized and overall totals.
type StepCounts struct {
	Claiming  int `json:"claiming"`
	Retouch   int `json:"retouch"`
	Tablo     int `json:"tablo"`
	Completed int `json:"completed"`
	Finalized int `json:"finalized"`
	Total     int `json:"total"`
}

// GetMonitoring builds one row per roster person plus the summary counters.
func (s *MonitoringService) GetMonitoring(ctx context.Context, projectID, galleryID uint) (*MonitoringResponse, error) {
	links, err := s.linker.Link(ctx, projectID, galleryID)
	if err != nil {
		return nil, err
	}
	monitoringRequests.WithLabelValues("persons").Inc()

	now := s.now()
	resp := &MonitoringResponse{Persons: make([]MonitoringRow, 0, len(links))}
	for i := range links {
		row := BuildMonitoringRow(&links[i], now)
		resp.Persons = append(resp.Persons, row)
		resp.Summary.add(&row)
	}
	resp.Summary.NotOpened = resp.Summary.TotalPersons - resp.Summary.Opened
	return resp, nil
}

func (s *MonitoringSummary) add(row *MonitoringRow) {
	s.TotalPersons++
	if row.HasOpened {
		s.Opened++
	}
	if row.WorkflowStatus != nil {
		switch *row.WorkflowStatus {
		case models.WorkflowFinalized:
			s.Finalized++
		case models.WorkflowInProgress:
			s.InProgress++
		}
	}
	if row.StaleWarning {
		s.StaleCount++
	}
}

// BuildMonitoringRow derives a row from a link. A person with a session but no
// progress record gets the same empty counters as one without a session.
func BuildMonitoringRow(link *PersonLink, now time.Time) MonitoringRow {
	row := MonitoringRow{
		PersonID: link.Person.ID,
		Name:     link.Person.Name,
		Type:     link.Person.Type,
	}

	if link.Session != nil {
		row.HasOpened = true
		row.LastActivityAt = link.Session.LastActivityAt
		if days, ok := wholeDaysSince(link.Session.LastActivityAt, now); ok {
			row.DaysSinceLastActivity = &days
		}
	}

	if p := link.Progress; p != nil {
		step, status := p.CurrentStep, p.WorkflowStatus
		row.CurrentStep = &step
		row.WorkflowStatus = &status
		row.ClaimedCount = len(p.ClaimedIDs())
		row.RetouchCount = len(p.EffectiveRetouchIDs())
		row.HasTabloPhoto = p.EffectiveTabloID() != nil
		row.FinalizedAt = p.FinalizedAt
	}

	row.StaleWarning = row.HasOpened &&
		row.DaysSinceLastActivity != nil &&
		*row.DaysSinceLastActivity >= StaleAfterDays &&
		(row.WorkflowStatus == nil || *row.WorkflowStatus != models.WorkflowFinalized)

	return row
}

// wholeDaysSince counts completed 24h periods between t and now. Future
// timestamps (clock skew) count as zero days.
func wholeDaysSince(t *time.Time, now time.Time) (int, bool) {
	if t == nil {
		return 0, false
	}
	elapsed := now.Sub(*t)
	if elapsed < 0 {
		return 0, true
	}
	return int(elapsed / (24 * time.Hour)), true
}

// GetProgressSummary counts progress records of a gallery for the funnel view.
func (s *MonitoringService) GetProgressSummary(ctx context.Context, galleryID uint) (*StepCounts, error) {
	records, err := s.progress.ListProgress(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	monitoringRequests.WithLabelValues("steps").Inc()

	counts := &StepCounts{Total: len(records)}
	for i := range records {
		p := &records[i]
		if p.IsFinalized() {
			counts.Finalized++
			continue
		}
		if p.WorkflowStatus != models.WorkflowInProgress {
			continue
		}
		switch p.CurrentStep {
		case models.StepClaiming:
			counts.Claiming++
		case models.StepRetouch:
			counts.Retouch++
		case models.StepTablo:
			counts.Tablo++
		case models.StepCompleted:
			counts.Completed++
		}
	}
	return counts, nil
}
