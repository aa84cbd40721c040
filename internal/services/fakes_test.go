package services

import (
	"context"
	"sort"
	"time"

	"github.com/tablostudio/guestflow/internal/models"
	"gorm.io/datatypes"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	projects map[uint]models.Project
	persons  []models.RosterPerson
	sessions []models.GuestSession
	progress []models.WorkflowProgress
	media    []models.MediaAsset

	calls        map[string]int
	mediaQueries [][]uint
	err          error
}

func newMemStore() *memStore {
	return &memStore{projects: map[uint]models.Project{}, calls: map[string]int{}}
}

func (m *memStore) ListPersons(_ context.Context, projectID uint) ([]models.RosterPerson, error) {
	m.calls["ListPersons"]++
	if m.err != nil {
		return nil, m.err
	}
	var out []models.RosterPerson
	for _, p := range m.persons {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetPerson(_ context.Context, projectID, personID uint) (*models.RosterPerson, error) {
	m.calls["GetPerson"]++
	for _, p := range m.persons {
		if p.ProjectID == projectID && p.ID == personID {
			p := p
			return &p, nil
		}
	}
	return nil, ErrPersonNotFound
}

func (m *memStore) ListVerifiedSessions(_ context.Context, projectID uint) ([]models.GuestSession, error) {
	m.calls["ListVerifiedSessions"]++
	var out []models.GuestSession
	for _, s := range m.sessions {
		if s.ProjectID == projectID && s.IsVerified() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListVerifiedSessionsOfPerson(ctx context.Context, projectID, personID uint) ([]models.GuestSession, error) {
	all, _ := m.ListVerifiedSessions(ctx, projectID)
	var out []models.GuestSession
	for _, s := range all {
		if *s.PersonID == personID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListProgress(_ context.Context, galleryID uint) ([]models.WorkflowProgress, error) {
	m.calls["ListProgress"]++
	var out []models.WorkflowProgress
	for _, p := range m.progress {
		if p.GalleryID == galleryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) FindProgress(_ context.Context, galleryID, userID uint) (*models.WorkflowProgress, error) {
	m.calls["FindProgress"]++
	for _, p := range m.progress {
		if p.GalleryID == galleryID && p.UserID == userID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetMediaByIDs(_ context.Context, ids []uint) ([]models.MediaAsset, error) {
	m.calls["GetMediaByIDs"]++
	m.mediaQueries = append(m.mediaQueries, ids)
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.MediaAsset
	for _, a := range m.media {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetProject(_ context.Context, projectID uint) (*models.Project, error) {
	p, ok := m.projects[projectID]
	if !ok {
		return nil, ErrPersonNotFound
	}
	return &p, nil
}

func uintPtr(v uint) *uint { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func verifiedSession(id, projectID, personID uint, userID *uint, lastActivity *time.Time) models.GuestSession {
	return models.GuestSession{
		ID:                 id,
		ProjectID:          projectID,
		PersonID:           uintPtr(personID),
		UserID:             userID,
		VerificationStatus: models.VerificationVerified,
		LastActivityAt:     lastActivity,
	}
}

func progressRecord(galleryID, userID uint, step models.WorkflowStep, status models.WorkflowStatus, data models.StepData) models.WorkflowProgress {
	return models.WorkflowProgress{
		ID:             userID,
		GalleryID:      galleryID,
		UserID:         userID,
		CurrentStep:    step,
		WorkflowStatus: status,
		StepData:       datatypes.NewJSONType(data),
	}
}
