package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tablostudio/guestflow/internal/models"
	"gorm.io/gorm"
)

var ErrPersonNotFound = errors.New("person not found")

// RosterLookup reads roster entries of a project.
type RosterLookup interface {
	ListPersons(ctx context.Context, projectID uint) ([]models.RosterPerson, error)
	GetPerson(ctx context.Context, projectID, personID uint) (*models.RosterPerson, error)
}

// SessionLookup reads verified guest sessions. Implementations return only
// sessions with verification_status=verified and a roster person set.
type SessionLookup interface {
	ListVerifiedSessions(ctx context.Context, projectID uint) ([]models.GuestSession, error)
	ListVerifiedSessionsOfPerson(ctx context.Context, projectID, personID uint) ([]models.GuestSession, error)
}

// ProgressLookup reads workflow progress records of a gallery.
type ProgressLookup interface {
	ListProgress(ctx context.Context, galleryID uint) ([]models.WorkflowProgress, error)
	// FindProgress returns nil, nil when the user has no record.
	FindProgress(ctx context.Context, galleryID, userID uint) (*models.WorkflowProgress, error)
}

// MediaLookup bulk-loads media records. Unknown ids are silently absent
// from the result.
type MediaLookup interface {
	GetMediaByIDs(ctx context.Context, ids []uint) ([]models.MediaAsset, error)
}

// Store bundles every lookup this service needs.
type Store interface {
	RosterLookup
	SessionLookup
	ProgressLookup
	MediaLookup
	GetProject(ctx context.Context, projectID uint) (*models.Project, error)
}

// GormStore implements Store on top of the platform's relational schema.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ListPersons returns the roster of a project ordered by name
func (s *GormStore) ListPersons(ctx context.Context, projectID uint) ([]models.RosterPerson, error) {
	var persons []models.RosterPerson
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name ASC").Order("id ASC").
		Find(&persons).Error; err != nil {
		return nil, fmt.Errorf("list persons of project %d: %w", projectID, err)
	}
	return persons, nil
}

// GetPerson returns ErrPersonNotFound when the person is not on the project roster
func (s *GormStore) GetPerson(ctx context.Context, projectID, personID uint) (*models.RosterPerson, error) {
	var person models.RosterPerson
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, personID).
		First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPersonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get person %d: %w", personID, err)
	}
	return &person, nil
}

func (s *GormStore) ListVerifiedSessions(ctx context.Context, projectID uint) ([]models.GuestSession, error) {
	var sessions []models.GuestSession
	if err := s.verifiedSessions(ctx, projectID).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions of project %d: %w", projectID, err)
	}
	return sessions, nil
}

func (s *GormStore) ListVerifiedSessionsOfPerson(ctx context.Context, projectID, personID uint) ([]models.GuestSession, error) {
	var sessions []models.GuestSession
	if err := s.verifiedSessions(ctx, projectID).
		Where("tablo_person_id = ?", personID).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions of person %d: %w", personID, err)
	}
	return sessions, nil
}

func (s *GormStore) verifiedSessions(ctx context.Context, projectID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Where("verification_status = ?", models.VerificationVerified).
		Where("tablo_person_id IS NOT NULL").
		Order("id ASC")
}

func (s *GormStore) ListProgress(ctx context.Context, galleryID uint) ([]models.WorkflowProgress, error) {
	var progress []models.WorkflowProgress
	if err := s.db.WithContext(ctx).
		Where("gallery_id = ?", galleryID).
		Order("id ASC").
		Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("list progress of gallery %d: %w", galleryID, err)
	}
	return progress, nil
}

func (s *GormStore) FindProgress(ctx context.Context, galleryID, userID uint) (*models.WorkflowProgress, error) {
	var progress models.WorkflowProgress
	err := s.db.WithContext(ctx).
		Where("gallery_id = ? AND user_id = ?", galleryID, userID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find progress of user %d: %w", userID, err)
	}
	return &progress, nil
}

func (s *GormStore) GetMediaByIDs(ctx context.Context, ids []uint) ([]models.MediaAsset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var media []models.MediaAsset
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&media).Error; err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	return media, nil
}

func (s *GormStore) GetProject(ctx context.Context, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
