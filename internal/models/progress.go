package models

import (
	"time"

	"gorm.io/datatypes"
)

// WorkflowStep is the step a guest currently works on.
type WorkflowStep string

const (
	StepClaiming  WorkflowStep = "claiming"
	StepRetouch   WorkflowStep = "retouch"
	StepTablo     WorkflowStep = "tablo"
	StepCompleted WorkflowStep = "completed"
)

// WorkflowSteps lists the steps in workflow order.
var WorkflowSteps = []WorkflowStep{StepClaiming, StepRetouch, StepTablo, StepCompleted}

// WorkflowStatus is independent of the step; only finalized is terminal.
type WorkflowStatus string

const (
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowFinalized  WorkflowStatus = "finalized"
)

// StepData is the persisted step bag. A nil slice or pointer means the key is
// absent (or null) in the stored JSON, which lets legacy columns take over.
type StepData struct {
	ClaimedMediaIDs []uint `json:"claimed_media_ids"`
	RetouchMediaIDs []uint `json:"retouch_media_ids"`
	TabloMediaID    *uint  `json:"tablo_media_id"`
}

// WorkflowProgress stores how far one guest user got in a gallery workflow.
// There is at most one record per (gallery, user) pair.
type WorkflowProgress struct {
	ID             uint                         `gorm:"primaryKey" json:"id"`
	GalleryID      uint                         `gorm:"uniqueIndex:idx_progress_gallery_user;not null" json:"gallery_id"`
	UserID         uint                         `gorm:"uniqueIndex:idx_progress_gallery_user;not null" json:"user_id"`
	CurrentStep    WorkflowStep                 `gorm:"size:20;not null;default:claiming" json:"current_step"`
	WorkflowStatus WorkflowStatus               `gorm:"size:20;not null;default:in_progress" json:"workflow_status"`
	StepData       datatypes.JSONType[StepData] `gorm:"column:steps_data" json:"steps_data"`
	FinalizedAt    *time.Time                   `json:"finalized_at"`

	// Legacy flat columns written before the step bag existed.
	RetouchPhotoIDs datatypes.JSONSlice[uint] `gorm:"column:retouch_photo_ids" json:"retouch_photo_ids,omitempty"`
	TabloPhotoID    *uint                     `gorm:"column:tablo_photo_id" json:"tablo_photo_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFinalized reports whether the guest closed the workflow.
func (p *WorkflowProgress) IsFinalized() bool {
	return p.WorkflowStatus == WorkflowFinalized
}

// ClaimedIDs returns the media ids the guest claimed as their own.
func (p *WorkflowProgress) ClaimedIDs() []uint {
	return p.StepData.Data().ClaimedMediaIDs
}

// EffectiveRetouchIDs returns the retouch selection, preferring the step bag
// over the legacy retouch_photo_ids column.
func (p *WorkflowProgress) EffectiveRetouchIDs() []uint {
	if ids := p.StepData.Data().RetouchMediaIDs; ids != nil {
		return ids
	}
	return []uint(p.RetouchPhotoIDs)
}

// EffectiveTabloID returns the chosen tablo photo, preferring the step bag
// over the legacy tablo_photo_id column.
func (p *WorkflowProgress) EffectiveTabloID() *uint {
	if id := p.StepData.Data().TabloMediaID; id != nil {
		return id
	}
	return p.TabloPhotoID
}

func (WorkflowProgress) TableName() string { return "tablo_user_progress" }
