package models

import (
	"time"

	"gorm.io/gorm"
)

// Project represents a school tablo project (one graduating class)
type Project struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	ClassName string         `gorm:"size:100" json:"class_name"`
	ClassYear string         `gorm:"size:20" json:"class_year"`
	GalleryID *uint          `gorm:"index" json:"gallery_id"` // photo gallery guests select from
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Gallery groups the uploaded photos guests of a project can claim
type Gallery struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string { return "tablo_projects" }
func (Gallery) TableName() string { return "tablo_galleries" }
