package models

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// MediaAsset is an uploaded binary (photo) owned by some collection.
// This service only ever reads media.
type MediaAsset struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ModelType      string    `gorm:"size:255;index:idx_media_model,priority:1" json:"model_type"`
	ModelID        uint      `gorm:"index:idx_media_model,priority:2" json:"model_id"`
	CollectionName string    `gorm:"size:100;index" json:"collection_name"` // photos, pending, ...
	Name           string    `gorm:"size:255" json:"name"`
	FileName       string    `gorm:"size:255;not null" json:"file_name"`
	MimeType       string    `gorm:"size:100" json:"mime_type"`
	Disk           string    `gorm:"size:50;default:local" json:"disk"`
	Size           int64     `json:"size"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StorageKey is the object path of the original file relative to the disk root.
func (m *MediaAsset) StorageKey() string {
	return path.Join(strconv.FormatUint(uint64(m.ID), 10), m.FileName)
}

// Extension returns the lower-cased file extension without the dot.
func (m *MediaAsset) Extension() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(m.FileName)), ".")
}

func (MediaAsset) TableName() string { return "media" }

