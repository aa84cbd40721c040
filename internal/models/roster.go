package models

import (
	"time"
)

// PersonType distinguishes students from teachers on the project roster.
type PersonType string

const (
	PersonTypeStudent PersonType = "student"
	PersonTypeTeacher PersonType = "teacher"
)

// Valid reports whether t is one of the known person types.
func (t PersonType) Valid() bool {
	return t == PersonTypeStudent || t == PersonTypeTeacher
}

// Session verification states
const (
	VerificationUnverified = "unverified"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
)

// RosterPerson is a named entry of the class roster
type RosterPerson struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ProjectID uint       `gorm:"index;not null" json:"project_id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Type      PersonType `gorm:"size:20;not null;default:student" json:"type"`
	MediaID   *uint      `json:"media_id"` // own assigned photo, unrelated to workflow selections
	Position  int        `gorm:"default:0" json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// GuestSession is a browser/device session a guest opened for a project.
// PersonID stays empty until the guest is verified against the roster, UserID
// until a backing account has been created.
type GuestSession struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ProjectID          uint       `gorm:"index;not null" json:"project_id"`
	PersonID           *uint      `gorm:"column:tablo_person_id;index" json:"person_id"`
	UserID             *uint      `gorm:"index" json:"user_id"`
	GuestName          string     `gorm:"size:255" json:"guest_name"`
	VerificationStatus string     `gorm:"size:20;index;default:unverified" json:"verification_status"`
	LastActivityAt     *time.Time `json:"last_activity_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsVerified reports whether the session was verified against a roster person.
func (s *GuestSession) IsVerified() bool {
	return s.VerificationStatus == VerificationVerified && s.PersonID != nil
}

// PreferSession decides which of two verified sessions of the same person is
// authoritative: the most recent activity wins, a known activity time beats an
// unknown one and equal times fall back to the higher id.
func PreferSession(a, b *GuestSession) *GuestSession {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}

	switch {
	case a.LastActivityAt != nil && b.LastActivityAt == nil:
		return a
	case a.LastActivityAt == nil && b.LastActivityAt != nil:
		return b
	case a.LastActivityAt != nil && b.LastActivityAt != nil && !a.LastActivityAt.Equal(*b.LastActivityAt):
		if a.LastActivityAt.After(*b.LastActivityAt) {
			return a
		}
		return b
	}

	if a.ID >= b.ID {
		return a
	}
	return b
}

func (RosterPerson) TableName() string { return "tablo_persons" }
func (GuestSession) TableName() string { return "tablo_guest_sessions" }
