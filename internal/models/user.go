package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAnnotator UserRole = "annotator"
	RoleAdmin     UserRole = "admin"
)

type RoleStatus string

const (
	RoleStatusPending   RoleStatus = "pending"
	RoleStatusSubmitted RoleStatus = "submitted"
	RoleStatusVerified  RoleStatus = "verified"
	RoleStatusApproved  RoleStatus = "approved"
	RoleStatusRejected  RoleStatus = "rejected"
)

// IsValidRoleStatus reports whether s is a known role status value.
func IsValidRoleStatus(s RoleStatus) bool {
	switch s {
	case RoleStatusPending, RoleStatusSubmitted, RoleStatusVerified, RoleStatusApproved, RoleStatusRejected:
		return true
	}
	return false
}

// RoleStatusPair is the annotator/micro-tasker status pair that the
// submission flow reads and writes as a side effect of scoring.
type RoleStatusPair struct {
	AnnotatorStatus   RoleStatus `json:"annotator_status"`
	MicroTaskerStatus RoleStatus `json:"micro_tasker_status"`
}

func (p RoleStatusPair) Equal(other RoleStatusPair) bool {
	return p.AnnotatorStatus == other.AnnotatorStatus &&
		p.MicroTaskerStatus == other.MicroTaskerStatus
}

type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:255"`
	FullName string `json:"full_name" gorm:"not null;size:100"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;size:255"`

	AnnotatorStatus   RoleStatus `json:"annotator_status" gorm:"default:pending;size:20"`
	MicroTaskerStatus RoleStatus `json:"micro_tasker_status" gorm:"default:pending;size:20"`

	// StatusVersion guards the role-status pair against concurrent writes
	// from administrative flows. Bumped on every status update.
	StatusVersion int `json:"status_version" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// RoleStatuses returns the current role-status pair.
func (u *User) RoleStatuses() RoleStatusPair {
	return RoleStatusPair{
		AnnotatorStatus:   u.AnnotatorStatus,
		MicroTaskerStatus: u.MicroTaskerStatus,
	}
}
