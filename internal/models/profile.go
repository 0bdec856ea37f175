// Package models defines domain models for the verdict marketplace.
package models

import (
	"time"
)

// Profile represents an authenticated user account. Exactly one row exists per
// auth-provider identity; it is created only by the account service.
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthID      string    `gorm:"column:auth_id;uniqueIndex;not null;size:255" json:"auth_id"`
	Email       string    `gorm:"size:255" json:"email"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	Credits     int       `gorm:"not null;default:0" json:"credits"`
	IsJudge     bool      `gorm:"not null;default:true" json:"is_judge"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Profile model.
func (Profile) TableName() string {
	return "profiles"
}
