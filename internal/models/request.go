package models

import (
	"time"

	"gorm.io/gorm"
)

// VerdictRequest represents a feedback request submitted against one credit.
type VerdictRequest struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UserID               uint           `gorm:"not null;index" json:"user_id"`
	User                 Profile        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category             string         `gorm:"size:100;not null" json:"category"`
	MediaType            string         `gorm:"size:50" json:"media_type"` // 'text' or 'image'
	Content              string         `gorm:"type:text;not null" json:"content"`
	Context              string         `gorm:"type:text" json:"context"`
	Tier                 string         `gorm:"size:50;not null" json:"tier"`
	Status               string         `gorm:"size:20;index;not null" json:"status"` // 'open', 'in_progress', 'completed', 'cancelled'
	TargetVerdictCount   int            `gorm:"not null" json:"target_verdict_count"`
	ReceivedVerdictCount int            `gorm:"not null;default:0" json:"received_verdict_count"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Verdicts []VerdictResponse `gorm:"foreignKey:RequestID" json:"verdicts,omitempty"`
}

// TableName specifies the table name for VerdictRequest model.
func (VerdictRequest) TableName() string {
	return "verdict_requests"
}

// IsTerminal reports whether the request can no longer accept verdicts.
func (r *VerdictRequest) IsTerminal() bool {
	return r.Status == RequestStatusCompleted || r.Status == RequestStatusCancelled
}

// VerdictResponse represents a single judge's verdict on a request. A judge may
// respond to a given request at most once.
type VerdictResponse struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RequestID    uint      `gorm:"not null;uniqueIndex:ux_verdict_request_judge,priority:1" json:"request_id"`
	JudgeID      uint      `gorm:"not null;index;uniqueIndex:ux_verdict_request_judge,priority:2" json:"judge_id"`
	Judge        Profile   `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
	Rating       int       `gorm:"not null" json:"rating"` // 1-10
	Feedback     string    `gorm:"type:text;not null" json:"feedback"`
	Tone         string    `gorm:"size:50" json:"tone"`
	QualityScore *float64  `gorm:"type:decimal(4,2)" json:"quality_score,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for VerdictResponse model.
func (VerdictResponse) TableName() string {
	return "verdict_responses"
}

// Request status constants.
const (
	RequestStatusOpen       = "open"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"
)
