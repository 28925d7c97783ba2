package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project posting.
type ProjectStatus string

const (
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusClosed     ProjectStatus = "closed"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusOpen, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusClosed:
		return true
	}
	return false
}

// Project is a collaboration posting owned by a user.
type Project struct {
	ID             uuid.UUID     `json:"id"`
	OwnerID        uuid.UUID     `json:"owner_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	RequiredSkills []string      `json:"required_skills,omitempty"`
	BudgetMin      *float64      `json:"budget_min,omitempty"`
	BudgetMax      *float64      `json:"budget_max,omitempty"`
	Timeline       string        `json:"timeline,omitempty"`
	Status         ProjectStatus `json:"status"`
	IsRemote       bool          `json:"is_remote"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
}

// ProjectRequest is the payload for creating or updating a project.
type ProjectRequest struct {
	Title          string   `json:"title" binding:"required,max=255"`
	Description    string   `json:"description" binding:"required"`
	RequiredSkills []string `json:"required_skills"`
	BudgetMin      *float64 `json:"budget_min"`
	BudgetMax      *float64 `json:"budget_max"`
	Timeline       string   `json:"timeline"`
	IsRemote       *bool    `json:"is_remote"`
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Status   ProjectStatus
	OwnerID  *uuid.UUID
	Skill    string
	IsRemote *bool
	Limit    int
	Offset   int
}
