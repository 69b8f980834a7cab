// Package models holds corrective action plans and the notifications they
// generate.
package models

import (
	"strings"
	"time"

	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
)

// ActionStatus is the lifecycle state of a corrective action.
type ActionStatus string

const (
	ActionActive    ActionStatus = "active"
	ActionCompleted ActionStatus = "completed"
	ActionCanceled  ActionStatus = "canceled"
)

var validActionStatuses = map[ActionStatus]bool{
	ActionActive:    true,
	ActionCompleted: true,
	ActionCanceled:  true,
}

// ParseActionStatus constructs an ActionStatus from external input.
func ParseActionStatus(s string) (ActionStatus, error) {
	st := ActionStatus(s)
	if !validActionStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput,
			"invalid action status, must be one of: active, completed, canceled")
	}
	return st, nil
}

func (s ActionStatus) String() string { return string(s) }

// IsValid reports whether the status is one of the known values.
func (s ActionStatus) IsValid() bool { return validActionStatuses[s] }

// Action is a corrective action plan, optionally tied to a text or one of
// its requirements.
type Action struct {
	ID            id.ActionID
	CompanyID     id.CompanyID
	TextID        *id.TextID
	RequirementID *id.RequirementID
	Description   string
	ResponsibleID *id.UserID
	Deadline      *time.Time
	Progress      int
	Effectiveness string
	Status        ActionStatus
	CreatedByID   id.UserID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActionFilter narrows action list queries.
type ActionFilter struct {
	Status        ActionStatus
	TextID        *id.TextID
	ResponsibleID *id.UserID
}

// Notification is an in-app message for a user, usually about an action
// they were made responsible for.
type Notification struct {
	ID              id.NotificationID
	UserID          id.UserID
	Title           string
	Description     string
	Type            string
	RelatedActionID *id.ActionID
	IsRead          bool
	CreatedAt       time.Time
}

// NewAction validates and constructs an action.
func NewAction(companyID id.CompanyID, description string, createdBy id.UserID, now time.Time) (*Action, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	}
	return &Action{
		ID:          id.NewActionID(),
		CompanyID:   companyID,
		Description: description,
		Status:      ActionActive,
		CreatedByID: createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
