// Package models holds compliance evaluations, their append-only history,
// and the satellite records hanging off an evaluation.
package models

import (
	"time"

	id "lexaudit/pkg/domain"
)

// Evaluation is the current compliance judgement for a requirement. One
// physical row per requirement, overwritten in place; every overwrite
// first appends a History entry capturing the prior status.
type Evaluation struct {
	ID             id.EvaluationID
	CompanyID      id.CompanyID
	TextID         id.TextID
	RequirementID  id.RequirementID
	Status         id.EvaluationStatus
	EvaluatedByID  id.UserID
	EvaluatedAt    time.Time
	SavedToHistory bool
}

// HistoryEntry records one status change of an evaluation. Append-only:
// nothing in the engine updates or deletes rows outside the text cascade.
type HistoryEntry struct {
	ID             id.HistoryID
	EvaluationID   id.EvaluationID
	PreviousStatus id.EvaluationStatus
	NewStatus      id.EvaluationStatus
	ChangedByID    id.UserID
	ChangedAt      time.Time
}

// Observation is a free-text note on an evaluation, owned by its creator.
type Observation struct {
	ID           id.ObservationID
	EvaluationID id.EvaluationID
	Content      string
	CreatedByID  id.UserID
	CreatedAt    time.Time
}

// MonitoringParameter is a measured indicator tracked for an evaluation.
type MonitoringParameter struct {
	ID           id.ParameterID
	EvaluationID id.EvaluationID
	Name         string
	Value        string
	Frequency    string
	CreatedByID  id.UserID
	CreatedAt    time.Time
}

// Attachment is an uploaded supporting document for an evaluation. The
// binary lives on disk; the row records where.
type Attachment struct {
	ID           id.AttachmentID
	EvaluationID id.EvaluationID
	FileName     string
	FilePath     string
	CreatedByID  id.UserID
	CreatedAt    time.Time
}

// RequirementStatus pairs a requirement with its effective current status:
// the evaluation's status when one exists, the requirement default
// otherwise.
type RequirementStatus struct {
	RequirementID id.RequirementID
	Number        string
	Title         string
	Status        id.EvaluationStatus
	Evaluated     bool
	Evaluation    *Evaluation
}

// RequirementDetail is a RequirementStatus with the evaluation satellites
// loaded, used for the text detail view.
type RequirementDetail struct {
	RequirementStatus
	Observations []Observation
	Parameters   []MonitoringParameter
	Attachments  []Attachment
}

// TextOverview summarizes a text's evaluation progress for the
// texts-for-evaluation list.
type TextOverview struct {
	TextID               id.TextID
	Reference            string
	Nature               string
	PublicationYear      int
	TotalRequirements    int
	ApplicablePercentage int
	StatusCounts         map[id.EvaluationStatus]int
}

// ExportBundle is the JSON export of a text's compliance state.
type ExportBundle struct {
	TextID       id.TextID
	Reference    string
	ExportedAt   time.Time
	Requirements []RequirementDetail
	History      []HistoryEntry
}
