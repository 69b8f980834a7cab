package domain

import dErrors "lexaudit/pkg/domain-errors"

// ReviewStatus is the lifecycle state of a management review.
// Transitions only move forward: Draft → InProgress → Completed/Canceled.
type ReviewStatus string

const (
	ReviewDraft      ReviewStatus = "Draft"
	ReviewInProgress ReviewStatus = "InProgress"
	ReviewCompleted  ReviewStatus = "Completed"
	ReviewCanceled   ReviewStatus = "Canceled"
)

var validReviewStatuses = map[ReviewStatus]bool{
	ReviewDraft:      true,
	ReviewInProgress: true,
	ReviewCompleted:  true,
	ReviewCanceled:   true,
}

// ParseReviewStatus constructs a ReviewStatus from external input.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status is required")
	}
	st := ReviewStatus(s)
	if !validReviewStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid review status")
	}
	return st, nil
}

// IsValid reports whether the status is one of the supported values.
func (s ReviewStatus) IsValid() bool { return validReviewStatuses[s] }

// Terminal reports whether no transition leaves this status.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewCompleted || s == ReviewCanceled
}

// CanTransitionTo reports whether a transition from s to next is legal.
func (s ReviewStatus) CanTransitionTo(next ReviewStatus) bool {
	switch s {
	case ReviewDraft:
		return next == ReviewInProgress
	case ReviewInProgress:
		return next == ReviewCompleted || next == ReviewCanceled
	default:
		return false
	}
}

func (s ReviewStatus) String() string { return string(s) }
