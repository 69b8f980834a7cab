// Package authz is the single policy table for review mutations. Every
// mutating call site asks Permitted; nothing else in the engine makes
// role/status/ownership decisions, so policy cannot drift between
// endpoints.
package authz

import id "lexaudit/pkg/domain"

// Operation enumerates what a caller can attempt on a review or its items.
type Operation string

const (
	OpView         Operation = "view"
	OpCreateItem   Operation = "create_item"
	OpEditItem     Operation = "edit_item"
	OpDeleteItem   Operation = "delete_item"
	OpTransition   Operation = "transition"
	OpDeleteReview Operation = "delete_review"
)

// Permitted is the pure decision table gating review content mutation.
//
//	Manager: view always; item mutation while InProgress; transition and
//	  review deletion in any status.
//	Auditor: item creation while InProgress; item edit/delete while
//	  InProgress and only on items they created.
//	Everyone else: view only.
func Permitted(role id.Role, status id.ReviewStatus, isOwner bool, op Operation) bool {
	if op == OpView {
		return true
	}

	switch role {
	case id.RoleManager:
		switch op {
		case OpTransition, OpDeleteReview:
			return true
		case OpCreateItem, OpEditItem, OpDeleteItem:
			return status == id.ReviewInProgress
		}
	case id.RoleAuditor:
		if status != id.ReviewInProgress {
			return false
		}
		switch op {
		case OpCreateItem:
			return true
		case OpEditItem, OpDeleteItem:
			return isOwner
		}
	}
	return false
}

// CanGeneratePDF reports whether the review may be rendered. Rendering is
// allowed for any tenant member once the review reached a terminal state,
// and may be repeated.
func CanGeneratePDF(status id.ReviewStatus) bool {
	return status.Terminal()
}
