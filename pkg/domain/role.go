package domain

import dErrors "lexaudit/pkg/domain-errors"

// Role identifies what a caller is allowed to do inside their company.
// The wire values match the upstream identity provider.
type Role string

const (
	// RoleManager administers the subscription: creates reviews, drives
	// their lifecycle, and may mutate anything while a review is open.
	RoleManager Role = "SubscriptionManager"

	// RoleAuditor contributes content to open reviews but may only edit
	// or remove entries they created themselves.
	RoleAuditor Role = "Auditor"

	// RoleUser is read-only for review content.
	RoleUser Role = "User"
)

var validRoles = map[Role]bool{
	RoleManager: true,
	RoleAuditor: true,
	RoleUser:    true,
}

// ParseRole constructs a Role from external input.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role is required")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid reports whether the role is one of the supported values.
func (r Role) IsValid() bool { return validRoles[r] }

func (r Role) String() string { return string(r) }
