// Package models holds legal texts and the requirements extracted from
// them. Texts are the tenant-scoping root for the whole compliance side:
// evaluations, actions and review links all hang off a text or one of its
// requirements.
package models

import (
	"strings"
	"time"

	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
)

// Text is a legal or regulatory text registered by a company.
type Text struct {
	ID              id.TextID
	CompanyID       id.CompanyID
	DomainID        id.DomainID
	Reference       string
	Nature          string
	PublicationYear int
	Penalties       string
	Content         string
	FilePath        string
	CreatedByID     id.UserID
	CreatedAt       time.Time
}

// Requirement is an atomic compliance obligation extracted from a text.
// Status is the default judgement reported until an evaluation exists.
type Requirement struct {
	ID     id.RequirementID
	TextID id.TextID
	Number string
	Title  string
	Status id.EvaluationStatus
}

// RequirementWithText pairs a requirement with its parent text reference
// for projections that display both.
type RequirementWithText struct {
	Requirement
	TextReference string
}

// TextFilter narrows text list queries.
type TextFilter struct {
	DomainID        *id.DomainID
	Nature          string
	PublicationYear *int
	Keyword         string
	Page            int
	PageSize        int
}

// Normalize clamps pagination to sane bounds.
func (f *TextFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 10
	}
}

// NewText validates and constructs a text.
func NewText(companyID id.CompanyID, domainID id.DomainID, reference, nature string, year int, penalties, content string, createdBy id.UserID, now time.Time) (*Text, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reference is required")
	}
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "company id is required")
	}
	return &Text{
		ID:              id.NewTextID(),
		CompanyID:       companyID,
		DomainID:        domainID,
		Reference:       reference,
		Nature:          nature,
		PublicationYear: year,
		Penalties:       penalties,
		Content:         content,
		CreatedByID:     createdBy,
		CreatedAt:       now,
	}, nil
}

// NewRequirement validates and constructs a requirement for a text.
func NewRequirement(textID id.TextID, number, title string, status id.EvaluationStatus) (*Requirement, error) {
	if strings.TrimSpace(number) == "" || strings.TrimSpace(title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "number and title are required")
	}
	if status == "" {
		status = id.DefaultEvaluationStatus
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid requirement status")
	}
	return &Requirement{
		ID:     id.NewRequirementID(),
		TextID: textID,
		Number: strings.TrimSpace(number),
		Title:  strings.TrimSpace(title),
		Status: status,
	}, nil
}
