// Package models holds the management review aggregate and its child
// content items.
package models

import (
	"time"

	id "lexaudit/pkg/domain"
)

// Review is a periodic management-review episode for a compliance domain.
// Child content is mutable only while Status is InProgress; once the review
// reaches a terminal status it is a frozen snapshot, except for the
// re-renderable PDF pointer.
type Review struct {
	ID          id.ReviewID
	CompanyID   id.CompanyID
	DomainID    id.DomainID
	ReviewDate  time.Time
	Status      id.ReviewStatus
	CreatedByID id.UserID
	CreatedAt   time.Time
	PDFPath     string
}

// ReviewSummary is the list projection of a review.
type ReviewSummary struct {
	ID         id.ReviewID
	DomainID   id.DomainID
	DomainName string
	ReviewDate time.Time
	Status     id.ReviewStatus
	CreatedAt  time.Time
	PDFPath    string
}

// ListFilter narrows the review list.
type ListFilter struct {
	DomainID        *id.DomainID
	ReviewDateAfter *time.Time
}

// ReviewDetail is a review with its full child content, used for the detail
// view and for rendering.
type ReviewDetail struct {
	Review
	DomainName   string
	LegalTexts   []LegalTextItem
	Requirements []RequirementLinkItem
	Actions      []ActionItem
	Stakeholders []StakeholderItem
}

// ItemKind discriminates the four child content kinds of a review.
type ItemKind string

const (
	KindLegalText       ItemKind = "legaltext"
	KindRequirementLink ItemKind = "requirement"
	KindAction          ItemKind = "action"
	KindStakeholder     ItemKind = "stakeholder"
)

// ItemMeta is the part every child item shares: identity, parent, and the
// creator stamp the authorization matrix checks ownership against.
type ItemMeta struct {
	ID          id.ReviewItemID
	ReviewID    id.ReviewID
	CreatedByID id.UserID
	CreatedAt   time.Time
}

// LegalTextItem snapshots a legal text into the review, with the analysis
// fields filled in during the meeting.
type LegalTextItem struct {
	ItemMeta
	TextID        id.TextID
	TextReference string
	Penalties     string
	Incentives    string
	Risks         string
	Opportunities string
	FollowUp      string
}

// RequirementLinkItem links a text requirement into the review. The linked
// requirement reference is immutable after creation.
type RequirementLinkItem struct {
	ItemMeta
	TextRequirementID id.RequirementID
	Description       string
	Implementation    string
	Communication     string
	FollowUp          string
}

// ActionItem records a remediation action discussed in the review.
type ActionItem struct {
	ItemMeta
	Description string
	Source      string
	Status      string
	Observation string
	FollowUp    string
}

// StakeholderItem records an interested party and the state of the
// relationship.
type StakeholderItem struct {
	ItemMeta
	Name               string
	RelationshipStatus string
	Reason             string
	Action             string
	FollowUp           string
}

// AvailableRequirement is a requirement a review could still link: it
// belongs to a text linked via LegalTextItem and has no RequirementLinkItem
// yet.
type AvailableRequirement struct {
	RequirementID id.RequirementID
	TextID        id.TextID
	TextReference string
	Number        string
	Title         string
}
