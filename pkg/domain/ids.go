// Package domain holds the typed identifiers and enumerations shared by
// every feature module. Typed UUIDs prevent cross-entity assignment at
// compile time; construct them via the Parse helpers at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "lexaudit/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so the compiler rejects passing a
// TextID where a ReviewID is expected.
type (
	UserID         uuid.UUID
	CompanyID      uuid.UUID
	DomainID       uuid.UUID
	ReviewID       uuid.UUID
	ReviewItemID   uuid.UUID
	TextID         uuid.UUID
	RequirementID  uuid.UUID
	EvaluationID   uuid.UUID
	HistoryID      uuid.UUID
	ObservationID  uuid.UUID
	ParameterID    uuid.UUID
	AttachmentID   uuid.UUID
	ActionID       uuid.UUID
	NotificationID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseCompanyID constructs a CompanyID from external input.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s, "company id")
	return CompanyID(u), err
}

// ParseDomainID constructs a DomainID from external input.
func ParseDomainID(s string) (DomainID, error) {
	u, err := parseUUID(s, "domain id")
	return DomainID(u), err
}

// ParseReviewID constructs a ReviewID from external input.
func ParseReviewID(s string) (ReviewID, error) {
	u, err := parseUUID(s, "review id")
	return ReviewID(u), err
}

// ParseReviewItemID constructs a ReviewItemID from external input.
func ParseReviewItemID(s string) (ReviewItemID, error) {
	u, err := parseUUID(s, "item id")
	return ReviewItemID(u), err
}

// ParseTextID constructs a TextID from external input.
func ParseTextID(s string) (TextID, error) {
	u, err := parseUUID(s, "text id")
	return TextID(u), err
}

// ParseRequirementID constructs a RequirementID from external input.
func ParseRequirementID(s string) (RequirementID, error) {
	u, err := parseUUID(s, "requirement id")
	return RequirementID(u), err
}

// ParseEvaluationID constructs an EvaluationID from external input.
func ParseEvaluationID(s string) (EvaluationID, error) {
	u, err := parseUUID(s, "evaluation id")
	return EvaluationID(u), err
}

// ParseHistoryID constructs a HistoryID from external input.
func ParseHistoryID(s string) (HistoryID, error) {
	u, err := parseUUID(s, "history id")
	return HistoryID(u), err
}

// ParseObservationID constructs an ObservationID from external input.
func ParseObservationID(s string) (ObservationID, error) {
	u, err := parseUUID(s, "observation id")
	return ObservationID(u), err
}

// ParseParameterID constructs a ParameterID from external input.
func ParseParameterID(s string) (ParameterID, error) {
	u, err := parseUUID(s, "parameter id")
	return ParameterID(u), err
}

// ParseAttachmentID constructs an AttachmentID from external input.
func ParseAttachmentID(s string) (AttachmentID, error) {
	u, err := parseUUID(s, "attachment id")
	return AttachmentID(u), err
}

// ParseActionID constructs an ActionID from external input.
func ParseActionID(s string) (ActionID, error) {
	u, err := parseUUID(s, "action id")
	return ActionID(u), err
}

// ParseNotificationID constructs a NotificationID from external input.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id CompanyID) String() string      { return uuid.UUID(id).String() }
func (id DomainID) String() string       { return uuid.UUID(id).String() }
func (id ReviewID) String() string       { return uuid.UUID(id).String() }
func (id ReviewItemID) String() string   { return uuid.UUID(id).String() }
func (id TextID) String() string         { return uuid.UUID(id).String() }
func (id RequirementID) String() string  { return uuid.UUID(id).String() }
func (id EvaluationID) String() string   { return uuid.UUID(id).String() }
func (id HistoryID) String() string      { return uuid.UUID(id).String() }
func (id ObservationID) String() string  { return uuid.UUID(id).String() }
func (id ParameterID) String() string    { return uuid.UUID(id).String() }
func (id AttachmentID) String() string   { return uuid.UUID(id).String() }
func (id ActionID) String() string       { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DomainID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ReviewItemID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TextID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EvaluationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ActionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewCompanyID returns a fresh random CompanyID.
func NewCompanyID() CompanyID { return CompanyID(uuid.New()) }

// NewDomainID returns a fresh random DomainID.
func NewDomainID() DomainID { return DomainID(uuid.New()) }

// NewReviewID returns a fresh random ReviewID.
func NewReviewID() ReviewID { return ReviewID(uuid.New()) }

// NewReviewItemID returns a fresh random ReviewItemID.
func NewReviewItemID() ReviewItemID { return ReviewItemID(uuid.New()) }

// NewTextID returns a fresh random TextID.
func NewTextID() TextID { return TextID(uuid.New()) }

// NewRequirementID returns a fresh random RequirementID.
func NewRequirementID() RequirementID { return RequirementID(uuid.New()) }

// NewEvaluationID returns a fresh random EvaluationID.
func NewEvaluationID() EvaluationID { return EvaluationID(uuid.New()) }

// NewHistoryID returns a fresh random HistoryID.
func NewHistoryID() HistoryID { return HistoryID(uuid.New()) }

// NewObservationID returns a fresh random ObservationID.
func NewObservationID() ObservationID { return ObservationID(uuid.New()) }

// NewParameterID returns a fresh random ParameterID.
func NewParameterID() ParameterID { return ParameterID(uuid.New()) }

// NewAttachmentID returns a fresh random AttachmentID.
func NewAttachmentID() AttachmentID { return AttachmentID(uuid.New()) }

// NewActionID returns a fresh random ActionID.
func NewActionID() ActionID { return ActionID(uuid.New()) }

// NewNotificationID returns a fresh random NotificationID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
