// Package service implements the review lifecycle state machine and the
// gated CRUD for review content. Every mutation is authorized through the
// authz decision table and scoped to the actor's company.
package service

import (
	"context"
	"errors"
	"time"

	reviewmetrics "lexaudit/internal/review/metrics"
	"lexaudit/internal/review/models"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// Store persists reviews and their child items.
type Store interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) (*models.Review, error)
	GetReviewDetail(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) (*models.ReviewDetail, error)
	ListReviews(ctx context.Context, companyID id.CompanyID, filter models.ListFilter) ([]models.ReviewSummary, error)
	UpdateReviewDate(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, reviewDate time.Time) error
	// TransitionStatus performs a conditional update: the row only changes
	// when its current status equals from. A raced transition surfaces as
	// sentinel.ErrConflict.
	TransitionStatus(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, from, to id.ReviewStatus) error
	SetPDFPath(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, path string) error
	DeleteReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) error

	AddLegalText(ctx context.Context, item *models.LegalTextItem) error
	GetLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.LegalTextItem, error)
	UpdateLegalText(ctx context.Context, item *models.LegalTextItem) error
	DeleteLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error
	ListLegalTextIDs(ctx context.Context, reviewID id.ReviewID) ([]id.TextID, error)

	AddRequirementLink(ctx context.Context, item *models.RequirementLinkItem) error
	GetRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.RequirementLinkItem, error)
	UpdateRequirementLink(ctx context.Context, item *models.RequirementLinkItem) error
	DeleteRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error
	HasRequirementLink(ctx context.Context, reviewID id.ReviewID, requirementID id.RequirementID) (bool, error)
	ListLinkedRequirementIDs(ctx context.Context, reviewID id.ReviewID) ([]id.RequirementID, error)

	AddActionItem(ctx context.Context, item *models.ActionItem) error
	GetActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.ActionItem, error)
	UpdateActionItem(ctx context.Context, item *models.ActionItem) error
	DeleteActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error

	AddStakeholder(ctx context.Context, item *models.StakeholderItem) error
	GetStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.StakeholderItem, error)
	UpdateStakeholder(ctx context.Context, item *models.StakeholderItem) error
	DeleteStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error
}

// TextReader exposes the slices of the text module the review engine needs
// for reference validation and the available-requirements projection.
type TextReader interface {
	TextExists(ctx context.Context, companyID id.CompanyID, textID id.TextID) (bool, error)
	TextReference(ctx context.Context, companyID id.CompanyID, textID id.TextID) (string, error)
	RequirementForCompany(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*textmodels.Requirement, error)
	RequirementsByTexts(ctx context.Context, companyID id.CompanyID, textIDs []id.TextID) ([]textmodels.RequirementWithText, error)
}

// DomainReader validates taxonomy references.
type DomainReader interface {
	DomainExists(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error)
}

// Renderer turns a completed review into a stored binary document. The
// engine only decides when rendering may happen.
type Renderer interface {
	Render(ctx context.Context, detail *models.ReviewDetail) (content []byte, storedPath string, err error)
}

// TxRunner executes a function atomically.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates the review lifecycle.
type Service struct {
	store   Store
	texts   TextReader
	domains DomainReader
	render  Renderer
	tx      TxRunner
	metrics *reviewmetrics.Metrics
}

// New constructs the review service.
func New(store Store, texts TextReader, domains DomainReader, render Renderer, tx TxRunner, metrics *reviewmetrics.Metrics) *Service {
	return &Service{
		store:   store,
		texts:   texts,
		domains: domains,
		render:  render,
		tx:      tx,
		metrics: metrics,
	}
}

func requireActor(ctx context.Context) (requestcontext.ActorContext, error) {
	actor := requestcontext.Actor(ctx)
	if !actor.Valid() {
		return requestcontext.ActorContext{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

func translateStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" conflict")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
	}
}
