package service

import (
	"context"
	"errors"
	"time"

	"lexaudit/internal/review/authz"
	"lexaudit/internal/review/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// Create opens a new review episode in Draft. Manager only; the domain
// reference must belong to the actor's company.
func (s *Service) Create(ctx context.Context, domainID id.DomainID, reviewDate time.Time) (*models.Review, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != id.RoleManager {
		return nil, dErrors.New(dErrors.CodeForbidden, "only managers can create reviews")
	}

	ok, err := s.domains.DomainExists(ctx, actor.CompanyID, domainID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate domain")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid domain")
	}

	review := &models.Review{
		ID:          id.NewReviewID(),
		CompanyID:   actor.CompanyID,
		DomainID:    domainID,
		ReviewDate:  reviewDate,
		Status:      id.ReviewDraft,
		CreatedByID: actor.UserID,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create review")
	}
	s.metrics.IncrementCreated()
	return review, nil
}

// List returns the company's reviews, newest first.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]models.ReviewSummary, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.ListReviews(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
	}
	return reviews, nil
}

// Get returns the review with its full child content.
func (s *Service) Get(ctx context.Context, reviewID id.ReviewID) (*models.ReviewDetail, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	detail, err := s.store.GetReviewDetail(ctx, actor.CompanyID, reviewID)
	if err != nil {
		return nil, translateStoreErr(err, "review")
	}
	return detail, nil
}

// UpdateParams are the mutable fields of a review. A status change goes
// through the same transition rules as the dedicated endpoints.
type UpdateParams struct {
	ReviewDate *time.Time
	Status     *id.ReviewStatus
}

// Update mutates review metadata. Manager only.
func (s *Service) Update(ctx context.Context, reviewID id.ReviewID, params UpdateParams) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	review, err := s.store.GetReview(ctx, actor.CompanyID, reviewID)
	if err != nil {
		return translateStoreErr(err, "review")
	}
	if !authz.Permitted(actor.Role, review.Status, false, authz.OpTransition) {
		return dErrors.New(dErrors.CodeForbidden, "only managers can update reviews")
	}

	if params.ReviewDate != nil {
		if err := s.store.UpdateReviewDate(ctx, actor.CompanyID, reviewID, *params.ReviewDate); err != nil {
			return translateStoreErr(err, "review")
		}
	}
	if params.Status != nil {
		if err := s.transition(ctx, actor.CompanyID, reviewID, review.Status, *params.Status); err != nil {
			return err
		}
	}
	return nil
}

// Start moves a Draft review to InProgress.
func (s *Service) Start(ctx context.Context, reviewID id.ReviewID) error {
	return s.guardedTransition(ctx, reviewID, id.ReviewDraft, id.ReviewInProgress)
}

// Complete moves an InProgress review to its Completed terminal state.
func (s *Service) Complete(ctx context.Context, reviewID id.ReviewID) error {
	return s.guardedTransition(ctx, reviewID, id.ReviewInProgress, id.ReviewCompleted)
}

// Cancel moves an InProgress review to its Canceled terminal state.
func (s *Service) Cancel(ctx context.Context, reviewID id.ReviewID) error {
	return s.guardedTransition(ctx, reviewID, id.ReviewInProgress, id.ReviewCanceled)
}

func (s *Service) guardedTransition(ctx context.Context, reviewID id.ReviewID, from, to id.ReviewStatus) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	review, err := s.store.GetReview(ctx, actor.CompanyID, reviewID)
	if err != nil {
		return translateStoreErr(err, "review")
	}
	if !authz.Permitted(actor.Role, review.Status, false, authz.OpTransition) {
		return dErrors.New(dErrors.CodeForbidden, "only managers can change review status")
	}
	return s.transition(ctx, actor.CompanyID, reviewID, from, to)
}

// transition applies a compare-and-swap status update so two concurrent
// calls race safely: exactly one succeeds, the other observes Conflict.
func (s *Service) transition(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, from, to id.ReviewStatus) error {
	if !from.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeConflict, "review cannot move from "+from.String()+" to "+to.String())
	}
	if err := s.store.TransitionStatus(ctx, companyID, reviewID, from, to); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "review is no longer in "+from.String())
		}
		return translateStoreErr(err, "review")
	}
	s.metrics.IncrementTransition(to.String())
	return nil
}

// Delete permanently removes the review and all its child items. Manager
// only, any status.
func (s *Service) Delete(ctx context.Context, reviewID id.ReviewID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	review, err := s.store.GetReview(ctx, actor.CompanyID, reviewID)
	if err != nil {
		return translateStoreErr(err, "review")
	}
	if !authz.Permitted(actor.Role, review.Status, false, authz.OpDeleteReview) {
		return dErrors.New(dErrors.CodeForbidden, "only managers can delete reviews")
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.DeleteReview(txCtx, actor.CompanyID, reviewID); err != nil {
			return translateStoreErr(err, "review")
		}
		return nil
	})
}

// AvailableRequirements lists requirements that belong to texts already
// linked to the review and are not linked themselves yet.
func (s *Service) AvailableRequirements(ctx context.Context, reviewID id.ReviewID) ([]models.AvailableRequirement, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetReview(ctx, actor.CompanyID, reviewID); err != nil {
		return nil, translateStoreErr(err, "review")
	}

	textIDs, err := s.store.ListLegalTextIDs(ctx, reviewID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list linked texts")
	}
	if len(textIDs) == 0 {
		return []models.AvailableRequirement{}, nil
	}

	linked, err := s.store.ListLinkedRequirementIDs(ctx, reviewID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list linked requirements")
	}
	linkedSet := make(map[id.RequirementID]bool, len(linked))
	for _, rid := range linked {
		linkedSet[rid] = true
	}

	candidates, err := s.texts.RequirementsByTexts(ctx, actor.CompanyID, textIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load requirements")
	}

	available := make([]models.AvailableRequirement, 0, len(candidates))
	for _, c := range candidates {
		if linkedSet[c.ID] {
			continue
		}
		available = append(available, models.AvailableRequirement{
			RequirementID: c.ID,
			TextID:        c.TextID,
			TextReference: c.TextReference,
			Number:        c.Number,
			Title:         c.Title,
		})
	}
	return available, nil
}

// GeneratePDF renders a terminal-state review and records the stored path.
// Allowed for any tenant member with view access; repeatable.
func (s *Service) GeneratePDF(ctx context.Context, reviewID id.ReviewID) ([]byte, string, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, "", err
	}
	detail, err := s.store.GetReviewDetail(ctx, actor.CompanyID, reviewID)
	if err != nil {
		return nil, "", translateStoreErr(err, "review")
	}
	if !authz.CanGeneratePDF(detail.Status) {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "review must be completed or canceled before rendering")
	}

	content, storedPath, err := s.render.Render(ctx, detail)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to render review")
	}
	if err := s.store.SetPDFPath(ctx, actor.CompanyID, reviewID, storedPath); err != nil {
		return nil, "", translateStoreErr(err, "review")
	}
	s.metrics.IncrementPDF()
	return content, storedPath, nil
}
