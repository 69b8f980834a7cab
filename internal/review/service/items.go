package service

import (
	"context"
	"errors"

	"lexaudit/internal/review/authz"
	"lexaudit/internal/review/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// loadForMutation resolves the actor and the parent review. Cross-tenant
// lookups surface as NotFound before any policy check runs.
func (s *Service) loadForMutation(ctx context.Context, reviewID id.ReviewID) (requestcontext.ActorContext, *models.Review, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return requestcontext.ActorContext{}, nil, err
	}
	review, err := s.store.GetReview(ctx, actor.CompanyID, reviewID)
	if err != nil {
		return requestcontext.ActorContext{}, nil, translateStoreErr(err, "review")
	}
	return actor, review, nil
}

func (s *Service) gateCreate(ctx context.Context, reviewID id.ReviewID) (requestcontext.ActorContext, error) {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return requestcontext.ActorContext{}, err
	}
	if !authz.Permitted(actor.Role, review.Status, false, authz.OpCreateItem) {
		return requestcontext.ActorContext{}, dErrors.New(dErrors.CodeForbidden, "review content is not editable")
	}
	return actor, nil
}

func gateMutate(actor requestcontext.ActorContext, review *models.Review, meta models.ItemMeta, op authz.Operation) error {
	isOwner := meta.CreatedByID == actor.UserID
	if !authz.Permitted(actor.Role, review.Status, isOwner, op) {
		return dErrors.New(dErrors.CodeForbidden, "review content is not editable")
	}
	return nil
}

func (s *Service) newItemMeta(ctx context.Context, reviewID id.ReviewID, actor requestcontext.ActorContext) models.ItemMeta {
	return models.ItemMeta{
		ID:          id.NewReviewItemID(),
		ReviewID:    reviewID,
		CreatedByID: actor.UserID,
		CreatedAt:   requestcontext.Now(ctx),
	}
}

// LegalTextParams are the analysis fields of a legal text item.
type LegalTextParams struct {
	Penalties     string
	Incentives    string
	Risks         string
	Opportunities string
	FollowUp      string
}

// AddLegalText snapshots a tenant text into the review.
func (s *Service) AddLegalText(ctx context.Context, reviewID id.ReviewID, textID id.TextID, params LegalTextParams) (*models.LegalTextItem, error) {
	actor, err := s.gateCreate(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	reference, err := s.texts.TextReference(ctx, actor.CompanyID, textID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "text not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve text")
	}

	item := &models.LegalTextItem{
		ItemMeta:      s.newItemMeta(ctx, reviewID, actor),
		TextID:        textID,
		TextReference: reference,
		Penalties:     params.Penalties,
		Incentives:    params.Incentives,
		Risks:         params.Risks,
		Opportunities: params.Opportunities,
		FollowUp:      params.FollowUp,
	}
	if err := s.store.AddLegalText(ctx, item); err != nil {
		return nil, translateStoreErr(err, "legal text item")
	}
	s.metrics.IncrementItemMutation(string(models.KindLegalText), "create")
	return item, nil
}

// UpdateLegalText rewrites the analysis fields. The linked text reference
// stays fixed.
func (s *Service) UpdateLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params LegalTextParams) (*models.LegalTextItem, error) {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.GetLegalText(ctx, reviewID, itemID)
	if err != nil {
		return nil, translateStoreErr(err, "legal text item")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpEditItem); err != nil {
		return nil, err
	}

	item.Penalties = params.Penalties
	item.Incentives = params.Incentives
	item.Risks = params.Risks
	item.Opportunities = params.Opportunities
	item.FollowUp = params.FollowUp
	if err := s.store.UpdateLegalText(ctx, item); err != nil {
		return nil, translateStoreErr(err, "legal text item")
	}
	s.metrics.IncrementItemMutation(string(models.KindLegalText), "update")
	return item, nil
}

// DeleteLegalText removes the item from the review. Requirements linked
// from the same text are untouched.
func (s *Service) DeleteLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return err
	}
	item, err := s.store.GetLegalText(ctx, reviewID, itemID)
	if err != nil {
		return translateStoreErr(err, "legal text item")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpDeleteItem); err != nil {
		return err
	}
	if err := s.store.DeleteLegalText(ctx, reviewID, itemID); err != nil {
		return translateStoreErr(err, "legal text item")
	}
	s.metrics.IncrementItemMutation(string(models.KindLegalText), "delete")
	return nil
}

// RequirementLinkParams are the mutable fields of a requirement link item.
type RequirementLinkParams struct {
	Description    string
	Implementation string
	Communication  string
	FollowUp       string
}

// AddRequirementLink links a text requirement into the review. A
// requirement can be linked at most once per review.
func (s *Service) AddRequirementLink(ctx context.Context, reviewID id.ReviewID, requirementID id.RequirementID, params RequirementLinkParams) (*models.RequirementLinkItem, error) {
	actor, err := s.gateCreate(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if _, err := s.texts.RequirementForCompany(ctx, actor.CompanyID, requirementID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "requirement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve requirement")
	}
	exists, err := s.store.HasRequirementLink(ctx, reviewID, requirementID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check requirement link")
	}
	if exists {
		return nil, dErrors.New(dErrors.CodeConflict, "requirement is already linked to this review")
	}

	item := &models.RequirementLinkItem{
		ItemMeta:          s.newItemMeta(ctx, reviewID, actor),
		TextRequirementID: requirementID,
		Description:       params.Description,
		Implementation:    params.Implementation,
		Communication:     params.Communication,
		FollowUp:          params.FollowUp,
	}
	if err := s.store.AddRequirementLink(ctx, item); err != nil {
		return nil, translateStoreErr(err, "requirement link")
	}
	s.metrics.IncrementItemMutation(string(models.KindRequirementLink), "create")
	return item, nil
}

// UpdateRequirementLink rewrites the link's evaluation fields. The linked
// requirement itself cannot be swapped; delete and relink instead.
func (s *Service) UpdateRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params RequirementLinkParams) (*models.RequirementLinkItem, error) {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.GetRequirementLink(ctx, reviewID, itemID)
	if err != nil {
		return nil, translateStoreErr(err, "requirement link")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpEditItem); err != nil {
		return nil, err
	}

	item.Description = params.Description
	item.Implementation = params.Implementation
	item.Communication = params.Communication
	item.FollowUp = params.FollowUp
	if err := s.store.UpdateRequirementLink(ctx, item); err != nil {
		return nil, translateStoreErr(err, "requirement link")
	}
	s.metrics.IncrementItemMutation(string(models.KindRequirementLink), "update")
	return item, nil
}

// DeleteRequirementLink unlinks the requirement from the review.
func (s *Service) DeleteRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return err
	}
	item, err := s.store.GetRequirementLink(ctx, reviewID, itemID)
	if err != nil {
		return translateStoreErr(err, "requirement link")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpDeleteItem); err != nil {
		return err
	}
	if err := s.store.DeleteRequirementLink(ctx, reviewID, itemID); err != nil {
		return translateStoreErr(err, "requirement link")
	}
	s.metrics.IncrementItemMutation(string(models.KindRequirementLink), "delete")
	return nil
}

// ActionItemParams are the fields of a review action item.
type ActionItemParams struct {
	Description string
	Source      string
	Status      string
	Observation string
	FollowUp    string
}

// AddActionItem records a remediation action on the review.
func (s *Service) AddActionItem(ctx context.Context, reviewID id.ReviewID, params ActionItemParams) (*models.ActionItem, error) {
	actor, err := s.gateCreate(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	item := &models.ActionItem{
		ItemMeta:    s.newItemMeta(ctx, reviewID, actor),
		Description: params.Description,
		Source:      params.Source,
		Status:      params.Status,
		Observation: params.Observation,
		FollowUp:    params.FollowUp,
	}
	if err := s.store.AddActionItem(ctx, item); err != nil {
		return nil, translateStoreErr(err, "action item")
	}
	s.metrics.IncrementItemMutation(string(models.KindAction), "create")
	return item, nil
}

// UpdateActionItem rewrites an action item.
func (s *Service) UpdateActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params ActionItemParams) (*models.ActionItem, error) {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.GetActionItem(ctx, reviewID, itemID)
	if err != nil {
		return nil, translateStoreErr(err, "action item")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpEditItem); err != nil {
		return nil, err
	}

	item.Description = params.Description
	item.Source = params.Source
	item.Status = params.Status
	item.Observation = params.Observation
	item.FollowUp = params.FollowUp
	if err := s.store.UpdateActionItem(ctx, item); err != nil {
		return nil, translateStoreErr(err, "action item")
	}
	s.metrics.IncrementItemMutation(string(models.KindAction), "update")
	return item, nil
}

// DeleteActionItem removes an action item from the review.
func (s *Service) DeleteActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return err
	}
	item, err := s.store.GetActionItem(ctx, reviewID, itemID)
	if err != nil {
		return translateStoreErr(err, "action item")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpDeleteItem); err != nil {
		return err
	}
	if err := s.store.DeleteActionItem(ctx, reviewID, itemID); err != nil {
		return translateStoreErr(err, "action item")
	}
	s.metrics.IncrementItemMutation(string(models.KindAction), "delete")
	return nil
}

// StakeholderParams are the fields of a stakeholder item.
type StakeholderParams struct {
	Name               string
	RelationshipStatus string
	Reason             string
	Action             string
	FollowUp           string
}

// AddStakeholder records an interested party on the review.
func (s *Service) AddStakeholder(ctx context.Context, reviewID id.ReviewID, params StakeholderParams) (*models.StakeholderItem, error) {
	actor, err := s.gateCreate(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	item := &models.StakeholderItem{
		ItemMeta:           s.newItemMeta(ctx, reviewID, actor),
		Name:               params.Name,
		RelationshipStatus: params.RelationshipStatus,
		Reason:             params.Reason,
		Action:             params.Action,
		FollowUp:           params.FollowUp,
	}
	if err := s.store.AddStakeholder(ctx, item); err != nil {
		return nil, translateStoreErr(err, "stakeholder item")
	}
	s.metrics.IncrementItemMutation(string(models.KindStakeholder), "create")
	return item, nil
}

// UpdateStakeholder rewrites a stakeholder item.
func (s *Service) UpdateStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params StakeholderParams) (*models.StakeholderItem, error) {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.GetStakeholder(ctx, reviewID, itemID)
	if err != nil {
		return nil, translateStoreErr(err, "stakeholder item")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpEditItem); err != nil {
		return nil, err
	}

	item.Name = params.Name
	item.RelationshipStatus = params.RelationshipStatus
	item.Reason = params.Reason
	item.Action = params.Action
	item.FollowUp = params.FollowUp
	if err := s.store.UpdateStakeholder(ctx, item); err != nil {
		return nil, translateStoreErr(err, "stakeholder item")
	}
	s.metrics.IncrementItemMutation(string(models.KindStakeholder), "update")
	return item, nil
}

// DeleteStakeholder removes a stakeholder item from the review.
func (s *Service) DeleteStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	actor, review, err := s.loadForMutation(ctx, reviewID)
	if err != nil {
		return err
	}
	item, err := s.store.GetStakeholder(ctx, reviewID, itemID)
	if err != nil {
		return translateStoreErr(err, "stakeholder item")
	}
	if err := gateMutate(actor, review, item.ItemMeta, authz.OpDeleteItem); err != nil {
		return err
	}
	if err := s.store.DeleteStakeholder(ctx, reviewID, itemID); err != nil {
		return translateStoreErr(err, "stakeholder item")
	}
	s.metrics.IncrementItemMutation(string(models.KindStakeholder), "delete")
	return nil
}
