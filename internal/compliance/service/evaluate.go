package service

import (
	"context"
	"errors"

	"lexaudit/internal/compliance/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// Evaluate records the actor's compliance judgement for a requirement.
// The first evaluation of a requirement creates the row with no history;
// every later call appends a history entry capturing the prior status and
// then overwrites the evaluation in place. Both writes share one
// transaction so history can never drift from the current row.
func (s *Service) Evaluate(ctx context.Context, requirementID id.RequirementID, status id.EvaluationStatus) (*models.Evaluation, error) {
	actor, err := requireEvaluator(ctx)
	if err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid evaluation status")
	}

	req, err := s.texts.RequirementForCompany(ctx, actor.CompanyID, requirementID)
	if err != nil {
		return nil, translateStoreErr(err, "requirement")
	}

	now := requestcontext.Now(ctx)
	var (
		result    *models.Evaluation
		overwrote bool
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.store.GetEvaluationByRequirement(txCtx, actor.CompanyID, requirementID)
		switch {
		case err == nil:
			entry := &models.HistoryEntry{
				ID:             id.NewHistoryID(),
				EvaluationID:   current.ID,
				PreviousStatus: current.Status,
				NewStatus:      status,
				ChangedByID:    actor.UserID,
				ChangedAt:      now,
			}
			if err := s.store.AppendHistory(txCtx, entry); err != nil {
				return err
			}
			current.Status = status
			current.EvaluatedByID = actor.UserID
			current.EvaluatedAt = now
			if err := s.store.OverwriteEvaluation(txCtx, current); err != nil {
				return err
			}
			result = current
			overwrote = true
			return nil
		case errors.Is(err, sentinel.ErrNotFound):
			eval := &models.Evaluation{
				ID:            id.NewEvaluationID(),
				CompanyID:     actor.CompanyID,
				TextID:        req.TextID,
				RequirementID: requirementID,
				Status:        status,
				EvaluatedByID: actor.UserID,
				EvaluatedAt:   now,
			}
			if err := s.store.CreateEvaluation(txCtx, eval); err != nil {
				return err
			}
			result = eval
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, translateStoreErr(err, "evaluation")
	}

	s.metrics.IncrementEvaluation(status.String())
	if overwrote {
		s.metrics.IncrementHistoryAppend()
	}
	return result, nil
}

// CurrentStatus reports the effective status of a requirement: the
// evaluation's status when one exists, the requirement's default
// otherwise.
func (s *Service) CurrentStatus(ctx context.Context, requirementID id.RequirementID) (*models.RequirementStatus, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	req, err := s.texts.RequirementForCompany(ctx, actor.CompanyID, requirementID)
	if err != nil {
		return nil, translateStoreErr(err, "requirement")
	}

	status := &models.RequirementStatus{
		RequirementID: req.ID,
		Number:        req.Number,
		Title:         req.Title,
		Status:        req.Status,
	}
	eval, err := s.store.GetEvaluationByRequirement(ctx, actor.CompanyID, requirementID)
	switch {
	case err == nil:
		status.Status = eval.Status
		status.Evaluated = true
		status.Evaluation = eval
	case errors.Is(err, sentinel.ErrNotFound):
		// unevaluated, keep the requirement default
	default:
		return nil, translateStoreErr(err, "evaluation")
	}
	return status, nil
}

// HistoryByRequirement lists the status changes of a requirement's
// evaluation, newest first. A never-evaluated requirement has an empty
// history, not a missing one.
func (s *Service) HistoryByRequirement(ctx context.Context, requirementID id.RequirementID) ([]models.HistoryEntry, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.texts.RequirementForCompany(ctx, actor.CompanyID, requirementID); err != nil {
		return nil, translateStoreErr(err, "requirement")
	}

	eval, err := s.store.GetEvaluationByRequirement(ctx, actor.CompanyID, requirementID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, translateStoreErr(err, "evaluation")
	}

	entries, err := s.store.ListHistoryByEvaluation(ctx, eval.ID)
	if err != nil {
		return nil, translateStoreErr(err, "evaluation history")
	}
	return entries, nil
}

// SaveToHistory freezes the current evaluations of a text by flipping
// their saved flag. It does not copy rows anywhere: history entries are
// already written on every overwrite.
func (s *Service) SaveToHistory(ctx context.Context, textID id.TextID) (int, error) {
	actor, err := requireEvaluator(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := s.texts.TextForCompany(ctx, actor.CompanyID, textID); err != nil {
		return 0, translateStoreErr(err, "text")
	}

	marked, err := s.store.MarkSavedToHistory(ctx, actor.CompanyID, textID)
	if err != nil {
		return 0, translateStoreErr(err, "evaluation")
	}
	s.metrics.IncrementHistoryFreeze()
	return marked, nil
}
