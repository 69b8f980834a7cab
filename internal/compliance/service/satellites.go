package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"lexaudit/internal/compliance/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/requestcontext"
)

// evaluationForActor loads an evaluation and enforces tenant scoping.
func (s *Service) evaluationForActor(ctx context.Context, actor requestcontext.ActorContext, evaluationID id.EvaluationID) (*models.Evaluation, error) {
	eval, err := s.store.GetEvaluation(ctx, actor.CompanyID, evaluationID)
	if err != nil {
		return nil, translateStoreErr(err, "evaluation")
	}
	return eval, nil
}

// AddObservation attaches a free-text note to an evaluation.
func (s *Service) AddObservation(ctx context.Context, evaluationID id.EvaluationID, content string) (*models.Observation, error) {
	actor, err := requireEvaluator(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "observation content is required")
	}
	if _, err := s.evaluationForActor(ctx, actor, evaluationID); err != nil {
		return nil, err
	}

	obs := &models.Observation{
		ID:           id.NewObservationID(),
		EvaluationID: evaluationID,
		Content:      content,
		CreatedByID:  actor.UserID,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.AddObservation(ctx, obs); err != nil {
		return nil, translateStoreErr(err, "observation")
	}
	return obs, nil
}

// DeleteObservation removes a note. Only its creator may do so, managers
// included.
func (s *Service) DeleteObservation(ctx context.Context, observationID id.ObservationID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	obs, err := s.store.GetObservation(ctx, observationID)
	if err != nil {
		return translateStoreErr(err, "observation")
	}
	if _, err := s.evaluationForActor(ctx, actor, obs.EvaluationID); err != nil {
		return err
	}
	if obs.CreatedByID != actor.UserID {
		return dErrors.New(dErrors.CodeForbidden, "only the creator may delete an observation")
	}

	if err := s.store.DeleteObservation(ctx, observationID); err != nil {
		return translateStoreErr(err, "observation")
	}
	return nil
}

// AddParameter registers a monitoring parameter on an evaluation.
func (s *Service) AddParameter(ctx context.Context, evaluationID id.EvaluationID, name, value, frequency string) (*models.MonitoringParameter, error) {
	actor, err := requireEvaluator(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "parameter name is required")
	}
	if _, err := s.evaluationForActor(ctx, actor, evaluationID); err != nil {
		return nil, err
	}

	param := &models.MonitoringParameter{
		ID:           id.NewParameterID(),
		EvaluationID: evaluationID,
		Name:         name,
		Value:        strings.TrimSpace(value),
		Frequency:    strings.TrimSpace(frequency),
		CreatedByID:  actor.UserID,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.AddParameter(ctx, param); err != nil {
		return nil, translateStoreErr(err, "monitoring parameter")
	}
	return param, nil
}

// DeleteParameter removes a monitoring parameter. The creator may always
// delete their own; managers may delete any.
func (s *Service) DeleteParameter(ctx context.Context, parameterID id.ParameterID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	param, err := s.store.GetParameter(ctx, parameterID)
	if err != nil {
		return translateStoreErr(err, "monitoring parameter")
	}
	if _, err := s.evaluationForActor(ctx, actor, param.EvaluationID); err != nil {
		return err
	}
	if param.CreatedByID != actor.UserID && actor.Role != id.RoleManager {
		return dErrors.New(dErrors.CodeForbidden, "cannot delete another user's monitoring parameter")
	}

	if err := s.store.DeleteParameter(ctx, parameterID); err != nil {
		return translateStoreErr(err, "monitoring parameter")
	}
	return nil
}

// AddAttachment stores a supporting document's bytes and records it on the
// evaluation.
func (s *Service) AddAttachment(ctx context.Context, evaluationID id.EvaluationID, fileName string, content []byte) (*models.Attachment, error) {
	actor, err := requireEvaluator(ctx)
	if err != nil {
		return nil, err
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." {
		return nil, dErrors.New(dErrors.CodeValidation, "file name is required")
	}
	if len(content) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "file content is required")
	}
	if _, err := s.evaluationForActor(ctx, actor, evaluationID); err != nil {
		return nil, err
	}

	attID := id.NewAttachmentID()
	relPath := filepath.Join("attachments", fmt.Sprintf("%s_%s", attID, fileName))
	storedPath, err := s.files.Save(ctx, relPath, content)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store attachment file")
	}

	att := &models.Attachment{
		ID:           attID,
		EvaluationID: evaluationID,
		FileName:     fileName,
		FilePath:     storedPath,
		CreatedByID:  actor.UserID,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.AddAttachment(ctx, att); err != nil {
		// best effort: don't leave an orphan file behind the failed row
		_ = s.files.Remove(ctx, storedPath)
		return nil, translateStoreErr(err, "attachment")
	}
	return att, nil
}

// OpenAttachment returns an attachment's metadata and bytes.
func (s *Service) OpenAttachment(ctx context.Context, attachmentID id.AttachmentID) (*models.Attachment, []byte, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, nil, err
	}

	att, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, nil, translateStoreErr(err, "attachment")
	}
	if _, err := s.evaluationForActor(ctx, actor, att.EvaluationID); err != nil {
		return nil, nil, err
	}

	content, err := s.files.Read(ctx, att.FilePath)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read attachment file")
	}
	return att, content, nil
}

// DeleteAttachment removes an attachment row and its file. Only the
// creator may delete, managers included.
func (s *Service) DeleteAttachment(ctx context.Context, attachmentID id.AttachmentID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	att, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return translateStoreErr(err, "attachment")
	}
	if _, err := s.evaluationForActor(ctx, actor, att.EvaluationID); err != nil {
		return err
	}
	if att.CreatedByID != actor.UserID {
		return dErrors.New(dErrors.CodeForbidden, "only the creator may delete an attachment")
	}

	if err := s.store.DeleteAttachment(ctx, attachmentID); err != nil {
		return translateStoreErr(err, "attachment")
	}
	if err := s.files.Remove(ctx, att.FilePath); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove attachment file")
	}
	return nil
}
