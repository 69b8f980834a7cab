// Package service implements compliance evaluation tracking: the
// overwrite-in-place current status, its append-only history, satellite
// records, and the reporting projections built on top.
package service

import (
	"context"
	"errors"

	compliancemetrics "lexaudit/internal/compliance/metrics"
	"lexaudit/internal/compliance/models"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// Store is the persistence port for evaluations and satellites.
type Store interface {
	GetEvaluationByRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Evaluation, error)
	GetEvaluation(ctx context.Context, companyID id.CompanyID, evaluationID id.EvaluationID) (*models.Evaluation, error)
	CreateEvaluation(ctx context.Context, eval *models.Evaluation) error
	OverwriteEvaluation(ctx context.Context, eval *models.Evaluation) error
	ListEvaluationsByText(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Evaluation, error)
	MarkSavedToHistory(ctx context.Context, companyID id.CompanyID, textID id.TextID) (int, error)

	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistoryByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.HistoryEntry, error)

	AddObservation(ctx context.Context, obs *models.Observation) error
	GetObservation(ctx context.Context, observationID id.ObservationID) (*models.Observation, error)
	DeleteObservation(ctx context.Context, observationID id.ObservationID) error
	ListObservationsByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.Observation, error)

	AddParameter(ctx context.Context, param *models.MonitoringParameter) error
	GetParameter(ctx context.Context, parameterID id.ParameterID) (*models.MonitoringParameter, error)
	DeleteParameter(ctx context.Context, parameterID id.ParameterID) error
	ListParametersByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.MonitoringParameter, error)

	AddAttachment(ctx context.Context, att *models.Attachment) error
	GetAttachment(ctx context.Context, attachmentID id.AttachmentID) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID id.AttachmentID) error
	ListAttachmentsByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.Attachment, error)
}

// TextReader exposes the text module's tenant-scoped lookups.
type TextReader interface {
	TextForCompany(ctx context.Context, companyID id.CompanyID, textID id.TextID) (*textmodels.Text, error)
	RequirementForCompany(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*textmodels.Requirement, error)
	RequirementsForText(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]textmodels.Requirement, error)
	ListTexts(ctx context.Context, companyID id.CompanyID, filter textmodels.TextFilter) ([]textmodels.Text, error)
}

// Files stores attachment binaries.
type Files interface {
	Save(ctx context.Context, relPath string, content []byte) (string, error)
	Read(ctx context.Context, storedPath string) ([]byte, error)
	Remove(ctx context.Context, storedPath string) error
}

// TxRunner executes fn inside one transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service tracks compliance evaluations for a tenant.
type Service struct {
	store   Store
	texts   TextReader
	files   Files
	tx      TxRunner
	metrics *compliancemetrics.Metrics
}

// New constructs the compliance service.
func New(store Store, texts TextReader, files Files, tx TxRunner, metrics *compliancemetrics.Metrics) *Service {
	return &Service{
		store:   store,
		texts:   texts,
		files:   files,
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

// requireEvaluator rejects read-only users before any mutation.
func requireEvaluator(ctx context.Context) (requestcontext.ActorContext, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return actor, err
	}
	if actor.Role != id.RoleManager && actor.Role != id.RoleAuditor {
		return actor, dErrors.New(dErrors.CodeForbidden, "evaluation requires the manager or auditor role")
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
