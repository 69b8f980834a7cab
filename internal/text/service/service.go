// Package service manages legal texts and their requirements, including
// the cascade that removes everything referencing a deleted text.
package service

import (
	"context"
	"errors"
	"strings"

	textmetrics "lexaudit/internal/text/metrics"
	"lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// Store is the persistence port for texts and requirements.
type Store interface {
	CreateText(ctx context.Context, text *models.Text) error
	GetText(ctx context.Context, companyID id.CompanyID, textID id.TextID) (*models.Text, error)
	ListTexts(ctx context.Context, companyID id.CompanyID, filter models.TextFilter) ([]models.Text, error)
	UpdateText(ctx context.Context, text *models.Text) error
	DeleteText(ctx context.Context, companyID id.CompanyID, textID id.TextID) error

	CreateRequirement(ctx context.Context, req *models.Requirement) error
	GetRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Requirement, error)
	UpdateRequirement(ctx context.Context, req *models.Requirement) error
	DeleteRequirement(ctx context.Context, requirementID id.RequirementID) error
	ListRequirementsByText(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Requirement, error)
	DeleteRequirementsForText(ctx context.Context, textID id.TextID) error
}

// DomainReader verifies regulatory domains before a text is filed under
// one.
type DomainReader interface {
	DomainExists(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error)
}

// Files removes stored text documents during the cascade.
type Files interface {
	Remove(ctx context.Context, storedPath string) error
}

// TxRunner executes fn inside one transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages texts for a tenant.
type Service struct {
	store   Store
	domains DomainReader
	cascade *CascadeDeleter
	metrics *textmetrics.Metrics
}

// New constructs the text service.
func New(store Store, domains DomainReader, cascade *CascadeDeleter, metrics *textmetrics.Metrics) *Service {
	return &Service{
		store:   store,
		domains: domains,
		cascade: cascade,
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

func requireEditor(ctx context.Context) (requestcontext.ActorContext, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return actor, err
	}
	if actor.Role != id.RoleManager && actor.Role != id.RoleAuditor {
		return actor, dErrors.New(dErrors.CodeForbidden, "editing texts requires the manager or auditor role")
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

// CreateParams carries the fields of a new text plus its initial
// requirements.
type CreateParams struct {
	DomainID        id.DomainID
	Reference       string
	Nature          string
	PublicationYear int
	Penalties       string
	Content         string
	FilePath        string
	Requirements    []RequirementParams
}

// RequirementParams carries one requirement's fields.
type RequirementParams struct {
	Number string
	Title  string
	Status id.EvaluationStatus
}

// TextWithRequirements is the get/detail projection.
type TextWithRequirements struct {
	models.Text
	Requirements []models.Requirement
}

// Create registers a text with its initial requirements.
func (s *Service) Create(ctx context.Context, params CreateParams) (*TextWithRequirements, error) {
	actor, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.domains.DomainExists(ctx, actor.CompanyID, params.DomainID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check domain")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown domain")
	}

	text, err := models.NewText(actor.CompanyID, params.DomainID, params.Reference, params.Nature,
		params.PublicationYear, params.Penalties, params.Content, actor.UserID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	text.FilePath = strings.TrimSpace(params.FilePath)

	requirements := make([]models.Requirement, 0, len(params.Requirements))
	for _, rp := range params.Requirements {
		req, err := models.NewRequirement(text.ID, rp.Number, rp.Title, rp.Status)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, *req)
	}

	err = s.cascade.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.CreateText(txCtx, text); err != nil {
			return err
		}
		for i := range requirements {
			if err := s.store.CreateRequirement(txCtx, &requirements[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err, "text")
	}

	s.metrics.IncrementTextCreated()
	return &TextWithRequirements{Text: *text, Requirements: requirements}, nil
}

// List returns the tenant's texts matching the filter.
func (s *Service) List(ctx context.Context, filter models.TextFilter) ([]models.Text, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	filter.Normalize()

	texts, err := s.store.ListTexts(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, translateStoreErr(err, "texts")
	}
	return texts, nil
}

// Get returns a text with its requirements.
func (s *Service) Get(ctx context.Context, textID id.TextID) (*TextWithRequirements, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	text, err := s.store.GetText(ctx, actor.CompanyID, textID)
	if err != nil {
		return nil, translateStoreErr(err, "text")
	}
	requirements, err := s.store.ListRequirementsByText(ctx, actor.CompanyID, textID)
	if err != nil {
		return nil, translateStoreErr(err, "requirements")
	}
	return &TextWithRequirements{Text: *text, Requirements: requirements}, nil
}

// UpdateParams carries the mutable text fields; nil pointers leave the
// field unchanged.
type UpdateParams struct {
	Reference       *string
	Nature          *string
	PublicationYear *int
	Penalties       *string
	Content         *string
}

// Update edits a text's descriptive fields.
func (s *Service) Update(ctx context.Context, textID id.TextID, params UpdateParams) (*models.Text, error) {
	actor, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	text, err := s.store.GetText(ctx, actor.CompanyID, textID)
	if err != nil {
		return nil, translateStoreErr(err, "text")
	}
	if params.Reference != nil {
		reference := strings.TrimSpace(*params.Reference)
		if reference == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "reference cannot be empty")
		}
		text.Reference = reference
	}
	if params.Nature != nil {
		text.Nature = *params.Nature
	}
	if params.PublicationYear != nil {
		text.PublicationYear = *params.PublicationYear
	}
	if params.Penalties != nil {
		text.Penalties = *params.Penalties
	}
	if params.Content != nil {
		text.Content = *params.Content
	}

	if err := s.store.UpdateText(ctx, text); err != nil {
		return nil, translateStoreErr(err, "text")
	}
	return text, nil
}

// Delete removes a text and everything referencing it. Manager only.
func (s *Service) Delete(ctx context.Context, textID id.TextID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if actor.Role != id.RoleManager {
		return dErrors.New(dErrors.CodeForbidden, "deleting a text requires the manager role")
	}

	if _, err := s.store.GetText(ctx, actor.CompanyID, textID); err != nil {
		return translateStoreErr(err, "text")
	}
	if err := s.cascade.DeleteText(ctx, actor.CompanyID, textID); err != nil {
		return err
	}
	s.metrics.IncrementCascade()
	return nil
}

// AddRequirement appends a requirement to a text.
func (s *Service) AddRequirement(ctx context.Context, textID id.TextID, params RequirementParams) (*models.Requirement, error) {
	actor, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetText(ctx, actor.CompanyID, textID); err != nil {
		return nil, translateStoreErr(err, "text")
	}

	req, err := models.NewRequirement(textID, params.Number, params.Title, params.Status)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRequirement(ctx, req); err != nil {
		return nil, translateStoreErr(err, "requirement")
	}
	s.metrics.IncrementRequirementMutation("create")
	return req, nil
}

// UpdateRequirement edits a requirement's number, title or default status.
func (s *Service) UpdateRequirement(ctx context.Context, requirementID id.RequirementID, params RequirementParams) (*models.Requirement, error) {
	actor, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	req, err := s.store.GetRequirement(ctx, actor.CompanyID, requirementID)
	if err != nil {
		return nil, translateStoreErr(err, "requirement")
	}
	if number := strings.TrimSpace(params.Number); number != "" {
		req.Number = number
	}
	if title := strings.TrimSpace(params.Title); title != "" {
		req.Title = title
	}
	if params.Status != "" {
		if !params.Status.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid requirement status")
		}
		req.Status = params.Status
	}

	if err := s.store.UpdateRequirement(ctx, req); err != nil {
		return nil, translateStoreErr(err, "requirement")
	}
	s.metrics.IncrementRequirementMutation("update")
	return req, nil
}

// DeleteRequirement removes one requirement and everything referencing it.
func (s *Service) DeleteRequirement(ctx context.Context, requirementID id.RequirementID) error {
	actor, err := requireEditor(ctx)
	if err != nil {
		return err
	}

	req, err := s.store.GetRequirement(ctx, actor.CompanyID, requirementID)
	if err != nil {
		return translateStoreErr(err, "requirement")
	}
	if err := s.cascade.DeleteRequirement(ctx, actor.CompanyID, req); err != nil {
		return err
	}
	s.metrics.IncrementRequirementMutation("delete")
	return nil
}
