// Package service implements the domain taxonomy workflows.
package service

import (
	"context"
	"errors"
	"strings"

	"lexaudit/internal/taxonomy/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// Store is the persistence port for domains.
type Store interface {
	CreateDomain(ctx context.Context, domain *models.Domain) error
	GetDomain(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) (*models.Domain, error)
	ListDomains(ctx context.Context, companyID id.CompanyID) ([]models.Domain, error)
	DeleteDomain(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) error
}

// UsageChecker reports whether any legal text is filed under a domain.
type UsageChecker interface {
	DomainInUse(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error)
}

// Service implements the taxonomy use cases.
type Service struct {
	store Store
	usage UsageChecker
}

// New constructs the taxonomy service.
func New(store Store, usage UsageChecker) *Service {
	return &Service{store: store, usage: usage}
}

func requireActor(ctx context.Context) (requestcontext.ActorContext, error) {
	actor := requestcontext.Actor(ctx)
	if !actor.Valid() {
		return requestcontext.ActorContext{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

func requireManager(ctx context.Context) (requestcontext.ActorContext, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return requestcontext.ActorContext{}, err
	}
	if actor.Role != id.RoleManager {
		return requestcontext.ActorContext{}, dErrors.New(dErrors.CodeForbidden, "only managers can manage domains")
	}
	return actor, nil
}

func translateStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

// Create registers a new regulatory domain.
func (s *Service) Create(ctx context.Context, name string) (*models.Domain, error) {
	actor, err := requireManager(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}

	existing, err := s.store.ListDomains(ctx, actor.CompanyID)
	if err != nil {
		return nil, translateStoreErr(err, "domains")
	}
	for _, domain := range existing {
		if strings.EqualFold(domain.Name, strings.TrimSpace(name)) {
			return nil, dErrors.New(dErrors.CodeConflict, "domain already exists")
		}
	}

	domain := models.NewDomain(actor.CompanyID, name, requestcontext.Now(ctx))
	if err := s.store.CreateDomain(ctx, domain); err != nil {
		return nil, translateStoreErr(err, "domain")
	}
	return domain, nil
}

// List returns the company's domains sorted by name.
func (s *Service) List(ctx context.Context) ([]models.Domain, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	domains, err := s.store.ListDomains(ctx, actor.CompanyID)
	if err != nil {
		return nil, translateStoreErr(err, "domains")
	}
	return domains, nil
}

// Delete removes a domain nothing references anymore.
func (s *Service) Delete(ctx context.Context, domainID id.DomainID) error {
	actor, err := requireManager(ctx)
	if err != nil {
		return err
	}
	if _, err := s.store.GetDomain(ctx, actor.CompanyID, domainID); err != nil {
		return translateStoreErr(err, "domain")
	}
	inUse, err := s.usage.DomainInUse(ctx, actor.CompanyID, domainID)
	if err != nil {
		return translateStoreErr(err, "domain usage")
	}
	if inUse {
		return dErrors.New(dErrors.CodeConflict, "domain still has texts filed under it")
	}
	if err := s.store.DeleteDomain(ctx, actor.CompanyID, domainID); err != nil {
		return translateStoreErr(err, "domain")
	}
	return nil
}
