package store

import (
	"context"
	"sort"
	"sync"

	"lexaudit/internal/taxonomy/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
)

// Memory is an in-memory domain store used as a test double.
type Memory struct {
	mu      sync.RWMutex
	domains map[id.DomainID]models.Domain
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{domains: make(map[id.DomainID]models.Domain)}
}

func (m *Memory) CreateDomain(_ context.Context, domain *models.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.domains[domain.ID]; exists {
		return sentinel.ErrConflict
	}
	m.domains[domain.ID] = *domain
	return nil
}

func (m *Memory) GetDomain(_ context.Context, companyID id.CompanyID, domainID id.DomainID) (*models.Domain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	domain, ok := m.domains[domainID]
	if !ok || domain.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	return &domain, nil
}

func (m *Memory) ListDomains(_ context.Context, companyID id.CompanyID) ([]models.Domain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Domain{}
	for _, domain := range m.domains {
		if domain.CompanyID == companyID {
			out = append(out, domain)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteDomain(_ context.Context, companyID id.CompanyID, domainID id.DomainID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	domain, ok := m.domains[domainID]
	if !ok || domain.CompanyID != companyID {
		return sentinel.ErrNotFound
	}
	delete(m.domains, domainID)
	return nil
}

// DomainExists implements the DomainReader port shared by the review and
// text services.
func (m *Memory) DomainExists(_ context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	domain, ok := m.domains[domainID]
	return ok && domain.CompanyID == companyID, nil
}
