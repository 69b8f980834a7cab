package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
)

// Memory is an in-process text store used by unit tests and local
// development. It also serves the read ports of the review and compliance
// modules.
type Memory struct {
	mu           sync.RWMutex
	texts        map[id.TextID]models.Text
	requirements map[id.RequirementID]models.Requirement
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		texts:        make(map[id.TextID]models.Text),
		requirements: make(map[id.RequirementID]models.Requirement),
	}
}

func (m *Memory) getTextLocked(companyID id.CompanyID, textID id.TextID) (models.Text, error) {
	text, ok := m.texts[textID]
	if !ok || text.CompanyID != companyID {
		return models.Text{}, sentinel.ErrNotFound
	}
	return text, nil
}

func (m *Memory) CreateText(_ context.Context, text *models.Text) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.texts[text.ID]; ok {
		return sentinel.ErrConflict
	}
	m.texts[text.ID] = *text
	return nil
}

func (m *Memory) GetText(_ context.Context, companyID id.CompanyID, textID id.TextID) (*models.Text, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, err := m.getTextLocked(companyID, textID)
	if err != nil {
		return nil, err
	}
	return &text, nil
}

func (m *Memory) ListTexts(_ context.Context, companyID id.CompanyID, filter models.TextFilter) ([]models.Text, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Text{}
	for _, text := range m.texts {
		if text.CompanyID != companyID {
			continue
		}
		if filter.DomainID != nil && text.DomainID != *filter.DomainID {
			continue
		}
		if filter.Nature != "" && !strings.EqualFold(text.Nature, filter.Nature) {
			continue
		}
		if filter.PublicationYear != nil && text.PublicationYear != *filter.PublicationYear {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(text.Reference), strings.ToLower(filter.Keyword)) {
			continue
		}
		out = append(out, text)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateText(_ context.Context, text *models.Text) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.texts[text.ID]
	if !ok || existing.CompanyID != text.CompanyID {
		return sentinel.ErrNotFound
	}
	m.texts[text.ID] = *text
	return nil
}

func (m *Memory) DeleteText(_ context.Context, companyID id.CompanyID, textID id.TextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getTextLocked(companyID, textID); err != nil {
		return err
	}
	delete(m.texts, textID)
	return nil
}

func (m *Memory) CreateRequirement(_ context.Context, req *models.Requirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requirements[req.ID]; ok {
		return sentinel.ErrConflict
	}
	m.requirements[req.ID] = *req
	return nil
}

func (m *Memory) GetRequirement(_ context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Requirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requirements[requirementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if _, err := m.getTextLocked(companyID, req.TextID); err != nil {
		return nil, err
	}
	return &req, nil
}

func (m *Memory) UpdateRequirement(_ context.Context, req *models.Requirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requirements[req.ID]; !ok {
		return sentinel.ErrNotFound
	}
	m.requirements[req.ID] = *req
	return nil
}

func (m *Memory) DeleteRequirement(_ context.Context, requirementID id.RequirementID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requirements[requirementID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.requirements, requirementID)
	return nil
}

func (m *Memory) ListRequirementsByText(_ context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Requirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, err := m.getTextLocked(companyID, textID); err != nil {
		return nil, err
	}
	out := []models.Requirement{}
	for _, req := range m.requirements {
		if req.TextID == textID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) DeleteRequirementsForText(_ context.Context, textID id.TextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for reqID, req := range m.requirements {
		if req.TextID == textID {
			delete(m.requirements, reqID)
		}
	}
	return nil
}

// TextExists reports whether the company owns a text with the id.
func (m *Memory) TextExists(_ context.Context, companyID id.CompanyID, textID id.TextID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.getTextLocked(companyID, textID)
	return err == nil, nil
}

// DomainInUse reports whether any of the company's texts is filed under
// the domain.
func (m *Memory) DomainInUse(_ context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, text := range m.texts {
		if text.CompanyID == companyID && text.DomainID == domainID {
			return true, nil
		}
	}
	return false, nil
}

// TextReference returns the reference string of a company's text.
func (m *Memory) TextReference(_ context.Context, companyID id.CompanyID, textID id.TextID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, err := m.getTextLocked(companyID, textID)
	if err != nil {
		return "", err
	}
	return text.Reference, nil
}

// TextForCompany is GetText under the name the compliance module uses.
func (m *Memory) TextForCompany(ctx context.Context, companyID id.CompanyID, textID id.TextID) (*models.Text, error) {
	return m.GetText(ctx, companyID, textID)
}

// RequirementForCompany is GetRequirement under the name the review and
// compliance modules use.
func (m *Memory) RequirementForCompany(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Requirement, error) {
	return m.GetRequirement(ctx, companyID, requirementID)
}

// RequirementsForText is ListRequirementsByText under the compliance
// module's name.
func (m *Memory) RequirementsForText(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Requirement, error) {
	return m.ListRequirementsByText(ctx, companyID, textID)
}

// RequirementsByTexts returns the requirements of the given texts with
// their parent references, for the review module's available-requirements
// listing.
func (m *Memory) RequirementsByTexts(_ context.Context, companyID id.CompanyID, textIDs []id.TextID) ([]models.RequirementWithText, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[id.TextID]string, len(textIDs))
	for _, textID := range textIDs {
		if text, err := m.getTextLocked(companyID, textID); err == nil {
			wanted[textID] = text.Reference
		}
	}
	out := []models.RequirementWithText{}
	for _, req := range m.requirements {
		if reference, ok := wanted[req.TextID]; ok {
			out = append(out, models.RequirementWithText{Requirement: req, TextReference: reference})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
