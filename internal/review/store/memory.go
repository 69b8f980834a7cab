// Package store provides persistence for reviews and their child items.
// The in-memory implementation mirrors the Postgres one's semantics and
// backs service and handler tests.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lexaudit/internal/review/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
)

// Memory is a mutex-guarded map-backed Store.
type Memory struct {
	mu           sync.RWMutex
	reviews      map[id.ReviewID]models.Review
	legalTexts   map[id.ReviewItemID]models.LegalTextItem
	reqLinks     map[id.ReviewItemID]models.RequirementLinkItem
	actions      map[id.ReviewItemID]models.ActionItem
	stakeholders map[id.ReviewItemID]models.StakeholderItem
	domainNames  map[id.DomainID]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		reviews:      make(map[id.ReviewID]models.Review),
		legalTexts:   make(map[id.ReviewItemID]models.LegalTextItem),
		reqLinks:     make(map[id.ReviewItemID]models.RequirementLinkItem),
		actions:      make(map[id.ReviewItemID]models.ActionItem),
		stakeholders: make(map[id.ReviewItemID]models.StakeholderItem),
		domainNames:  make(map[id.DomainID]string),
	}
}

// SetDomainName seeds the domain name used in list and detail projections.
func (m *Memory) SetDomainName(domainID id.DomainID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domainNames[domainID] = name
}

func (m *Memory) CreateReview(_ context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[review.ID]; ok {
		return sentinel.ErrConflict
	}
	m.reviews[review.ID] = *review
	return nil
}

func (m *Memory) getReviewLocked(companyID id.CompanyID, reviewID id.ReviewID) (models.Review, error) {
	review, ok := m.reviews[reviewID]
	if !ok || review.CompanyID != companyID {
		return models.Review{}, sentinel.ErrNotFound
	}
	return review, nil
}

func (m *Memory) GetReview(_ context.Context, companyID id.CompanyID, reviewID id.ReviewID) (*models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	review, err := m.getReviewLocked(companyID, reviewID)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (m *Memory) GetReviewDetail(_ context.Context, companyID id.CompanyID, reviewID id.ReviewID) (*models.ReviewDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	review, err := m.getReviewLocked(companyID, reviewID)
	if err != nil {
		return nil, err
	}

	detail := &models.ReviewDetail{
		Review:       review,
		DomainName:   m.domainNames[review.DomainID],
		LegalTexts:   []models.LegalTextItem{},
		Requirements: []models.RequirementLinkItem{},
		Actions:      []models.ActionItem{},
		Stakeholders: []models.StakeholderItem{},
	}
	for _, item := range m.legalTexts {
		if item.ReviewID == reviewID {
			detail.LegalTexts = append(detail.LegalTexts, item)
		}
	}
	for _, item := range m.reqLinks {
		if item.ReviewID == reviewID {
			detail.Requirements = append(detail.Requirements, item)
		}
	}
	for _, item := range m.actions {
		if item.ReviewID == reviewID {
			detail.Actions = append(detail.Actions, item)
		}
	}
	for _, item := range m.stakeholders {
		if item.ReviewID == reviewID {
			detail.Stakeholders = append(detail.Stakeholders, item)
		}
	}
	sort.Slice(detail.LegalTexts, func(i, j int) bool {
		return detail.LegalTexts[i].CreatedAt.Before(detail.LegalTexts[j].CreatedAt)
	})
	sort.Slice(detail.Requirements, func(i, j int) bool {
		return detail.Requirements[i].CreatedAt.Before(detail.Requirements[j].CreatedAt)
	})
	sort.Slice(detail.Actions, func(i, j int) bool {
		return detail.Actions[i].CreatedAt.Before(detail.Actions[j].CreatedAt)
	})
	sort.Slice(detail.Stakeholders, func(i, j int) bool {
		return detail.Stakeholders[i].CreatedAt.Before(detail.Stakeholders[j].CreatedAt)
	})
	return detail, nil
}

func (m *Memory) ListReviews(_ context.Context, companyID id.CompanyID, filter models.ListFilter) ([]models.ReviewSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := []models.ReviewSummary{}
	for _, review := range m.reviews {
		if review.CompanyID != companyID {
			continue
		}
		if filter.DomainID != nil && review.DomainID != *filter.DomainID {
			continue
		}
		if filter.ReviewDateAfter != nil && !review.ReviewDate.After(*filter.ReviewDateAfter) {
			continue
		}
		summaries = append(summaries, models.ReviewSummary{
			ID:         review.ID,
			DomainID:   review.DomainID,
			DomainName: m.domainNames[review.DomainID],
			ReviewDate: review.ReviewDate,
			Status:     review.Status,
			CreatedAt:  review.CreatedAt,
			PDFPath:    review.PDFPath,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (m *Memory) UpdateReviewDate(_ context.Context, companyID id.CompanyID, reviewID id.ReviewID, reviewDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, err := m.getReviewLocked(companyID, reviewID)
	if err != nil {
		return err
	}
	review.ReviewDate = reviewDate
	m.reviews[reviewID] = review
	return nil
}

func (m *Memory) TransitionStatus(_ context.Context, companyID id.CompanyID, reviewID id.ReviewID, from, to id.ReviewStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, err := m.getReviewLocked(companyID, reviewID)
	if err != nil {
		return err
	}
	if review.Status != from {
		return sentinel.ErrConflict
	}
	review.Status = to
	m.reviews[reviewID] = review
	return nil
}

func (m *Memory) SetPDFPath(_ context.Context, companyID id.CompanyID, reviewID id.ReviewID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, err := m.getReviewLocked(companyID, reviewID)
	if err != nil {
		return err
	}
	review.PDFPath = path
	m.reviews[reviewID] = review
	return nil
}

func (m *Memory) DeleteReview(_ context.Context, companyID id.CompanyID, reviewID id.ReviewID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getReviewLocked(companyID, reviewID); err != nil {
		return err
	}
	delete(m.reviews, reviewID)
	for itemID, item := range m.legalTexts {
		if item.ReviewID == reviewID {
			delete(m.legalTexts, itemID)
		}
	}
	for itemID, item := range m.reqLinks {
		if item.ReviewID == reviewID {
			delete(m.reqLinks, itemID)
		}
	}
	for itemID, item := range m.actions {
		if item.ReviewID == reviewID {
			delete(m.actions, itemID)
		}
	}
	for itemID, item := range m.stakeholders {
		if item.ReviewID == reviewID {
			delete(m.stakeholders, itemID)
		}
	}
	return nil
}

func (m *Memory) AddLegalText(_ context.Context, item *models.LegalTextItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legalTexts[item.ID] = *item
	return nil
}

func (m *Memory) GetLegalText(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.LegalTextItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.legalTexts[itemID]
	if !ok || item.ReviewID != reviewID {
		return nil, sentinel.ErrNotFound
	}
	return &item, nil
}

func (m *Memory) UpdateLegalText(_ context.Context, item *models.LegalTextItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.legalTexts[item.ID]
	if !ok || existing.ReviewID != item.ReviewID {
		return sentinel.ErrNotFound
	}
	m.legalTexts[item.ID] = *item
	return nil
}

func (m *Memory) DeleteLegalText(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.legalTexts[itemID]
	if !ok || item.ReviewID != reviewID {
		return sentinel.ErrNotFound
	}
	delete(m.legalTexts, itemID)
	return nil
}

func (m *Memory) ListLegalTextIDs(_ context.Context, reviewID id.ReviewID) ([]id.TextID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := []id.TextID{}
	seen := map[id.TextID]bool{}
	for _, item := range m.legalTexts {
		if item.ReviewID == reviewID && !seen[item.TextID] {
			seen[item.TextID] = true
			ids = append(ids, item.TextID)
		}
	}
	return ids, nil
}

func (m *Memory) AddRequirementLink(_ context.Context, item *models.RequirementLinkItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reqLinks {
		if existing.ReviewID == item.ReviewID && existing.TextRequirementID == item.TextRequirementID {
			return sentinel.ErrConflict
		}
	}
	m.reqLinks[item.ID] = *item
	return nil
}

func (m *Memory) GetRequirementLink(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.RequirementLinkItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.reqLinks[itemID]
	if !ok || item.ReviewID != reviewID {
		return nil, sentinel.ErrNotFound
	}
	return &item, nil
}

func (m *Memory) UpdateRequirementLink(_ context.Context, item *models.RequirementLinkItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.reqLinks[item.ID]
	if !ok || existing.ReviewID != item.ReviewID {
		return sentinel.ErrNotFound
	}
	m.reqLinks[item.ID] = *item
	return nil
}

func (m *Memory) DeleteRequirementLink(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.reqLinks[itemID]
	if !ok || item.ReviewID != reviewID {
		return sentinel.ErrNotFound
	}
	delete(m.reqLinks, itemID)
	return nil
}

func (m *Memory) HasRequirementLink(_ context.Context, reviewID id.ReviewID, requirementID id.RequirementID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.reqLinks {
		if item.ReviewID == reviewID && item.TextRequirementID == requirementID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListLinkedRequirementIDs(_ context.Context, reviewID id.ReviewID) ([]id.RequirementID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := []id.RequirementID{}
	for _, item := range m.reqLinks {
		if item.ReviewID == reviewID {
			ids = append(ids, item.TextRequirementID)
		}
	}
	return ids, nil
}

func (m *Memory) AddActionItem(_ context.Context, item *models.ActionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[item.ID] = *item
	return nil
}

func (m *Memory) GetActionItem(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.ActionItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.actions[itemID]
	if !ok || item.ReviewID != reviewID {
		return nil, sentinel.ErrNotFound
	}
	return &item, nil
}

func (m *Memory) UpdateActionItem(_ context.Context, item *models.ActionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.actions[item.ID]
	if !ok || existing.ReviewID != item.ReviewID {
		return sentinel.ErrNotFound
	}
	m.actions[item.ID] = *item
	return nil
}

func (m *Memory) DeleteActionItem(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.actions[itemID]
	if !ok || item.ReviewID != reviewID {
		return sentinel.ErrNotFound
	}
	delete(m.actions, itemID)
	return nil
}

func (m *Memory) AddStakeholder(_ context.Context, item *models.StakeholderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stakeholders[item.ID] = *item
	return nil
}

func (m *Memory) GetStakeholder(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.StakeholderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.stakeholders[itemID]
	if !ok || item.ReviewID != reviewID {
		return nil, sentinel.ErrNotFound
	}
	return &item, nil
}

func (m *Memory) UpdateStakeholder(_ context.Context, item *models.StakeholderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.stakeholders[item.ID]
	if !ok || existing.ReviewID != item.ReviewID {
		return sentinel.ErrNotFound
	}
	m.stakeholders[item.ID] = *item
	return nil
}

func (m *Memory) DeleteStakeholder(_ context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.stakeholders[itemID]
	if !ok || item.ReviewID != reviewID {
		return sentinel.ErrNotFound
	}
	delete(m.stakeholders, itemID)
	return nil
}

// DeleteItemsForText removes every legal text item that snapshots the given
// text, across all reviews. Used by the text cascade.
func (m *Memory) DeleteItemsForText(_ context.Context, textID id.TextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for itemID, item := range m.legalTexts {
		if item.TextID == textID {
			delete(m.legalTexts, itemID)
		}
	}
	return nil
}

// DeleteLinksForRequirements removes every requirement link referencing any
// of the given requirements, across all reviews. Used by the text cascade.
func (m *Memory) DeleteLinksForRequirements(_ context.Context, requirementIDs []id.RequirementID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[id.RequirementID]bool, len(requirementIDs))
	for _, rid := range requirementIDs {
		set[rid] = true
	}
	for itemID, item := range m.reqLinks {
		if set[item.TextRequirementID] {
			delete(m.reqLinks, itemID)
		}
	}
	return nil
}
