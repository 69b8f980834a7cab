package store

import (
	"context"
	"sort"
	"sync"

	"lexaudit/internal/action/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
)

// Memory is an in-process action store used by unit tests and local
// development.
type Memory struct {
	mu            sync.RWMutex
	actions       map[id.ActionID]models.Action
	notifications map[id.NotificationID]models.Notification
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		actions:       make(map[id.ActionID]models.Action),
		notifications: make(map[id.NotificationID]models.Notification),
	}
}

func (m *Memory) CreateAction(_ context.Context, action *models.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actions[action.ID]; ok {
		return sentinel.ErrConflict
	}
	m.actions[action.ID] = *action
	return nil
}

func (m *Memory) GetAction(_ context.Context, companyID id.CompanyID, actionID id.ActionID) (*models.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	action, ok := m.actions[actionID]
	if !ok || action.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	out := action
	return &out, nil
}

func (m *Memory) ListActions(_ context.Context, companyID id.CompanyID, filter models.ActionFilter) ([]models.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Action{}
	for _, action := range m.actions {
		if action.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && action.Status != filter.Status {
			continue
		}
		if filter.TextID != nil && (action.TextID == nil || *action.TextID != *filter.TextID) {
			continue
		}
		if filter.ResponsibleID != nil && (action.ResponsibleID == nil || *action.ResponsibleID != *filter.ResponsibleID) {
			continue
		}
		out = append(out, action)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateAction(_ context.Context, action *models.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.actions[action.ID]
	if !ok || existing.CompanyID != action.CompanyID {
		return sentinel.ErrNotFound
	}
	m.actions[action.ID] = *action
	return nil
}

func (m *Memory) DeleteAction(_ context.Context, companyID id.CompanyID, actionID id.ActionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	action, ok := m.actions[actionID]
	if !ok || action.CompanyID != companyID {
		return sentinel.ErrNotFound
	}
	delete(m.actions, actionID)
	return nil
}

func (m *Memory) CreateNotification(_ context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *Memory) ListNotifications(_ context.Context, userID id.UserID) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Notification{}
	for _, notification := range m.notifications {
		if notification.UserID == userID {
			out = append(out, notification)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, userID id.UserID, notificationID id.NotificationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	notification, ok := m.notifications[notificationID]
	if !ok || notification.UserID != userID {
		return sentinel.ErrNotFound
	}
	notification.IsRead = true
	m.notifications[notificationID] = notification
	return nil
}

func (m *Memory) DeleteNotificationsForAction(_ context.Context, actionID id.ActionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteNotificationsForActionLocked(actionID)
	return nil
}

func (m *Memory) deleteNotificationsForActionLocked(actionID id.ActionID) {
	for notificationID, notification := range m.notifications {
		if notification.RelatedActionID != nil && *notification.RelatedActionID == actionID {
			delete(m.notifications, notificationID)
		}
	}
}

// DeleteForText removes every action referencing the text or one of its
// requirements, notifications first.
func (m *Memory) DeleteForText(_ context.Context, companyID id.CompanyID, textID id.TextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for actionID, action := range m.actions {
		if action.CompanyID != companyID {
			continue
		}
		if action.TextID == nil || *action.TextID != textID {
			continue
		}
		m.deleteNotificationsForActionLocked(actionID)
		delete(m.actions, actionID)
	}
	return nil
}

// DeleteForRequirement removes every action referencing the requirement,
// notifications first.
func (m *Memory) DeleteForRequirement(_ context.Context, companyID id.CompanyID, requirementID id.RequirementID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for actionID, action := range m.actions {
		if action.CompanyID != companyID {
			continue
		}
		if action.RequirementID == nil || *action.RequirementID != requirementID {
			continue
		}
		m.deleteNotificationsForActionLocked(actionID)
		delete(m.actions, actionID)
	}
	return nil
}
