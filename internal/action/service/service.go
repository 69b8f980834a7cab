// Package service implements the corrective action workflows.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lexaudit/internal/action/metrics"
	"lexaudit/internal/action/models"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/requestcontext"
)

// Store is the persistence port for actions and notifications.
type Store interface {
	CreateAction(ctx context.Context, action *models.Action) error
	GetAction(ctx context.Context, companyID id.CompanyID, actionID id.ActionID) (*models.Action, error)
	ListActions(ctx context.Context, companyID id.CompanyID, filter models.ActionFilter) ([]models.Action, error)
	UpdateAction(ctx context.Context, action *models.Action) error
	DeleteAction(ctx context.Context, companyID id.CompanyID, actionID id.ActionID) error

	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, userID id.UserID) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error
	DeleteNotificationsForAction(ctx context.Context, actionID id.ActionID) error
}

// TextReader resolves texts and requirements an action may reference.
type TextReader interface {
	TextForCompany(ctx context.Context, companyID id.CompanyID, textID id.TextID) (*textmodels.Text, error)
	RequirementForCompany(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*textmodels.Requirement, error)
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the action use cases.
type Service struct {
	store   Store
	texts   TextReader
	tx      TxRunner
	metrics *metrics.Metrics
}

// New constructs the action service.
func New(store Store, texts TextReader, tx TxRunner, m *metrics.Metrics) *Service {
	return &Service{store: store, texts: texts, tx: tx, metrics: m}
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
		return requestcontext.ActorContext{}, err
	}
	if actor.Role != id.RoleManager && actor.Role != id.RoleAuditor {
		return requestcontext.ActorContext{}, dErrors.New(dErrors.CodeForbidden, "role cannot manage actions")
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

// CreateParams carries the fields accepted when creating an action.
type CreateParams struct {
	Description   string
	TextID        *id.TextID
	RequirementID *id.RequirementID
	ResponsibleID *id.UserID
	Deadline      *time.Time
	Effectiveness string
}

// Create records a new corrective action. When a responsible user is
// assigned, they receive a notification.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Action, error) {
	actor, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}
	if params.TextID != nil {
		if _, err := s.texts.TextForCompany(ctx, actor.CompanyID, *params.TextID); err != nil {
			return nil, translateStoreErr(err, "text")
		}
	}
	if params.RequirementID != nil {
		if _, err := s.texts.RequirementForCompany(ctx, actor.CompanyID, *params.RequirementID); err != nil {
			return nil, translateStoreErr(err, "requirement")
		}
	}

	now := requestcontext.Now(ctx)
	action, err := models.NewAction(actor.CompanyID, params.Description, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	action.TextID = params.TextID
	action.RequirementID = params.RequirementID
	action.ResponsibleID = params.ResponsibleID
	action.Deadline = params.Deadline
	action.Effectiveness = params.Effectiveness

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateAction(ctx, action); err != nil {
			return translateStoreErr(err, "action")
		}
		if action.ResponsibleID != nil && *action.ResponsibleID != actor.UserID {
			notification := &models.Notification{
				ID:              id.NewNotificationID(),
				UserID:          *action.ResponsibleID,
				Title:           "Action assigned",
				Description:     fmt.Sprintf("You are responsible for the action %q", action.Description),
				Type:            "action_assigned",
				RelatedActionID: &action.ID,
				CreatedAt:       now,
			}
			if err := s.store.CreateNotification(ctx, notification); err != nil {
				return translateStoreErr(err, "notification")
			}
			s.metrics.IncrementNotificationSent()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementActionCreated()
	return action, nil
}

// List returns the company's actions matching the filter.
func (s *Service) List(ctx context.Context, filter models.ActionFilter) ([]models.Action, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.ListActions(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, translateStoreErr(err, "actions")
	}
	return actions, nil
}

// Get returns a single action.
func (s *Service) Get(ctx context.Context, actionID id.ActionID) (*models.Action, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	action, err := s.store.GetAction(ctx, actor.CompanyID, actionID)
	if err != nil {
		return nil, translateStoreErr(err, "action")
	}
	return action, nil
}

// UpdateParams carries the partial update of an action. Nil fields are
// left unchanged.
type UpdateParams struct {
	Description   *string
	ResponsibleID *id.UserID
	Deadline      *time.Time
	Progress      *int
	Effectiveness *string
	Status        *models.ActionStatus
}

// Update applies a partial update to an action.
func (s *Service) Update(ctx context.Context, actionID id.ActionID, params UpdateParams) (*models.Action, error) {
	actor, err := requireEditor(ctx)
	if err != nil {
		return nil, err
	}
	action, err := s.store.GetAction(ctx, actor.CompanyID, actionID)
	if err != nil {
		return nil, translateStoreErr(err, "action")
	}

	if params.Description != nil {
		if *params.Description == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "description cannot be empty")
		}
		action.Description = *params.Description
	}
	if params.ResponsibleID != nil {
		action.ResponsibleID = params.ResponsibleID
	}
	if params.Deadline != nil {
		action.Deadline = params.Deadline
	}
	if params.Progress != nil {
		if *params.Progress < 0 || *params.Progress > 100 {
			return nil, dErrors.New(dErrors.CodeValidation, "progress must be between 0 and 100")
		}
		action.Progress = *params.Progress
	}
	if params.Effectiveness != nil {
		action.Effectiveness = *params.Effectiveness
	}
	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown action status")
		}
		action.Status = *params.Status
	}
	action.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.UpdateAction(ctx, action); err != nil {
		return nil, translateStoreErr(err, "action")
	}
	s.metrics.IncrementActionMutation("update")
	return action, nil
}

// Delete removes an action along with its notifications. Only managers
// and the creator may delete.
func (s *Service) Delete(ctx context.Context, actionID id.ActionID) error {
	actor, err := requireEditor(ctx)
	if err != nil {
		return err
	}
	action, err := s.store.GetAction(ctx, actor.CompanyID, actionID)
	if err != nil {
		return translateStoreErr(err, "action")
	}
	if actor.Role != id.RoleManager && action.CreatedByID != actor.UserID {
		return dErrors.New(dErrors.CodeForbidden, "only the creator or a manager can delete an action")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteNotificationsForAction(ctx, action.ID); err != nil {
			return translateStoreErr(err, "notifications")
		}
		if err := s.store.DeleteAction(ctx, actor.CompanyID, action.ID); err != nil {
			return translateStoreErr(err, "action")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementActionMutation("delete")
	return nil
}

// Notifications returns the caller's notifications, newest first.
func (s *Service) Notifications(ctx context.Context) ([]models.Notification, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	notifications, err := s.store.ListNotifications(ctx, actor.UserID)
	if err != nil {
		return nil, translateStoreErr(err, "notifications")
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, notificationID id.NotificationID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if err := s.store.MarkNotificationRead(ctx, actor.UserID, notificationID); err != nil {
		return translateStoreErr(err, "notification")
	}
	return nil
}
