// Package handler exposes the corrective action HTTP API.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexaudit/internal/action/models"
	svc "lexaudit/internal/action/service"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/httputil"
	"lexaudit/pkg/requestcontext"
)

// Service defines the action operations the handler exposes.
type Service interface {
	Create(ctx context.Context, params svc.CreateParams) (*models.Action, error)
	List(ctx context.Context, filter models.ActionFilter) ([]models.Action, error)
	Get(ctx context.Context, actionID id.ActionID) (*models.Action, error)
	Update(ctx context.Context, actionID id.ActionID, params svc.UpdateParams) (*models.Action, error)
	Delete(ctx context.Context, actionID id.ActionID) error

	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID id.NotificationID) error
}

// Handler handles action and notification endpoints.
type Handler struct {
	logger  *slog.Logger
	actions Service
}

// New creates an action Handler.
func New(actions Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, actions: actions}
}

// Register mounts the action routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/actions", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{actionID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleListNotifications)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, action string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "action operation failed",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "action operation rejected",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func actionIDFromPath(r *http.Request) (id.ActionID, error) {
	actionID, err := id.ParseActionID(chi.URLParam(r, "actionID"))
	if err != nil {
		return id.ActionID{}, dErrors.New(dErrors.CodeNotFound, "action not found")
	}
	return actionID, nil
}

func filterFromQuery(r *http.Request) (models.ActionFilter, error) {
	var filter models.ActionFilter
	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status, err := models.ParseActionStatus(raw)
		if err != nil {
			return models.ActionFilter{}, err
		}
		filter.Status = status
	}
	if raw := query.Get("text_id"); raw != "" {
		textID, err := id.ParseTextID(raw)
		if err != nil {
			return models.ActionFilter{}, err
		}
		filter.TextID = &textID
	}
	if raw := query.Get("responsible_id"); raw != "" {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return models.ActionFilter{}, err
		}
		filter.ResponsibleID = &userID
	}
	return filter, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createActionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	action, err := h.actions.Create(ctx, req.params)
	if err != nil {
		h.writeError(ctx, w, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toActionResponse(action))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(ctx, w, "list", err)
		return
	}

	actions, err := h.actions.List(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, "list", err)
		return
	}
	out := make([]actionResponse, 0, len(actions))
	for i := range actions {
		out = append(out, toActionResponse(&actions[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actionID, err := actionIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "get", err)
		return
	}

	action, err := h.actions.Get(ctx, actionID)
	if err != nil {
		h.writeError(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toActionResponse(action))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actionID, err := actionIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "update", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateActionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	action, err := h.actions.Update(ctx, actionID, req.params)
	if err != nil {
		h.writeError(ctx, w, "update", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toActionResponse(action))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actionID, err := actionIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "delete", err)
		return
	}

	if err := h.actions.Delete(ctx, actionID); err != nil {
		h.writeError(ctx, w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notifications, err := h.actions.Notifications(ctx)
	if err != nil {
		h.writeError(ctx, w, "list_notifications", err)
		return
	}
	out := make([]notificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, toNotificationResponse(&notifications[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		h.writeError(ctx, w, "mark_read", dErrors.New(dErrors.CodeNotFound, "notification not found"))
		return
	}

	if err := h.actions.MarkNotificationRead(ctx, notificationID); err != nil {
		h.writeError(ctx, w, "mark_read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
