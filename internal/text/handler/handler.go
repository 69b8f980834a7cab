// Package handler exposes the legal text HTTP API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lexaudit/internal/text/models"
	svc "lexaudit/internal/text/service"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/httputil"
	"lexaudit/pkg/requestcontext"
)

// Service defines the text operations the handler exposes.
type Service interface {
	Create(ctx context.Context, params svc.CreateParams) (*svc.TextWithRequirements, error)
	List(ctx context.Context, filter models.TextFilter) ([]models.Text, error)
	Get(ctx context.Context, textID id.TextID) (*svc.TextWithRequirements, error)
	Update(ctx context.Context, textID id.TextID, params svc.UpdateParams) (*models.Text, error)
	Delete(ctx context.Context, textID id.TextID) error
	AddRequirement(ctx context.Context, textID id.TextID, params svc.RequirementParams) (*models.Requirement, error)
	UpdateRequirement(ctx context.Context, requirementID id.RequirementID, params svc.RequirementParams) (*models.Requirement, error)
	DeleteRequirement(ctx context.Context, requirementID id.RequirementID) error
}

// Handler handles text endpoints.
type Handler struct {
	logger *slog.Logger
	texts  Service
}

// New creates a text Handler.
func New(texts Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, texts: texts}
}

// Register mounts the text routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/texts", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)

		r.Put("/requirements/{requirementID}", h.handleUpdateRequirement)
		r.Delete("/requirements/{requirementID}", h.handleDeleteRequirement)

		r.Route("/{textID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/requirements", h.handleAddRequirement)
		})
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, action string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "text operation failed",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "text operation rejected",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func textIDFromPath(r *http.Request) (id.TextID, error) {
	textID, err := id.ParseTextID(chi.URLParam(r, "textID"))
	if err != nil {
		return id.TextID{}, dErrors.New(dErrors.CodeNotFound, "text not found")
	}
	return textID, nil
}

func requirementIDFromPath(r *http.Request) (id.RequirementID, error) {
	requirementID, err := id.ParseRequirementID(chi.URLParam(r, "requirementID"))
	if err != nil {
		return id.RequirementID{}, dErrors.New(dErrors.CodeNotFound, "requirement not found")
	}
	return requirementID, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createTextRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	detail, err := h.texts.Create(ctx, req.params)
	if err != nil {
		h.writeError(ctx, w, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTextDetailResponse(detail))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(ctx, w, "list", err)
		return
	}

	texts, err := h.texts.List(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, "list", err)
		return
	}
	out := make([]textResponse, 0, len(texts))
	for _, text := range texts {
		out = append(out, toTextResponse(text))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func filterFromQuery(r *http.Request) (models.TextFilter, error) {
	var filter models.TextFilter
	query := r.URL.Query()
	if raw := query.Get("domain_id"); raw != "" {
		domainID, err := id.ParseDomainID(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "domain_id must be a valid uuid")
		}
		filter.DomainID = &domainID
	}
	if raw := query.Get("publication_year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "publication_year must be an integer")
		}
		filter.PublicationYear = &year
	}
	filter.Nature = query.Get("nature")
	filter.Keyword = query.Get("keyword")
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.PageSize, _ = strconv.Atoi(query.Get("page_size"))
	return filter, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	textID, err := textIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "get", err)
		return
	}

	detail, err := h.texts.Get(ctx, textID)
	if err != nil {
		h.writeError(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTextDetailResponse(detail))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	textID, err := textIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "update", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateTextRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	text, err := h.texts.Update(ctx, textID, req.toParams())
	if err != nil {
		h.writeError(ctx, w, "update", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTextResponse(*text))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	textID, err := textIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "delete", err)
		return
	}

	if err := h.texts.Delete(ctx, textID); err != nil {
		h.writeError(ctx, w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddRequirement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	textID, err := textIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "add_requirement", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[requirementRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	requirement, err := h.texts.AddRequirement(ctx, textID, req.params)
	if err != nil {
		h.writeError(ctx, w, "add_requirement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRequirementResponse(*requirement))
}

func (h *Handler) handleUpdateRequirement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requirementID, err := requirementIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "update_requirement", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[requirementRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	requirement, err := h.texts.UpdateRequirement(ctx, requirementID, req.params)
	if err != nil {
		h.writeError(ctx, w, "update_requirement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequirementResponse(*requirement))
}

func (h *Handler) handleDeleteRequirement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requirementID, err := requirementIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "delete_requirement", err)
		return
	}

	if err := h.texts.DeleteRequirement(ctx, requirementID); err != nil {
		h.writeError(ctx, w, "delete_requirement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
