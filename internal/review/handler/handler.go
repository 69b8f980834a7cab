// Package handler exposes the management review HTTP API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lexaudit/internal/review/models"
	svc "lexaudit/internal/review/service"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/httputil"
	"lexaudit/pkg/requestcontext"
)

// Service defines the review operations the handler exposes.
type Service interface {
	Create(ctx context.Context, domainID id.DomainID, reviewDate time.Time) (*models.Review, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.ReviewSummary, error)
	Get(ctx context.Context, reviewID id.ReviewID) (*models.ReviewDetail, error)
	Update(ctx context.Context, reviewID id.ReviewID, params svc.UpdateParams) error
	Start(ctx context.Context, reviewID id.ReviewID) error
	Complete(ctx context.Context, reviewID id.ReviewID) error
	Cancel(ctx context.Context, reviewID id.ReviewID) error
	Delete(ctx context.Context, reviewID id.ReviewID) error
	AvailableRequirements(ctx context.Context, reviewID id.ReviewID) ([]models.AvailableRequirement, error)
	GeneratePDF(ctx context.Context, reviewID id.ReviewID) ([]byte, string, error)

	AddLegalText(ctx context.Context, reviewID id.ReviewID, textID id.TextID, params svc.LegalTextParams) (*models.LegalTextItem, error)
	UpdateLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params svc.LegalTextParams) (*models.LegalTextItem, error)
	DeleteLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error
	AddRequirementLink(ctx context.Context, reviewID id.ReviewID, requirementID id.RequirementID, params svc.RequirementLinkParams) (*models.RequirementLinkItem, error)
	UpdateRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params svc.RequirementLinkParams) (*models.RequirementLinkItem, error)
	DeleteRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error
	AddActionItem(ctx context.Context, reviewID id.ReviewID, params svc.ActionItemParams) (*models.ActionItem, error)
	UpdateActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params svc.ActionItemParams) (*models.ActionItem, error)
	DeleteActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error
	AddStakeholder(ctx context.Context, reviewID id.ReviewID, params svc.StakeholderParams) (*models.StakeholderItem, error)
	UpdateStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID, params svc.StakeholderParams) (*models.StakeholderItem, error)
	DeleteStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error
}

// Handler handles review endpoints.
type Handler struct {
	logger  *slog.Logger
	reviews Service
}

// New creates a review Handler.
func New(reviews Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, reviews: reviews}
}

// Register mounts the review routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/reviews", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)

		r.Route("/{reviewID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/start", h.handleStart)
			r.Post("/complete", h.handleComplete)
			r.Post("/cancel", h.handleCancel)
			r.Get("/available-requirements", h.handleAvailableRequirements)
			r.Post("/generate-pdf", h.handleGeneratePDF)

			r.Post("/legal-texts", h.handleAddLegalText)
			r.Put("/legal-texts/{itemID}", h.handleUpdateLegalText)
			r.Delete("/legal-texts/{itemID}", h.handleDeleteLegalText)

			r.Post("/requirements", h.handleAddRequirementLink)
			r.Put("/requirements/{itemID}", h.handleUpdateRequirementLink)
			r.Delete("/requirements/{itemID}", h.handleDeleteRequirementLink)

			r.Post("/actions", h.handleAddActionItem)
			r.Put("/actions/{itemID}", h.handleUpdateActionItem)
			r.Delete("/actions/{itemID}", h.handleDeleteActionItem)

			r.Post("/stakeholders", h.handleAddStakeholder)
			r.Put("/stakeholders/{itemID}", h.handleUpdateStakeholder)
			r.Delete("/stakeholders/{itemID}", h.handleDeleteStakeholder)
		})
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, action string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "review operation failed",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "review operation rejected",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func reviewIDFromPath(r *http.Request) (id.ReviewID, error) {
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "reviewID"))
	if err != nil {
		return id.ReviewID{}, dErrors.New(dErrors.CodeNotFound, "review not found")
	}
	return reviewID, nil
}

func itemIDFromPath(r *http.Request) (id.ReviewItemID, error) {
	itemID, err := id.ParseReviewItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		return id.ReviewItemID{}, dErrors.New(dErrors.CodeNotFound, "item not found")
	}
	return itemID, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	review, err := h.reviews.Create(ctx, req.domainID, req.reviewDate)
	if err != nil {
		h.writeError(ctx, w, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter models.ListFilter
	if raw := r.URL.Query().Get("domain_id"); raw != "" {
		domainID, err := id.ParseDomainID(raw)
		if err != nil {
			h.writeError(ctx, w, "list", dErrors.New(dErrors.CodeValidation, "domain_id must be a valid uuid"))
			return
		}
		filter.DomainID = &domainID
	}
	if raw := r.URL.Query().Get("review_date_after"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(ctx, w, "list", dErrors.New(dErrors.CodeValidation, "review_date_after must be formatted as YYYY-MM-DD"))
			return
		}
		filter.ReviewDateAfter = &t
	}

	summaries, err := h.reviews.List(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, "list", err)
		return
	}
	resp := make([]reviewSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, reviewSummaryResponse{
			ID:         s.ID.String(),
			DomainID:   s.DomainID.String(),
			DomainName: s.DomainName,
			ReviewDate: s.ReviewDate.Format("2006-01-02"),
			Status:     s.Status.String(),
			CreatedAt:  s.CreatedAt.Format(time.RFC3339),
			PDFPath:    s.PDFPath,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.reviews.Get(ctx, reviewID)
	if err != nil {
		h.writeError(ctx, w, "get", err)
		return
	}

	resp := reviewDetailResponse{
		reviewResponse: toReviewResponse(&detail.Review),
		DomainName:     detail.DomainName,
		LegalTexts:     make([]legalTextItemResponse, 0, len(detail.LegalTexts)),
		Requirements:   make([]requirementLinkResponse, 0, len(detail.Requirements)),
		Actions:        make([]actionItemResponse, 0, len(detail.Actions)),
		Stakeholders:   make([]stakeholderResponse, 0, len(detail.Stakeholders)),
	}
	for i := range detail.LegalTexts {
		resp.LegalTexts = append(resp.LegalTexts, toLegalTextResponse(&detail.LegalTexts[i]))
	}
	for i := range detail.Requirements {
		resp.Requirements = append(resp.Requirements, toRequirementLinkResponse(&detail.Requirements[i]))
	}
	for i := range detail.Actions {
		resp.Actions = append(resp.Actions, toActionItemResponse(&detail.Actions[i]))
	}
	for i := range detail.Stakeholders {
		resp.Stakeholders = append(resp.Stakeholders, toStakeholderResponse(&detail.Stakeholders[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.reviews.Update(ctx, reviewID, req.params); err != nil {
		h.writeError(ctx, w, "update", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.reviews.Delete(ctx, reviewID); err != nil {
		h.writeError(ctx, w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transitionHandler(action string, fn func(context.Context, id.ReviewID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reviewID, err := reviewIDFromPath(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if err := fn(ctx, reviewID); err != nil {
			h.writeError(ctx, w, action, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler("start", h.reviews.Start)(w, r)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler("complete", h.reviews.Complete)(w, r)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler("cancel", h.reviews.Cancel)(w, r)
}

func (h *Handler) handleAvailableRequirements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	available, err := h.reviews.AvailableRequirements(ctx, reviewID)
	if err != nil {
		h.writeError(ctx, w, "available_requirements", err)
		return
	}
	resp := make([]availableRequirementResponse, 0, len(available))
	for _, a := range available {
		resp = append(resp, availableRequirementResponse{
			RequirementID: a.RequirementID.String(),
			TextID:        a.TextID.String(),
			TextReference: a.TextReference,
			Number:        a.Number,
			Title:         a.Title,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	_, storedPath, err := h.reviews.GeneratePDF(ctx, reviewID)
	if err != nil {
		h.writeError(ctx, w, "generate_pdf", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"pdf_path": storedPath})
}

func (h *Handler) handleAddLegalText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[legalTextItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if req.TextID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "text_id is required"))
		return
	}
	item, err := h.reviews.AddLegalText(ctx, reviewID, req.textID, req.params())
	if err != nil {
		h.writeError(ctx, w, "add_legal_text", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLegalTextResponse(item))
}

func (h *Handler) handleUpdateLegalText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	itemID, err := itemIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[legalTextItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.reviews.UpdateLegalText(ctx, reviewID, itemID, req.params())
	if err != nil {
		h.writeError(ctx, w, "update_legal_text", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLegalTextResponse(item))
}

func (h *Handler) handleDeleteLegalText(w http.ResponseWriter, r *http.Request) {
	h.deleteItemHandler("delete_legal_text", h.reviews.DeleteLegalText)(w, r)
}

func (h *Handler) handleAddRequirementLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[requirementLinkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if req.RequirementID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "requirement_id is required"))
		return
	}
	item, err := h.reviews.AddRequirementLink(ctx, reviewID, req.requirementID, req.params())
	if err != nil {
		h.writeError(ctx, w, "add_requirement_link", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRequirementLinkResponse(item))
}

func (h *Handler) handleUpdateRequirementLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	itemID, err := itemIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[requirementLinkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.reviews.UpdateRequirementLink(ctx, reviewID, itemID, req.params())
	if err != nil {
		h.writeError(ctx, w, "update_requirement_link", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequirementLinkResponse(item))
}

func (h *Handler) handleDeleteRequirementLink(w http.ResponseWriter, r *http.Request) {
	h.deleteItemHandler("delete_requirement_link", h.reviews.DeleteRequirementLink)(w, r)
}

func (h *Handler) handleAddActionItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[actionItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.reviews.AddActionItem(ctx, reviewID, req.params())
	if err != nil {
		h.writeError(ctx, w, "add_action_item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toActionItemResponse(item))
}

func (h *Handler) handleUpdateActionItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	itemID, err := itemIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[actionItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.reviews.UpdateActionItem(ctx, reviewID, itemID, req.params())
	if err != nil {
		h.writeError(ctx, w, "update_action_item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toActionItemResponse(item))
}

func (h *Handler) handleDeleteActionItem(w http.ResponseWriter, r *http.Request) {
	h.deleteItemHandler("delete_action_item", h.reviews.DeleteActionItem)(w, r)
}

func (h *Handler) handleAddStakeholder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[stakeholderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.reviews.AddStakeholder(ctx, reviewID, req.params())
	if err != nil {
		h.writeError(ctx, w, "add_stakeholder", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toStakeholderResponse(item))
}

func (h *Handler) handleUpdateStakeholder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := reviewIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	itemID, err := itemIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[stakeholderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.reviews.UpdateStakeholder(ctx, reviewID, itemID, req.params())
	if err != nil {
		h.writeError(ctx, w, "update_stakeholder", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStakeholderResponse(item))
}

func (h *Handler) handleDeleteStakeholder(w http.ResponseWriter, r *http.Request) {
	h.deleteItemHandler("delete_stakeholder", h.reviews.DeleteStakeholder)(w, r)
}

func (h *Handler) deleteItemHandler(action string, fn func(context.Context, id.ReviewID, id.ReviewItemID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reviewID, err := reviewIDFromPath(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		itemID, err := itemIDFromPath(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if err := fn(ctx, reviewID, itemID); err != nil {
			h.writeError(ctx, w, action, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
