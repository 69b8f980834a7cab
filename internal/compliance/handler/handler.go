// Package handler exposes the compliance evaluation HTTP API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lexaudit/internal/compliance/models"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/httputil"
	"lexaudit/pkg/requestcontext"
)

// Service defines the compliance operations the handler exposes.
type Service interface {
	Evaluate(ctx context.Context, requirementID id.RequirementID, status id.EvaluationStatus) (*models.Evaluation, error)
	CurrentStatus(ctx context.Context, requirementID id.RequirementID) (*models.RequirementStatus, error)
	HistoryByRequirement(ctx context.Context, requirementID id.RequirementID) ([]models.HistoryEntry, error)
	TextsOverview(ctx context.Context, filter textmodels.TextFilter) ([]models.TextOverview, error)
	TextDetail(ctx context.Context, textID id.TextID) ([]models.RequirementDetail, error)
	SaveToHistory(ctx context.Context, textID id.TextID) (int, error)
	Export(ctx context.Context, textID id.TextID) (*models.ExportBundle, error)

	AddObservation(ctx context.Context, evaluationID id.EvaluationID, content string) (*models.Observation, error)
	DeleteObservation(ctx context.Context, observationID id.ObservationID) error
	AddParameter(ctx context.Context, evaluationID id.EvaluationID, name, value, frequency string) (*models.MonitoringParameter, error)
	DeleteParameter(ctx context.Context, parameterID id.ParameterID) error
	AddAttachment(ctx context.Context, evaluationID id.EvaluationID, fileName string, content []byte) (*models.Attachment, error)
	OpenAttachment(ctx context.Context, attachmentID id.AttachmentID) (*models.Attachment, []byte, error)
	DeleteAttachment(ctx context.Context, attachmentID id.AttachmentID) error
}

// Handler handles compliance endpoints.
type Handler struct {
	logger     *slog.Logger
	compliance Service
}

// New creates a compliance Handler.
func New(compliance Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, compliance: compliance}
}

// Register mounts the compliance routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/compliance", func(r chi.Router) {
		r.Post("/evaluate", h.handleEvaluate)

		r.Get("/texts", h.handleTextsOverview)
		r.Route("/texts/{textID}", func(r chi.Router) {
			r.Get("/", h.handleTextDetail)
			r.Post("/save-to-history", h.handleSaveToHistory)
			r.Get("/export", h.handleExport)
		})

		r.Get("/requirements/{requirementID}", h.handleCurrentStatus)
		r.Get("/history/{requirementID}", h.handleHistory)

		r.Route("/evaluations/{evaluationID}", func(r chi.Router) {
			r.Post("/observations", h.handleAddObservation)
			r.Post("/parameters", h.handleAddParameter)
			r.Post("/attachments", h.handleAddAttachment)
		})

		r.Delete("/observations/{observationID}", h.handleDeleteObservation)
		r.Delete("/parameters/{parameterID}", h.handleDeleteParameter)
		r.Get("/attachments/{attachmentID}", h.handleDownloadAttachment)
		r.Delete("/attachments/{attachmentID}", h.handleDeleteAttachment)
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, action string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "compliance operation failed",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "compliance operation rejected",
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

func evaluationIDFromPath(r *http.Request) (id.EvaluationID, error) {
	evaluationID, err := id.ParseEvaluationID(chi.URLParam(r, "evaluationID"))
	if err != nil {
		return id.EvaluationID{}, dErrors.New(dErrors.CodeNotFound, "evaluation not found")
	}
	return evaluationID, nil
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[evaluateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	eval, err := h.compliance.Evaluate(ctx, req.requirementID, req.status)
	if err != nil {
		h.writeError(ctx, w, "evaluate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEvaluationResponse(eval))
}

func (h *Handler) handleCurrentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requirementID, err := requirementIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "current_status", err)
		return
	}

	status, err := h.compliance.CurrentStatus(ctx, requirementID)
	if err != nil {
		h.writeError(ctx, w, "current_status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequirementStatusResponse(*status))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requirementID, err := requirementIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "history", err)
		return
	}

	entries, err := h.compliance.HistoryByRequirement(ctx, requirementID)
	if err != nil {
		h.writeError(ctx, w, "history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"requirement_id": requirementID.String(),
		"history":        toHistoryResponses(entries),
	})
}

func (h *Handler) handleTextsOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := overviewFilterFromQuery(r)
	if err != nil {
		h.writeError(ctx, w, "texts_overview", err)
		return
	}

	overviews, err := h.compliance.TextsOverview(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, "texts_overview", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTextOverviewResponses(overviews))
}

func overviewFilterFromQuery(r *http.Request) (textmodels.TextFilter, error) {
	var filter textmodels.TextFilter
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

func (h *Handler) handleTextDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	textID, err := textIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "text_detail", err)
		return
	}

	details, err := h.compliance.TextDetail(ctx, textID)
	if err != nil {
		h.writeError(ctx, w, "text_detail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"text_id":      textID.String(),
		"requirements": toRequirementDetailResponses(details),
	})
}

func (h *Handler) handleSaveToHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	textID, err := textIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "save_to_history", err)
		return
	}

	marked, err := h.compliance.SaveToHistory(ctx, textID)
	if err != nil {
		h.writeError(ctx, w, "save_to_history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"saved": marked})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	textID, err := textIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "export", err)
		return
	}

	bundle, err := h.compliance.Export(ctx, textID)
	if err != nil {
		h.writeError(ctx, w, "export", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExportResponse(bundle))
}

func (h *Handler) handleAddObservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evaluationID, err := evaluationIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "add_observation", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[observationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	obs, err := h.compliance.AddObservation(ctx, evaluationID, req.Content)
	if err != nil {
		h.writeError(ctx, w, "add_observation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toObservationResponse(*obs))
}

func (h *Handler) handleDeleteObservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	observationID, err := id.ParseObservationID(chi.URLParam(r, "observationID"))
	if err != nil {
		h.writeError(ctx, w, "delete_observation", dErrors.New(dErrors.CodeNotFound, "observation not found"))
		return
	}

	if err := h.compliance.DeleteObservation(ctx, observationID); err != nil {
		h.writeError(ctx, w, "delete_observation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddParameter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evaluationID, err := evaluationIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "add_parameter", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[parameterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	param, err := h.compliance.AddParameter(ctx, evaluationID, req.Name, req.Value, req.Frequency)
	if err != nil {
		h.writeError(ctx, w, "add_parameter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toParameterResponse(*param))
}

func (h *Handler) handleDeleteParameter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parameterID, err := id.ParseParameterID(chi.URLParam(r, "parameterID"))
	if err != nil {
		h.writeError(ctx, w, "delete_parameter", dErrors.New(dErrors.CodeNotFound, "monitoring parameter not found"))
		return
	}

	if err := h.compliance.DeleteParameter(ctx, parameterID); err != nil {
		h.writeError(ctx, w, "delete_parameter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evaluationID, err := evaluationIDFromPath(r)
	if err != nil {
		h.writeError(ctx, w, "add_attachment", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[attachmentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	att, err := h.compliance.AddAttachment(ctx, evaluationID, req.FileName, req.content)
	if err != nil {
		h.writeError(ctx, w, "add_attachment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAttachmentResponse(*att))
}

func (h *Handler) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attachmentID, err := id.ParseAttachmentID(chi.URLParam(r, "attachmentID"))
	if err != nil {
		h.writeError(ctx, w, "download_attachment", dErrors.New(dErrors.CodeNotFound, "attachment not found"))
		return
	}

	att, content, err := h.compliance.OpenAttachment(ctx, attachmentID)
	if err != nil {
		h.writeError(ctx, w, "download_attachment", err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+att.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attachmentID, err := id.ParseAttachmentID(chi.URLParam(r, "attachmentID"))
	if err != nil {
		h.writeError(ctx, w, "delete_attachment", dErrors.New(dErrors.CodeNotFound, "attachment not found"))
		return
	}

	if err := h.compliance.DeleteAttachment(ctx, attachmentID); err != nil {
		h.writeError(ctx, w, "delete_attachment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
