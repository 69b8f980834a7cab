// Package handler exposes the domain taxonomy HTTP API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lexaudit/internal/taxonomy/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/httputil"
	"lexaudit/pkg/requestcontext"
)

// Service defines the taxonomy operations the handler exposes.
type Service interface {
	Create(ctx context.Context, name string) (*models.Domain, error)
	List(ctx context.Context) ([]models.Domain, error)
	Delete(ctx context.Context, domainID id.DomainID) error
}

// Handler handles domain endpoints.
type Handler struct {
	logger  *slog.Logger
	domains Service
}

// New creates a taxonomy Handler.
func New(domains Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, domains: domains}
}

// Register mounts the domain routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/domains", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Delete("/{domainID}", h.handleDelete)
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, action string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "taxonomy operation failed",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "taxonomy operation rejected",
			"request_id", requestID,
			"action", action,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

type createDomainRequest struct {
	Name string `json:"name"`
}

func (req *createDomainRequest) Validate() error {
	if req.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type domainResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toDomainResponse(domain *models.Domain) domainResponse {
	return domainResponse{
		ID:        domain.ID.String(),
		Name:      domain.Name,
		CreatedAt: domain.CreatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createDomainRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	domain, err := h.domains.Create(ctx, req.Name)
	if err != nil {
		h.writeError(ctx, w, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDomainResponse(domain))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	domains, err := h.domains.List(ctx)
	if err != nil {
		h.writeError(ctx, w, "list", err)
		return
	}
	out := make([]domainResponse, 0, len(domains))
	for i := range domains {
		out = append(out, toDomainResponse(&domains[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	domainID, err := id.ParseDomainID(chi.URLParam(r, "domainID"))
	if err != nil {
		h.writeError(ctx, w, "delete", dErrors.New(dErrors.CodeNotFound, "domain not found"))
		return
	}

	if err := h.domains.Delete(ctx, domainID); err != nil {
		h.writeError(ctx, w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
