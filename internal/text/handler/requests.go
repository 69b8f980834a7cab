package handler

import (
	"strings"
	"time"

	"lexaudit/internal/text/models"
	svc "lexaudit/internal/text/service"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
)

type requirementPayload struct {
	Number string `json:"number"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (p requirementPayload) toParams() (svc.RequirementParams, error) {
	params := svc.RequirementParams{
		Number: p.Number,
		Title:  p.Title,
	}
	if p.Status != "" {
		status, err := id.ParseEvaluationStatus(p.Status)
		if err != nil {
			return params, err
		}
		params.Status = status
	}
	return params, nil
}

type createTextRequest struct {
	DomainID        string               `json:"domain_id"`
	Reference       string               `json:"reference"`
	Nature          string               `json:"nature"`
	PublicationYear int                  `json:"publication_year"`
	Penalties       string               `json:"penalties"`
	Content         string               `json:"content"`
	FilePath        string               `json:"file_path"`
	Requirements    []requirementPayload `json:"requirements"`

	params svc.CreateParams
}

func (r *createTextRequest) Validate() error {
	domainID, err := id.ParseDomainID(r.DomainID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.Reference) == "" {
		return dErrors.New(dErrors.CodeValidation, "reference is required")
	}
	r.params = svc.CreateParams{
		DomainID:        domainID,
		Reference:       r.Reference,
		Nature:          r.Nature,
		PublicationYear: r.PublicationYear,
		Penalties:       r.Penalties,
		Content:         r.Content,
		FilePath:        r.FilePath,
	}
	for _, rp := range r.Requirements {
		params, err := rp.toParams()
		if err != nil {
			return err
		}
		r.params.Requirements = append(r.params.Requirements, params)
	}
	return nil
}

type updateTextRequest struct {
	Reference       *string `json:"reference"`
	Nature          *string `json:"nature"`
	PublicationYear *int    `json:"publication_year"`
	Penalties       *string `json:"penalties"`
	Content         *string `json:"content"`
}

func (r *updateTextRequest) Validate() error {
	if r.Reference == nil && r.Nature == nil && r.PublicationYear == nil &&
		r.Penalties == nil && r.Content == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return nil
}

func (r *updateTextRequest) toParams() svc.UpdateParams {
	return svc.UpdateParams{
		Reference:       r.Reference,
		Nature:          r.Nature,
		PublicationYear: r.PublicationYear,
		Penalties:       r.Penalties,
		Content:         r.Content,
	}
}

type requirementRequest struct {
	requirementPayload

	params svc.RequirementParams
}

func (r *requirementRequest) Validate() error {
	params, err := r.toParams()
	if err != nil {
		return err
	}
	r.params = params
	return nil
}

type textResponse struct {
	ID              string    `json:"id"`
	DomainID        string    `json:"domain_id"`
	Reference       string    `json:"reference"`
	Nature          string    `json:"nature"`
	PublicationYear int       `json:"publication_year"`
	Penalties       string    `json:"penalties"`
	Content         string    `json:"content"`
	FilePath        string    `json:"file_path"`
	CreatedByID     string    `json:"created_by_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func toTextResponse(text models.Text) textResponse {
	return textResponse{
		ID:              text.ID.String(),
		DomainID:        text.DomainID.String(),
		Reference:       text.Reference,
		Nature:          text.Nature,
		PublicationYear: text.PublicationYear,
		Penalties:       text.Penalties,
		Content:         text.Content,
		FilePath:        text.FilePath,
		CreatedByID:     text.CreatedByID.String(),
		CreatedAt:       text.CreatedAt,
	}
}

type requirementResponse struct {
	ID     string `json:"id"`
	TextID string `json:"text_id"`
	Number string `json:"number"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func toRequirementResponse(req models.Requirement) requirementResponse {
	return requirementResponse{
		ID:     req.ID.String(),
		TextID: req.TextID.String(),
		Number: req.Number,
		Title:  req.Title,
		Status: req.Status.String(),
	}
}

type textDetailResponse struct {
	textResponse
	Requirements []requirementResponse `json:"requirements"`
}

func toTextDetailResponse(detail *svc.TextWithRequirements) textDetailResponse {
	out := textDetailResponse{
		textResponse: toTextResponse(detail.Text),
		Requirements: make([]requirementResponse, 0, len(detail.Requirements)),
	}
	for _, req := range detail.Requirements {
		out.Requirements = append(out.Requirements, toRequirementResponse(req))
	}
	return out
}
