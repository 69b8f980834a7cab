package handler

import (
	"encoding/base64"
	"strings"
	"time"

	"lexaudit/internal/compliance/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
)

type evaluateRequest struct {
	RequirementID string `json:"requirement_id"`
	Status        string `json:"status"`

	requirementID id.RequirementID
	status        id.EvaluationStatus
}

func (r *evaluateRequest) Validate() error {
	var err error
	if r.requirementID, err = id.ParseRequirementID(r.RequirementID); err != nil {
		return err
	}
	if r.status, err = id.ParseEvaluationStatus(r.Status); err != nil {
		return err
	}
	return nil
}

type observationRequest struct {
	Content string `json:"content"`
}

func (r *observationRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}

type parameterRequest struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Frequency string `json:"frequency"`
}

func (r *parameterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type attachmentRequest struct {
	FileName      string `json:"file_name"`
	ContentBase64 string `json:"content_base64"`

	content []byte
}

func (r *attachmentRequest) Validate() error {
	if strings.TrimSpace(r.FileName) == "" {
		return dErrors.New(dErrors.CodeValidation, "file_name is required")
	}
	content, err := base64.StdEncoding.DecodeString(r.ContentBase64)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "content_base64 must be valid base64")
	}
	if len(content) == 0 {
		return dErrors.New(dErrors.CodeValidation, "content_base64 is required")
	}
	r.content = content
	return nil
}

type evaluationResponse struct {
	ID             string    `json:"id"`
	TextID         string    `json:"text_id"`
	RequirementID  string    `json:"requirement_id"`
	Status         string    `json:"status"`
	EvaluatedByID  string    `json:"evaluated_by_id"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
	SavedToHistory bool      `json:"saved_to_history"`
}

func toEvaluationResponse(eval *models.Evaluation) evaluationResponse {
	return evaluationResponse{
		ID:             eval.ID.String(),
		TextID:         eval.TextID.String(),
		RequirementID:  eval.RequirementID.String(),
		Status:         eval.Status.String(),
		EvaluatedByID:  eval.EvaluatedByID.String(),
		EvaluatedAt:    eval.EvaluatedAt,
		SavedToHistory: eval.SavedToHistory,
	}
}

type requirementStatusResponse struct {
	RequirementID string              `json:"requirement_id"`
	Number        string              `json:"number"`
	Title         string              `json:"title"`
	Status        string              `json:"status"`
	Evaluated     bool                `json:"evaluated"`
	Evaluation    *evaluationResponse `json:"evaluation,omitempty"`
}

func toRequirementStatusResponse(status models.RequirementStatus) requirementStatusResponse {
	out := requirementStatusResponse{
		RequirementID: status.RequirementID.String(),
		Number:        status.Number,
		Title:         status.Title,
		Status:        status.Status.String(),
		Evaluated:     status.Evaluated,
	}
	if status.Evaluation != nil {
		eval := toEvaluationResponse(status.Evaluation)
		out.Evaluation = &eval
	}
	return out
}

type historyEntryResponse struct {
	ID             string    `json:"id"`
	EvaluationID   string    `json:"evaluation_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ChangedByID    string    `json:"changed_by_id"`
	ChangedAt      time.Time `json:"changed_at"`
}

func toHistoryResponses(entries []models.HistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntryResponse{
			ID:             entry.ID.String(),
			EvaluationID:   entry.EvaluationID.String(),
			PreviousStatus: entry.PreviousStatus.String(),
			NewStatus:      entry.NewStatus.String(),
			ChangedByID:    entry.ChangedByID.String(),
			ChangedAt:      entry.ChangedAt,
		})
	}
	return out
}

type observationResponse struct {
	ID           string    `json:"id"`
	EvaluationID string    `json:"evaluation_id"`
	Content      string    `json:"content"`
	CreatedByID  string    `json:"created_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func toObservationResponse(obs models.Observation) observationResponse {
	return observationResponse{
		ID:           obs.ID.String(),
		EvaluationID: obs.EvaluationID.String(),
		Content:      obs.Content,
		CreatedByID:  obs.CreatedByID.String(),
		CreatedAt:    obs.CreatedAt,
	}
}

type parameterResponse struct {
	ID           string    `json:"id"`
	EvaluationID string    `json:"evaluation_id"`
	Name         string    `json:"name"`
	Value        string    `json:"value"`
	Frequency    string    `json:"frequency"`
	CreatedByID  string    `json:"created_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func toParameterResponse(param models.MonitoringParameter) parameterResponse {
	return parameterResponse{
		ID:           param.ID.String(),
		EvaluationID: param.EvaluationID.String(),
		Name:         param.Name,
		Value:        param.Value,
		Frequency:    param.Frequency,
		CreatedByID:  param.CreatedByID.String(),
		CreatedAt:    param.CreatedAt,
	}
}

type attachmentResponse struct {
	ID           string    `json:"id"`
	EvaluationID string    `json:"evaluation_id"`
	FileName     string    `json:"file_name"`
	FilePath     string    `json:"file_path"`
	CreatedByID  string    `json:"created_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAttachmentResponse(att models.Attachment) attachmentResponse {
	return attachmentResponse{
		ID:           att.ID.String(),
		EvaluationID: att.EvaluationID.String(),
		FileName:     att.FileName,
		FilePath:     att.FilePath,
		CreatedByID:  att.CreatedByID.String(),
		CreatedAt:    att.CreatedAt,
	}
}

type requirementDetailResponse struct {
	requirementStatusResponse
	Observations []observationResponse `json:"observations"`
	Parameters   []parameterResponse   `json:"monitoring_parameters"`
	Attachments  []attachmentResponse  `json:"attachments"`
}

func toRequirementDetailResponses(details []models.RequirementDetail) []requirementDetailResponse {
	out := make([]requirementDetailResponse, 0, len(details))
	for _, detail := range details {
		item := requirementDetailResponse{
			requirementStatusResponse: toRequirementStatusResponse(detail.RequirementStatus),
			Observations:              make([]observationResponse, 0, len(detail.Observations)),
			Parameters:                make([]parameterResponse, 0, len(detail.Parameters)),
			Attachments:               make([]attachmentResponse, 0, len(detail.Attachments)),
		}
		for _, obs := range detail.Observations {
			item.Observations = append(item.Observations, toObservationResponse(obs))
		}
		for _, param := range detail.Parameters {
			item.Parameters = append(item.Parameters, toParameterResponse(param))
		}
		for _, att := range detail.Attachments {
			item.Attachments = append(item.Attachments, toAttachmentResponse(att))
		}
		out = append(out, item)
	}
	return out
}

type textOverviewResponse struct {
	TextID               string         `json:"text_id"`
	Reference            string         `json:"reference"`
	Nature               string         `json:"nature"`
	PublicationYear      int            `json:"publication_year"`
	TotalRequirements    int            `json:"total_requirements"`
	ApplicablePercentage int            `json:"applicable_percentage"`
	StatusCounts         map[string]int `json:"status_counts"`
}

func toTextOverviewResponses(overviews []models.TextOverview) []textOverviewResponse {
	out := make([]textOverviewResponse, 0, len(overviews))
	for _, overview := range overviews {
		counts := make(map[string]int, len(overview.StatusCounts))
		for status, n := range overview.StatusCounts {
			counts[status.String()] = n
		}
		out = append(out, textOverviewResponse{
			TextID:               overview.TextID.String(),
			Reference:            overview.Reference,
			Nature:               overview.Nature,
			PublicationYear:      overview.PublicationYear,
			TotalRequirements:    overview.TotalRequirements,
			ApplicablePercentage: overview.ApplicablePercentage,
			StatusCounts:         counts,
		})
	}
	return out
}

type exportResponse struct {
	TextID       string                      `json:"text_id"`
	Reference    string                      `json:"reference"`
	ExportedAt   time.Time                   `json:"exported_at"`
	Requirements []requirementDetailResponse `json:"requirements"`
	History      []historyEntryResponse      `json:"history"`
}

func toExportResponse(bundle *models.ExportBundle) exportResponse {
	return exportResponse{
		TextID:       bundle.TextID.String(),
		Reference:    bundle.Reference,
		ExportedAt:   bundle.ExportedAt,
		Requirements: toRequirementDetailResponses(bundle.Requirements),
		History:      toHistoryResponses(bundle.History),
	}
}
