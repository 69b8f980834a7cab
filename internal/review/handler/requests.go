package handler

import (
	"time"

	"lexaudit/internal/review/models"
	svc "lexaudit/internal/review/service"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
)

type createReviewRequest struct {
	DomainID   string `json:"domain_id"`
	ReviewDate string `json:"review_date"`

	domainID   id.DomainID
	reviewDate time.Time
}

func (r *createReviewRequest) Validate() error {
	var err error
	if r.domainID, err = id.ParseDomainID(r.DomainID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "domain_id must be a valid uuid")
	}
	if r.reviewDate, err = time.Parse("2006-01-02", r.ReviewDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, "review_date must be formatted as YYYY-MM-DD")
	}
	return nil
}

type updateReviewRequest struct {
	ReviewDate *string `json:"review_date,omitempty"`
	Status     *string `json:"status,omitempty"`

	params svc.UpdateParams
}

func (r *updateReviewRequest) Validate() error {
	if r.ReviewDate == nil && r.Status == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	if r.ReviewDate != nil {
		t, err := time.Parse("2006-01-02", *r.ReviewDate)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "review_date must be formatted as YYYY-MM-DD")
		}
		r.params.ReviewDate = &t
	}
	if r.Status != nil {
		status, err := id.ParseReviewStatus(*r.Status)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "invalid review status")
		}
		r.params.Status = &status
	}
	return nil
}

type legalTextItemRequest struct {
	TextID        string `json:"text_id,omitempty"`
	Penalties     string `json:"penalties"`
	Incentives    string `json:"incentives"`
	Risks         string `json:"risks"`
	Opportunities string `json:"opportunities"`
	FollowUp      string `json:"follow_up"`

	textID id.TextID
}

// Validate parses text_id when present. Creation requires it; updates leave
// the linked text untouched, so it is ignored there.
func (r *legalTextItemRequest) Validate() error {
	if r.TextID == "" {
		return nil
	}
	var err error
	if r.textID, err = id.ParseTextID(r.TextID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "text_id must be a valid uuid")
	}
	return nil
}

func (r *legalTextItemRequest) params() svc.LegalTextParams {
	return svc.LegalTextParams{
		Penalties:     r.Penalties,
		Incentives:    r.Incentives,
		Risks:         r.Risks,
		Opportunities: r.Opportunities,
		FollowUp:      r.FollowUp,
	}
}

type requirementLinkRequest struct {
	RequirementID  string `json:"requirement_id,omitempty"`
	Description    string `json:"description"`
	Implementation string `json:"implementation"`
	Communication  string `json:"communication"`
	FollowUp       string `json:"follow_up"`

	requirementID id.RequirementID
}

func (r *requirementLinkRequest) Validate() error {
	if r.RequirementID == "" {
		return nil
	}
	var err error
	if r.requirementID, err = id.ParseRequirementID(r.RequirementID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "requirement_id must be a valid uuid")
	}
	return nil
}

func (r *requirementLinkRequest) params() svc.RequirementLinkParams {
	return svc.RequirementLinkParams{
		Description:    r.Description,
		Implementation: r.Implementation,
		Communication:  r.Communication,
		FollowUp:       r.FollowUp,
	}
}

type actionItemRequest struct {
	Description string `json:"description"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	Observation string `json:"observation"`
	FollowUp    string `json:"follow_up"`
}

func (r *actionItemRequest) Validate() error {
	if r.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	return nil
}

func (r *actionItemRequest) params() svc.ActionItemParams {
	return svc.ActionItemParams{
		Description: r.Description,
		Source:      r.Source,
		Status:      r.Status,
		Observation: r.Observation,
		FollowUp:    r.FollowUp,
	}
}

type stakeholderRequest struct {
	Name               string `json:"name"`
	RelationshipStatus string `json:"relationship_status"`
	Reason             string `json:"reason"`
	Action             string `json:"action"`
	FollowUp           string `json:"follow_up"`
}

func (r *stakeholderRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func (r *stakeholderRequest) params() svc.StakeholderParams {
	return svc.StakeholderParams{
		Name:               r.Name,
		RelationshipStatus: r.RelationshipStatus,
		Reason:             r.Reason,
		Action:             r.Action,
		FollowUp:           r.FollowUp,
	}
}

type reviewResponse struct {
	ID         string `json:"id"`
	DomainID   string `json:"domain_id"`
	ReviewDate string `json:"review_date"`
	Status     string `json:"status"`
	CreatedBy  string `json:"created_by"`
	CreatedAt  string `json:"created_at"`
	PDFPath    string `json:"pdf_path,omitempty"`
}

func toReviewResponse(review *models.Review) reviewResponse {
	return reviewResponse{
		ID:         review.ID.String(),
		DomainID:   review.DomainID.String(),
		ReviewDate: review.ReviewDate.Format("2006-01-02"),
		Status:     review.Status.String(),
		CreatedBy:  review.CreatedByID.String(),
		CreatedAt:  review.CreatedAt.Format(time.RFC3339),
		PDFPath:    review.PDFPath,
	}
}

type reviewSummaryResponse struct {
	ID         string `json:"id"`
	DomainID   string `json:"domain_id"`
	DomainName string `json:"domain_name"`
	ReviewDate string `json:"review_date"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	PDFPath    string `json:"pdf_path,omitempty"`
}

type reviewDetailResponse struct {
	reviewResponse
	DomainName   string                    `json:"domain_name"`
	LegalTexts   []legalTextItemResponse   `json:"legal_texts"`
	Requirements []requirementLinkResponse `json:"requirements"`
	Actions      []actionItemResponse      `json:"actions"`
	Stakeholders []stakeholderResponse     `json:"stakeholders"`
}

type itemMetaResponse struct {
	ID        string `json:"id"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

func toItemMeta(meta models.ItemMeta) itemMetaResponse {
	return itemMetaResponse{
		ID:        meta.ID.String(),
		CreatedBy: meta.CreatedByID.String(),
		CreatedAt: meta.CreatedAt.Format(time.RFC3339),
	}
}

type legalTextItemResponse struct {
	itemMetaResponse
	TextID        string `json:"text_id"`
	TextReference string `json:"text_reference"`
	Penalties     string `json:"penalties"`
	Incentives    string `json:"incentives"`
	Risks         string `json:"risks"`
	Opportunities string `json:"opportunities"`
	FollowUp      string `json:"follow_up"`
}

func toLegalTextResponse(item *models.LegalTextItem) legalTextItemResponse {
	return legalTextItemResponse{
		itemMetaResponse: toItemMeta(item.ItemMeta),
		TextID:           item.TextID.String(),
		TextReference:    item.TextReference,
		Penalties:        item.Penalties,
		Incentives:       item.Incentives,
		Risks:            item.Risks,
		Opportunities:    item.Opportunities,
		FollowUp:         item.FollowUp,
	}
}

type requirementLinkResponse struct {
	itemMetaResponse
	RequirementID  string `json:"requirement_id"`
	Description    string `json:"description"`
	Implementation string `json:"implementation"`
	Communication  string `json:"communication"`
	FollowUp       string `json:"follow_up"`
}

func toRequirementLinkResponse(item *models.RequirementLinkItem) requirementLinkResponse {
	return requirementLinkResponse{
		itemMetaResponse: toItemMeta(item.ItemMeta),
		RequirementID:    item.TextRequirementID.String(),
		Description:      item.Description,
		Implementation:   item.Implementation,
		Communication:    item.Communication,
		FollowUp:         item.FollowUp,
	}
}

type actionItemResponse struct {
	itemMetaResponse
	Description string `json:"description"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	Observation string `json:"observation"`
	FollowUp    string `json:"follow_up"`
}

func toActionItemResponse(item *models.ActionItem) actionItemResponse {
	return actionItemResponse{
		itemMetaResponse: toItemMeta(item.ItemMeta),
		Description:      item.Description,
		Source:           item.Source,
		Status:           item.Status,
		Observation:      item.Observation,
		FollowUp:         item.FollowUp,
	}
}

type stakeholderResponse struct {
	itemMetaResponse
	Name               string `json:"name"`
	RelationshipStatus string `json:"relationship_status"`
	Reason             string `json:"reason"`
	Action             string `json:"action"`
	FollowUp           string `json:"follow_up"`
}

func toStakeholderResponse(item *models.StakeholderItem) stakeholderResponse {
	return stakeholderResponse{
		itemMetaResponse:   toItemMeta(item.ItemMeta),
		Name:               item.Name,
		RelationshipStatus: item.RelationshipStatus,
		Reason:             item.Reason,
		Action:             item.Action,
		FollowUp:           item.FollowUp,
	}
}

type availableRequirementResponse struct {
	RequirementID string `json:"requirement_id"`
	TextID        string `json:"text_id"`
	TextReference string `json:"text_reference"`
	Number        string `json:"number"`
	Title         string `json:"title"`
}
