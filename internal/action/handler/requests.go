package handler

import (
	"time"

	"lexaudit/internal/action/models"
	svc "lexaudit/internal/action/service"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
)

type createActionRequest struct {
	Description   string  `json:"description"`
	TextID        *string `json:"text_id"`
	RequirementID *string `json:"requirement_id"`
	ResponsibleID *string `json:"responsible_id"`
	Deadline      *string `json:"deadline"`
	Effectiveness string  `json:"effectiveness"`

	params svc.CreateParams
}

func (req *createActionRequest) Validate() error {
	if req.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	req.params = svc.CreateParams{
		Description:   req.Description,
		Effectiveness: req.Effectiveness,
	}
	if req.TextID != nil {
		textID, err := id.ParseTextID(*req.TextID)
		if err != nil {
			return err
		}
		req.params.TextID = &textID
	}
	if req.RequirementID != nil {
		reqID, err := id.ParseRequirementID(*req.RequirementID)
		if err != nil {
			return err
		}
		req.params.RequirementID = &reqID
	}
	if req.ResponsibleID != nil {
		userID, err := id.ParseUserID(*req.ResponsibleID)
		if err != nil {
			return err
		}
		req.params.ResponsibleID = &userID
	}
	if req.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "deadline must be an RFC 3339 timestamp")
		}
		req.params.Deadline = &deadline
	}
	return nil
}

type updateActionRequest struct {
	Description   *string `json:"description"`
	ResponsibleID *string `json:"responsible_id"`
	Deadline      *string `json:"deadline"`
	Progress      *int    `json:"progress"`
	Effectiveness *string `json:"effectiveness"`
	Status        *string `json:"status"`

	params svc.UpdateParams
}

func (req *updateActionRequest) Validate() error {
	if req.Description == nil && req.ResponsibleID == nil && req.Deadline == nil &&
		req.Progress == nil && req.Effectiveness == nil && req.Status == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	req.params = svc.UpdateParams{
		Description:   req.Description,
		Progress:      req.Progress,
		Effectiveness: req.Effectiveness,
	}
	if req.ResponsibleID != nil {
		userID, err := id.ParseUserID(*req.ResponsibleID)
		if err != nil {
			return err
		}
		req.params.ResponsibleID = &userID
	}
	if req.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "deadline must be an RFC 3339 timestamp")
		}
		req.params.Deadline = &deadline
	}
	if req.Status != nil {
		status, err := models.ParseActionStatus(*req.Status)
		if err != nil {
			return err
		}
		req.params.Status = &status
	}
	return nil
}

type actionResponse struct {
	ID            string     `json:"id"`
	TextID        *string    `json:"text_id,omitempty"`
	RequirementID *string    `json:"requirement_id,omitempty"`
	Description   string     `json:"description"`
	ResponsibleID *string    `json:"responsible_id,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Progress      int        `json:"progress"`
	Effectiveness string     `json:"effectiveness"`
	Status        string     `json:"status"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func optionalID[T interface{ String() string }](v *T) *string {
	if v == nil {
		return nil
	}
	s := (*v).String()
	return &s
}

func toActionResponse(action *models.Action) actionResponse {
	return actionResponse{
		ID:            action.ID.String(),
		TextID:        optionalID(action.TextID),
		RequirementID: optionalID(action.RequirementID),
		Description:   action.Description,
		ResponsibleID: optionalID(action.ResponsibleID),
		Deadline:      action.Deadline,
		Progress:      action.Progress,
		Effectiveness: action.Effectiveness,
		Status:        action.Status.String(),
		CreatedBy:     action.CreatedByID.String(),
		CreatedAt:     action.CreatedAt,
		UpdatedAt:     action.UpdatedAt,
	}
}

type notificationResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Type            string    `json:"type"`
	RelatedActionID *string   `json:"related_action_id,omitempty"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

func toNotificationResponse(notification *models.Notification) notificationResponse {
	return notificationResponse{
		ID:              notification.ID.String(),
		Title:           notification.Title,
		Description:     notification.Description,
		Type:            notification.Type,
		RelatedActionID: optionalID(notification.RelatedActionID),
		IsRead:          notification.IsRead,
		CreatedAt:       notification.CreatedAt,
	}
}
