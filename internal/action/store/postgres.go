// Package store persists corrective actions and notifications.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"lexaudit/internal/action/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists actions in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed action store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) exec(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type scanFunc func(dest ...any) error

func nullableString[T fmt.Stringer](v *T) any {
	if v == nil {
		return nil
	}
	return (*v).String()
}

const actionColumns = `id, company_id, text_id, requirement_id, description, responsible_id, deadline, progress, effectiveness, status, created_by, created_at, updated_at`

func scanAction(scan scanFunc) (*models.Action, error) {
	var (
		action                   models.Action
		rawID, rawCompany        string
		rawText, rawReq, rawResp sql.NullString
		rawDeadline              sql.NullTime
		rawStatus, rawCreator    string
	)
	err := scan(&rawID, &rawCompany, &rawText, &rawReq, &action.Description,
		&rawResp, &rawDeadline, &action.Progress, &action.Effectiveness,
		&rawStatus, &rawCreator, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan action: %w", err)
	}
	if action.ID, err = id.ParseActionID(rawID); err != nil {
		return nil, fmt.Errorf("parse action id: %w", err)
	}
	if action.CompanyID, err = id.ParseCompanyID(rawCompany); err != nil {
		return nil, fmt.Errorf("parse company id: %w", err)
	}
	if rawText.Valid {
		textID, err := id.ParseTextID(rawText.String)
		if err != nil {
			return nil, fmt.Errorf("parse text id: %w", err)
		}
		action.TextID = &textID
	}
	if rawReq.Valid {
		reqID, err := id.ParseRequirementID(rawReq.String)
		if err != nil {
			return nil, fmt.Errorf("parse requirement id: %w", err)
		}
		action.RequirementID = &reqID
	}
	if rawResp.Valid {
		respID, err := id.ParseUserID(rawResp.String)
		if err != nil {
			return nil, fmt.Errorf("parse responsible id: %w", err)
		}
		action.ResponsibleID = &respID
	}
	if rawDeadline.Valid {
		deadline := rawDeadline.Time
		action.Deadline = &deadline
	}
	if action.Status, err = models.ParseActionStatus(rawStatus); err != nil {
		return nil, fmt.Errorf("parse action status: %w", err)
	}
	if action.CreatedByID, err = id.ParseUserID(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	return &action, nil
}

func requireRowAffected(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CreateAction(ctx context.Context, action *models.Action) error {
	query := `
		INSERT INTO actions (id, company_id, text_id, requirement_id, description, responsible_id, deadline, progress, effectiveness, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var deadline any
	if action.Deadline != nil {
		deadline = *action.Deadline
	}
	_, err := s.exec(ctx).ExecContext(ctx, query,
		action.ID.String(), action.CompanyID.String(),
		nullableString(action.TextID), nullableString(action.RequirementID),
		action.Description, nullableString(action.ResponsibleID), deadline,
		action.Progress, action.Effectiveness, action.Status.String(),
		action.CreatedByID.String(), action.CreatedAt, action.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

func (s *Postgres) GetAction(ctx context.Context, companyID id.CompanyID, actionID id.ActionID) (*models.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions WHERE company_id = $1 AND id = $2`
	row := s.exec(ctx).QueryRowContext(ctx, query, companyID.String(), actionID.String())
	return scanAction(row.Scan)
}

func (s *Postgres) ListActions(ctx context.Context, companyID id.CompanyID, filter models.ActionFilter) ([]models.Action, error) {
	builder := psql.Select("id", "company_id", "text_id", "requirement_id", "description",
		"responsible_id", "deadline", "progress", "effectiveness", "status",
		"created_by", "created_at", "updated_at").
		From("actions").
		Where(sq.Eq{"company_id": companyID.String()}).
		OrderBy("created_at DESC")
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status.String()})
	}
	if filter.TextID != nil {
		builder = builder.Where(sq.Eq{"text_id": filter.TextID.String()})
	}
	if filter.ResponsibleID != nil {
		builder = builder.Where(sq.Eq{"responsible_id": filter.ResponsibleID.String()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build action query: %w", err)
	}
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	out := []models.Action{}
	for rows.Next() {
		action, err := scanAction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *action)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateAction(ctx context.Context, action *models.Action) error {
	query := `
		UPDATE actions
		SET description = $1, responsible_id = $2, deadline = $3, progress = $4, effectiveness = $5, status = $6, updated_at = $7
		WHERE id = $8 AND company_id = $9
	`
	var deadline any
	if action.Deadline != nil {
		deadline = *action.Deadline
	}
	res, err := s.exec(ctx).ExecContext(ctx, query,
		action.Description, nullableString(action.ResponsibleID), deadline,
		action.Progress, action.Effectiveness, action.Status.String(), action.UpdatedAt,
		action.ID.String(), action.CompanyID.String(),
	)
	if err != nil {
		return fmt.Errorf("update action: %w", err)
	}
	return requireRowAffected(res, "update action")
}

func (s *Postgres) DeleteAction(ctx context.Context, companyID id.CompanyID, actionID id.ActionID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM actions WHERE company_id = $1 AND id = $2`,
		companyID.String(), actionID.String())
	if err != nil {
		return fmt.Errorf("delete action: %w", err)
	}
	return requireRowAffected(res, "delete action")
}

func (s *Postgres) CreateNotification(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, description, type, related_action_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		notification.ID.String(), notification.UserID.String(),
		notification.Title, notification.Description, notification.Type,
		nullableString(notification.RelatedActionID), notification.IsRead, notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Postgres) ListNotifications(ctx context.Context, userID id.UserID) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, description, type, related_action_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var (
			notification  models.Notification
			rawID, rawUsr string
			rawAction     sql.NullString
			createdAt     time.Time
		)
		if err := rows.Scan(&rawID, &rawUsr, &notification.Title, &notification.Description,
			&notification.Type, &rawAction, &notification.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notification.CreatedAt = createdAt
		if notification.ID, err = id.ParseNotificationID(rawID); err != nil {
			return nil, fmt.Errorf("parse notification id: %w", err)
		}
		if notification.UserID, err = id.ParseUserID(rawUsr); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if rawAction.Valid {
			actionID, err := id.ParseActionID(rawAction.String)
			if err != nil {
				return nil, fmt.Errorf("parse action id: %w", err)
			}
			notification.RelatedActionID = &actionID
		}
		out = append(out, notification)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkNotificationRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = $2`,
		userID.String(), notificationID.String())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRowAffected(res, "mark notification read")
}

func (s *Postgres) DeleteNotificationsForAction(ctx context.Context, actionID id.ActionID) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM notifications WHERE related_action_id = $1`, actionID.String())
	if err != nil {
		return fmt.Errorf("delete notifications for action: %w", err)
	}
	return nil
}

// DeleteForText removes every action referencing the text, notifications
// first.
func (s *Postgres) DeleteForText(ctx context.Context, companyID id.CompanyID, textID id.TextID) error {
	steps := []string{
		`DELETE FROM notifications WHERE related_action_id IN (SELECT id FROM actions WHERE company_id = $1 AND text_id = $2)`,
		`DELETE FROM actions WHERE company_id = $1 AND text_id = $2`,
	}
	for _, query := range steps {
		if _, err := s.exec(ctx).ExecContext(ctx, query, companyID.String(), textID.String()); err != nil {
			return fmt.Errorf("cascade actions: %w", err)
		}
	}
	return nil
}

// DeleteForRequirement removes every action referencing the requirement,
// notifications first.
func (s *Postgres) DeleteForRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) error {
	steps := []string{
		`DELETE FROM notifications WHERE related_action_id IN (SELECT id FROM actions WHERE company_id = $1 AND requirement_id = $2)`,
		`DELETE FROM actions WHERE company_id = $1 AND requirement_id = $2`,
	}
	for _, query := range steps {
		if _, err := s.exec(ctx).ExecContext(ctx, query, companyID.String(), requirementID.String()); err != nil {
			return fmt.Errorf("cascade actions: %w", err)
		}
	}
	return nil
}
