package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"lexaudit/internal/review/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
)

// execer is the subset of *sql.DB and *sql.Tx the store needs, so every
// query transparently joins an ambient transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists reviews and child items in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed review store.
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

func (s *Postgres) CreateReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, company_id, domain_id, review_date, status, pdf_path, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		review.ID.String(), review.CompanyID.String(), review.DomainID.String(),
		review.ReviewDate, review.Status.String(), review.PDFPath,
		review.CreatedByID.String(), review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func scanReview(row *sql.Row) (*models.Review, error) {
	var (
		review                                  models.Review
		rawID, rawCompany, rawDomain, rawStatus string
		rawCreator                              string
	)
	err := row.Scan(&rawID, &rawCompany, &rawDomain, &review.ReviewDate, &rawStatus, &review.PDFPath, &rawCreator, &review.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	if review.ID, err = id.ParseReviewID(rawID); err != nil {
		return nil, fmt.Errorf("parse review id: %w", err)
	}
	if review.CompanyID, err = id.ParseCompanyID(rawCompany); err != nil {
		return nil, fmt.Errorf("parse company id: %w", err)
	}
	if review.DomainID, err = id.ParseDomainID(rawDomain); err != nil {
		return nil, fmt.Errorf("parse domain id: %w", err)
	}
	if review.Status, err = id.ParseReviewStatus(rawStatus); err != nil {
		return nil, fmt.Errorf("parse review status: %w", err)
	}
	if review.CreatedByID, err = id.ParseUserID(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	return &review, nil
}

func (s *Postgres) GetReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) (*models.Review, error) {
	query := `
		SELECT id, company_id, domain_id, review_date, status, pdf_path, created_by, created_at
		FROM reviews
		WHERE id = $1 AND company_id = $2
	`
	return scanReview(s.exec(ctx).QueryRowContext(ctx, query, reviewID.String(), companyID.String()))
}

func (s *Postgres) GetReviewDetail(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) (*models.ReviewDetail, error) {
	review, err := s.GetReview(ctx, companyID, reviewID)
	if err != nil {
		return nil, err
	}
	detail := &models.ReviewDetail{Review: *review}

	err = s.exec(ctx).QueryRowContext(ctx,
		`SELECT name FROM domains WHERE id = $1`, review.DomainID.String(),
	).Scan(&detail.DomainName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load domain name: %w", err)
	}

	if detail.LegalTexts, err = s.listLegalTexts(ctx, reviewID); err != nil {
		return nil, err
	}
	if detail.Requirements, err = s.listRequirementLinks(ctx, reviewID); err != nil {
		return nil, err
	}
	if detail.Actions, err = s.listActionItems(ctx, reviewID); err != nil {
		return nil, err
	}
	if detail.Stakeholders, err = s.listStakeholders(ctx, reviewID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Postgres) ListReviews(ctx context.Context, companyID id.CompanyID, filter models.ListFilter) ([]models.ReviewSummary, error) {
	builder := psql.
		Select("r.id", "r.domain_id", "COALESCE(d.name, '')", "r.review_date", "r.status", "r.created_at", "r.pdf_path").
		From("reviews r").
		LeftJoin("domains d ON d.id = r.domain_id").
		Where(sq.Eq{"r.company_id": companyID.String()}).
		OrderBy("r.created_at DESC")
	if filter.DomainID != nil {
		builder = builder.Where(sq.Eq{"r.domain_id": filter.DomainID.String()})
	}
	if filter.ReviewDateAfter != nil {
		builder = builder.Where(sq.Gt{"r.review_date": *filter.ReviewDateAfter})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review list query: %w", err)
	}
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	summaries := []models.ReviewSummary{}
	for rows.Next() {
		var (
			summary                     models.ReviewSummary
			rawID, rawDomain, rawStatus string
		)
		if err := rows.Scan(&rawID, &rawDomain, &summary.DomainName, &summary.ReviewDate, &rawStatus, &summary.CreatedAt, &summary.PDFPath); err != nil {
			return nil, fmt.Errorf("scan review summary: %w", err)
		}
		if summary.ID, err = id.ParseReviewID(rawID); err != nil {
			return nil, fmt.Errorf("parse review id: %w", err)
		}
		if summary.DomainID, err = id.ParseDomainID(rawDomain); err != nil {
			return nil, fmt.Errorf("parse domain id: %w", err)
		}
		if summary.Status, err = id.ParseReviewStatus(rawStatus); err != nil {
			return nil, fmt.Errorf("parse review status: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *Postgres) UpdateReviewDate(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, reviewDate time.Time) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE reviews SET review_date = $1 WHERE id = $2 AND company_id = $3`,
		reviewDate, reviewID.String(), companyID.String(),
	)
	if err != nil {
		return fmt.Errorf("update review date: %w", err)
	}
	return requireRowAffected(result)
}

// TransitionStatus is a compare-and-swap: the UPDATE only matches when the
// row still holds the expected status, so concurrent transitions cannot
// both win.
func (s *Postgres) TransitionStatus(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, from, to id.ReviewStatus) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE reviews SET status = $1 WHERE id = $2 AND company_id = $3 AND status = $4`,
		to.String(), reviewID.String(), companyID.String(), from.String(),
	)
	if err != nil {
		return fmt.Errorf("transition review status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition review status: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a lost race from a missing review.
	var current string
	err = s.exec(ctx).QueryRowContext(ctx,
		`SELECT status FROM reviews WHERE id = $1 AND company_id = $2`,
		reviewID.String(), companyID.String(),
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("transition review status: %w", err)
	}
	return sentinel.ErrConflict
}

func (s *Postgres) SetPDFPath(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID, path string) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE reviews SET pdf_path = $1 WHERE id = $2 AND company_id = $3`,
		path, reviewID.String(), companyID.String(),
	)
	if err != nil {
		return fmt.Errorf("set review pdf path: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteReview relies on ON DELETE CASCADE for the child item tables.
func (s *Postgres) DeleteReview(ctx context.Context, companyID id.CompanyID, reviewID id.ReviewID) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM reviews WHERE id = $1 AND company_id = $2`,
		reviewID.String(), companyID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return requireRowAffected(result)
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanItemMeta(rawID, rawReview, rawCreator string, createdAt time.Time) (models.ItemMeta, error) {
	var meta models.ItemMeta
	var err error
	if meta.ID, err = id.ParseReviewItemID(rawID); err != nil {
		return meta, fmt.Errorf("parse item id: %w", err)
	}
	if meta.ReviewID, err = id.ParseReviewID(rawReview); err != nil {
		return meta, fmt.Errorf("parse review id: %w", err)
	}
	if meta.CreatedByID, err = id.ParseUserID(rawCreator); err != nil {
		return meta, fmt.Errorf("parse creator id: %w", err)
	}
	meta.CreatedAt = createdAt
	return meta, nil
}

func (s *Postgres) AddLegalText(ctx context.Context, item *models.LegalTextItem) error {
	query := `
		INSERT INTO review_legal_texts (id, review_id, text_id, text_reference, penalties, incentives, risks, opportunities, follow_up, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		item.ID.String(), item.ReviewID.String(), item.TextID.String(), item.TextReference,
		item.Penalties, item.Incentives, item.Risks, item.Opportunities, item.FollowUp,
		item.CreatedByID.String(), item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert legal text item: %w", err)
	}
	return nil
}

func (s *Postgres) GetLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.LegalTextItem, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT id, review_id, text_id, text_reference, penalties, incentives, risks, opportunities, follow_up, created_by, created_at
		FROM review_legal_texts
		WHERE id = $1 AND review_id = $2
	`, itemID.String(), reviewID.String())
	item, err := scanLegalText(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

type scanFunc func(dest ...any) error

func scanLegalText(scan scanFunc) (*models.LegalTextItem, error) {
	var (
		item                      models.LegalTextItem
		rawID, rawReview, rawText string
		rawCreator                string
		createdAt                 time.Time
	)
	err := scan(&rawID, &rawReview, &rawText, &item.TextReference,
		&item.Penalties, &item.Incentives, &item.Risks, &item.Opportunities, &item.FollowUp,
		&rawCreator, &createdAt)
	if err != nil {
		return nil, err
	}
	if item.ItemMeta, err = scanItemMeta(rawID, rawReview, rawCreator, createdAt); err != nil {
		return nil, err
	}
	if item.TextID, err = id.ParseTextID(rawText); err != nil {
		return nil, fmt.Errorf("parse text id: %w", err)
	}
	return &item, nil
}

func (s *Postgres) listLegalTexts(ctx context.Context, reviewID id.ReviewID) ([]models.LegalTextItem, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, review_id, text_id, text_reference, penalties, incentives, risks, opportunities, follow_up, created_by, created_at
		FROM review_legal_texts
		WHERE review_id = $1
		ORDER BY created_at
	`, reviewID.String())
	if err != nil {
		return nil, fmt.Errorf("list legal text items: %w", err)
	}
	defer rows.Close()

	items := []models.LegalTextItem{}
	for rows.Next() {
		item, err := scanLegalText(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Postgres) UpdateLegalText(ctx context.Context, item *models.LegalTextItem) error {
	result, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE review_legal_texts
		SET penalties = $1, incentives = $2, risks = $3, opportunities = $4, follow_up = $5
		WHERE id = $6 AND review_id = $7
	`, item.Penalties, item.Incentives, item.Risks, item.Opportunities, item.FollowUp,
		item.ID.String(), item.ReviewID.String())
	if err != nil {
		return fmt.Errorf("update legal text item: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Postgres) DeleteLegalText(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM review_legal_texts WHERE id = $1 AND review_id = $2`,
		itemID.String(), reviewID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete legal text item: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Postgres) ListLegalTextIDs(ctx context.Context, reviewID id.ReviewID) ([]id.TextID, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT DISTINCT text_id FROM review_legal_texts WHERE review_id = $1`,
		reviewID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list linked text ids: %w", err)
	}
	defer rows.Close()

	ids := []id.TextID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan text id: %w", err)
		}
		textID, err := id.ParseTextID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse text id: %w", err)
		}
		ids = append(ids, textID)
	}
	return ids, rows.Err()
}

func (s *Postgres) AddRequirementLink(ctx context.Context, item *models.RequirementLinkItem) error {
	query := `
		INSERT INTO review_requirements (id, review_id, requirement_id, description, implementation, communication, follow_up, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		item.ID.String(), item.ReviewID.String(), item.TextRequirementID.String(),
		item.Description, item.Implementation, item.Communication, item.FollowUp,
		item.CreatedByID.String(), item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert requirement link: %w", err)
	}
	return nil
}

func scanRequirementLink(scan scanFunc) (*models.RequirementLinkItem, error) {
	var (
		item                     models.RequirementLinkItem
		rawID, rawReview, rawReq string
		rawCreator               string
		createdAt                time.Time
	)
	err := scan(&rawID, &rawReview, &rawReq,
		&item.Description, &item.Implementation, &item.Communication, &item.FollowUp,
		&rawCreator, &createdAt)
	if err != nil {
		return nil, err
	}
	if item.ItemMeta, err = scanItemMeta(rawID, rawReview, rawCreator, createdAt); err != nil {
		return nil, err
	}
	if item.TextRequirementID, err = id.ParseRequirementID(rawReq); err != nil {
		return nil, fmt.Errorf("parse requirement id: %w", err)
	}
	return &item, nil
}

func (s *Postgres) GetRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.RequirementLinkItem, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT id, review_id, requirement_id, description, implementation, communication, follow_up, created_by, created_at
		FROM review_requirements
		WHERE id = $1 AND review_id = $2
	`, itemID.String(), reviewID.String())
	item, err := scanRequirementLink(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Postgres) listRequirementLinks(ctx context.Context, reviewID id.ReviewID) ([]models.RequirementLinkItem, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, review_id, requirement_id, description, implementation, communication, follow_up, created_by, created_at
		FROM review_requirements
		WHERE review_id = $1
		ORDER BY created_at
	`, reviewID.String())
	if err != nil {
		return nil, fmt.Errorf("list requirement links: %w", err)
	}
	defer rows.Close()

	items := []models.RequirementLinkItem{}
	for rows.Next() {
		item, err := scanRequirementLink(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Postgres) UpdateRequirementLink(ctx context.Context, item *models.RequirementLinkItem) error {
	result, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE review_requirements
		SET description = $1, implementation = $2, communication = $3, follow_up = $4
		WHERE id = $5 AND review_id = $6
	`, item.Description, item.Implementation, item.Communication, item.FollowUp,
		item.ID.String(), item.ReviewID.String())
	if err != nil {
		return fmt.Errorf("update requirement link: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Postgres) DeleteRequirementLink(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM review_requirements WHERE id = $1 AND review_id = $2`,
		itemID.String(), reviewID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete requirement link: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Postgres) HasRequirementLink(ctx context.Context, reviewID id.ReviewID, requirementID id.RequirementID) (bool, error) {
	var exists bool
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM review_requirements WHERE review_id = $1 AND requirement_id = $2)`,
		reviewID.String(), requirementID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check requirement link: %w", err)
	}
	return exists, nil
}

func (s *Postgres) ListLinkedRequirementIDs(ctx context.Context, reviewID id.ReviewID) ([]id.RequirementID, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT requirement_id FROM review_requirements WHERE review_id = $1`,
		reviewID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list linked requirement ids: %w", err)
	}
	defer rows.Close()

	ids := []id.RequirementID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan requirement id: %w", err)
		}
		reqID, err := id.ParseRequirementID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse requirement id: %w", err)
		}
		ids = append(ids, reqID)
	}
	return ids, rows.Err()
}

func (s *Postgres) AddActionItem(ctx context.Context, item *models.ActionItem) error {
	query := `
		INSERT INTO review_actions (id, review_id, description, source, status, observation, follow_up, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		item.ID.String(), item.ReviewID.String(),
		item.Description, item.Source, item.Status, item.Observation, item.FollowUp,
		item.CreatedByID.String(), item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert action item: %w", err)
	}
	return nil
}

func scanActionItem(scan scanFunc) (*models.ActionItem, error) {
	var (
		item             models.ActionItem
		rawID, rawReview string
		rawCreator       string
		createdAt        time.Time
	)
	err := scan(&rawID, &rawReview,
		&item.Description, &item.Source, &item.Status, &item.Observation, &item.FollowUp,
		&rawCreator, &createdAt)
	if err != nil {
		return nil, err
	}
	if item.ItemMeta, err = scanItemMeta(rawID, rawReview, rawCreator, createdAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Postgres) GetActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.ActionItem, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT id, review_id, description, source, status, observation, follow_up, created_by, created_at
		FROM review_actions
		WHERE id = $1 AND review_id = $2
	`, itemID.String(), reviewID.String())
	item, err := scanActionItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Postgres) listActionItems(ctx context.Context, reviewID id.ReviewID) ([]models.ActionItem, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, review_id, description, source, status, observation, follow_up, created_by, created_at
		FROM review_actions
		WHERE review_id = $1
		ORDER BY created_at
	`, reviewID.String())
	if err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	defer rows.Close()

	items := []models.ActionItem{}
	for rows.Next() {
		item, err := scanActionItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Postgres) UpdateActionItem(ctx context.Context, item *models.ActionItem) error {
	result, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE review_actions
		SET description = $1, source = $2, status = $3, observation = $4, follow_up = $5
		WHERE id = $6 AND review_id = $7
	`, item.Description, item.Source, item.Status, item.Observation, item.FollowUp,
		item.ID.String(), item.ReviewID.String())
	if err != nil {
		return fmt.Errorf("update action item: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Postgres) DeleteActionItem(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM review_actions WHERE id = $1 AND review_id = $2`,
		itemID.String(), reviewID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete action item: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Postgres) AddStakeholder(ctx context.Context, item *models.StakeholderItem) error {
	query := `
		INSERT INTO review_stakeholders (id, review_id, name, relationship_status, reason, action, follow_up, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		item.ID.String(), item.ReviewID.String(),
		item.Name, item.RelationshipStatus, item.Reason, item.Action, item.FollowUp,
		item.CreatedByID.String(), item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stakeholder item: %w", err)
	}
	return nil
}

func scanStakeholder(scan scanFunc) (*models.StakeholderItem, error) {
	var (
		item             models.StakeholderItem
		rawID, rawReview string
		rawCreator       string
		createdAt        time.Time
	)
	err := scan(&rawID, &rawReview,
		&item.Name, &item.RelationshipStatus, &item.Reason, &item.Action, &item.FollowUp,
		&rawCreator, &createdAt)
	if err != nil {
		return nil, err
	}
	if item.ItemMeta, err = scanItemMeta(rawID, rawReview, rawCreator, createdAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Postgres) GetStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) (*models.StakeholderItem, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT id, review_id, name, relationship_status, reason, action, follow_up, created_by, created_at
		FROM review_stakeholders
		WHERE id = $1 AND review_id = $2
	`, itemID.String(), reviewID.String())
	item, err := scanStakeholder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Postgres) listStakeholders(ctx context.Context, reviewID id.ReviewID) ([]models.StakeholderItem, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, review_id, name, relationship_status, reason, action, follow_up, created_by, created_at
		FROM review_stakeholders
		WHERE review_id = $1
		ORDER BY created_at
	`, reviewID.String())
	if err != nil {
		return nil, fmt.Errorf("list stakeholder items: %w", err)
	}
	defer rows.Close()

	items := []models.StakeholderItem{}
	for rows.Next() {
		item, err := scanStakeholder(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Postgres) UpdateStakeholder(ctx context.Context, item *models.StakeholderItem) error {
	result, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE review_stakeholders
		SET name = $1, relationship_status = $2, reason = $3, action = $4, follow_up = $5
		WHERE id = $6 AND review_id = $7
	`, item.Name, item.RelationshipStatus, item.Reason, item.Action, item.FollowUp,
		item.ID.String(), item.ReviewID.String())
	if err != nil {
		return fmt.Errorf("update stakeholder item: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Postgres) DeleteStakeholder(ctx context.Context, reviewID id.ReviewID, itemID id.ReviewItemID) error {
	result, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM review_stakeholders WHERE id = $1 AND review_id = $2`,
		itemID.String(), reviewID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete stakeholder item: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteItemsForText removes every legal text item snapshotting the given
// text. Part of the text cascade; runs inside the cascade transaction.
func (s *Postgres) DeleteItemsForText(ctx context.Context, textID id.TextID) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM review_legal_texts WHERE text_id = $1`, textID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete legal text items for text: %w", err)
	}
	return nil
}

// DeleteLinksForRequirements removes every requirement link referencing the
// given requirements. Part of the text cascade.
func (s *Postgres) DeleteLinksForRequirements(ctx context.Context, requirementIDs []id.RequirementID) error {
	if len(requirementIDs) == 0 {
		return nil
	}
	raw := make([]string, len(requirementIDs))
	for i, rid := range requirementIDs {
		raw[i] = rid.String()
	}
	_, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM review_requirements WHERE requirement_id = ANY($1::uuid[])`,
		pq.Array(raw),
	)
	if err != nil {
		return fmt.Errorf("delete requirement links: %w", err)
	}
	return nil
}
