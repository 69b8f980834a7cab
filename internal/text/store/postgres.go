// Package store persists legal texts and requirements.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists texts in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed text store.
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

const textColumns = `id, company_id, domain_id, reference, nature, publication_year, penalties, content, file_path, created_by, created_at`

func scanText(scan scanFunc) (*models.Text, error) {
	var (
		text                         models.Text
		rawID, rawCompany, rawDomain string
		rawCreator                   string
	)
	err := scan(&rawID, &rawCompany, &rawDomain, &text.Reference, &text.Nature,
		&text.PublicationYear, &text.Penalties, &text.Content, &text.FilePath,
		&rawCreator, &text.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan text: %w", err)
	}
	if text.ID, err = id.ParseTextID(rawID); err != nil {
		return nil, fmt.Errorf("parse text id: %w", err)
	}
	if text.CompanyID, err = id.ParseCompanyID(rawCompany); err != nil {
		return nil, fmt.Errorf("parse company id: %w", err)
	}
	if text.DomainID, err = id.ParseDomainID(rawDomain); err != nil {
		return nil, fmt.Errorf("parse domain id: %w", err)
	}
	if text.CreatedByID, err = id.ParseUserID(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	return &text, nil
}

func scanRequirement(scan scanFunc) (*models.Requirement, error) {
	var (
		req            models.Requirement
		rawID, rawText string
		rawStatus      string
	)
	err := scan(&rawID, &rawText, &req.Number, &req.Title, &rawStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan requirement: %w", err)
	}
	if req.ID, err = id.ParseRequirementID(rawID); err != nil {
		return nil, fmt.Errorf("parse requirement id: %w", err)
	}
	if req.TextID, err = id.ParseTextID(rawText); err != nil {
		return nil, fmt.Errorf("parse text id: %w", err)
	}
	if req.Status, err = id.ParseEvaluationStatus(rawStatus); err != nil {
		return nil, fmt.Errorf("parse requirement status: %w", err)
	}
	return &req, nil
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

func (s *Postgres) CreateText(ctx context.Context, text *models.Text) error {
	query := `
		INSERT INTO texts (id, company_id, domain_id, reference, nature, publication_year, penalties, content, file_path, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		text.ID.String(), text.CompanyID.String(), text.DomainID.String(),
		text.Reference, text.Nature, text.PublicationYear, text.Penalties,
		text.Content, text.FilePath, text.CreatedByID.String(), text.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert text: %w", err)
	}
	return nil
}

func (s *Postgres) GetText(ctx context.Context, companyID id.CompanyID, textID id.TextID) (*models.Text, error) {
	query := `SELECT ` + textColumns + ` FROM texts WHERE company_id = $1 AND id = $2`
	row := s.exec(ctx).QueryRowContext(ctx, query, companyID.String(), textID.String())
	return scanText(row.Scan)
}

func (s *Postgres) ListTexts(ctx context.Context, companyID id.CompanyID, filter models.TextFilter) ([]models.Text, error) {
	builder := psql.Select("id", "company_id", "domain_id", "reference", "nature",
		"publication_year", "penalties", "content", "file_path", "created_by", "created_at").
		From("texts").
		Where(sq.Eq{"company_id": companyID.String()}).
		OrderBy("created_at DESC")
	if filter.DomainID != nil {
		builder = builder.Where(sq.Eq{"domain_id": filter.DomainID.String()})
	}
	if filter.Nature != "" {
		builder = builder.Where("LOWER(nature) = LOWER(?)", filter.Nature)
	}
	if filter.PublicationYear != nil {
		builder = builder.Where(sq.Eq{"publication_year": *filter.PublicationYear})
	}
	if filter.Keyword != "" {
		builder = builder.Where("reference ILIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.PageSize > 0 {
		builder = builder.
			Limit(uint64(filter.PageSize)).
			Offset(uint64((filter.Page - 1) * filter.PageSize))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build text query: %w", err)
	}
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list texts: %w", err)
	}
	defer rows.Close()

	out := []models.Text{}
	for rows.Next() {
		text, err := scanText(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *text)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateText(ctx context.Context, text *models.Text) error {
	query := `
		UPDATE texts
		SET reference = $1, nature = $2, publication_year = $3, penalties = $4, content = $5, file_path = $6
		WHERE id = $7 AND company_id = $8
	`
	res, err := s.exec(ctx).ExecContext(ctx, query,
		text.Reference, text.Nature, text.PublicationYear, text.Penalties,
		text.Content, text.FilePath, text.ID.String(), text.CompanyID.String(),
	)
	if err != nil {
		return fmt.Errorf("update text: %w", err)
	}
	return requireRowAffected(res, "update text")
}

func (s *Postgres) DeleteText(ctx context.Context, companyID id.CompanyID, textID id.TextID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM texts WHERE company_id = $1 AND id = $2`,
		companyID.String(), textID.String())
	if err != nil {
		return fmt.Errorf("delete text: %w", err)
	}
	return requireRowAffected(res, "delete text")
}

func (s *Postgres) CreateRequirement(ctx context.Context, req *models.Requirement) error {
	query := `
		INSERT INTO requirements (id, text_id, number, title, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		req.ID.String(), req.TextID.String(), req.Number, req.Title, req.Status.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert requirement: %w", err)
	}
	return nil
}

func (s *Postgres) GetRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Requirement, error) {
	query := `
		SELECT r.id, r.text_id, r.number, r.title, r.status
		FROM requirements r
		JOIN texts t ON t.id = r.text_id
		WHERE t.company_id = $1 AND r.id = $2
	`
	row := s.exec(ctx).QueryRowContext(ctx, query, companyID.String(), requirementID.String())
	return scanRequirement(row.Scan)
}

func (s *Postgres) UpdateRequirement(ctx context.Context, req *models.Requirement) error {
	query := `UPDATE requirements SET number = $1, title = $2, status = $3 WHERE id = $4`
	res, err := s.exec(ctx).ExecContext(ctx, query,
		req.Number, req.Title, req.Status.String(), req.ID.String())
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	return requireRowAffected(res, "update requirement")
}

func (s *Postgres) DeleteRequirement(ctx context.Context, requirementID id.RequirementID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM requirements WHERE id = $1`, requirementID.String())
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	return requireRowAffected(res, "delete requirement")
}

func (s *Postgres) ListRequirementsByText(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Requirement, error) {
	query := `
		SELECT r.id, r.text_id, r.number, r.title, r.status
		FROM requirements r
		JOIN texts t ON t.id = r.text_id
		WHERE t.company_id = $1 AND r.text_id = $2
		ORDER BY r.number
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, companyID.String(), textID.String())
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	out := []models.Requirement{}
	for rows.Next() {
		req, err := scanRequirement(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteRequirementsForText(ctx context.Context, textID id.TextID) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM requirements WHERE text_id = $1`, textID.String())
	if err != nil {
		return fmt.Errorf("delete requirements for text: %w", err)
	}
	return nil
}

// TextExists reports whether the company owns a text with the id.
func (s *Postgres) TextExists(ctx context.Context, companyID id.CompanyID, textID id.TextID) (bool, error) {
	var exists bool
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM texts WHERE company_id = $1 AND id = $2)`,
		companyID.String(), textID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check text exists: %w", err)
	}
	return exists, nil
}

// DomainInUse reports whether any of the company's texts is filed under
// the domain.
func (s *Postgres) DomainInUse(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error) {
	var inUse bool
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM texts WHERE company_id = $1 AND domain_id = $2)`,
		companyID.String(), domainID.String()).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check domain in use: %w", err)
	}
	return inUse, nil
}

// TextReference returns the reference string of a company's text.
func (s *Postgres) TextReference(ctx context.Context, companyID id.CompanyID, textID id.TextID) (string, error) {
	var reference string
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT reference FROM texts WHERE company_id = $1 AND id = $2`,
		companyID.String(), textID.String()).Scan(&reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("get text reference: %w", err)
	}
	return reference, nil
}

// TextForCompany is GetText under the name the compliance module uses.
func (s *Postgres) TextForCompany(ctx context.Context, companyID id.CompanyID, textID id.TextID) (*models.Text, error) {
	return s.GetText(ctx, companyID, textID)
}

// RequirementForCompany is GetRequirement under the name the review and
// compliance modules use.
func (s *Postgres) RequirementForCompany(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Requirement, error) {
	return s.GetRequirement(ctx, companyID, requirementID)
}

// RequirementsForText is ListRequirementsByText under the compliance
// module's name.
func (s *Postgres) RequirementsForText(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Requirement, error) {
	return s.ListRequirementsByText(ctx, companyID, textID)
}

// RequirementsByTexts returns the requirements of the given texts with
// their parent references, for the review module's available-requirements
// listing.
func (s *Postgres) RequirementsByTexts(ctx context.Context, companyID id.CompanyID, textIDs []id.TextID) ([]models.RequirementWithText, error) {
	if len(textIDs) == 0 {
		return []models.RequirementWithText{}, nil
	}
	raw := make([]string, 0, len(textIDs))
	for _, textID := range textIDs {
		raw = append(raw, textID.String())
	}
	query := `
		SELECT r.id, r.text_id, r.number, r.title, r.status, t.reference
		FROM requirements r
		JOIN texts t ON t.id = r.text_id
		WHERE t.company_id = $1 AND r.text_id = ANY($2::uuid[])
		ORDER BY r.number
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, companyID.String(), pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list requirements by texts: %w", err)
	}
	defer rows.Close()

	out := []models.RequirementWithText{}
	for rows.Next() {
		var (
			item           models.RequirementWithText
			rawID, rawText string
			rawStatus      string
		)
		if err := rows.Scan(&rawID, &rawText, &item.Number, &item.Title, &rawStatus, &item.TextReference); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		if item.ID, err = id.ParseRequirementID(rawID); err != nil {
			return nil, fmt.Errorf("parse requirement id: %w", err)
		}
		if item.TextID, err = id.ParseTextID(rawText); err != nil {
			return nil, fmt.Errorf("parse text id: %w", err)
		}
		if item.Status, err = id.ParseEvaluationStatus(rawStatus); err != nil {
			return nil, fmt.Errorf("parse requirement status: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
