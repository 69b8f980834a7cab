// Package store persists the domain taxonomy.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"lexaudit/internal/taxonomy/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists domains in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed domain store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) exec(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func scanDomain(scan func(dest ...any) error) (*models.Domain, error) {
	var (
		domain            models.Domain
		rawID, rawCompany string
	)
	err := scan(&rawID, &rawCompany, &domain.Name, &domain.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan domain: %w", err)
	}
	if domain.ID, err = id.ParseDomainID(rawID); err != nil {
		return nil, fmt.Errorf("parse domain id: %w", err)
	}
	if domain.CompanyID, err = id.ParseCompanyID(rawCompany); err != nil {
		return nil, fmt.Errorf("parse company id: %w", err)
	}
	return &domain, nil
}

func (s *Postgres) CreateDomain(ctx context.Context, domain *models.Domain) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO domains (id, company_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		domain.ID.String(), domain.CompanyID.String(), domain.Name, domain.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert domain: %w", err)
	}
	return nil
}

func (s *Postgres) GetDomain(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) (*models.Domain, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, company_id, name, created_at FROM domains WHERE company_id = $1 AND id = $2`,
		companyID.String(), domainID.String())
	return scanDomain(row.Scan)
}

func (s *Postgres) ListDomains(ctx context.Context, companyID id.CompanyID) ([]models.Domain, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT id, company_id, name, created_at FROM domains WHERE company_id = $1 ORDER BY name`,
		companyID.String())
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	out := []models.Domain{}
	for rows.Next() {
		domain, err := scanDomain(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *domain)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteDomain(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM domains WHERE company_id = $1 AND id = $2`,
		companyID.String(), domainID.String())
	if err != nil {
		return fmt.Errorf("delete domain: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete domain: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DomainExists implements the DomainReader port shared by the review and
// text services.
func (s *Postgres) DomainExists(ctx context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error) {
	var exists bool
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM domains WHERE company_id = $1 AND id = $2)`,
		companyID.String(), domainID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("domain exists: %w", err)
	}
	return exists, nil
}
