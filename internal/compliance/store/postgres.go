// Package store persists compliance evaluations, history and satellites.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"lexaudit/internal/compliance/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists evaluations in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed compliance store.
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

type scanFunc func(dest ...any) error

const evaluationColumns = `id, company_id, text_id, requirement_id, status, evaluated_by, evaluated_at, saved_to_history`

func scanEvaluation(scan scanFunc) (*models.Evaluation, error) {
	var (
		eval                               models.Evaluation
		rawID, rawCompany, rawText, rawReq string
		rawStatus, rawEvaluator            string
	)
	err := scan(&rawID, &rawCompany, &rawText, &rawReq, &rawStatus, &rawEvaluator, &eval.EvaluatedAt, &eval.SavedToHistory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan evaluation: %w", err)
	}
	if eval.ID, err = id.ParseEvaluationID(rawID); err != nil {
		return nil, fmt.Errorf("parse evaluation id: %w", err)
	}
	if eval.CompanyID, err = id.ParseCompanyID(rawCompany); err != nil {
		return nil, fmt.Errorf("parse company id: %w", err)
	}
	if eval.TextID, err = id.ParseTextID(rawText); err != nil {
		return nil, fmt.Errorf("parse text id: %w", err)
	}
	if eval.RequirementID, err = id.ParseRequirementID(rawReq); err != nil {
		return nil, fmt.Errorf("parse requirement id: %w", err)
	}
	if eval.Status, err = id.ParseEvaluationStatus(rawStatus); err != nil {
		return nil, fmt.Errorf("parse evaluation status: %w", err)
	}
	if eval.EvaluatedByID, err = id.ParseUserID(rawEvaluator); err != nil {
		return nil, fmt.Errorf("parse evaluator id: %w", err)
	}
	return &eval, nil
}

func (s *Postgres) GetEvaluationByRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE company_id = $1 AND requirement_id = $2`
	row := s.exec(ctx).QueryRowContext(ctx, query, companyID.String(), requirementID.String())
	return scanEvaluation(row.Scan)
}

func (s *Postgres) GetEvaluation(ctx context.Context, companyID id.CompanyID, evaluationID id.EvaluationID) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE company_id = $1 AND id = $2`
	row := s.exec(ctx).QueryRowContext(ctx, query, companyID.String(), evaluationID.String())
	return scanEvaluation(row.Scan)
}

func (s *Postgres) CreateEvaluation(ctx context.Context, eval *models.Evaluation) error {
	query := `
		INSERT INTO evaluations (id, company_id, text_id, requirement_id, status, evaluated_by, evaluated_at, saved_to_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		eval.ID.String(), eval.CompanyID.String(), eval.TextID.String(), eval.RequirementID.String(),
		eval.Status.String(), eval.EvaluatedByID.String(), eval.EvaluatedAt, eval.SavedToHistory,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (s *Postgres) OverwriteEvaluation(ctx context.Context, eval *models.Evaluation) error {
	query := `
		UPDATE evaluations
		SET status = $1, evaluated_by = $2, evaluated_at = $3, saved_to_history = $4
		WHERE id = $5 AND company_id = $6
	`
	res, err := s.exec(ctx).ExecContext(ctx, query,
		eval.Status.String(), eval.EvaluatedByID.String(), eval.EvaluatedAt, eval.SavedToHistory,
		eval.ID.String(), eval.CompanyID.String(),
	)
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	return requireRowAffected(res, "update evaluation")
}

func (s *Postgres) ListEvaluationsByText(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE company_id = $1 AND text_id = $2 ORDER BY evaluated_at`
	rows, err := s.exec(ctx).QueryContext(ctx, query, companyID.String(), textID.String())
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	out := []models.Evaluation{}
	for rows.Next() {
		eval, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *eval)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkSavedToHistory(ctx context.Context, companyID id.CompanyID, textID id.TextID) (int, error) {
	query := `
		UPDATE evaluations SET saved_to_history = TRUE
		WHERE company_id = $1 AND text_id = $2 AND saved_to_history = FALSE
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, companyID.String(), textID.String())
	if err != nil {
		return 0, fmt.Errorf("mark evaluations saved: %w", err)
	}
	marked, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark evaluations saved: %w", err)
	}
	return int(marked), nil
}

func (s *Postgres) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO evaluation_history (id, evaluation_id, previous_status, new_status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		entry.ID.String(), entry.EvaluationID.String(),
		entry.PreviousStatus.String(), entry.NewStatus.String(),
		entry.ChangedByID.String(), entry.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *Postgres) ListHistoryByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, evaluation_id, previous_status, new_status, changed_by, changed_at
		FROM evaluation_history
		WHERE evaluation_id = $1
		ORDER BY changed_at DESC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, evaluationID.String())
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := []models.HistoryEntry{}
	for rows.Next() {
		var (
			entry                            models.HistoryEntry
			rawID, rawEval, rawPrev, rawNext string
			rawActor                         string
		)
		if err := rows.Scan(&rawID, &rawEval, &rawPrev, &rawNext, &rawActor, &entry.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if entry.ID, err = id.ParseHistoryID(rawID); err != nil {
			return nil, fmt.Errorf("parse history id: %w", err)
		}
		if entry.EvaluationID, err = id.ParseEvaluationID(rawEval); err != nil {
			return nil, fmt.Errorf("parse evaluation id: %w", err)
		}
		if entry.PreviousStatus, err = id.ParseEvaluationStatus(rawPrev); err != nil {
			return nil, fmt.Errorf("parse previous status: %w", err)
		}
		if entry.NewStatus, err = id.ParseEvaluationStatus(rawNext); err != nil {
			return nil, fmt.Errorf("parse new status: %w", err)
		}
		if entry.ChangedByID, err = id.ParseUserID(rawActor); err != nil {
			return nil, fmt.Errorf("parse actor id: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
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

// DeleteForText removes a text's evaluations with their history,
// observations, parameters and attachments. Callers sequence this inside
// the text cascade transaction.
func (s *Postgres) DeleteForText(ctx context.Context, companyID id.CompanyID, textID id.TextID) error {
	steps := []string{
		`DELETE FROM observations WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND text_id = $2)`,
		`DELETE FROM monitoring_parameters WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND text_id = $2)`,
		`DELETE FROM attachments WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND text_id = $2)`,
		`DELETE FROM evaluation_history WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND text_id = $2)`,
		`DELETE FROM evaluations WHERE company_id = $1 AND text_id = $2`,
	}
	for _, query := range steps {
		if _, err := s.exec(ctx).ExecContext(ctx, query, companyID.String(), textID.String()); err != nil {
			return fmt.Errorf("cascade evaluations: %w", err)
		}
	}
	return nil
}

// DeleteForRequirement removes a single requirement's evaluation with its
// history and satellites.
func (s *Postgres) DeleteForRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) error {
	steps := []string{
		`DELETE FROM observations WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND requirement_id = $2)`,
		`DELETE FROM monitoring_parameters WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND requirement_id = $2)`,
		`DELETE FROM attachments WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND requirement_id = $2)`,
		`DELETE FROM evaluation_history WHERE evaluation_id IN (SELECT id FROM evaluations WHERE company_id = $1 AND requirement_id = $2)`,
		`DELETE FROM evaluations WHERE company_id = $1 AND requirement_id = $2`,
	}
	for _, query := range steps {
		if _, err := s.exec(ctx).ExecContext(ctx, query, companyID.String(), requirementID.String()); err != nil {
			return fmt.Errorf("cascade evaluation: %w", err)
		}
	}
	return nil
}
