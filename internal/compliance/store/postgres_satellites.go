package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lexaudit/internal/compliance/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
)

func (s *Postgres) AddObservation(ctx context.Context, obs *models.Observation) error {
	query := `
		INSERT INTO observations (id, evaluation_id, content, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		obs.ID.String(), obs.EvaluationID.String(), obs.Content, obs.CreatedByID.String(), obs.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func scanObservation(scan scanFunc) (*models.Observation, error) {
	var (
		obs                        models.Observation
		rawID, rawEval, rawCreator string
	)
	err := scan(&rawID, &rawEval, &obs.Content, &rawCreator, &obs.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan observation: %w", err)
	}
	if obs.ID, err = id.ParseObservationID(rawID); err != nil {
		return nil, fmt.Errorf("parse observation id: %w", err)
	}
	if obs.EvaluationID, err = id.ParseEvaluationID(rawEval); err != nil {
		return nil, fmt.Errorf("parse evaluation id: %w", err)
	}
	if obs.CreatedByID, err = id.ParseUserID(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	return &obs, nil
}

func (s *Postgres) GetObservation(ctx context.Context, observationID id.ObservationID) (*models.Observation, error) {
	query := `SELECT id, evaluation_id, content, created_by, created_at FROM observations WHERE id = $1`
	row := s.exec(ctx).QueryRowContext(ctx, query, observationID.String())
	return scanObservation(row.Scan)
}

func (s *Postgres) DeleteObservation(ctx context.Context, observationID id.ObservationID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM observations WHERE id = $1`, observationID.String())
	if err != nil {
		return fmt.Errorf("delete observation: %w", err)
	}
	return requireRowAffected(res, "delete observation")
}

func (s *Postgres) ListObservationsByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.Observation, error) {
	query := `SELECT id, evaluation_id, content, created_by, created_at FROM observations WHERE evaluation_id = $1 ORDER BY created_at`
	rows, err := s.exec(ctx).QueryContext(ctx, query, evaluationID.String())
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	out := []models.Observation{}
	for rows.Next() {
		obs, err := scanObservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *obs)
	}
	return out, rows.Err()
}

func (s *Postgres) AddParameter(ctx context.Context, param *models.MonitoringParameter) error {
	query := `
		INSERT INTO monitoring_parameters (id, evaluation_id, name, value, frequency, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		param.ID.String(), param.EvaluationID.String(), param.Name, param.Value, param.Frequency,
		param.CreatedByID.String(), param.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert monitoring parameter: %w", err)
	}
	return nil
}

func scanParameter(scan scanFunc) (*models.MonitoringParameter, error) {
	var (
		param                      models.MonitoringParameter
		rawID, rawEval, rawCreator string
	)
	err := scan(&rawID, &rawEval, &param.Name, &param.Value, &param.Frequency, &rawCreator, &param.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan monitoring parameter: %w", err)
	}
	if param.ID, err = id.ParseParameterID(rawID); err != nil {
		return nil, fmt.Errorf("parse parameter id: %w", err)
	}
	if param.EvaluationID, err = id.ParseEvaluationID(rawEval); err != nil {
		return nil, fmt.Errorf("parse evaluation id: %w", err)
	}
	if param.CreatedByID, err = id.ParseUserID(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	return &param, nil
}

func (s *Postgres) GetParameter(ctx context.Context, parameterID id.ParameterID) (*models.MonitoringParameter, error) {
	query := `SELECT id, evaluation_id, name, value, frequency, created_by, created_at FROM monitoring_parameters WHERE id = $1`
	row := s.exec(ctx).QueryRowContext(ctx, query, parameterID.String())
	return scanParameter(row.Scan)
}

func (s *Postgres) DeleteParameter(ctx context.Context, parameterID id.ParameterID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM monitoring_parameters WHERE id = $1`, parameterID.String())
	if err != nil {
		return fmt.Errorf("delete monitoring parameter: %w", err)
	}
	return requireRowAffected(res, "delete monitoring parameter")
}

func (s *Postgres) ListParametersByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.MonitoringParameter, error) {
	query := `SELECT id, evaluation_id, name, value, frequency, created_by, created_at FROM monitoring_parameters WHERE evaluation_id = $1 ORDER BY created_at`
	rows, err := s.exec(ctx).QueryContext(ctx, query, evaluationID.String())
	if err != nil {
		return nil, fmt.Errorf("list monitoring parameters: %w", err)
	}
	defer rows.Close()

	out := []models.MonitoringParameter{}
	for rows.Next() {
		param, err := scanParameter(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *param)
	}
	return out, rows.Err()
}

func (s *Postgres) AddAttachment(ctx context.Context, att *models.Attachment) error {
	query := `
		INSERT INTO attachments (id, evaluation_id, file_name, file_path, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		att.ID.String(), att.EvaluationID.String(), att.FileName, att.FilePath,
		att.CreatedByID.String(), att.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func scanAttachment(scan scanFunc) (*models.Attachment, error) {
	var (
		att                        models.Attachment
		rawID, rawEval, rawCreator string
	)
	err := scan(&rawID, &rawEval, &att.FileName, &att.FilePath, &rawCreator, &att.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	if att.ID, err = id.ParseAttachmentID(rawID); err != nil {
		return nil, fmt.Errorf("parse attachment id: %w", err)
	}
	if att.EvaluationID, err = id.ParseEvaluationID(rawEval); err != nil {
		return nil, fmt.Errorf("parse evaluation id: %w", err)
	}
	if att.CreatedByID, err = id.ParseUserID(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	return &att, nil
}

func (s *Postgres) GetAttachment(ctx context.Context, attachmentID id.AttachmentID) (*models.Attachment, error) {
	query := `SELECT id, evaluation_id, file_name, file_path, created_by, created_at FROM attachments WHERE id = $1`
	row := s.exec(ctx).QueryRowContext(ctx, query, attachmentID.String())
	return scanAttachment(row.Scan)
}

func (s *Postgres) DeleteAttachment(ctx context.Context, attachmentID id.AttachmentID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, attachmentID.String())
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return requireRowAffected(res, "delete attachment")
}

func (s *Postgres) ListAttachmentsByEvaluation(ctx context.Context, evaluationID id.EvaluationID) ([]models.Attachment, error) {
	query := `SELECT id, evaluation_id, file_name, file_path, created_by, created_at FROM attachments WHERE evaluation_id = $1 ORDER BY created_at`
	rows, err := s.exec(ctx).QueryContext(ctx, query, evaluationID.String())
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	out := []models.Attachment{}
	for rows.Next() {
		att, err := scanAttachment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *att)
	}
	return out, rows.Err()
}
