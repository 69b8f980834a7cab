//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lexaudit/internal/compliance/models"
	"lexaudit/internal/compliance/store"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/testutil/containers"
)

type ComplianceStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres

	company  id.CompanyID
	domainID id.DomainID
	userID   id.UserID
	textID   id.TextID
	reqID    id.RequirementID
}

func TestComplianceStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ComplianceStoreSuite))
}

func (s *ComplianceStoreSuite) SetupSuite() {
	s.postgres = containers.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *ComplianceStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"observations", "monitoring_parameters", "attachments",
		"evaluation_history", "evaluations", "requirements", "texts", "domains",
	))

	s.company = id.NewCompanyID()
	s.domainID = id.NewDomainID()
	s.userID = id.NewUserID()

	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO domains (id, company_id, name) VALUES ($1, $2, $3)`,
		s.domainID.String(), s.company.String(), "Environment",
	)
	s.Require().NoError(err)

	s.textID = id.NewTextID()
	_, err = s.postgres.DB.ExecContext(ctx, `
		INSERT INTO texts (id, company_id, domain_id, reference, created_by)
		VALUES ($1, $2, $3, $4, $5)
	`, s.textID.String(), s.company.String(), s.domainID.String(), "ISO 14001", s.userID.String())
	s.Require().NoError(err)

	s.reqID = s.seedRequirement()
}

func (s *ComplianceStoreSuite) seedRequirement() id.RequirementID {
	reqID := id.NewRequirementID()
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO requirements (id, text_id, number, title, status)
		VALUES ($1, $2, $3, $4, $5)
	`, reqID.String(), s.textID.String(), "4.1", "Context of the organization", string(id.DefaultEvaluationStatus))
	s.Require().NoError(err)
	return reqID
}

func (s *ComplianceStoreSuite) newEvaluation(reqID id.RequirementID, status id.EvaluationStatus) *models.Evaluation {
	return &models.Evaluation{
		ID:            id.NewEvaluationID(),
		CompanyID:     s.company,
		TextID:        s.textID,
		RequirementID: reqID,
		Status:        status,
		EvaluatedByID: s.userID,
		EvaluatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *ComplianceStoreSuite) TestCreateAndGetEvaluation() {
	ctx := context.Background()
	eval := s.newEvaluation(s.reqID, id.EvaluationApplicable)
	s.Require().NoError(s.store.CreateEvaluation(ctx, eval))

	got, err := s.store.GetEvaluationByRequirement(ctx, s.company, s.reqID)
	s.Require().NoError(err)
	s.Equal(eval.ID, got.ID)
	s.Equal(id.EvaluationApplicable, got.Status)
	s.False(got.SavedToHistory)

	_, err = s.store.GetEvaluationByRequirement(ctx, id.NewCompanyID(), s.reqID)
	s.True(errors.Is(err, sentinel.ErrNotFound), "cross-tenant lookups miss")
}

func (s *ComplianceStoreSuite) TestOneEvaluationPerRequirement() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateEvaluation(ctx, s.newEvaluation(s.reqID, id.EvaluationApplicable)))

	err := s.store.CreateEvaluation(ctx, s.newEvaluation(s.reqID, id.EvaluationNonApplicable))
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *ComplianceStoreSuite) TestOverwriteAndHistory() {
	ctx := context.Background()
	eval := s.newEvaluation(s.reqID, id.EvaluationApplicable)
	s.Require().NoError(s.store.CreateEvaluation(ctx, eval))

	entry := &models.HistoryEntry{
		ID:             id.NewHistoryID(),
		EvaluationID:   eval.ID,
		PreviousStatus: eval.Status,
		NewStatus:      id.EvaluationNonApplicable,
		ChangedByID:    s.userID,
		ChangedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.AppendHistory(ctx, entry))

	eval.Status = id.EvaluationNonApplicable
	s.Require().NoError(s.store.OverwriteEvaluation(ctx, eval))

	got, err := s.store.GetEvaluationByRequirement(ctx, s.company, s.reqID)
	s.Require().NoError(err)
	s.Equal(id.EvaluationNonApplicable, got.Status)

	entries, err := s.store.ListHistoryByEvaluation(ctx, eval.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(id.EvaluationApplicable, entries[0].PreviousStatus)
	s.Equal(id.EvaluationNonApplicable, entries[0].NewStatus)
}

func (s *ComplianceStoreSuite) TestMarkSavedToHistory() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateEvaluation(ctx, s.newEvaluation(s.reqID, id.EvaluationApplicable)))
	other := s.seedRequirement()
	s.Require().NoError(s.store.CreateEvaluation(ctx, s.newEvaluation(other, id.EvaluationToVerify)))

	marked, err := s.store.MarkSavedToHistory(ctx, s.company, s.textID)
	s.Require().NoError(err)
	s.Equal(2, marked)

	marked, err = s.store.MarkSavedToHistory(ctx, s.company, s.textID)
	s.Require().NoError(err)
	s.Equal(0, marked)
}

func (s *ComplianceStoreSuite) TestSatelliteRoundTrip() {
	ctx := context.Background()
	eval := s.newEvaluation(s.reqID, id.EvaluationApplicable)
	s.Require().NoError(s.store.CreateEvaluation(ctx, eval))
	now := time.Now().UTC().Truncate(time.Microsecond)

	obs := &models.Observation{
		ID: id.NewObservationID(), EvaluationID: eval.ID,
		Content: "site visit pending", CreatedByID: s.userID, CreatedAt: now,
	}
	s.Require().NoError(s.store.AddObservation(ctx, obs))

	param := &models.MonitoringParameter{
		ID: id.NewParameterID(), EvaluationID: eval.ID,
		Name: "pH", Value: "7.2", Frequency: "monthly",
		CreatedByID: s.userID, CreatedAt: now,
	}
	s.Require().NoError(s.store.AddParameter(ctx, param))

	att := &models.Attachment{
		ID: id.NewAttachmentID(), EvaluationID: eval.ID,
		FileName: "permit.pdf", FilePath: "attachments/permit.pdf",
		CreatedByID: s.userID, CreatedAt: now,
	}
	s.Require().NoError(s.store.AddAttachment(ctx, att))

	observations, err := s.store.ListObservationsByEvaluation(ctx, eval.ID)
	s.Require().NoError(err)
	s.Require().Len(observations, 1)
	s.Equal("site visit pending", observations[0].Content)

	parameters, err := s.store.ListParametersByEvaluation(ctx, eval.ID)
	s.Require().NoError(err)
	s.Require().Len(parameters, 1)
	s.Equal("pH", parameters[0].Name)

	attachments, err := s.store.ListAttachmentsByEvaluation(ctx, eval.ID)
	s.Require().NoError(err)
	s.Require().Len(attachments, 1)
	s.Equal("permit.pdf", attachments[0].FileName)

	s.Require().NoError(s.store.DeleteObservation(ctx, obs.ID))
	s.True(errors.Is(s.store.DeleteObservation(ctx, obs.ID), sentinel.ErrNotFound))
}

func (s *ComplianceStoreSuite) TestDeleteForTextLeavesNothing() {
	ctx := context.Background()
	eval := s.newEvaluation(s.reqID, id.EvaluationApplicable)
	s.Require().NoError(s.store.CreateEvaluation(ctx, eval))
	s.Require().NoError(s.store.AppendHistory(ctx, &models.HistoryEntry{
		ID: id.NewHistoryID(), EvaluationID: eval.ID,
		PreviousStatus: id.EvaluationApplicable, NewStatus: id.EvaluationNonApplicable,
		ChangedByID: s.userID, ChangedAt: time.Now().UTC(),
	}))
	s.Require().NoError(s.store.AddObservation(ctx, &models.Observation{
		ID: id.NewObservationID(), EvaluationID: eval.ID,
		Content: "note", CreatedByID: s.userID, CreatedAt: time.Now().UTC(),
	}))

	s.Require().NoError(s.store.DeleteForText(ctx, s.company, s.textID))

	_, err := s.store.GetEvaluationByRequirement(ctx, s.company, s.reqID)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	for _, table := range []string{"evaluations", "evaluation_history", "observations"} {
		var count int
		s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count))
		s.Zero(count, table+" should be empty after the cascade")
	}
}
