package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexaudit/internal/compliance/storage"
	"lexaudit/internal/compliance/store"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
	"lexaudit/pkg/requestcontext"
)

type stubTexts struct {
	texts        map[id.TextID]textmodels.Text
	requirements map[id.RequirementID]textmodels.Requirement
}

func newStubTexts() *stubTexts {
	return &stubTexts{
		texts:        make(map[id.TextID]textmodels.Text),
		requirements: make(map[id.RequirementID]textmodels.Requirement),
	}
}

func (s *stubTexts) TextForCompany(_ context.Context, companyID id.CompanyID, textID id.TextID) (*textmodels.Text, error) {
	text, ok := s.texts[textID]
	if !ok || text.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	return &text, nil
}

func (s *stubTexts) RequirementForCompany(_ context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*textmodels.Requirement, error) {
	req, ok := s.requirements[requirementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	text, ok := s.texts[req.TextID]
	if !ok || text.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

func (s *stubTexts) RequirementsForText(_ context.Context, companyID id.CompanyID, textID id.TextID) ([]textmodels.Requirement, error) {
	text, ok := s.texts[textID]
	if !ok || text.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	out := []textmodels.Requirement{}
	for _, req := range s.requirements {
		if req.TextID == textID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *stubTexts) ListTexts(_ context.Context, companyID id.CompanyID, _ textmodels.TextFilter) ([]textmodels.Text, error) {
	out := []textmodels.Text{}
	for _, text := range s.texts {
		if text.CompanyID == companyID {
			out = append(out, text)
		}
	}
	return out, nil
}

type fixture struct {
	svc     *Service
	store   *store.Memory
	texts   *stubTexts
	baseDir string

	company id.CompanyID
	textID  id.TextID
	reqID   id.RequirementID
	manager requestcontext.ActorContext
	auditor requestcontext.ActorContext
	reader  requestcontext.ActorContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	company := id.NewCompanyID()
	baseDir := t.TempDir()

	mem := store.NewMemory()
	texts := newStubTexts()

	f := &fixture{
		svc:     New(mem, texts, storage.NewDisk(baseDir), tx.PassthroughRunner{}, nil),
		store:   mem,
		texts:   texts,
		baseDir: baseDir,
		company: company,
		manager: requestcontext.ActorContext{
			UserID: id.NewUserID(), CompanyID: company, Role: id.RoleManager,
		},
		auditor: requestcontext.ActorContext{
			UserID: id.NewUserID(), CompanyID: company, Role: id.RoleAuditor,
		},
		reader: requestcontext.ActorContext{
			UserID: id.NewUserID(), CompanyID: company, Role: id.RoleUser,
		},
	}
	f.textID = f.addText(company, "ISO 14001")
	f.reqID = f.addRequirement(f.textID, "4.1")
	return f
}

func (f *fixture) ctx(actor requestcontext.ActorContext) context.Context {
	return requestcontext.WithActor(context.Background(), actor)
}

func (f *fixture) addText(companyID id.CompanyID, reference string) id.TextID {
	textID := id.NewTextID()
	f.texts.texts[textID] = textmodels.Text{
		ID:        textID,
		CompanyID: companyID,
		Reference: reference,
	}
	return textID
}

func (f *fixture) addRequirement(textID id.TextID, number string) id.RequirementID {
	reqID := id.NewRequirementID()
	f.texts.requirements[reqID] = textmodels.Requirement{
		ID:     reqID,
		TextID: textID,
		Number: number,
		Title:  "Requirement " + number,
		Status: id.DefaultEvaluationStatus,
	}
	return reqID
}

func TestEvaluateCreatesThenOverwrites(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)
	assert.Equal(t, id.EvaluationApplicable, first.Status)
	assert.Equal(t, f.auditor.UserID, first.EvaluatedByID)

	history, err := f.svc.HistoryByRequirement(f.ctx(f.reader), f.reqID)
	require.NoError(t, err)
	assert.Empty(t, history, "first evaluation must not write history")

	second, err := f.svc.Evaluate(f.ctx(f.manager), f.reqID, id.EvaluationNonApplicable)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "evaluation is overwritten in place")
	assert.Equal(t, id.EvaluationNonApplicable, second.Status)
	assert.Equal(t, f.manager.UserID, second.EvaluatedByID)

	history, err = f.svc.HistoryByRequirement(f.ctx(f.reader), f.reqID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, id.EvaluationApplicable, history[0].PreviousStatus)
	assert.Equal(t, id.EvaluationNonApplicable, history[0].NewStatus)
	assert.Equal(t, f.manager.UserID, history[0].ChangedByID)
}

func TestEvaluateAuthorization(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Evaluate(f.ctx(f.reader), f.reqID, id.EvaluationApplicable)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	_, err = f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationStatus("compliant"))
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))

	outsider := requestcontext.ActorContext{
		UserID: id.NewUserID(), CompanyID: id.NewCompanyID(), Role: id.RoleManager,
	}
	_, err = f.svc.Evaluate(f.ctx(outsider), f.reqID, id.EvaluationApplicable)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound), "cross-tenant requirements look nonexistent")
}

func TestCurrentStatusFallsBackToDefault(t *testing.T) {
	f := newFixture(t)

	status, err := f.svc.CurrentStatus(f.ctx(f.reader), f.reqID)
	require.NoError(t, err)
	assert.Equal(t, id.DefaultEvaluationStatus, status.Status)
	assert.False(t, status.Evaluated)
	assert.Nil(t, status.Evaluation)

	_, err = f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationForInformation)
	require.NoError(t, err)

	status, err = f.svc.CurrentStatus(f.ctx(f.reader), f.reqID)
	require.NoError(t, err)
	assert.Equal(t, id.EvaluationForInformation, status.Status)
	assert.True(t, status.Evaluated)
	require.NotNil(t, status.Evaluation)
}

func TestTextsOverviewPercentage(t *testing.T) {
	f := newFixture(t)
	second := f.addRequirement(f.textID, "4.2")
	f.addRequirement(f.textID, "4.3")

	_, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)
	_, err = f.svc.Evaluate(f.ctx(f.auditor), second, id.EvaluationApplicable)
	require.NoError(t, err)

	overviews, err := f.svc.TextsOverview(f.ctx(f.reader), textmodels.TextFilter{})
	require.NoError(t, err)
	require.Len(t, overviews, 1)

	overview := overviews[0]
	assert.Equal(t, 3, overview.TotalRequirements)
	assert.Equal(t, 67, overview.ApplicablePercentage)
	assert.Equal(t, 2, overview.StatusCounts[id.EvaluationApplicable])
	assert.Equal(t, 1, overview.StatusCounts[id.DefaultEvaluationStatus])
}

func TestTextsOverviewEmptyText(t *testing.T) {
	f := newFixture(t)
	f.addText(f.company, "Empty Decree")

	overviews, err := f.svc.TextsOverview(f.ctx(f.reader), textmodels.TextFilter{})
	require.NoError(t, err)
	require.Len(t, overviews, 2)
	for _, overview := range overviews {
		if overview.Reference == "Empty Decree" {
			assert.Equal(t, 0, overview.ApplicablePercentage)
			assert.Equal(t, 0, overview.TotalRequirements)
		}
	}
}

func TestSaveToHistoryFlipsFlagOnce(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)

	marked, err := f.svc.SaveToHistory(f.ctx(f.manager), f.textID)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	marked, err = f.svc.SaveToHistory(f.ctx(f.manager), f.textID)
	require.NoError(t, err)
	assert.Equal(t, 0, marked, "already-saved evaluations are not re-marked")

	_, err = f.svc.SaveToHistory(f.ctx(f.reader), f.textID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestObservationCreatorOnlyDelete(t *testing.T) {
	f := newFixture(t)
	eval, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)

	obs, err := f.svc.AddObservation(f.ctx(f.auditor), eval.ID, "site visit pending")
	require.NoError(t, err)

	err = f.svc.DeleteObservation(f.ctx(f.manager), obs.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden), "managers cannot delete another user's note")

	require.NoError(t, f.svc.DeleteObservation(f.ctx(f.auditor), obs.ID))

	err = f.svc.DeleteObservation(f.ctx(f.auditor), obs.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestParameterManagerOverride(t *testing.T) {
	f := newFixture(t)
	eval, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)

	param, err := f.svc.AddParameter(f.ctx(f.auditor), eval.ID, "pH", "7.2", "monthly")
	require.NoError(t, err)

	other := requestcontext.ActorContext{
		UserID: id.NewUserID(), CompanyID: f.company, Role: id.RoleAuditor,
	}
	err = f.svc.DeleteParameter(f.ctx(other), param.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	require.NoError(t, f.svc.DeleteParameter(f.ctx(f.manager), param.ID))
}

func TestAttachmentLifecycle(t *testing.T) {
	f := newFixture(t)
	eval, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)

	att, err := f.svc.AddAttachment(f.ctx(f.auditor), eval.ID, "permit.pdf", []byte("permit content"))
	require.NoError(t, err)
	assert.Equal(t, "permit.pdf", att.FileName)
	assert.FileExists(t, filepath.Join(f.baseDir, att.FilePath))

	got, content, err := f.svc.OpenAttachment(f.ctx(f.reader), att.ID)
	require.NoError(t, err)
	assert.Equal(t, att.ID, got.ID)
	assert.Equal(t, []byte("permit content"), content)

	err = f.svc.DeleteAttachment(f.ctx(f.manager), att.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	require.NoError(t, f.svc.DeleteAttachment(f.ctx(f.auditor), att.ID))
	_, err = os.Stat(filepath.Join(f.baseDir, att.FilePath))
	assert.True(t, os.IsNotExist(err), "attachment file removed with the row")
}

func TestExportBundlesHistory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)
	_, err = f.svc.Evaluate(f.ctx(f.manager), f.reqID, id.EvaluationNonApplicable)
	require.NoError(t, err)

	bundle, err := f.svc.Export(f.ctx(f.reader), f.textID)
	require.NoError(t, err)
	assert.Equal(t, f.textID, bundle.TextID)
	assert.Equal(t, "ISO 14001", bundle.Reference)
	require.Len(t, bundle.Requirements, 1)
	assert.True(t, bundle.Requirements[0].Evaluated)
	require.Len(t, bundle.History, 1)
	assert.Equal(t, id.EvaluationApplicable, bundle.History[0].PreviousStatus)
	assert.WithinDuration(t, time.Now(), bundle.ExportedAt, time.Minute)
}

func TestEvaluationSatellitesRequireTenancy(t *testing.T) {
	f := newFixture(t)
	eval, err := f.svc.Evaluate(f.ctx(f.auditor), f.reqID, id.EvaluationApplicable)
	require.NoError(t, err)

	outsider := requestcontext.ActorContext{
		UserID: id.NewUserID(), CompanyID: id.NewCompanyID(), Role: id.RoleManager,
	}
	_, err = f.svc.AddObservation(f.ctx(outsider), eval.ID, "peek")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	_, err = f.svc.AddParameter(f.ctx(outsider), eval.ID, "pH", "7", "monthly")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
