package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexaudit/internal/review/models"
	"lexaudit/internal/review/store"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
	"lexaudit/pkg/requestcontext"
)

type stubTexts struct {
	references   map[id.TextID]string
	requirements map[id.RequirementID]textmodels.RequirementWithText
}

func newStubTexts() *stubTexts {
	return &stubTexts{
		references:   make(map[id.TextID]string),
		requirements: make(map[id.RequirementID]textmodels.RequirementWithText),
	}
}

func (s *stubTexts) TextExists(_ context.Context, _ id.CompanyID, textID id.TextID) (bool, error) {
	_, ok := s.references[textID]
	return ok, nil
}

func (s *stubTexts) TextReference(_ context.Context, _ id.CompanyID, textID id.TextID) (string, error) {
	ref, ok := s.references[textID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return ref, nil
}

func (s *stubTexts) RequirementForCompany(_ context.Context, _ id.CompanyID, requirementID id.RequirementID) (*textmodels.Requirement, error) {
	req, ok := s.requirements[requirementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req.Requirement, nil
}

func (s *stubTexts) RequirementsByTexts(_ context.Context, _ id.CompanyID, textIDs []id.TextID) ([]textmodels.RequirementWithText, error) {
	wanted := make(map[id.TextID]bool, len(textIDs))
	for _, t := range textIDs {
		wanted[t] = true
	}
	out := []textmodels.RequirementWithText{}
	for _, req := range s.requirements {
		if wanted[req.TextID] {
			out = append(out, req)
		}
	}
	return out, nil
}

type stubDomains struct {
	domains map[id.DomainID]id.CompanyID
}

func (s *stubDomains) DomainExists(_ context.Context, companyID id.CompanyID, domainID id.DomainID) (bool, error) {
	owner, ok := s.domains[domainID]
	return ok && owner == companyID, nil
}

type stubRenderer struct {
	renders int
}

func (s *stubRenderer) Render(_ context.Context, detail *models.ReviewDetail) ([]byte, string, error) {
	s.renders++
	return []byte("report"), "/pdfs/review_" + detail.ID.String() + ".pdf", nil
}

type fixture struct {
	svc      *Service
	store    *store.Memory
	texts    *stubTexts
	renderer *stubRenderer

	company  id.CompanyID
	domainID id.DomainID
	manager  requestcontext.ActorContext
	auditor  requestcontext.ActorContext
	reader   requestcontext.ActorContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	company := id.NewCompanyID()
	domainID := id.NewDomainID()

	mem := store.NewMemory()
	mem.SetDomainName(domainID, "Environment")
	texts := newStubTexts()
	domains := &stubDomains{domains: map[id.DomainID]id.CompanyID{domainID: company}}
	renderer := &stubRenderer{}

	return &fixture{
		svc:      New(mem, texts, domains, renderer, tx.PassthroughRunner{}, nil),
		store:    mem,
		texts:    texts,
		renderer: renderer,
		company:  company,
		domainID: domainID,
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
}

func (f *fixture) ctx(actor requestcontext.ActorContext) context.Context {
	return requestcontext.WithActor(context.Background(), actor)
}

func (f *fixture) createReview(t *testing.T) *models.Review {
	t.Helper()
	review, err := f.svc.Create(f.ctx(f.manager), f.domainID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return review
}

func (f *fixture) startReview(t *testing.T, reviewID id.ReviewID) {
	t.Helper()
	require.NoError(t, f.svc.Start(f.ctx(f.manager), reviewID))
}

func (f *fixture) addText(reference string) id.TextID {
	textID := id.NewTextID()
	f.texts.references[textID] = reference
	return textID
}

func (f *fixture) addRequirement(textID id.TextID, number, title string) id.RequirementID {
	reqID := id.NewRequirementID()
	f.texts.requirements[reqID] = textmodels.RequirementWithText{
		Requirement: textmodels.Requirement{
			ID:     reqID,
			TextID: textID,
			Number: number,
			Title:  title,
			Status: id.DefaultEvaluationStatus,
		},
		TextReference: f.texts.references[textID],
	}
	return reqID
}

func TestCreateReview(t *testing.T) {
	f := newFixture(t)

	t.Run("manager creates draft review", func(t *testing.T) {
		review, err := f.svc.Create(f.ctx(f.manager), f.domainID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, id.ReviewDraft, review.Status)
		assert.Equal(t, f.company, review.CompanyID)
		assert.Equal(t, f.manager.UserID, review.CreatedByID)
	})

	t.Run("auditor cannot create", func(t *testing.T) {
		_, err := f.svc.Create(f.ctx(f.auditor), f.domainID, time.Now())
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("unknown domain rejected", func(t *testing.T) {
		_, err := f.svc.Create(f.ctx(f.manager), id.NewDomainID(), time.Now())
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), f.domainID, time.Now())
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}

func TestReviewTransitions(t *testing.T) {
	f := newFixture(t)

	t.Run("draft starts then completes", func(t *testing.T) {
		review := f.createReview(t)
		require.NoError(t, f.svc.Start(f.ctx(f.manager), review.ID))
		require.NoError(t, f.svc.Complete(f.ctx(f.manager), review.ID))

		detail, err := f.svc.Get(f.ctx(f.manager), review.ID)
		require.NoError(t, err)
		assert.Equal(t, id.ReviewCompleted, detail.Status)
	})

	t.Run("complete from draft is a conflict", func(t *testing.T) {
		review := f.createReview(t)
		err := f.svc.Complete(f.ctx(f.manager), review.ID)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("terminal states are frozen", func(t *testing.T) {
		review := f.createReview(t)
		f.startReview(t, review.ID)
		require.NoError(t, f.svc.Cancel(f.ctx(f.manager), review.ID))

		err := f.svc.Start(f.ctx(f.manager), review.ID)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("auditor cannot transition", func(t *testing.T) {
		review := f.createReview(t)
		err := f.svc.Start(f.ctx(f.auditor), review.ID)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("lost race surfaces conflict", func(t *testing.T) {
		review := f.createReview(t)
		f.startReview(t, review.ID)
		require.NoError(t, f.svc.Complete(f.ctx(f.manager), review.ID))

		err := f.svc.Cancel(f.ctx(f.manager), review.ID)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	review := f.createReview(t)

	otherCompany := requestcontext.ActorContext{
		UserID:    id.NewUserID(),
		CompanyID: id.NewCompanyID(),
		Role:      id.RoleManager,
	}

	_, err := f.svc.Get(f.ctx(otherCompany), review.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound), "cross-tenant access must look like absence")

	err = f.svc.Start(f.ctx(otherCompany), review.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	err = f.svc.Delete(f.ctx(otherCompany), review.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestItemMutationGating(t *testing.T) {
	f := newFixture(t)
	textID := f.addText("ISO 14001")

	t.Run("draft review rejects mutation", func(t *testing.T) {
		review := f.createReview(t)
		_, err := f.svc.AddLegalText(f.ctx(f.manager), review.ID, textID, LegalTextParams{})
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("read-only user rejected in progress", func(t *testing.T) {
		review := f.createReview(t)
		f.startReview(t, review.ID)
		_, err := f.svc.AddActionItem(f.ctx(f.reader), review.ID, ActionItemParams{Description: "fix"})
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("auditor edits only own items", func(t *testing.T) {
		review := f.createReview(t)
		f.startReview(t, review.ID)

		managerItem, err := f.svc.AddActionItem(f.ctx(f.manager), review.ID, ActionItemParams{Description: "manager action"})
		require.NoError(t, err)
		auditorItem, err := f.svc.AddActionItem(f.ctx(f.auditor), review.ID, ActionItemParams{Description: "auditor action"})
		require.NoError(t, err)

		_, err = f.svc.UpdateActionItem(f.ctx(f.auditor), review.ID, managerItem.ID, ActionItemParams{Description: "hijack"})
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

		updated, err := f.svc.UpdateActionItem(f.ctx(f.auditor), review.ID, auditorItem.ID, ActionItemParams{Description: "amended"})
		require.NoError(t, err)
		assert.Equal(t, "amended", updated.Description)

		// Manager can edit anyone's item.
		_, err = f.svc.UpdateActionItem(f.ctx(f.manager), review.ID, auditorItem.ID, ActionItemParams{Description: "manager override"})
		require.NoError(t, err)
	})

	t.Run("completed review is frozen", func(t *testing.T) {
		review := f.createReview(t)
		f.startReview(t, review.ID)
		item, err := f.svc.AddStakeholder(f.ctx(f.manager), review.ID, StakeholderParams{Name: "DREAL"})
		require.NoError(t, err)
		require.NoError(t, f.svc.Complete(f.ctx(f.manager), review.ID))

		_, err = f.svc.UpdateStakeholder(f.ctx(f.manager), review.ID, item.ID, StakeholderParams{Name: "changed"})
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
		err = f.svc.DeleteStakeholder(f.ctx(f.manager), review.ID, item.ID)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func TestLegalTextItems(t *testing.T) {
	f := newFixture(t)
	textID := f.addText("Code du travail L4121-1")
	review := f.createReview(t)
	f.startReview(t, review.ID)
	ctx := f.ctx(f.manager)

	item, err := f.svc.AddLegalText(ctx, review.ID, textID, LegalTextParams{Risks: "fines"})
	require.NoError(t, err)
	assert.Equal(t, "Code du travail L4121-1", item.TextReference, "reference snapshot taken at link time")

	_, err = f.svc.AddLegalText(ctx, review.ID, id.NewTextID(), LegalTextParams{})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation), "unknown text rejected")

	updated, err := f.svc.UpdateLegalText(ctx, review.ID, item.ID, LegalTextParams{Risks: "fines", Opportunities: "grant"})
	require.NoError(t, err)
	assert.Equal(t, "grant", updated.Opportunities)
	assert.Equal(t, item.TextID, updated.TextID, "linked text never changes on update")

	require.NoError(t, f.svc.DeleteLegalText(ctx, review.ID, item.ID))
	err = f.svc.DeleteLegalText(ctx, review.ID, item.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestRequirementLinks(t *testing.T) {
	f := newFixture(t)
	textID := f.addText("REACH")
	reqID := f.addRequirement(textID, "Art. 31", "Safety data sheets")
	review := f.createReview(t)
	f.startReview(t, review.ID)
	ctx := f.ctx(f.manager)

	item, err := f.svc.AddRequirementLink(ctx, review.ID, reqID, RequirementLinkParams{Description: "SDS register"})
	require.NoError(t, err)
	assert.Equal(t, reqID, item.TextRequirementID)

	_, err = f.svc.AddRequirementLink(ctx, review.ID, reqID, RequirementLinkParams{})
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict), "a requirement links at most once per review")

	_, err = f.svc.AddRequirementLink(ctx, review.ID, id.NewRequirementID(), RequirementLinkParams{})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestAvailableRequirements(t *testing.T) {
	f := newFixture(t)
	textID := f.addText("ICPE 2910")
	linked := f.addRequirement(textID, "1", "Registration")
	open := f.addRequirement(textID, "2", "Emission limits")
	otherText := f.addText("unrelated")
	f.addRequirement(otherText, "9", "Not linked text")

	review := f.createReview(t)
	f.startReview(t, review.ID)
	ctx := f.ctx(f.manager)

	available, err := f.svc.AvailableRequirements(ctx, review.ID)
	require.NoError(t, err)
	assert.Empty(t, available, "no texts linked yet")

	_, err = f.svc.AddLegalText(ctx, review.ID, textID, LegalTextParams{})
	require.NoError(t, err)
	_, err = f.svc.AddRequirementLink(ctx, review.ID, linked, RequirementLinkParams{})
	require.NoError(t, err)

	available, err = f.svc.AvailableRequirements(ctx, review.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, open, available[0].RequirementID)
	assert.Equal(t, "ICPE 2910", available[0].TextReference)
}

func TestGeneratePDF(t *testing.T) {
	f := newFixture(t)

	t.Run("in-progress review cannot render", func(t *testing.T) {
		review := f.createReview(t)
		f.startReview(t, review.ID)
		_, _, err := f.svc.GeneratePDF(f.ctx(f.manager), review.ID)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("terminal review renders and records path", func(t *testing.T) {
		review := f.createReview(t)
		f.startReview(t, review.ID)
		require.NoError(t, f.svc.Complete(f.ctx(f.manager), review.ID))

		content, path, err := f.svc.GeneratePDF(f.ctx(f.reader), review.ID)
		require.NoError(t, err)
		assert.Equal(t, "report", string(content))
		assert.Equal(t, "/pdfs/review_"+review.ID.String()+".pdf", path)

		detail, err := f.svc.Get(f.ctx(f.manager), review.ID)
		require.NoError(t, err)
		assert.Equal(t, path, detail.PDFPath)

		// Regeneration is allowed.
		_, _, err = f.svc.GeneratePDF(f.ctx(f.manager), review.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, f.renderer.renders)
	})
}

func TestDeleteReview(t *testing.T) {
	f := newFixture(t)
	textID := f.addText("RGPD")
	review := f.createReview(t)
	f.startReview(t, review.ID)
	ctx := f.ctx(f.manager)

	_, err := f.svc.AddLegalText(ctx, review.ID, textID, LegalTextParams{})
	require.NoError(t, err)

	err = f.svc.Delete(f.ctx(f.auditor), review.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	require.NoError(t, f.svc.Delete(ctx, review.ID))
	_, err = f.svc.Get(ctx, review.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestUpdateReview(t *testing.T) {
	f := newFixture(t)
	review := f.createReview(t)
	newDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	inProgress := id.ReviewInProgress

	err := f.svc.Update(f.ctx(f.manager), review.ID, UpdateParams{ReviewDate: &newDate, Status: &inProgress})
	require.NoError(t, err)

	detail, err := f.svc.Get(f.ctx(f.manager), review.ID)
	require.NoError(t, err)
	assert.True(t, detail.ReviewDate.Equal(newDate))
	assert.Equal(t, id.ReviewInProgress, detail.Status)

	err = f.svc.Update(f.ctx(f.auditor), review.ID, UpdateParams{ReviewDate: &newDate})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}
