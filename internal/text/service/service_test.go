package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actionmodels "lexaudit/internal/action/models"
	actionstore "lexaudit/internal/action/store"
	compliancemodels "lexaudit/internal/compliance/models"
	"lexaudit/internal/compliance/storage"
	compliancestore "lexaudit/internal/compliance/store"
	reviewmodels "lexaudit/internal/review/models"
	reviewstore "lexaudit/internal/review/store"
	"lexaudit/internal/taxonomy/models"
	taxonomystore "lexaudit/internal/taxonomy/store"
	"lexaudit/internal/text/store"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
	"lexaudit/pkg/requestcontext"
)

type fixture struct {
	svc        *Service
	store      *store.Memory
	reviews    *reviewstore.Memory
	compliance *compliancestore.Memory
	actions    *actionstore.Memory
	baseDir    string

	company  id.CompanyID
	domainID id.DomainID
	manager  requestcontext.ActorContext
	auditor  requestcontext.ActorContext
	reader   requestcontext.ActorContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	company := id.NewCompanyID()
	baseDir := t.TempDir()

	texts := store.NewMemory()
	reviews := reviewstore.NewMemory()
	compliance := compliancestore.NewMemory()
	actions := actionstore.NewMemory()
	domains := taxonomystore.NewMemory()
	files := storage.NewDisk(baseDir)
	runner := tx.PassthroughRunner{}

	domain := models.Domain{
		ID:        id.NewDomainID(),
		CompanyID: company,
		Name:      "Environment",
		CreatedAt: time.Now(),
	}
	require.NoError(t, domains.CreateDomain(context.Background(), &domain))

	cascade := NewCascadeDeleter(texts, reviews, compliance, actions, files, runner)

	return &fixture{
		svc:        New(texts, domains, cascade, nil),
		store:      texts,
		reviews:    reviews,
		compliance: compliance,
		actions:    actions,
		baseDir:    baseDir,
		company:    company,
		domainID:   domain.ID,
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

func (f *fixture) createText(t *testing.T, requirements ...RequirementParams) *TextWithRequirements {
	t.Helper()
	text, err := f.svc.Create(f.ctx(f.manager), CreateParams{
		DomainID:        f.domainID,
		Reference:       "Decree 2023-841",
		Nature:          "decree",
		PublicationYear: 2023,
		Requirements:    requirements,
	})
	require.NoError(t, err)
	return text
}

func TestCreateTextWithRequirements(t *testing.T) {
	f := newFixture(t)

	created := f.createText(t,
		RequirementParams{Number: "1", Title: "Declare emissions"},
		RequirementParams{Number: "2", Title: "Keep a register", Status: id.EvaluationApplicable},
	)
	assert.Equal(t, "Decree 2023-841", created.Reference)
	require.Len(t, created.Requirements, 2)
	assert.Equal(t, id.DefaultEvaluationStatus, created.Requirements[0].Status)
	assert.Equal(t, id.EvaluationApplicable, created.Requirements[1].Status)

	fetched, err := f.svc.Get(f.ctx(f.reader), created.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Requirements, 2)
}

func TestCreateTextValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx(f.reader), CreateParams{
		DomainID: f.domainID, Reference: "anything",
	})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	_, err = f.svc.Create(f.ctx(f.manager), CreateParams{
		DomainID: id.NewDomainID(), Reference: "unknown domain",
	})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = f.svc.Create(f.ctx(f.manager), CreateParams{DomainID: f.domainID})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestUpdateTextPartial(t *testing.T) {
	f := newFixture(t)
	created := f.createText(t)

	nature := "order"
	year := 2024
	updated, err := f.svc.Update(f.ctx(f.auditor), created.ID, UpdateParams{
		Nature:          &nature,
		PublicationYear: &year,
	})
	require.NoError(t, err)
	assert.Equal(t, "order", updated.Nature)
	assert.Equal(t, 2024, updated.PublicationYear)
	assert.Equal(t, "Decree 2023-841", updated.Reference, "untouched fields survive")

	empty := ""
	_, err = f.svc.Update(f.ctx(f.auditor), created.ID, UpdateParams{Reference: &empty})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestDeleteTextRequiresManager(t *testing.T) {
	f := newFixture(t)
	created := f.createText(t)

	err := f.svc.Delete(f.ctx(f.auditor), created.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	err = f.svc.Delete(f.ctx(f.manager), id.NewTextID())
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

// seedSatellites fills every table the cascade has to clear: a review
// referencing the text and its requirement, an evaluation with history and
// an observation, and an action with a notification.
func (f *fixture) seedSatellites(t *testing.T, textID id.TextID, reqID id.RequirementID) (id.ReviewID, id.EvaluationID, id.ActionID) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	review := reviewmodels.Review{
		ID:          id.NewReviewID(),
		CompanyID:   f.company,
		DomainID:    f.domainID,
		ReviewDate:  now,
		Status:      id.ReviewInProgress,
		CreatedByID: f.manager.UserID,
		CreatedAt:   now,
	}
	require.NoError(t, f.reviews.CreateReview(ctx, &review))
	require.NoError(t, f.reviews.AddLegalText(ctx, &reviewmodels.LegalTextItem{
		ItemMeta: reviewmodels.ItemMeta{
			ID: id.NewReviewItemID(), ReviewID: review.ID,
			CreatedByID: f.manager.UserID, CreatedAt: now,
		},
		TextID: textID, TextReference: "Decree 2023-841",
	}))
	require.NoError(t, f.reviews.AddRequirementLink(ctx, &reviewmodels.RequirementLinkItem{
		ItemMeta: reviewmodels.ItemMeta{
			ID: id.NewReviewItemID(), ReviewID: review.ID,
			CreatedByID: f.manager.UserID, CreatedAt: now,
		},
		TextRequirementID: reqID,
	}))

	eval := compliancemodels.Evaluation{
		ID:            id.NewEvaluationID(),
		CompanyID:     f.company,
		TextID:        textID,
		RequirementID: reqID,
		Status:        id.EvaluationApplicable,
		EvaluatedByID: f.auditor.UserID,
		EvaluatedAt:   now,
	}
	require.NoError(t, f.compliance.CreateEvaluation(ctx, &eval))
	require.NoError(t, f.compliance.AppendHistory(ctx, &compliancemodels.HistoryEntry{
		ID: id.NewHistoryID(), EvaluationID: eval.ID,
		PreviousStatus: id.DefaultEvaluationStatus, NewStatus: id.EvaluationApplicable,
		ChangedByID: f.auditor.UserID, ChangedAt: now,
	}))
	require.NoError(t, f.compliance.AddObservation(ctx, &compliancemodels.Observation{
		ID: id.NewObservationID(), EvaluationID: eval.ID,
		Content: "site visit pending", CreatedByID: f.auditor.UserID, CreatedAt: now,
	}))

	action, err := actionmodels.NewAction(f.company, "Fix the register", f.manager.UserID, now)
	require.NoError(t, err)
	action.TextID = &textID
	require.NoError(t, f.actions.CreateAction(ctx, action))
	require.NoError(t, f.actions.CreateNotification(ctx, &actionmodels.Notification{
		ID: id.NewNotificationID(), UserID: f.auditor.UserID,
		Title: "Action assigned", Type: "action_assigned",
		RelatedActionID: &action.ID, CreatedAt: now,
	}))

	return review.ID, eval.ID, action.ID
}

func TestDeleteTextCascades(t *testing.T) {
	f := newFixture(t)

	filePath := filepath.Join("texts", "decree-2023-841.pdf")
	require.NoError(t, os.MkdirAll(filepath.Join(f.baseDir, "texts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.baseDir, filePath), []byte("%PDF"), 0o644))

	created, err := f.svc.Create(f.ctx(f.manager), CreateParams{
		DomainID:     f.domainID,
		Reference:    "Decree 2023-841",
		FilePath:     filePath,
		Requirements: []RequirementParams{{Number: "1", Title: "Declare emissions"}},
	})
	require.NoError(t, err)
	reqID := created.Requirements[0].ID

	reviewID, evalID, actionID := f.seedSatellites(t, created.ID, reqID)

	require.NoError(t, f.svc.Delete(f.ctx(f.manager), created.ID))
	ctx := context.Background()

	_, err = f.svc.Get(f.ctx(f.manager), created.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	textIDs, err := f.reviews.ListLegalTextIDs(ctx, reviewID)
	require.NoError(t, err)
	assert.Empty(t, textIDs, "review legal-text items are gone")
	reqIDs, err := f.reviews.ListLinkedRequirementIDs(ctx, reviewID)
	require.NoError(t, err)
	assert.Empty(t, reqIDs, "review requirement links are gone")

	_, err = f.compliance.GetEvaluation(ctx, f.company, evalID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = f.actions.GetAction(ctx, f.company, actionID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	notifications, err := f.actions.ListNotifications(ctx, f.auditor.UserID)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	assert.NoFileExists(t, filepath.Join(f.baseDir, filePath))
}

func TestDeleteRequirementCascades(t *testing.T) {
	f := newFixture(t)
	created := f.createText(t,
		RequirementParams{Number: "1", Title: "Declare emissions"},
		RequirementParams{Number: "2", Title: "Keep a register"},
	)
	reqID := created.Requirements[0].ID
	_, evalID, actionID := f.seedSatellites(t, created.ID, reqID)

	require.NoError(t, f.svc.DeleteRequirement(f.ctx(f.manager), reqID))
	ctx := context.Background()

	fetched, err := f.svc.Get(f.ctx(f.manager), created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Requirements, 1)
	assert.Equal(t, "2", fetched.Requirements[0].Number)

	_, err = f.compliance.GetEvaluation(ctx, f.company, evalID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// The action only references the text, not the requirement: it stays.
	_, err = f.actions.GetAction(ctx, f.company, actionID)
	require.NoError(t, err)
}

func TestRequirementLifecycle(t *testing.T) {
	f := newFixture(t)
	created := f.createText(t)

	added, err := f.svc.AddRequirement(f.ctx(f.auditor), created.ID, RequirementParams{
		Number: "3", Title: "Annual report",
	})
	require.NoError(t, err)
	assert.Equal(t, id.DefaultEvaluationStatus, added.Status)

	updated, err := f.svc.UpdateRequirement(f.ctx(f.auditor), added.ID, RequirementParams{
		Title: "Annual compliance report",
	})
	require.NoError(t, err)
	assert.Equal(t, "Annual compliance report", updated.Title)
	assert.Equal(t, "3", updated.Number, "untouched fields survive")

	_, err = f.svc.AddRequirement(f.ctx(f.reader), created.ID, RequirementParams{Number: "4"})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}
