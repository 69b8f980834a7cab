package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexaudit/internal/taxonomy/store"
	textmodels "lexaudit/internal/text/models"
	textstore "lexaudit/internal/text/store"
	id "lexaudit/pkg/domain"
	dErrors "lexaudit/pkg/domain-errors"
	"lexaudit/pkg/requestcontext"
)

func ctxFor(actor requestcontext.ActorContext) context.Context {
	return requestcontext.WithActor(context.Background(), actor)
}

func TestCreateAndListDomains(t *testing.T) {
	company := id.NewCompanyID()
	manager := requestcontext.ActorContext{UserID: id.NewUserID(), CompanyID: company, Role: id.RoleManager}
	reader := requestcontext.ActorContext{UserID: id.NewUserID(), CompanyID: company, Role: id.RoleUser}
	svc := New(store.NewMemory(), textstore.NewMemory())

	_, err := svc.Create(ctxFor(reader), "Environment")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	_, err = svc.Create(ctxFor(manager), "  ")
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	created, err := svc.Create(ctxFor(manager), "Environment")
	require.NoError(t, err)
	assert.Equal(t, "Environment", created.Name)

	_, err = svc.Create(ctxFor(manager), "environment")
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

	domains, err := svc.List(ctxFor(reader))
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, created.ID, domains[0].ID)

	// Tenants do not see each other's taxonomy.
	other := requestcontext.ActorContext{UserID: id.NewUserID(), CompanyID: id.NewCompanyID(), Role: id.RoleManager}
	domains, err = svc.List(ctxFor(other))
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestRequiresAuthenticatedActor(t *testing.T) {
	svc := New(store.NewMemory(), textstore.NewMemory())

	_, err := svc.Create(context.Background(), "Environment")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	_, err = svc.List(context.Background())
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestDeleteDomainInUse(t *testing.T) {
	company := id.NewCompanyID()
	manager := requestcontext.ActorContext{UserID: id.NewUserID(), CompanyID: company, Role: id.RoleManager}
	texts := textstore.NewMemory()
	svc := New(store.NewMemory(), texts)

	domain, err := svc.Create(ctxFor(manager), "Workplace safety")
	require.NoError(t, err)

	text, err := textmodels.NewText(company, domain.ID, "Decree 2023-841", "decree", 2023, "", "", manager.UserID, time.Now())
	require.NoError(t, err)
	require.NoError(t, texts.CreateText(context.Background(), text))

	err = svc.Delete(ctxFor(manager), domain.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

	require.NoError(t, texts.DeleteText(context.Background(), company, text.ID))
	require.NoError(t, svc.Delete(ctxFor(manager), domain.ID))

	err = svc.Delete(ctxFor(manager), domain.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
