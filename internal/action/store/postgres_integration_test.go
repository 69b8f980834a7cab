//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lexaudit/internal/action/models"
	"lexaudit/internal/action/store"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/testutil/containers"
)

type ActionStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres

	company  id.CompanyID
	domainID id.DomainID
	userID   id.UserID
	textID   id.TextID
}

func TestActionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ActionStoreSuite))
}

func (s *ActionStoreSuite) SetupSuite() {
	s.postgres = containers.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *ActionStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"notifications", "actions", "requirements", "texts", "domains",
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
}

func (s *ActionStoreSuite) newAction() *models.Action {
	action, err := models.NewAction(s.company, "Replace expired extinguishers", s.userID, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	action.TextID = &s.textID
	return action
}

func (s *ActionStoreSuite) TestCreateAndGetAction() {
	ctx := context.Background()
	deadline := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Microsecond)
	action := s.newAction()
	action.ResponsibleID = &s.userID
	action.Deadline = &deadline
	s.Require().NoError(s.store.CreateAction(ctx, action))

	got, err := s.store.GetAction(ctx, s.company, action.ID)
	s.Require().NoError(err)
	s.Equal(action.Description, got.Description)
	s.Equal(models.ActionActive, got.Status)
	s.Require().NotNil(got.TextID)
	s.Equal(s.textID, *got.TextID)
	s.Require().NotNil(got.Deadline)
	s.WithinDuration(deadline, *got.Deadline, time.Second)

	_, err = s.store.GetAction(ctx, id.NewCompanyID(), action.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ActionStoreSuite) TestNullableColumnsRoundTrip() {
	ctx := context.Background()
	action, err := models.NewAction(s.company, "Standalone action", s.userID, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateAction(ctx, action))

	got, err := s.store.GetAction(ctx, s.company, action.ID)
	s.Require().NoError(err)
	s.Nil(got.TextID)
	s.Nil(got.RequirementID)
	s.Nil(got.ResponsibleID)
	s.Nil(got.Deadline)
}

func (s *ActionStoreSuite) TestListActionsFilter() {
	ctx := context.Background()
	linked := s.newAction()
	s.Require().NoError(s.store.CreateAction(ctx, linked))

	standalone, err := models.NewAction(s.company, "Standalone", s.userID, time.Now().UTC())
	s.Require().NoError(err)
	standalone.Status = models.ActionCompleted
	s.Require().NoError(s.store.CreateAction(ctx, standalone))

	all, err := s.store.ListActions(ctx, s.company, models.ActionFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	byText, err := s.store.ListActions(ctx, s.company, models.ActionFilter{TextID: &s.textID})
	s.Require().NoError(err)
	s.Require().Len(byText, 1)
	s.Equal(linked.ID, byText[0].ID)

	active, err := s.store.ListActions(ctx, s.company, models.ActionFilter{Status: models.ActionActive})
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(linked.ID, active[0].ID)
}

func (s *ActionStoreSuite) TestUpdateAction() {
	ctx := context.Background()
	action := s.newAction()
	s.Require().NoError(s.store.CreateAction(ctx, action))

	action.Progress = 80
	action.Status = models.ActionCompleted
	action.Effectiveness = "verified on site"
	action.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.UpdateAction(ctx, action))

	got, err := s.store.GetAction(ctx, s.company, action.ID)
	s.Require().NoError(err)
	s.Equal(80, got.Progress)
	s.Equal(models.ActionCompleted, got.Status)
	s.Equal("verified on site", got.Effectiveness)
}

func (s *ActionStoreSuite) TestNotificationsLifecycle() {
	ctx := context.Background()
	action := s.newAction()
	s.Require().NoError(s.store.CreateAction(ctx, action))

	notification := &models.Notification{
		ID:              id.NewNotificationID(),
		UserID:          s.userID,
		Title:           "Action assigned",
		Type:            "action_assigned",
		RelatedActionID: &action.ID,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.CreateNotification(ctx, notification))

	listed, err := s.store.ListNotifications(ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.False(listed[0].IsRead)

	s.Require().NoError(s.store.MarkNotificationRead(ctx, s.userID, notification.ID))
	s.ErrorIs(s.store.MarkNotificationRead(ctx, id.NewUserID(), notification.ID), sentinel.ErrNotFound)

	listed, err = s.store.ListNotifications(ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.True(listed[0].IsRead)
}

func (s *ActionStoreSuite) TestDeleteForTextRemovesNotifications() {
	ctx := context.Background()
	action := s.newAction()
	s.Require().NoError(s.store.CreateAction(ctx, action))
	s.Require().NoError(s.store.CreateNotification(ctx, &models.Notification{
		ID:              id.NewNotificationID(),
		UserID:          s.userID,
		Title:           "Action assigned",
		RelatedActionID: &action.ID,
		CreatedAt:       time.Now().UTC(),
	}))

	s.Require().NoError(s.store.DeleteForText(ctx, s.company, s.textID))

	var count int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM actions`).Scan(&count))
	s.Zero(count)
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications`).Scan(&count))
	s.Zero(count)
}
