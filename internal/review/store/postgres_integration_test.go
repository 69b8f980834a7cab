//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lexaudit/internal/review/models"
	"lexaudit/internal/review/store"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres

	company  id.CompanyID
	domainID id.DomainID
	userID   id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"review_stakeholders", "review_actions", "review_requirements",
		"review_legal_texts", "reviews", "requirements", "texts", "domains",
	))

	s.company = id.NewCompanyID()
	s.domainID = id.NewDomainID()
	s.userID = id.NewUserID()

	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO domains (id, company_id, name) VALUES ($1, $2, $3)`,
		s.domainID.String(), s.company.String(), "Environment",
	)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newReview() *models.Review {
	return &models.Review{
		ID:          id.NewReviewID(),
		CompanyID:   s.company,
		DomainID:    s.domainID,
		ReviewDate:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:      id.ReviewDraft,
		CreatedByID: s.userID,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) seedText(reference string) id.TextID {
	textID := id.NewTextID()
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO texts (id, company_id, domain_id, reference, created_by)
		VALUES ($1, $2, $3, $4, $5)
	`, textID.String(), s.company.String(), s.domainID.String(), reference, s.userID.String())
	s.Require().NoError(err)
	return textID
}

func (s *PostgresStoreSuite) seedRequirement(textID id.TextID) id.RequirementID {
	reqID := id.NewRequirementID()
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO requirements (id, text_id, number, title, status)
		VALUES ($1, $2, $3, $4, $5)
	`, reqID.String(), textID.String(), "1", "Registration", string(id.DefaultEvaluationStatus))
	s.Require().NoError(err)
	return reqID
}

func (s *PostgresStoreSuite) TestCreateAndGetReview() {
	ctx := context.Background()
	review := s.newReview()
	s.Require().NoError(s.store.CreateReview(ctx, review))

	got, err := s.store.GetReview(ctx, s.company, review.ID)
	s.Require().NoError(err)
	s.Equal(review.ID, got.ID)
	s.Equal(id.ReviewDraft, got.Status)
	s.Equal(review.CreatedByID, got.CreatedByID)

	// Cross-tenant lookup behaves as absence.
	_, err = s.store.GetReview(ctx, id.NewCompanyID(), review.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListReviewsFiltered() {
	ctx := context.Background()
	early := s.newReview()
	early.ReviewDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := s.newReview()
	late.ReviewDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.CreateReview(ctx, early))
	s.Require().NoError(s.store.CreateReview(ctx, late))

	all, err := s.store.ListReviews(ctx, s.company, models.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal("Environment", all[0].DomainName)

	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	filtered, err := s.store.ListReviews(ctx, s.company, models.ListFilter{ReviewDateAfter: &cutoff})
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(late.ID, filtered[0].ID)
}

func (s *PostgresStoreSuite) TestTransitionStatusCompareAndSwap() {
	ctx := context.Background()
	review := s.newReview()
	s.Require().NoError(s.store.CreateReview(ctx, review))

	s.Require().NoError(s.store.TransitionStatus(ctx, s.company, review.ID, id.ReviewDraft, id.ReviewInProgress))

	err := s.store.TransitionStatus(ctx, s.company, review.ID, id.ReviewDraft, id.ReviewInProgress)
	s.ErrorIs(err, sentinel.ErrConflict)

	err = s.store.TransitionStatus(ctx, s.company, id.NewReviewID(), id.ReviewDraft, id.ReviewInProgress)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentTransitions verifies that racing terminal transitions admit
// exactly one winner.
func (s *PostgresStoreSuite) TestConcurrentTransitions() {
	ctx := context.Background()
	review := s.newReview()
	review.Status = id.ReviewInProgress
	s.Require().NoError(s.store.CreateReview(ctx, review))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		target := id.ReviewCompleted
		if i%2 == 1 {
			target = id.ReviewCanceled
		}
		wg.Add(1)
		go func(to id.ReviewStatus) {
			defer wg.Done()
			err := s.store.TransitionStatus(ctx, s.company, review.ID, id.ReviewInProgress, to)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}(target)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestRequirementLinkUniqueness() {
	ctx := context.Background()
	review := s.newReview()
	s.Require().NoError(s.store.CreateReview(ctx, review))
	textID := s.seedText("REACH")
	reqID := s.seedRequirement(textID)

	link := &models.RequirementLinkItem{
		ItemMeta: models.ItemMeta{
			ID: id.NewReviewItemID(), ReviewID: review.ID,
			CreatedByID: s.userID, CreatedAt: time.Now().UTC(),
		},
		TextRequirementID: reqID,
		Description:       "SDS register",
	}
	s.Require().NoError(s.store.AddRequirementLink(ctx, link))

	dup := *link
	dup.ID = id.NewReviewItemID()
	s.ErrorIs(s.store.AddRequirementLink(ctx, &dup), sentinel.ErrConflict)

	exists, err := s.store.HasRequirementLink(ctx, review.ID, reqID)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PostgresStoreSuite) TestDeleteReviewRemovesChildren() {
	ctx := context.Background()
	review := s.newReview()
	s.Require().NoError(s.store.CreateReview(ctx, review))
	textID := s.seedText("ISO 14001")

	item := &models.LegalTextItem{
		ItemMeta: models.ItemMeta{
			ID: id.NewReviewItemID(), ReviewID: review.ID,
			CreatedByID: s.userID, CreatedAt: time.Now().UTC(),
		},
		TextID:        textID,
		TextReference: "ISO 14001",
	}
	s.Require().NoError(s.store.AddLegalText(ctx, item))

	s.Require().NoError(s.store.DeleteReview(ctx, s.company, review.ID))

	_, err := s.store.GetLegalText(ctx, review.ID, item.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestGetReviewDetail() {
	ctx := context.Background()
	review := s.newReview()
	s.Require().NoError(s.store.CreateReview(ctx, review))
	textID := s.seedText("Code du travail")

	legal := &models.LegalTextItem{
		ItemMeta: models.ItemMeta{
			ID: id.NewReviewItemID(), ReviewID: review.ID,
			CreatedByID: s.userID, CreatedAt: time.Now().UTC(),
		},
		TextID:        textID,
		TextReference: "Code du travail",
		Risks:         "fines",
	}
	s.Require().NoError(s.store.AddLegalText(ctx, legal))

	stakeholder := &models.StakeholderItem{
		ItemMeta: models.ItemMeta{
			ID: id.NewReviewItemID(), ReviewID: review.ID,
			CreatedByID: s.userID, CreatedAt: time.Now().UTC(),
		},
		Name: "DREAL",
	}
	s.Require().NoError(s.store.AddStakeholder(ctx, stakeholder))

	detail, err := s.store.GetReviewDetail(ctx, s.company, review.ID)
	s.Require().NoError(err)
	s.Equal("Environment", detail.DomainName)
	s.Require().Len(detail.LegalTexts, 1)
	s.Equal("fines", detail.LegalTexts[0].Risks)
	s.Require().Len(detail.Stakeholders, 1)
	s.Equal("DREAL", detail.Stakeholders[0].Name)
	s.Empty(detail.Actions)
	s.Empty(detail.Requirements)
}
