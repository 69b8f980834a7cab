package service

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"lexaudit/internal/compliance/models"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/requestcontext"
)

// overviewConcurrency bounds parallel per-text aggregation in TextsOverview.
const overviewConcurrency = 8

// TextDetail returns every requirement of a text with its effective status
// and loaded satellites.
func (s *Service) TextDetail(ctx context.Context, textID id.TextID) ([]models.RequirementDetail, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.texts.TextForCompany(ctx, actor.CompanyID, textID); err != nil {
		return nil, translateStoreErr(err, "text")
	}
	return s.requirementDetails(ctx, actor.CompanyID, textID)
}

func (s *Service) requirementDetails(ctx context.Context, companyID id.CompanyID, textID id.TextID) ([]models.RequirementDetail, error) {
	reqs, err := s.texts.RequirementsForText(ctx, companyID, textID)
	if err != nil {
		return nil, translateStoreErr(err, "requirements")
	}
	evals, err := s.store.ListEvaluationsByText(ctx, companyID, textID)
	if err != nil {
		return nil, translateStoreErr(err, "evaluations")
	}
	byReq := make(map[id.RequirementID]*models.Evaluation, len(evals))
	for i := range evals {
		byReq[evals[i].RequirementID] = &evals[i]
	}

	details := make([]models.RequirementDetail, 0, len(reqs))
	for _, req := range reqs {
		detail := models.RequirementDetail{
			RequirementStatus: models.RequirementStatus{
				RequirementID: req.ID,
				Number:        req.Number,
				Title:         req.Title,
				Status:        req.Status,
			},
			Observations: []models.Observation{},
			Parameters:   []models.MonitoringParameter{},
			Attachments:  []models.Attachment{},
		}
		if eval, ok := byReq[req.ID]; ok {
			detail.Status = eval.Status
			detail.Evaluated = true
			detail.Evaluation = eval
			if detail.Observations, err = s.store.ListObservationsByEvaluation(ctx, eval.ID); err != nil {
				return nil, translateStoreErr(err, "observations")
			}
			if detail.Parameters, err = s.store.ListParametersByEvaluation(ctx, eval.ID); err != nil {
				return nil, translateStoreErr(err, "monitoring parameters")
			}
			if detail.Attachments, err = s.store.ListAttachmentsByEvaluation(ctx, eval.ID); err != nil {
				return nil, translateStoreErr(err, "attachments")
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

// TextsOverview lists the tenant's texts with per-text evaluation progress.
// Texts are aggregated concurrently since each needs its own requirement
// and evaluation scan.
func (s *Service) TextsOverview(ctx context.Context, filter textmodels.TextFilter) ([]models.TextOverview, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	filter.Normalize()

	texts, err := s.texts.ListTexts(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, translateStoreErr(err, "texts")
	}

	overviews := make([]models.TextOverview, len(texts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			overview, err := s.textOverview(gCtx, actor.CompanyID, text)
			if err != nil {
				return err
			}
			overviews[i] = overview
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overviews, nil
}

func (s *Service) textOverview(ctx context.Context, companyID id.CompanyID, text textmodels.Text) (models.TextOverview, error) {
	reqs, err := s.texts.RequirementsForText(ctx, companyID, text.ID)
	if err != nil {
		return models.TextOverview{}, translateStoreErr(err, "requirements")
	}
	evals, err := s.store.ListEvaluationsByText(ctx, companyID, text.ID)
	if err != nil {
		return models.TextOverview{}, translateStoreErr(err, "evaluations")
	}

	statusByReq := make(map[id.RequirementID]id.EvaluationStatus, len(evals))
	for _, eval := range evals {
		statusByReq[eval.RequirementID] = eval.Status
	}

	counts := make(map[id.EvaluationStatus]int, 4)
	applicable := 0
	for _, req := range reqs {
		status, ok := statusByReq[req.ID]
		if !ok {
			status = req.Status
		}
		counts[status]++
		if status == id.EvaluationApplicable {
			applicable++
		}
	}

	return models.TextOverview{
		TextID:               text.ID,
		Reference:            text.Reference,
		Nature:               text.Nature,
		PublicationYear:      text.PublicationYear,
		TotalRequirements:    len(reqs),
		ApplicablePercentage: percentage(applicable, len(reqs)),
		StatusCounts:         counts,
	}, nil
}

// percentage rounds 100*part/total to the nearest integer, 0 for an empty
// total.
func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// Export bundles a text's full compliance state, including the combined
// history of all its evaluations, for download.
func (s *Service) Export(ctx context.Context, textID id.TextID) (*models.ExportBundle, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	text, err := s.texts.TextForCompany(ctx, actor.CompanyID, textID)
	if err != nil {
		return nil, translateStoreErr(err, "text")
	}

	details, err := s.requirementDetails(ctx, actor.CompanyID, textID)
	if err != nil {
		return nil, err
	}

	history := []models.HistoryEntry{}
	for _, detail := range details {
		if detail.Evaluation == nil {
			continue
		}
		entries, err := s.store.ListHistoryByEvaluation(ctx, detail.Evaluation.ID)
		if err != nil {
			return nil, translateStoreErr(err, "evaluation history")
		}
		history = append(history, entries...)
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].ChangedAt.After(history[j].ChangedAt)
	})

	s.metrics.IncrementExport()
	return &models.ExportBundle{
		TextID:       text.ID,
		Reference:    text.Reference,
		ExportedAt:   requestcontext.Now(ctx),
		Requirements: details,
		History:      history,
	}, nil
}
