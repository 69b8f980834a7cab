package service

import (
	"context"

	"lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
)

// ReviewCleaner removes review content referencing deleted texts or
// requirements.
type ReviewCleaner interface {
	DeleteItemsForText(ctx context.Context, textID id.TextID) error
	DeleteLinksForRequirements(ctx context.Context, requirementIDs []id.RequirementID) error
}

// ComplianceCleaner removes evaluations with their history and satellites.
type ComplianceCleaner interface {
	DeleteForText(ctx context.Context, companyID id.CompanyID, textID id.TextID) error
	DeleteForRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) error
}

// ActionCleaner removes actions (and their notifications) referencing
// deleted texts or requirements.
type ActionCleaner interface {
	DeleteForText(ctx context.Context, companyID id.CompanyID, textID id.TextID) error
	DeleteForRequirement(ctx context.Context, companyID id.CompanyID, requirementID id.RequirementID) error
}

// CascadeDeleter removes a text and every row referencing it, in
// reverse-dependency order, inside one transaction. Foreign keys on the
// text side are deliberately plain, so this ordering is what keeps the
// database free of dangling references.
type CascadeDeleter struct {
	store      Store
	reviews    ReviewCleaner
	compliance ComplianceCleaner
	actions    ActionCleaner
	files      Files
	tx         TxRunner
}

// NewCascadeDeleter wires the cascade across the module stores.
func NewCascadeDeleter(store Store, reviews ReviewCleaner, compliance ComplianceCleaner, actions ActionCleaner, files Files, tx TxRunner) *CascadeDeleter {
	return &CascadeDeleter{
		store:      store,
		reviews:    reviews,
		compliance: compliance,
		actions:    actions,
		files:      files,
		tx:         tx,
	}
}

// DeleteText removes the text, its requirements, and everything hanging
// off either: notifications, actions, evaluation satellites, history,
// evaluations, review items and links. The stored document file is
// removed after the transaction commits.
func (d *CascadeDeleter) DeleteText(ctx context.Context, companyID id.CompanyID, textID id.TextID) error {
	text, err := d.store.GetText(ctx, companyID, textID)
	if err != nil {
		return translateStoreErr(err, "text")
	}
	requirements, err := d.store.ListRequirementsByText(ctx, companyID, textID)
	if err != nil {
		return translateStoreErr(err, "requirements")
	}
	requirementIDs := make([]id.RequirementID, 0, len(requirements))
	for _, req := range requirements {
		requirementIDs = append(requirementIDs, req.ID)
	}

	err = d.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := d.actions.DeleteForText(txCtx, companyID, textID); err != nil {
			return err
		}
		for _, reqID := range requirementIDs {
			if err := d.actions.DeleteForRequirement(txCtx, companyID, reqID); err != nil {
				return err
			}
		}
		if err := d.compliance.DeleteForText(txCtx, companyID, textID); err != nil {
			return err
		}
		if err := d.reviews.DeleteItemsForText(txCtx, textID); err != nil {
			return err
		}
		if len(requirementIDs) > 0 {
			if err := d.reviews.DeleteLinksForRequirements(txCtx, requirementIDs); err != nil {
				return err
			}
		}
		if err := d.store.DeleteRequirementsForText(txCtx, textID); err != nil {
			return err
		}
		return d.store.DeleteText(txCtx, companyID, textID)
	})
	if err != nil {
		return translateStoreErr(err, "text")
	}

	if text.FilePath != "" {
		if err := d.files.Remove(ctx, text.FilePath); err != nil {
			return translateStoreErr(err, "text file")
		}
	}
	return nil
}

// DeleteRequirement removes one requirement with its evaluation, history,
// satellites, action references and review links.
func (d *CascadeDeleter) DeleteRequirement(ctx context.Context, companyID id.CompanyID, req *models.Requirement) error {
	err := d.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := d.actions.DeleteForRequirement(txCtx, companyID, req.ID); err != nil {
			return err
		}
		if err := d.compliance.DeleteForRequirement(txCtx, companyID, req.ID); err != nil {
			return err
		}
		if err := d.reviews.DeleteLinksForRequirements(txCtx, []id.RequirementID{req.ID}); err != nil {
			return err
		}
		return d.store.DeleteRequirement(txCtx, req.ID)
	})
	if err != nil {
		return translateStoreErr(err, "requirement")
	}
	return nil
}
