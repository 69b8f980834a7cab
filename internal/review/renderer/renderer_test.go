package renderer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexaudit/internal/review/models"
	id "lexaudit/pkg/domain"
)

func TestRenderWritesReport(t *testing.T) {
	dir := t.TempDir()
	r := NewFile(dir)

	detail := &models.ReviewDetail{
		Review: models.Review{
			ID:         id.NewReviewID(),
			ReviewDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			Status:     id.ReviewCompleted,
		},
		DomainName: "Environment",
		LegalTexts: []models.LegalTextItem{
			{TextReference: "ISO 14001", Risks: "fines"},
		},
		Stakeholders: []models.StakeholderItem{
			{Name: "DREAL", RelationshipStatus: "active"},
		},
	}

	content, storedPath, err := r.Render(context.Background(), detail)
	require.NoError(t, err)
	assert.Equal(t, "/pdfs/review_"+detail.ID.String()+".pdf", storedPath)
	assert.Contains(t, string(content), "ISO 14001")
	assert.Contains(t, string(content), "DREAL")
	assert.Contains(t, string(content), "Environment")

	onDisk, err := os.ReadFile(filepath.Join(dir, "pdfs", "review_"+detail.ID.String()+".pdf"))
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)
}

func TestRenderOverwrites(t *testing.T) {
	dir := t.TempDir()
	r := NewFile(dir)
	detail := &models.ReviewDetail{
		Review: models.Review{ID: id.NewReviewID(), Status: id.ReviewCanceled},
	}

	_, path1, err := r.Render(context.Background(), detail)
	require.NoError(t, err)

	detail.DomainName = "updated"
	content2, path2, err := r.Render(context.Background(), detail)
	require.NoError(t, err)
	assert.Equal(t, path1, path2)

	onDisk, err := os.ReadFile(filepath.Join(dir, "pdfs", "review_"+detail.ID.String()+".pdf"))
	require.NoError(t, err)
	assert.Equal(t, content2, onDisk)
}
