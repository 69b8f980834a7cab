// Package renderer produces the printable report for a terminal-state
// review and stores it under the configured document directory.
package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lexaudit/internal/review/models"
)

// File renders reviews to files under baseDir. The stored path returned to
// callers is relative to baseDir so the storage root can move without
// rewriting rows.
type File struct {
	baseDir string
}

// NewFile constructs a renderer rooted at baseDir.
func NewFile(baseDir string) *File {
	return &File{baseDir: baseDir}
}

// Render writes the review report and returns its content and stored path.
// Rendering the same review again overwrites the previous file.
func (f *File) Render(ctx context.Context, detail *models.ReviewDetail) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	content := []byte(buildReport(detail))
	storedPath := fmt.Sprintf("/pdfs/review_%s.pdf", detail.ID.String())

	fullPath := filepath.Join(f.baseDir, filepath.FromSlash(strings.TrimPrefix(storedPath, "/")))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("create render directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return nil, "", fmt.Errorf("write review report: %w", err)
	}
	return content, storedPath, nil
}

func buildReport(detail *models.ReviewDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Management Review %s\n", detail.ID.String())
	fmt.Fprintf(&b, "Domain: %s\n", detail.DomainName)
	fmt.Fprintf(&b, "Date: %s\n", detail.ReviewDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Status: %s\n", detail.Status.String())

	b.WriteString("\nLegal Texts\n")
	if len(detail.LegalTexts) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, item := range detail.LegalTexts {
		fmt.Fprintf(&b, "  - %s\n", item.TextReference)
		writeField(&b, "Penalties", item.Penalties)
		writeField(&b, "Incentives", item.Incentives)
		writeField(&b, "Risks", item.Risks)
		writeField(&b, "Opportunities", item.Opportunities)
		writeField(&b, "Follow-up", item.FollowUp)
	}

	b.WriteString("\nRequirements\n")
	if len(detail.Requirements) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, item := range detail.Requirements {
		fmt.Fprintf(&b, "  - %s\n", item.TextRequirementID.String())
		writeField(&b, "Description", item.Description)
		writeField(&b, "Implementation", item.Implementation)
		writeField(&b, "Communication", item.Communication)
		writeField(&b, "Follow-up", item.FollowUp)
	}

	b.WriteString("\nActions\n")
	if len(detail.Actions) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, item := range detail.Actions {
		fmt.Fprintf(&b, "  - %s\n", item.Description)
		writeField(&b, "Source", item.Source)
		writeField(&b, "Status", item.Status)
		writeField(&b, "Observation", item.Observation)
		writeField(&b, "Follow-up", item.FollowUp)
	}

	b.WriteString("\nStakeholders\n")
	if len(detail.Stakeholders) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, item := range detail.Stakeholders {
		fmt.Fprintf(&b, "  - %s\n", item.Name)
		writeField(&b, "Relationship", item.RelationshipStatus)
		writeField(&b, "Reason", item.Reason)
		writeField(&b, "Action", item.Action)
		writeField(&b, "Follow-up", item.FollowUp)
	}

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "    %s: %s\n", label, value)
}
