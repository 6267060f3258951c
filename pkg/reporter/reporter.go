// Package reporter renders evaluation reports and decision lists for the CLI.
package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/optiflow/decision-engine/pkg/models"
)

// Format represents the output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Reporter renders engine output in the configured format.
type Reporter struct {
	format Format
}

// New creates a new reporter
func New(format Format) *Reporter {
	return &Reporter{format: format}
}

// RenderReport renders one evaluation report.
func (r *Reporter) RenderReport(report *models.EvaluationReport) (string, error) {
	if r.format == FormatJSON {
		return marshalIndent(report)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Evaluation for tenant %s at %s\n", report.TenantID, report.GeneratedAt.Format("2006-01-02 15:04:05"))

	if !report.ShouldRun {
		b.WriteString("  No triggers activated; nothing to do.\n")
		return b.String(), nil
	}

	if len(report.TriggersActivated) == 0 {
		b.WriteString("  Forced run (no triggers activated)\n")
	}
	for _, label := range report.TriggersActivated {
		fmt.Fprintf(&b, "  Trigger: %s\n", label)
	}

	fmt.Fprintf(&b, "  Health score: %d (%s analysis)\n", report.HealthScore, report.AnalysisSource)
	fmt.Fprintf(&b, "  Decisions created: %d (auto-implemented %d, failed %d)\n",
		report.DecisionsCreated, report.AutoImplementedCount, report.AutoImplementFailures)
	if report.PersistFailures > 0 {
		fmt.Fprintf(&b, "  Persistence failures: %d\n", report.PersistFailures)
	}
	fmt.Fprintf(&b, "  Critical issues: %d\n", report.CriticalIssueCount)
	fmt.Fprintf(&b, "  Potential savings: %.2f\n", report.PotentialSavings)

	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "\n  [%s] %s (confidence %d%%)\n", strings.ToUpper(string(rec.Priority)), rec.Title, rec.ConfidenceScore)
		fmt.Fprintf(&b, "    %s\n", rec.Description)
		if rec.ExpectedSavings > 0 {
			fmt.Fprintf(&b, "    Expected savings: %.2f\n", rec.ExpectedSavings)
		}
	}

	return b.String(), nil
}

// RenderDecisions renders a decision list.
func (r *Reporter) RenderDecisions(decisions []*models.Decision) (string, error) {
	if r.format == FormatJSON {
		return marshalIndent(decisions)
	}

	if len(decisions) == 0 {
		return "No decisions found.\n", nil
	}

	var b strings.Builder
	for _, d := range decisions {
		fmt.Fprintf(&b, "[%s] %s (%s)\n", d.Status, d.RecommendationText, d.DecisionType)
		fmt.Fprintf(&b, "  ID: %s\n", d.ID)
		fmt.Fprintf(&b, "  Savings: %.2f (confidence %d%%)\n", d.Impact.CostSavings, d.Impact.Confidence)
		fmt.Fprintf(&b, "  Created: %s  Updated: %s\n",
			d.CreatedAt.Format("2006-01-02 15:04:05"), d.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String(), nil
}

// RenderAudit renders a decision's transition history.
func (r *Reporter) RenderAudit(entries []*models.AuditEntry) (string, error) {
	if r.format == FormatJSON {
		return marshalIndent(entries)
	}

	if len(entries) == 0 {
		return "No audit entries found.\n", nil
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s -> %s  by %s", e.At.Format("2006-01-02 15:04:05"), e.FromStatus, e.ToStatus, e.Actor)
		if e.Error != "" {
			fmt.Fprintf(&b, "  (error: %s)", e.Error)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal output: %w", err)
	}
	return string(data) + "\n", nil
}
