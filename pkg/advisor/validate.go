package advisor

import (
	"encoding/json"
	"fmt"

	"github.com/optiflow/decision-engine/pkg/models"
)

// rawAnalysis mirrors the expected reasoner schema with optional fields so
// that missing keys are distinguishable from zero values. Validation either
// fully populates an AnalysisResult or rejects the whole payload.
type rawAnalysis struct {
	HealthScore     *float64              `json:"health_score"`
	CriticalIssues  []models.CriticalIssue `json:"critical_issues"`
	Recommendations []rawRecommendation    `json:"recommendations"`
	FinancialImpact *rawImpact             `json:"financial_impact"`
}

type rawRecommendation struct {
	Category            *string  `json:"category"`
	Priority            *string  `json:"priority"`
	Title               *string  `json:"title"`
	Description         *string  `json:"description"`
	ExpectedSavings     *float64 `json:"expected_savings"`
	ImplementationSteps []string `json:"implementation_steps"`
	ConfidenceScore     *float64 `json:"confidence_score"`
	AutoImplementable   *bool    `json:"auto_implementable"`
}

type rawImpact struct {
	PotentialSavings *float64 `json:"potential_savings"`
}

// validate parses and strictly checks the reasoner payload. A payload with
// any missing required field, unknown priority, or out-of-range confidence
// is rejected as a whole; the engine never partially trusts external output.
func validate(raw json.RawMessage) (models.AnalysisResult, error) {
	var parsed rawAnalysis
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("parse analysis payload: %w", err)
	}

	if parsed.HealthScore == nil {
		return models.AnalysisResult{}, fmt.Errorf("analysis payload missing health_score")
	}
	if parsed.FinancialImpact == nil {
		return models.AnalysisResult{}, fmt.Errorf("analysis payload missing financial_impact")
	}
	if len(parsed.Recommendations) == 0 {
		return models.AnalysisResult{}, fmt.Errorf("analysis payload has no recommendations")
	}

	recs := make([]models.Recommendation, 0, len(parsed.Recommendations))
	for i, r := range parsed.Recommendations {
		rec, err := validateRecommendation(r)
		if err != nil {
			return models.AnalysisResult{}, fmt.Errorf("recommendation %d: %w", i, err)
		}
		recs = append(recs, rec)
	}

	issues := parsed.CriticalIssues
	if issues == nil {
		issues = []models.CriticalIssue{}
	}

	potential := 0.0
	if parsed.FinancialImpact.PotentialSavings != nil {
		potential = *parsed.FinancialImpact.PotentialSavings
	}

	return models.AnalysisResult{
		HealthScore:     clampScore(int(*parsed.HealthScore)),
		Issues:          issues,
		Recommendations: recs,
		Impact:          models.FinancialImpact{PotentialSavings: potential},
		Source:          models.SourceReasoner,
	}, nil
}

func validateRecommendation(r rawRecommendation) (models.Recommendation, error) {
	if r.Category == nil || *r.Category == "" {
		return models.Recommendation{}, fmt.Errorf("missing category")
	}
	if r.Title == nil || *r.Title == "" {
		return models.Recommendation{}, fmt.Errorf("missing title")
	}
	if r.Description == nil || *r.Description == "" {
		return models.Recommendation{}, fmt.Errorf("missing description")
	}
	if r.Priority == nil {
		return models.Recommendation{}, fmt.Errorf("missing priority")
	}
	priority := models.Priority(*r.Priority)
	if !priority.Valid() {
		return models.Recommendation{}, fmt.Errorf("unknown priority %q", *r.Priority)
	}
	if r.ConfidenceScore == nil {
		return models.Recommendation{}, fmt.Errorf("missing confidence_score")
	}
	confidence := int(*r.ConfidenceScore)
	if confidence < 0 || confidence > 100 {
		return models.Recommendation{}, fmt.Errorf("confidence_score %d out of range", confidence)
	}

	rec := models.Recommendation{
		Category:            *r.Category,
		Priority:            priority,
		Title:               *r.Title,
		Description:         *r.Description,
		ImplementationSteps: r.ImplementationSteps,
		ConfidenceScore:     confidence,
	}
	if rec.ImplementationSteps == nil {
		rec.ImplementationSteps = []string{}
	}
	if r.ExpectedSavings != nil {
		rec.ExpectedSavings = *r.ExpectedSavings
	}
	if r.AutoImplementable != nil {
		rec.AutoImplementable = *r.AutoImplementable
	}
	return rec, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
