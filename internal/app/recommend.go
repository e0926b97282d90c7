package app

import "nf-quiz-service/internal/domain"

// RecommendationRule triggers a remedial suggestion below accuracy or above average time.
type RecommendationRule struct {
	MinAccuracy   float64
	MaxAvgSeconds float64
}

// DefaultRecommendationRule: recommend under 70% accuracy or over 20s average.
var DefaultRecommendationRule = RecommendationRule{MinAccuracy: 70, MaxAvgSeconds: 20}

// Needed reports whether stats call for a recommendation.
func (r RecommendationRule) Needed(s domain.ConceptStats) bool {
	return s.Accuracy() < r.MinAccuracy || s.AvgSeconds() > r.MaxAvgSeconds
}

// SuggestedAction is the action text stored on a recommendation.
func SuggestedAction(concept string) string {
	return "Review " + concept + " module"
}

// nextStep prefers the first recommendation of this grading, then the first unmastered
// concept in order. It returns nil once everything is mastered.
func nextStep(recs []domain.Recommendation, mastery []domain.MasteryRecord, order []string) *domain.NextStep {
	if len(recs) > 0 {
		r := recs[0]
		return &domain.NextStep{Concept: r.Concept, Action: r.Action, ModuleID: r.ModuleID}
	}
	mastered := make(map[string]bool, len(mastery))
	for _, m := range mastery {
		mastered[m.Concept] = m.Mastered
	}
	for _, c := range order {
		if !mastered[c] {
			return &domain.NextStep{Concept: c, Action: "Keep practising " + c}
		}
	}
	return nil
}
