package app

import (
	"sort"

	"nf-quiz-service/internal/domain"
)

// MasteryRule decides when a concept counts as mastered.
type MasteryRule struct {
	MinResponses  int
	MinAccuracy   float64
	MaxAvgSeconds float64
}

// DefaultMasteryRule: at least 3 responses, 80% accuracy, 20s average.
var DefaultMasteryRule = MasteryRule{MinResponses: 3, MinAccuracy: 80, MaxAvgSeconds: 20}

// Mastered evaluates stats against the rule.
func (r MasteryRule) Mastered(s domain.ConceptStats) bool {
	return s.Count >= r.MinResponses &&
		s.Accuracy() >= r.MinAccuracy &&
		s.AvgSeconds() <= r.MaxAvgSeconds
}

// Mastery evaluation scopes.
const (
	MasteryScopeAttempt    = "attempt"
	MasteryScopeCumulative = "cumulative"
)

// aggregateByConcept groups responses by the concept of their item, ordered by concepts
// first and alphabetically for concepts outside that order.
func aggregateByConcept(responses []domain.Response, items map[string]domain.QuizItem, order []string) []domain.ConceptStats {
	byConcept := make(map[string]*domain.ConceptStats)
	for _, r := range responses {
		item, ok := items[r.ItemID]
		if !ok {
			continue
		}
		st, ok := byConcept[item.Concept]
		if !ok {
			st = &domain.ConceptStats{Concept: item.Concept}
			byConcept[item.Concept] = st
		}
		st.Count++
		if r.Correct {
			st.Correct++
		}
		st.TotalSeconds += r.ResponseTime
	}

	out := make([]domain.ConceptStats, 0, len(byConcept))
	for _, st := range byConcept {
		out = append(out, *st)
	}
	sortConcepts(out, order)
	return out
}

func sortConcepts(stats []domain.ConceptStats, order []string) {
	rank := make(map[string]int, len(order))
	for i, c := range order {
		rank[c] = i
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return lessConcept(rank, stats[i].Concept, stats[j].Concept)
	})
}
