package app

import (
	"errors"
	"math"
	"testing"

	"nf-quiz-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		seconds float64
		want    domain.TimeBucket
	}{
		{0, domain.BucketFast},
		{9.99, domain.BucketFast},
		{10, domain.BucketNormal},
		{15, domain.BucketNormal},
		{20, domain.BucketNormal},
		{20.01, domain.BucketSlow},
		{120, domain.BucketSlow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.BucketFor(tc.seconds), "seconds=%v", tc.seconds)
	}
}

func TestScorePercent(t *testing.T) {
	assert.InDelta(t, 83.3333, ScorePercent(10, 12), 0.001)
	assert.Equal(t, 100.0, ScorePercent(10, 10))
	assert.Equal(t, 0.0, ScorePercent(0, 10))
	assert.Equal(t, 0.0, ScorePercent(0, 0))
}

func TestGradeAnswersExactMatch(t *testing.T) {
	items := map[string]domain.QuizItem{
		"q1": {ID: "q1", CorrectAnswer: "Partial dependency", Concept: "Partial Dependency"},
		"q2": {ID: "q2", CorrectAnswer: "A -> B", Concept: "Functional Dependency"},
	}
	attempt := domain.Attempt{ID: "att", StudentID: "stu"}
	answers := []domain.AnswerSubmission{
		{ItemID: "q1", Answer: "partial dependency", ElapsedSeconds: 4},
		{ItemID: "q2", Answer: "A -> B", ElapsedSeconds: 21},
	}

	responses, details, correct := gradeAnswers(attempt, items, answers)
	require.Len(t, responses, 2)
	assert.Equal(t, 1, correct)
	assert.False(t, responses[0].Correct, "matching is case sensitive")
	assert.True(t, responses[1].Correct)
	assert.Equal(t, "stu", responses[1].StudentID)
	assert.Equal(t, domain.BucketFast, details[0].TimeBucket)
	assert.Equal(t, domain.BucketSlow, details[1].TimeBucket)
	assert.Equal(t, "A -> B", details[1].CorrectAnswer)
}

func TestCheckAnswers(t *testing.T) {
	items := map[string]domain.QuizItem{"q1": {ID: "q1"}, "q2": {ID: "q2"}}
	cases := map[string][]domain.AnswerSubmission{
		"empty":     nil,
		"no id":     {{ItemID: "", Answer: "x"}},
		"negative":  {{ItemID: "q1", ElapsedSeconds: -1}},
		"nan":       {{ItemID: "q1", ElapsedSeconds: math.NaN()}},
		"duplicate": {{ItemID: "q1"}, {ItemID: "q1"}},
		"foreign":   {{ItemID: "q1"}, {ItemID: "zz"}},
	}
	for name, answers := range cases {
		err := checkAnswers(items, answers)
		assert.True(t, errors.Is(err, domain.ErrInvalidSubmission), name)
	}
	assert.NoError(t, checkAnswers(items, []domain.AnswerSubmission{{ItemID: "q2", ElapsedSeconds: 0}}))
}

func stats(count, correct int, avg float64) domain.ConceptStats {
	return domain.ConceptStats{Concept: "c", Count: count, Correct: correct, TotalSeconds: avg * float64(count)}
}

func TestMasteryBoundaries(t *testing.T) {
	rule := DefaultMasteryRule
	assert.False(t, rule.Mastered(stats(2, 2, 5)), "two responses are not enough")
	assert.True(t, rule.Mastered(stats(3, 3, 20)), "avg exactly 20s still masters")
	assert.False(t, rule.Mastered(stats(3, 3, 20.01)))
	assert.True(t, rule.Mastered(stats(5, 4, 10)), "exactly 80%")
	assert.False(t, rule.Mastered(domain.ConceptStats{Count: 1000, Correct: 799, TotalSeconds: 1000}), "79.9%")
}

func TestRecommendationBoundaries(t *testing.T) {
	rule := DefaultRecommendationRule
	assert.False(t, rule.Needed(domain.ConceptStats{Count: 10, Correct: 7, TotalSeconds: 200}), "70% and 20s")
	assert.True(t, rule.Needed(domain.ConceptStats{Count: 1000, Correct: 699, TotalSeconds: 1000}))
	assert.True(t, rule.Needed(domain.ConceptStats{Count: 10, Correct: 10, TotalSeconds: 200.1}))
	assert.Equal(t, "Review Atomic Values module", SuggestedAction("Atomic Values"))
}

func TestAggregateByConceptOrder(t *testing.T) {
	items := map[string]domain.QuizItem{
		"a": {ID: "a", Concept: "Transitive Dependency"},
		"b": {ID: "b", Concept: "Functional Dependency"},
		"c": {ID: "c", Concept: "Zeta"},
		"d": {ID: "d", Concept: "Alpha"},
	}
	responses := []domain.Response{
		{ItemID: "a", Correct: true, ResponseTime: 4},
		{ItemID: "c", ResponseTime: 8},
		{ItemID: "b", Correct: true, ResponseTime: 12},
		{ItemID: "d", ResponseTime: 1},
		{ItemID: "a", ResponseTime: 6},
	}

	got := aggregateByConcept(responses, items, DefaultConcepts)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"Functional Dependency", "Transitive Dependency", "Alpha", "Zeta"},
		[]string{got[0].Concept, got[1].Concept, got[2].Concept, got[3].Concept})
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, 50.0, got[1].Accuracy())
	assert.Equal(t, 5.0, got[1].AvgSeconds())
}

func TestNextStep(t *testing.T) {
	modID := int64(9)
	recs := []domain.Recommendation{{Concept: "Atomic Values", Action: "Review Atomic Values module", ModuleID: &modID}}
	step := nextStep(recs, nil, DefaultConcepts)
	require.NotNil(t, step)
	assert.Equal(t, "Atomic Values", step.Concept)
	assert.Equal(t, &modID, step.ModuleID)

	mastery := []domain.MasteryRecord{
		{Concept: "Functional Dependency", Mastered: true},
		{Concept: "Atomic Values", Mastered: true},
	}
	step = nextStep(nil, mastery, DefaultConcepts)
	require.NotNil(t, step)
	assert.Equal(t, "Partial Dependency", step.Concept)
	assert.Equal(t, "Keep practising Partial Dependency", step.Action)

	for _, c := range DefaultConcepts {
		mastery = append(mastery, domain.MasteryRecord{Concept: c, Mastered: true})
	}
	assert.Nil(t, nextStep(nil, mastery, DefaultConcepts))
}
