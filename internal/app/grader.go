package app

import (
	"math"

	"nf-quiz-service/internal/domain"
)

// gradeAnswers scores answers against the attempt items. Answers must already be validated
// against the item set.
func gradeAnswers(attempt domain.Attempt, items map[string]domain.QuizItem, answers []domain.AnswerSubmission) ([]domain.Response, []domain.ItemFeedback, int) {
	responses := make([]domain.Response, 0, len(answers))
	details := make([]domain.ItemFeedback, 0, len(answers))
	correct := 0
	for _, ans := range answers {
		item := items[ans.ItemID]
		ok := ans.Answer == item.CorrectAnswer
		if ok {
			correct++
		}
		responses = append(responses, domain.Response{
			AttemptID:    attempt.ID,
			StudentID:    attempt.StudentID,
			ItemID:       item.ID,
			Answer:       ans.Answer,
			Correct:      ok,
			ResponseTime: ans.ElapsedSeconds,
		})
		details = append(details, domain.ItemFeedback{
			ItemID:        item.ID,
			Question:      item.Question,
			Answer:        ans.Answer,
			CorrectAnswer: item.CorrectAnswer,
			Explanation:   item.Explanation,
			Correct:       ok,
			ResponseTime:  ans.ElapsedSeconds,
			TimeBucket:    domain.BucketFor(ans.ElapsedSeconds),
		})
	}
	return responses, details, correct
}

// checkAnswers rejects empty ids, negative times, repeated items and items outside the attempt.
func checkAnswers(items map[string]domain.QuizItem, answers []domain.AnswerSubmission) error {
	if len(answers) == 0 {
		return domain.InvalidSubmission("no answers")
	}
	seen := make(map[string]struct{}, len(answers))
	for i, ans := range answers {
		if ans.ItemID == "" {
			return domain.InvalidSubmission("answer %d has no item id", i)
		}
		if ans.ElapsedSeconds < 0 || math.IsNaN(ans.ElapsedSeconds) || math.IsInf(ans.ElapsedSeconds, 0) {
			return domain.InvalidSubmission("answer %d has invalid elapsed time", i)
		}
		if _, dup := seen[ans.ItemID]; dup {
			return domain.InvalidSubmission("item %s answered twice", ans.ItemID)
		}
		seen[ans.ItemID] = struct{}{}
		if _, ok := items[ans.ItemID]; !ok {
			return domain.InvalidSubmission("item %s is not part of the attempt", ans.ItemID)
		}
	}
	return nil
}

// ScorePercent is 100 * correct / total, 0 for an empty attempt.
func ScorePercent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}
