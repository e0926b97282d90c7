package domain

import (
	"encoding/json"
	"fmt"
)

// TimeBucket classifies a response time. It is derived, never stored.
type TimeBucket string

const (
	BucketFast   TimeBucket = "Fast"
	BucketNormal TimeBucket = "Normal"
	BucketSlow   TimeBucket = "Slow"
)

// BucketFor maps elapsed seconds to Fast (<10), Normal (10..20) or Slow (>20).
func BucketFor(seconds float64) TimeBucket {
	if seconds < 10 {
		return BucketFast
	}
	if seconds <= 20 {
		return BucketNormal
	}
	return BucketSlow
}

// PresentedItem is what a student sees of a quiz item: never the answer.
type PresentedItem struct {
	ID       string   `json:"itemId"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizPaper is the reply to a quiz start.
type QuizPaper struct {
	AttemptID string          `json:"attemptId"`
	Scope     string          `json:"scope"`
	Items     []PresentedItem `json:"items"`
}

// AnswerSubmission is one answered item.
type AnswerSubmission struct {
	ItemID         string  `json:"itemId" validate:"required"`
	Answer         string  `json:"answer"`
	ElapsedSeconds float64 `json:"elapsedSeconds" validate:"min=0"`
}

// UnmarshalJSON requires answer and elapsedSeconds to be present. An empty answer is
// still accepted and grades as wrong.
func (a *AnswerSubmission) UnmarshalJSON(data []byte) error {
	var wire struct {
		ItemID         string   `json:"itemId"`
		Answer         *string  `json:"answer"`
		ElapsedSeconds *float64 `json:"elapsedSeconds"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Answer == nil {
		return fmt.Errorf("answer for item %q is missing", wire.ItemID)
	}
	if wire.ElapsedSeconds == nil {
		return fmt.Errorf("elapsedSeconds for item %q is missing", wire.ItemID)
	}
	*a = AnswerSubmission{ItemID: wire.ItemID, Answer: *wire.Answer, ElapsedSeconds: *wire.ElapsedSeconds}
	return nil
}

// Submission carries every answer of an attempt.
type Submission struct {
	AttemptID string             `json:"attemptId" validate:"required"`
	Answers   []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

// ItemFeedback is the per-item part of a grade result.
type ItemFeedback struct {
	ItemID        string     `json:"itemId"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	CorrectAnswer string     `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	Correct       bool       `json:"correct"`
	ResponseTime  float64    `json:"responseTime"`
	TimeBucket    TimeBucket `json:"timeBucket"`
}

// ConceptOutcome is the mastery evaluation of one concept after grading.
type ConceptOutcome struct {
	Concept    string  `json:"concept"`
	Count      int     `json:"count"`
	Accuracy   float64 `json:"accuracy"`
	AvgSeconds float64 `json:"avgSeconds"`
	Mastered   bool    `json:"mastered"`
}

// NextStep hints what the student should do after a graded attempt.
type NextStep struct {
	Concept  string `json:"concept"`
	Action   string `json:"action"`
	ModuleID *int64 `json:"moduleId,omitempty"`
}

// GradeResult is the reply to a submission.
type GradeResult struct {
	AttemptID       string           `json:"attemptId"`
	ScorePct        float64          `json:"scorePct"`
	ItemsCorrect    int              `json:"itemsCorrect"`
	ItemsTotal      int              `json:"itemsTotal"`
	Passed          bool             `json:"passed"`
	Details         []ItemFeedback   `json:"details"`
	Mastery         []ConceptOutcome `json:"mastery"`
	Recommendations []Recommendation `json:"recommendations"`
	NextStep        *NextStep        `json:"nextStep,omitempty"`
}

// ReviewItem is one line of a graded attempt review.
type ReviewItem struct {
	Position int `json:"position"`
	ItemFeedback
	Answered bool `json:"answered"`
}

// AttemptReview is a graded attempt with its items.
type AttemptReview struct {
	Attempt Attempt      `json:"attempt"`
	Items   []ReviewItem `json:"items"`
}

// StudentDashboard is the read model of one student's progress.
type StudentDashboard struct {
	Student         Account          `json:"student"`
	Attempts        []Attempt        `json:"attempts"`
	Mastery         []MasteryRecord  `json:"mastery"`
	Recommendations []Recommendation `json:"recommendations"`
	ModuleProgress  []ModuleProgress `json:"moduleProgress"`
}

// ConceptOverview is one concept line of the lecturer overview.
type ConceptOverview struct {
	Concept       string  `json:"concept"`
	Responses     int     `json:"responses"`
	Accuracy      float64 `json:"accuracy"`
	AvgSeconds    float64 `json:"avgSeconds"`
	MasteredCount int     `json:"masteredCount"`
}

// RankingRow is one student of the lecturer rankings.
type RankingRow struct {
	StudentID string  `json:"studentId"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Attempts  int     `json:"attempts"`
	AvgScore  float64 `json:"avgScore"`
	BestScore float64 `json:"bestScore"`
	LastScore float64 `json:"lastScore"`
}

// ItemTiming summarizes responses to one item. CorrectRate is a percentage.
type ItemTiming struct {
	ItemID      string  `json:"itemId"`
	Question    string  `json:"question"`
	Responses   int     `json:"responses"`
	Correct     int     `json:"correct"`
	CorrectRate float64 `json:"correctRate"`
	AvgSeconds  float64 `json:"avgSeconds"`
	MinSeconds  float64 `json:"minSeconds"`
	MaxSeconds  float64 `json:"maxSeconds"`
}

// FeedbackReport is the lecturer view of course feedback, newest first.
type FeedbackReport struct {
	Count     int        `json:"count"`
	AvgRating float64    `json:"avgRating"`
	Entries   []Feedback `json:"entries"`
}

// ItemTimingReport is the lecturer item analytics view.
type ItemTimingReport struct {
	Items   []ItemTiming `json:"items"`
	Slowest []ItemTiming `json:"slowest"`
	Fastest []ItemTiming `json:"fastest"`
}
