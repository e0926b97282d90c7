package sqldb

import (
	"context"
	"fmt"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/sqldb/schema"
)

// AttemptsForStudent lists the student's attempts, newest first.
func (s *Store) AttemptsForStudent(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	var rows []schema.Attempt
	if err := s.db.NewSelect().Model(&rows).Where("a.student_id = ?", studentID).OrderExpr("a.started_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, len(rows))
	for i, r := range rows {
		out[i] = toAttempt(r)
	}
	return out, nil
}

func (s *Store) MasteryForStudent(ctx context.Context, studentID string) ([]domain.MasteryRecord, error) {
	out, err := studentMastery(ctx, s.db, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	return out, nil
}

// RecommendationsForStudent lists the log newest first.
func (s *Store) RecommendationsForStudent(ctx context.Context, studentID string) ([]domain.Recommendation, error) {
	var rows []schema.Recommendation
	if err := s.db.NewSelect().Model(&rows).Where("rec.student_id = ?", studentID).OrderExpr("rec.created_at DESC, rec.concept_tag ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	out := make([]domain.Recommendation, len(rows))
	for i, r := range rows {
		out[i] = toRecommendation(r)
	}
	return out, nil
}

// CompleteRecommendation marks a recommendation of the student Done.
func (s *Store) CompleteRecommendation(ctx context.Context, studentID, recID string) (domain.Recommendation, error) {
	res, err := s.db.NewUpdate().Model((*schema.Recommendation)(nil)).
		Set("status = ?", domain.RecommendationDone).
		Where("id = ?", recID).
		Where("student_id = ?", studentID).
		Exec(ctx)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("complete recommendation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Recommendation{}, domain.ErrRecommendationNotFound
	}
	var row schema.Recommendation
	if err := s.db.NewSelect().Model(&row).Where("rec.id = ?", recID).Scan(ctx); err != nil {
		return domain.Recommendation{}, notFound(err, domain.ErrRecommendationNotFound)
	}
	return toRecommendation(row), nil
}

type reviewRow struct {
	Position      int      `bun:"position"`
	ItemID        string   `bun:"item_id"`
	Question      string   `bun:"question"`
	CorrectAnswer string   `bun:"correct_answer"`
	Explanation   string   `bun:"explanation"`
	Answer        *string  `bun:"answer"`
	Correct       *bool    `bun:"correct"`
	ResponseTime  *float64 `bun:"response_time_s"`
}

// AttemptReview returns a graded attempt of the student with every handed out item.
func (s *Store) AttemptReview(ctx context.Context, studentID, attemptID string) (domain.AttemptReview, error) {
	attempt, err := attemptForStudent(ctx, s.db, attemptID, studentID)
	if err != nil {
		return domain.AttemptReview{}, err
	}
	if !attempt.Graded() {
		return domain.AttemptReview{}, domain.ErrAttemptNotGraded
	}

	var rows []reviewRow
	err = s.db.NewSelect().
		TableExpr("attempt_items AS ai").
		ColumnExpr("ai.position").
		ColumnExpr("qi.id AS item_id").
		ColumnExpr("qi.question, qi.correct_answer, qi.explanation").
		ColumnExpr("r.answer, r.correct, r.response_time_s").
		Join("JOIN quiz_items AS qi ON qi.id = ai.item_id").
		Join("LEFT JOIN responses AS r ON r.attempt_id = ai.attempt_id AND r.item_id = ai.item_id").
		Where("ai.attempt_id = ?", attemptID).
		OrderExpr("ai.position ASC").
		Scan(ctx, &rows)
	if err != nil {
		return domain.AttemptReview{}, fmt.Errorf("attempt review: %w", err)
	}

	review := domain.AttemptReview{Attempt: attempt, Items: make([]domain.ReviewItem, len(rows))}
	for i, r := range rows {
		item := domain.ReviewItem{
			Position: r.Position,
			ItemFeedback: domain.ItemFeedback{
				ItemID:        r.ItemID,
				Question:      r.Question,
				CorrectAnswer: r.CorrectAnswer,
				Explanation:   r.Explanation,
			},
		}
		if r.Answer != nil {
			item.Answered = true
			item.Answer = *r.Answer
			if r.Correct != nil {
				item.Correct = *r.Correct
			}
			if r.ResponseTime != nil {
				item.ResponseTime = *r.ResponseTime
				item.TimeBucket = domain.BucketFor(*r.ResponseTime)
			}
		}
		review.Items[i] = item
	}
	return review, nil
}

type conceptOverviewRow struct {
	Concept    string  `bun:"concept"`
	Responses  int     `bun:"responses"`
	Accuracy   float64 `bun:"accuracy"`
	AvgSeconds float64 `bun:"avg_seconds"`
}

type masteredCountRow struct {
	Concept string `bun:"concept"`
	N       int    `bun:"n"`
}

// ConceptOverview aggregates all graded responses per concept plus how many students mastered it.
func (s *Store) ConceptOverview(ctx context.Context) ([]domain.ConceptOverview, error) {
	var stats []conceptOverviewRow
	err := s.db.NewSelect().
		TableExpr("responses AS r").
		ColumnExpr("qi.concept_tag AS concept").
		ColumnExpr("COUNT(*) AS responses").
		ColumnExpr("AVG(CASE WHEN r.correct THEN 100.0 ELSE 0.0 END) AS accuracy").
		ColumnExpr("AVG(r.response_time_s) AS avg_seconds").
		Join("JOIN quiz_items AS qi ON qi.id = r.item_id").
		GroupExpr("qi.concept_tag").
		OrderExpr("qi.concept_tag ASC").
		Scan(ctx, &stats)
	if err != nil {
		return nil, fmt.Errorf("concept overview: %w", err)
	}

	var mastered []masteredCountRow
	err = s.db.NewSelect().
		TableExpr("mastery AS ms").
		ColumnExpr("ms.concept_tag AS concept").
		ColumnExpr("COUNT(*) AS n").
		Where("ms.mastered = ?", true).
		GroupExpr("ms.concept_tag").
		Scan(ctx, &mastered)
	if err != nil {
		return nil, fmt.Errorf("mastered counts: %w", err)
	}

	byConcept := make(map[string]int, len(stats))
	out := make([]domain.ConceptOverview, 0, len(stats))
	for _, st := range stats {
		byConcept[st.Concept] = len(out)
		out = append(out, domain.ConceptOverview{
			Concept:    st.Concept,
			Responses:  st.Responses,
			Accuracy:   st.Accuracy,
			AvgSeconds: st.AvgSeconds,
		})
	}
	for _, m := range mastered {
		if i, ok := byConcept[m.Concept]; ok {
			out[i].MasteredCount = m.N
			continue
		}
		out = append(out, domain.ConceptOverview{Concept: m.Concept, MasteredCount: m.N})
	}
	return out, nil
}

// Rankings summarizes graded attempts per student, best average first.
func (s *Store) Rankings(ctx context.Context) ([]domain.RankingRow, error) {
	var rows []struct {
		StudentID string  `bun:"student_id"`
		Name      string  `bun:"name"`
		Email     string  `bun:"email"`
		Attempts  int     `bun:"attempts"`
		AvgScore  float64 `bun:"avg_score"`
		BestScore float64 `bun:"best_score"`
		LastScore float64 `bun:"last_score"`
	}
	err := s.db.NewSelect().
		TableExpr("students AS s").
		ColumnExpr("s.id AS student_id, s.name, s.email").
		ColumnExpr("COUNT(a.id) AS attempts").
		ColumnExpr("COALESCE(AVG(a.score_pct), 0.0) AS avg_score").
		ColumnExpr("COALESCE(MAX(a.score_pct), 0.0) AS best_score").
		ColumnExpr(`COALESCE((SELECT a2.score_pct FROM attempts AS a2
			WHERE a2.student_id = s.id AND a2.finished_at IS NOT NULL
			ORDER BY a2.finished_at DESC LIMIT 1), 0.0) AS last_score`).
		Join("LEFT JOIN attempts AS a ON a.student_id = s.id AND a.finished_at IS NOT NULL").
		GroupExpr("s.id, s.name, s.email").
		OrderExpr("avg_score DESC, s.name ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	out := make([]domain.RankingRow, len(rows))
	for i, r := range rows {
		out[i] = domain.RankingRow{
			StudentID: r.StudentID,
			Name:      r.Name,
			Email:     r.Email,
			Attempts:  r.Attempts,
			AvgScore:  r.AvgScore,
			BestScore: r.BestScore,
			LastScore: r.LastScore,
		}
	}
	return out, nil
}

// ItemTimings summarizes response times and correct rates per answered item, slowest average first.
func (s *Store) ItemTimings(ctx context.Context) ([]domain.ItemTiming, error) {
	var rows []struct {
		ItemID      string  `bun:"item_id"`
		Question    string  `bun:"question"`
		Responses   int     `bun:"responses"`
		Correct     int     `bun:"correct"`
		CorrectRate float64 `bun:"correct_rate"`
		AvgSeconds  float64 `bun:"avg_seconds"`
		MinSeconds  float64 `bun:"min_seconds"`
		MaxSeconds  float64 `bun:"max_seconds"`
	}
	err := s.db.NewSelect().
		TableExpr("responses AS r").
		ColumnExpr("r.item_id, qi.question").
		ColumnExpr("COUNT(*) AS responses").
		ColumnExpr("SUM(CASE WHEN r.correct THEN 1 ELSE 0 END) AS correct").
		ColumnExpr("AVG(CASE WHEN r.correct THEN 100.0 ELSE 0.0 END) AS correct_rate").
		ColumnExpr("AVG(r.response_time_s) AS avg_seconds").
		ColumnExpr("MIN(r.response_time_s) AS min_seconds").
		ColumnExpr("MAX(r.response_time_s) AS max_seconds").
		Join("JOIN quiz_items AS qi ON qi.id = r.item_id").
		GroupExpr("r.item_id, qi.question").
		OrderExpr("avg_seconds DESC, r.item_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("item timings: %w", err)
	}
	out := make([]domain.ItemTiming, len(rows))
	for i, r := range rows {
		out[i] = domain.ItemTiming{
			ItemID:      r.ItemID,
			Question:    r.Question,
			Responses:   r.Responses,
			Correct:     r.Correct,
			CorrectRate: r.CorrectRate,
			AvgSeconds:  r.AvgSeconds,
			MinSeconds:  r.MinSeconds,
			MaxSeconds:  r.MaxSeconds,
		}
	}
	return out, nil
}
