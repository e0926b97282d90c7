package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/sqldb/schema"

	"github.com/uptrace/bun"
)

// gradingTx runs the grading queries against one open transaction.
type gradingTx struct {
	db bun.IDB
}

func (t *gradingTx) AttemptForStudent(ctx context.Context, attemptID, studentID string) (domain.Attempt, error) {
	return attemptForStudent(ctx, t.db, attemptID, studentID)
}

func (t *gradingTx) AttemptItems(ctx context.Context, attemptID string) ([]domain.QuizItem, error) {
	var rows []schema.QuizItem
	err := t.db.NewSelect().Model(&rows).
		Join("JOIN attempt_items AS ai ON ai.item_id = qi.id").
		Where("ai.attempt_id = ?", attemptID).
		OrderExpr("ai.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]domain.QuizItem, len(rows))
	for i, r := range rows {
		items[i] = toQuizItem(r)
	}
	return items, nil
}

// FinalizeAttempt only touches attempts that are still open, so a concurrent grading
// of the same attempt loses with ErrAlreadyGraded.
func (t *gradingTx) FinalizeAttempt(ctx context.Context, attemptID string, finishedAt time.Time, itemsCorrect int, scorePct float64) error {
	res, err := t.db.NewUpdate().Model((*schema.Attempt)(nil)).
		Set("finished_at = ?", finishedAt).
		Set("items_correct = ?", itemsCorrect).
		Set("score_pct = ?", scorePct).
		Where("id = ?", attemptID).
		Where("finished_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyGraded
	}
	return nil
}

func (t *gradingTx) InsertResponses(ctx context.Context, responses []domain.Response) error {
	if len(responses) == 0 {
		return nil
	}
	rows := make([]schema.Response, len(responses))
	for i, r := range responses {
		rows[i] = schema.Response{
			AttemptID:    r.AttemptID,
			StudentID:    r.StudentID,
			ItemID:       r.ItemID,
			Answer:       r.Answer,
			Correct:      r.Correct,
			ResponseTime: r.ResponseTime,
		}
	}
	_, err := t.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

type conceptStatRow struct {
	Concept      string  `bun:"concept"`
	Count        int     `bun:"count"`
	Correct      int     `bun:"correct"`
	TotalSeconds float64 `bun:"total_seconds"`
}

// StudentConceptStats aggregates every graded response of the student for the given concepts.
func (t *gradingTx) StudentConceptStats(ctx context.Context, studentID string, concepts []string) ([]domain.ConceptStats, error) {
	if len(concepts) == 0 {
		return nil, nil
	}
	var rows []conceptStatRow
	err := t.db.NewSelect().
		TableExpr("responses AS r").
		ColumnExpr("qi.concept_tag AS concept").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("SUM(CASE WHEN r.correct THEN 1 ELSE 0 END) AS correct").
		ColumnExpr("SUM(r.response_time_s) AS total_seconds").
		Join("JOIN quiz_items AS qi ON qi.id = r.item_id").
		Join("JOIN attempts AS a ON a.id = r.attempt_id").
		Where("r.student_id = ?", studentID).
		Where("a.finished_at IS NOT NULL").
		Where("qi.concept_tag IN (?)", bun.In(concepts)).
		GroupExpr("qi.concept_tag").
		OrderExpr("qi.concept_tag ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ConceptStats, len(rows))
	for i, r := range rows {
		out[i] = domain.ConceptStats{Concept: r.Concept, Count: r.Count, Correct: r.Correct, TotalSeconds: r.TotalSeconds}
	}
	return out, nil
}

// UpsertMastery overwrites the previous evaluation of each (student, concept).
func (t *gradingTx) UpsertMastery(ctx context.Context, records []domain.MasteryRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]schema.Mastery, len(records))
	for i, r := range records {
		rows[i] = schema.Mastery{StudentID: r.StudentID, Concept: r.Concept, Mastered: r.Mastered, UpdatedAt: r.UpdatedAt}
	}
	_, err := t.db.NewInsert().Model(&rows).
		On("CONFLICT (student_id, concept_tag) DO UPDATE").
		Set("mastered = EXCLUDED.mastered").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ModuleForConcept picks the lowest id module of the concept.
func (t *gradingTx) ModuleForConcept(ctx context.Context, concept string) (*domain.Module, error) {
	var row schema.Module
	err := t.db.NewSelect().Model(&row).
		Where("m.concept_tag = ?", concept).
		OrderExpr("m.id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := toModule(row)
	return &m, nil
}

func (t *gradingTx) InsertRecommendations(ctx context.Context, recs []domain.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]schema.Recommendation, len(recs))
	for i, r := range recs {
		rows[i] = recommendationRow(r)
	}
	_, err := t.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (t *gradingTx) StudentMastery(ctx context.Context, studentID string) ([]domain.MasteryRecord, error) {
	return studentMastery(ctx, t.db, studentID)
}

func attemptForStudent(ctx context.Context, db bun.IDB, attemptID, studentID string) (domain.Attempt, error) {
	var row schema.Attempt
	err := db.NewSelect().Model(&row).Where("a.id = ?", attemptID).Scan(ctx)
	if err != nil {
		return domain.Attempt{}, notFound(err, domain.ErrAttemptNotFound)
	}
	// another student's attempt is indistinguishable from a missing one
	if row.StudentID != studentID {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return toAttempt(row), nil
}

func studentMastery(ctx context.Context, db bun.IDB, studentID string) ([]domain.MasteryRecord, error) {
	var rows []schema.Mastery
	if err := db.NewSelect().Model(&rows).Where("ms.student_id = ?", studentID).OrderExpr("ms.concept_tag ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.MasteryRecord, len(rows))
	for i, r := range rows {
		out[i] = toMastery(r)
	}
	return out, nil
}
