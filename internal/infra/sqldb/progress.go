package sqldb

import (
	"context"
	"fmt"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/sqldb/schema"

	"github.com/uptrace/bun"
)

// UpsertModuleProgress stores the student's latest score on a module.
func (s *Store) UpsertModuleProgress(ctx context.Context, p domain.ModuleProgress) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*schema.Module)(nil)).Where("m.id = ?", p.ModuleID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("lookup module: %w", err)
		}
		if !exists {
			return domain.ErrModuleNotFound
		}
		row := schema.ModuleProgress{
			StudentID:   p.StudentID,
			ModuleID:    p.ModuleID,
			Score:       p.Score,
			CompletedAt: p.CompletedAt,
		}
		_, err = tx.NewInsert().Model(&row).
			On("CONFLICT (student_id, module_id) DO UPDATE").
			Set("score = EXCLUDED.score").
			Set("completed_at = EXCLUDED.completed_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert module progress: %w", err)
		}
		return nil
	})
}

// ModuleProgressForStudent lists the student's module scores by module id.
func (s *Store) ModuleProgressForStudent(ctx context.Context, studentID string) ([]domain.ModuleProgress, error) {
	var rows []schema.ModuleProgress
	if err := s.db.NewSelect().Model(&rows).Where("mp.student_id = ?", studentID).OrderExpr("mp.module_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list module progress: %w", err)
	}
	out := make([]domain.ModuleProgress, len(rows))
	for i, r := range rows {
		out[i] = domain.ModuleProgress{StudentID: r.StudentID, ModuleID: r.ModuleID, Score: r.Score, CompletedAt: r.CompletedAt}
	}
	return out, nil
}

func (s *Store) InsertFeedback(ctx context.Context, f domain.Feedback) error {
	row := schema.Feedback{
		ID:        f.ID,
		StudentID: f.StudentID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListFeedback returns every feedback entry, newest first.
func (s *Store) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	var rows []schema.Feedback
	if err := s.db.NewSelect().Model(&rows).OrderExpr("fb.created_at DESC, fb.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	out := make([]domain.Feedback, len(rows))
	for i, r := range rows {
		out[i] = domain.Feedback{ID: r.ID, StudentID: r.StudentID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
	}
	return out, nil
}
