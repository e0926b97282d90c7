package sqldb

import (
	"context"
	"fmt"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/sqldb/schema"

	"github.com/uptrace/bun"
)

// SeedResult counts rows inserted by a seed run.
type SeedResult struct {
	Items   int64
	Modules int64
}

// Seed inserts bank items and modules in one transaction. Existing items are left untouched
// because graded responses point at them; modules are matched by title and refreshed.
func (s *Store) Seed(ctx context.Context, items []domain.QuizItem, modules []domain.Module) (SeedResult, error) {
	var res SeedResult
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(items) > 0 {
			rows := make([]schema.QuizItem, len(items))
			for i, item := range items {
				rows[i] = quizItemRow(item)
			}
			r, err := tx.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
			if err != nil {
				return fmt.Errorf("seed items: %w", err)
			}
			res.Items, _ = r.RowsAffected()
		}
		if len(modules) > 0 {
			rows := make([]schema.Module, len(modules))
			for i, m := range modules {
				rows[i] = schema.Module{
					Title:       m.Title,
					Description: m.Description,
					Level:       string(m.Level),
					Concept:     m.Concept,
					ResourceURL: m.ResourceURL,
				}
			}
			r, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (title) DO UPDATE").
				Set("description = EXCLUDED.description").
				Set("nf_level = EXCLUDED.nf_level").
				Set("concept_tag = EXCLUDED.concept_tag").
				Set("resource_url = EXCLUDED.resource_url").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("seed modules: %w", err)
			}
			res.Modules, _ = r.RowsAffected()
		}
		return nil
	})
	return res, err
}
