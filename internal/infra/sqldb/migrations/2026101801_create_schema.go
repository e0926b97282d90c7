package migrations

import (
	"context"
	"fmt"

	"nf-quiz-service/internal/infra/sqldb/schema"

	"github.com/uptrace/bun"
)

type table struct {
	model       interface{}
	foreignKeys []string
}

// Creation order respects foreign keys; drops run in reverse.
var tables = []table{
	{model: (*schema.Student)(nil)},
	{model: (*schema.Lecturer)(nil)},
	{model: (*schema.QuizItem)(nil)},
	{model: (*schema.Module)(nil)},
	{
		model: (*schema.Attempt)(nil),
		foreignKeys: []string{
			`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*schema.AttemptItem)(nil),
		foreignKeys: []string{
			`("attempt_id") REFERENCES "attempts" ("id") ON DELETE CASCADE`,
			`("item_id") REFERENCES "quiz_items" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*schema.Response)(nil),
		foreignKeys: []string{
			`("attempt_id") REFERENCES "attempts" ("id") ON DELETE CASCADE`,
			`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
			`("item_id") REFERENCES "quiz_items" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*schema.Mastery)(nil),
		foreignKeys: []string{
			`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*schema.Recommendation)(nil),
		foreignKeys: []string{
			`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
			`("module_id") REFERENCES "modules" ("id") ON DELETE SET NULL`,
		},
	},
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, t := range tables {
				q := db.NewCreateTable().Model(t.model).IfNotExists()
				for _, fk := range t.foreignKeys {
					q = q.ForeignKey(fk)
				}
				if _, err := q.Exec(ctx); err != nil {
					return fmt.Errorf("create table for %T: %w", t.model, err)
				}
			}
			indexes := []struct {
				model   interface{}
				name    string
				columns []string
			}{
				{(*schema.Attempt)(nil), "attempts_student_idx", []string{"student_id"}},
				{(*schema.Response)(nil), "responses_student_idx", []string{"student_id"}},
				{(*schema.QuizItem)(nil), "quiz_items_concept_idx", []string{"concept_tag"}},
				{(*schema.Recommendation)(nil), "recommendations_student_idx", []string{"student_id"}},
			}
			for _, idx := range indexes {
				if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).IfNotExists().Column(idx.columns...).Exec(ctx); err != nil {
					return fmt.Errorf("create index %s: %w", idx.name, err)
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			for i := len(tables) - 1; i >= 0; i-- {
				if _, err := db.NewDropTable().Model(tables[i].model).IfExists().Exec(ctx); err != nil {
					return fmt.Errorf("drop table for %T: %w", tables[i].model, err)
				}
			}
			return nil
		},
	)
}
