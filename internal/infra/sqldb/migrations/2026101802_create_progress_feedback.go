package migrations

import (
	"context"
	"fmt"

	"nf-quiz-service/internal/infra/sqldb/schema"

	"github.com/uptrace/bun"
)

var progressTables = []table{
	{
		model: (*schema.ModuleProgress)(nil),
		foreignKeys: []string{
			`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
			`("module_id") REFERENCES "modules" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*schema.Feedback)(nil),
		foreignKeys: []string{
			`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
		},
	},
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, t := range progressTables {
				q := db.NewCreateTable().Model(t.model).IfNotExists()
				for _, fk := range t.foreignKeys {
					q = q.ForeignKey(fk)
				}
				if _, err := q.Exec(ctx); err != nil {
					return fmt.Errorf("create table for %T: %w", t.model, err)
				}
			}
			if _, err := db.NewCreateIndex().Model((*schema.Feedback)(nil)).Index("feedback_created_idx").IfNotExists().Column("created_at").Exec(ctx); err != nil {
				return fmt.Errorf("create index feedback_created_idx: %w", err)
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			for i := len(progressTables) - 1; i >= 0; i-- {
				if _, err := db.NewDropTable().Model(progressTables[i].model).IfExists().Exec(ctx); err != nil {
					return fmt.Errorf("drop table for %T: %w", progressTables[i].model, err)
				}
			}
			return nil
		},
	)
}
