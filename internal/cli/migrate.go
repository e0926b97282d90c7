package cli

import (
	"nf-quiz-service/internal/infra/sqldb"

	"github.com/spf13/cobra"
)

// newMigrateCmd applies database migrations, or rolls back the last group.
func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if rollback {
				return sqldb.Rollback(cmd.Context(), e.db, e.log)
			}
			return sqldb.Migrate(cmd.Context(), e.db, e.log)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last migration group")
	return cmd
}
