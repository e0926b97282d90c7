package cli

import (
	"fmt"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/auth"
	"nf-quiz-service/internal/domain"

	"github.com/spf13/cobra"
)

// newAddUserCmd creates accounts from the command line. It is the only way to create lecturers.
func newAddUserCmd(opts *rootOptions) *cobra.Command {
	var (
		role string
		reg  app.Registration
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a student or lecturer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			accounts := app.NewAccountService(e.store, auth.NewTokens(e.cfg.JWT.Secret, e.cfg.JWT.TTL), e.log)
			acc, err := accounts.RegisterAs(cmd.Context(), reg, domain.Role(role))
			if err != nil {
				return fmt.Errorf("add %s: %w", role, err)
			}
			cmd.Printf("created %s %s (%s)\n", acc.Role, acc.Email, acc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "student or lecturer")
	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "login email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
