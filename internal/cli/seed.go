package cli

import (
	"context"
	"fmt"

	"nf-quiz-service/internal/config"
	"nf-quiz-service/internal/infra/bankfile"
	rediscache "nf-quiz-service/internal/infra/redis"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newSeedCmd upserts quiz items and modules from a YAML bank file.
func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quiz items and learning modules from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			path := file
			if path == "" {
				path = e.cfg.Bank.File
			}
			if path == "" {
				return fmt.Errorf("no bank file: pass --file or set bank.file")
			}
			if err := seedBank(cmd.Context(), e, path); err != nil {
				return err
			}
			cmd.Printf("seeded %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML bank file (defaults to bank.file)")
	return cmd
}

// seedBank loads path into the store and drops the shared Redis copy of the bank.
func seedBank(ctx context.Context, e *env, path string) error {
	f, err := bankfile.Load(path)
	if err != nil {
		return err
	}
	res, err := e.store.Seed(ctx, f.Items, f.Modules)
	if err != nil {
		return err
	}
	e.log.Info("bank seeded", zap.String("file", path), zap.Int64("items", res.Items), zap.Int64("modules", res.Modules))

	if client := e.redisClient(); client != nil {
		defer client.Close()
		cache := rediscache.NewBankCache(client, e.store, config.TTLDuration(e.cfg.Redis.TTL, defaultCacheTTL), e.log)
		if err := cache.Invalidate(ctx); err != nil {
			e.log.Warn("bank cache not invalidated", zap.Error(err))
		}
	}
	return nil
}
