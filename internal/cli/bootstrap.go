package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"nf-quiz-service/internal/config"
	"nf-quiz-service/internal/infra/sqldb"
	"nf-quiz-service/internal/logging"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// env is what every subcommand needs: config, logger and an open database.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *bun.DB
	store *sqldb.Store
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	path := opts.configPath
	// the shipped default path is optional, an explicit one is not
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	return cfg, nil
}

// setup loads config, builds the logger and opens the database. Migrations run when
// migrateFirst is set.
func setup(ctx context.Context, opts *rootOptions, migrateFirst bool) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Env, cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := sqldb.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if migrateFirst {
		if err := sqldb.Migrate(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &env{cfg: cfg, log: log, db: db, store: sqldb.NewStore(db)}, nil
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		e.log.Warn("closing database", zap.Error(err))
	}
	_ = e.log.Sync()
}

// redisClient returns nil when no Redis address is configured.
func (e *env) redisClient() *redis.Client {
	if e.cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     e.cfg.Redis.Addr,
		Password: e.cfg.Redis.Password,
		DB:       e.cfg.Redis.DB,
	})
}
