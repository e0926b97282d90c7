package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/auth"
	"nf-quiz-service/internal/config"
	"nf-quiz-service/internal/infra/bankfile"
	"nf-quiz-service/internal/infra/memory"
	pgloader "nf-quiz-service/internal/infra/postgres"
	rediscache "nf-quiz-service/internal/infra/redis"
	"nf-quiz-service/internal/infra/sqldb"
	"nf-quiz-service/internal/metrics"
	transport "nf-quiz-service/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultCacheTTL = 10 * time.Minute

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run migrations and start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

func runServer(ctx context.Context, opts *rootOptions) error {
	e, err := setup(ctx, opts, true)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg, log := e.cfg, e.log

	loader, closeLoader, err := bankLoader(ctx, e)
	if err != nil {
		return err
	}
	defer closeLoader()

	var source memory.BankLoader = loader
	if client := e.redisClient(); client != nil {
		defer client.Close()
		source = rediscache.NewBankCache(client, loader, config.TTLDuration(cfg.Redis.TTL, defaultCacheTTL), log)
		log.Info("redis bank cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	bank := memory.NewBankCache(source, config.TTLDuration(cfg.Bank.TTL, defaultCacheTTL))

	rules := cfg.Quiz.Rules()
	m := metrics.New()
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	quiz := app.NewQuizService(bank, e.store, rules, log, app.WithRecorder(m))
	accounts := app.NewAccountService(e.store, tokens, log)
	dashboard := app.NewDashboardService(e.store, rules.Concepts, log)
	progress := app.NewProgressService(e.store, log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.NewRouter(transport.RouterConfig{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, transport.Deps{
		Handler:  transport.NewHandler(quiz, accounts, dashboard, progress, log),
		WS:       transport.NewWSHandler(quiz, log),
		Tokens:   tokens,
		Accounts: accounts,
		Metrics:  m,
		Health:   e.store.Ping,
		Log:      log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr), zap.String("db", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// bankLoader picks where the question bank is read from. File mode seeds the file into the
// database first so attempts can reference its items.
func bankLoader(ctx context.Context, e *env) (memory.BankLoader, func(), error) {
	noop := func() {}
	if e.cfg.Bank.Source == "file" {
		if err := seedBank(ctx, e, e.cfg.Bank.File); err != nil {
			return nil, noop, err
		}
		return bankfile.NewLoader(e.cfg.Bank.File), noop, nil
	}
	if e.cfg.Database.Driver == sqldb.DriverPostgres {
		pool, err := pgloader.Connect(ctx, e.cfg.Database.DSN)
		if err != nil {
			return nil, noop, err
		}
		return pgloader.NewBankLoader(pool), pool.Close, nil
	}
	return e.store, noop, nil
}
