package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/config"
	"github.com/yukikurage/company-task-api/internal/database"
	"github.com/yukikurage/company-task-api/internal/logger"
	"github.com/yukikurage/company-task-api/internal/metrics"
	"github.com/yukikurage/company-task-api/internal/repository"
	"github.com/yukikurage/company-task-api/internal/server"
	"github.com/yukikurage/company-task-api/internal/services"
	"go.uber.org/zap"
)

var (
	app = kingpin.New("company-task-api", "Multi-tenant task tracking API for companies and their employees")

	serveCmd     = app.Command("serve", "Run the HTTP server").Default()
	serveMigrate = serveCmd.Flag("migrate", "Run database migrations before serving").Default("true").Bool()

	migrateCmd = app.Command("migrate", "Run database migrations and exit")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	switch command {
	case migrateCmd.FullCommand():
		err = runMigrate(cfg, log)
	case serveCmd.FullCommand():
		err = runServe(cfg, log, *serveMigrate)
	}
	if err != nil {
		os.Exit(commandFailed(log, command, err))
	}
}

// commandFailed logs err and flushes the logger, returning the exit code.
// os.Exit skips deferred calls, so the flush cannot be left to them.
func commandFailed(log *zap.Logger, command string, err error) int {
	log.Error("Command failed", zap.String("command", command), zap.Error(err))
	_ = log.Sync()
	return 1
}

func runMigrate(cfg *config.Config, log *zap.Logger) error {
	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	return database.Migrate(db, log)
}

func runServe(cfg *config.Config, log *zap.Logger, migrate bool) error {
	gin.SetMode(cfg.GinMode)

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if migrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}

	clock := services.Clock(services.SystemClock)
	m := metrics.New()

	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, clock)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	recordRepo := repository.NewRecordRepository(db)

	var aiService *services.AIService
	if cfg.AIEnabled() {
		aiService = services.NewAIService(services.AIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}, clock)
	} else {
		log.Warn("OPENAI_API_KEY not set, task generation is disabled")
	}

	router := server.NewRouter(server.Deps{
		Tokens:      tokens,
		AuthService: services.NewAuthService(userRepo, tokens, m),
		UserService: services.NewUserService(userRepo),
		TaskService: services.NewTaskService(taskRepo, recordRepo, userRepo, services.TaskServiceOptions{
			AI:      aiService,
			Metrics: m,
			Logger:  log,
			Clock:   clock,
		}),
		Metrics: m,
		Logger:  log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, router, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
