// Package bootstrap builds the application dependency graph.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "medreport-backend/internal/auth"
	"medreport-backend/internal/health"
	"medreport-backend/internal/llm"
	"medreport-backend/internal/llm/ollama"
	"medreport-backend/internal/reports"
	"medreport-backend/internal/shared/auth"
	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/shared/server"
	"medreport-backend/internal/shared/storage/db"
	"medreport-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Codec      *auth.Codec
	LLM        *ollama.Client
	UsersRepo  users.Repo
	ReportRepo reports.Repo

	UsersService   *users.Service
	ReportsService *reports.Service
	HealthService  *health.Service

	UsersHandler   *users.Handler
	ReportsHandler *reports.Handler
	GoogleAuth     *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.Env)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("bootstrap: analysis backend %s, model %s", cfg.OllamaBaseURL, llmClient.Model())

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Codec:  codec,
		LLM:    llmClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		Codec:          app.Codec,
		UsersHandler:   app.UsersHandler,
		ReportsHandler: app.ReportsHandler,
		GoogleAuth:     app.GoogleAuth,
		Health:         app.HealthService,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildLLM(cfg config.Config) (*ollama.Client, error) {
	retry := llm.RetryPolicy{
		MaxAttempts: cfg.OllamaRetryCount,
		Pause:       cfg.OllamaRetryPause,
	}
	return ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaTimeout, retry)
}

func buildServices(app *App) {
	var userRepo users.Repo
	var reportRepo reports.Repo
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		reportRepo = &reports.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		reportRepo = reports.NewMemoryRepo()
	}

	userSvc := users.NewService(userRepo, app.Codec)
	reportSvc := reports.NewService(
		reportRepo,
		&reports.Classifier{LLM: app.LLM},
		&reports.Extractor{LLM: app.LLM},
	)

	app.UsersRepo = userRepo
	app.ReportRepo = reportRepo
	app.UsersService = userSvc
	app.ReportsService = reportSvc
	app.HealthService = health.NewService(app.DB, app.LLM)
	app.UsersHandler = users.NewHandler(userSvc)
	app.ReportsHandler = reports.NewHandler(reportSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
