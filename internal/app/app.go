// Package app wires configuration, storage and services into a running
// issuesolver instance shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"issuesolver/internal/config"
	"issuesolver/internal/database"
	"issuesolver/internal/events"
	"issuesolver/internal/github"
	"issuesolver/internal/llm/client"
	"issuesolver/internal/services"
)

// App holds every long-lived dependency.
type App struct {
	Config *config.Config
	Logger *log.Logger

	DB         *gorm.DB
	Services   *services.DbServices
	Keys       *services.KeyringService
	Solver     services.IssueSolverService
	Translator *services.TranslatorService
	Git        *services.GitService
}

// OpenDatabase opens and migrates the configured database.
func OpenDatabase(cfg *config.Config, l *log.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if strings.EqualFold(cfg.Log.Level, "debug") {
		level = logger.Info
	}
	db, err := database.Init(database.Config{
		Path:     cfg.Database.Path,
		LogLevel: level,
		Logger:   l,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// OpenKeys opens the configured keyring.
func OpenKeys(cfg *config.Config) (*services.KeyringService, error) {
	ring, err := services.OpenKeyring(services.KeyringOptions{
		Backend:  cfg.Keyring.Backend,
		FileDir:  cfg.Keyring.FileDir,
		Password: cfg.Keyring.Password,
	})
	if err != nil {
		return nil, err
	}
	return services.NewKeyringService(ring), nil
}

// New builds the full service graph. Callers must Close the result.
func New(ctx context.Context, cfg *config.Config, l *log.Logger) (*App, error) {
	db, err := OpenDatabase(cfg, l)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: l, DB: db}

	if err := a.startup(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) startup(ctx context.Context) error {
	cfg := a.Config

	a.Services = services.NewDbServices(a.DB)
	if err := a.Services.StartDbServices(ctx); err != nil {
		return fmt.Errorf("load model catalog: %w", err)
	}

	keys, err := OpenKeys(cfg)
	if err != nil {
		return err
	}
	a.Keys = keys

	fetcher, err := github.NewFetcher(github.Options{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
	})
	if err != nil {
		return err
	}

	prompts, err := client.NewPromptLibrary(cfg.Prompts.Dir)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	a.Logger.Debug("prompts loaded", "names", prompts.Names(), "override_dir", cfg.Prompts.Dir)

	gateway := client.NewGateway(client.NewProviderClient, cfg.LLM.DefaultLanguage)
	resolver := services.NewCredentialResolver(a.Keys, a.Services.ModelConfigs, cfg.LLM.Provider, cfg.LLM.Model)

	a.Solver = services.NewIssueSolverService(services.IssueSolverDeps{
		Solutions:   a.Services.SolutionRepo,
		Sessions:    a.Services.SessionRepo,
		Fetcher:     fetcher,
		Gateway:     gateway,
		Prompts:     prompts,
		Credentials: resolver,
	}, services.IssueSolverOptions{
		MaxDiffChars:    cfg.Solver.MaxDiffChars,
		ListLimit:       cfg.Solver.ListLimit,
		DefaultLanguage: cfg.LLM.DefaultLanguage,
	})
	a.Translator = services.NewTranslatorService(gateway, prompts, resolver, cfg.LLM.DefaultLanguage)
	a.Git = services.NewGitService()

	events.EnableLogEmitter(a.Logger)
	return nil
}

// Close releases the database connection pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	err := database.Close(a.DB)
	a.DB = nil
	if err == nil && a.Logger != nil {
		a.Logger.Debug("database closed")
	}
	return err
}
