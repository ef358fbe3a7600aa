package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"issuesolver/internal/app"
	"issuesolver/internal/auth"
	"issuesolver/internal/logging"
	"issuesolver/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON API. Every route except /healthz requires an
"Authorization: Bearer <jwt>" header signed with auth.jwt_secret.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.ValidateForServe(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { logging.CloseError(logger, "database", a.Close()) }()

		verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return err
		}

		srv := server.New(server.Deps{
			Solver:     a.Solver,
			Sessions:   a.Services.Sessions,
			Translator: a.Translator,
			Models:     a.Services.ModelConfigs,
			Verifier:   verifier,
			Logger:     logger,
		}, server.Options{
			AllowedOrigin:  cfg.Server.AllowedOrigin,
			RequestTimeout: cfg.Server.RequestTimeout,
		})
		return srv.Start(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}
