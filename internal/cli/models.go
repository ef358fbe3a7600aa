package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"issuesolver/internal/app"
	"issuesolver/internal/database"
	"issuesolver/internal/logging"
	"issuesolver/internal/services"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List and toggle catalog models",
}

// withModelConfigs runs fn against a started model catalog.
func withModelConfigs(cmd *cobra.Command, fn func(ctx context.Context, svc services.ModelConfigService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	db, err := app.OpenDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { logging.CloseError(logger, "database", database.Close(db)) }()

	dbs := services.NewDbServices(db)
	if err := dbs.StartDbServices(cmd.Context()); err != nil {
		return err
	}
	return fn(cmd.Context(), dbs.ModelConfigs)
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the model catalog grouped by provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withModelConfigs(cmd, func(ctx context.Context, svc services.ModelConfigService) error {
			groups, err := svc.ListModelGroups()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), groups)
		})
	},
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <model-key>",
	Short: "Print one model, e.g. anthropic|claude-sonnet-4-5",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withModelConfigs(cmd, func(ctx context.Context, svc services.ModelConfigService) error {
			mdl, err := svc.GetModel(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), mdl)
		})
	},
}

// toggleModelCmd flips one model, or every model of a provider with --provider.
func toggleModelCmd(use string, enabled bool) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " [model-key]",
		Short: fmt.Sprintf("%s a model (e.g. openai|gpt-5) or a whole provider", use),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _ := cmd.Flags().GetString("provider")
			if (provider == "") == (len(args) == 0) {
				return fmt.Errorf("pass either a model key or --provider")
			}
			return withModelConfigs(cmd, func(ctx context.Context, svc services.ModelConfigService) error {
				if provider != "" {
					updated, err := svc.SetProviderEnabled(ctx, provider, enabled)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), updated)
				}
				mdl, err := svc.SetModelEnabled(ctx, args[0], enabled)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), mdl)
			})
		},
	}
	c.Flags().String("provider", "", "toggle every model of this provider")
	return c
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(toggleModelCmd("enable", true))
	modelsCmd.AddCommand(toggleModelCmd("disable", false))
}
