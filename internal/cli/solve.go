package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"issuesolver/internal/app"
	"issuesolver/internal/github"
	"issuesolver/internal/logging"
	"issuesolver/internal/models"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Drive the issue workflow locally",
	Long: `Run the same fetch, explain, plan and pull request steps as the HTTP
API without a server. Rows are stored in the configured database and
owned by --user.`,
}

// withApp runs fn against a fully wired application.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, user string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { logging.CloseError(logger, "database", a.Close()) }()

	user, _ := cmd.Flags().GetString("user")
	return fn(cmd.Context(), a, user)
}

var solveCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Fetch and explain an issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL, _ := cmd.Flags().GetString("url")
		ref, err := github.ParseIssueURL(rawURL)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		lang, _ := cmd.Flags().GetString("lang")

		return withApp(cmd, func(ctx context.Context, a *app.App, user string) error {
			if sessionID == "" {
				session, err := a.Services.Sessions.Create(ctx, user, ref.String(), models.ModeIssueSolver)
				if err != nil {
					return err
				}
				sessionID = session.ID
				fmt.Fprintf(cmd.ErrOrStderr(), "created session %s\n", sessionID)
			}
			issue, err := a.Solver.CreateAndAnalyze(ctx, user, sessionID, ref.URL(), lang)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issue)
		})
	},
}

var solvePlanCmd = &cobra.Command{
	Use:   "plan <issue-id>",
	Short: "Generate a solution plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, user string) error {
			issue, err := a.Solver.RequestSolutionPlan(ctx, user, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issue)
		})
	},
}

var solvePRCmd = &cobra.Command{
	Use:   "pr <issue-id>",
	Short: "Generate a pull request from a diff file or a local repository",
	Long: `Generate the pull request description. The diff comes from --diff-file
("-" for stdin) or is computed from --repo between --base and --head.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		diffFile, _ := cmd.Flags().GetString("diff-file")
		repoPath, _ := cmd.Flags().GetString("repo")
		base, _ := cmd.Flags().GetString("base")
		head, _ := cmd.Flags().GetString("head")
		if (diffFile == "") == (repoPath == "") {
			return fmt.Errorf("exactly one of --diff-file or --repo is required")
		}

		return withApp(cmd, func(ctx context.Context, a *app.App, user string) error {
			var diff string
			switch {
			case diffFile == "-":
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read diff from stdin: %w", err)
				}
				diff = string(data)
			case diffFile != "":
				data, err := os.ReadFile(diffFile)
				if err != nil {
					return fmt.Errorf("read diff: %w", err)
				}
				diff = string(data)
			default:
				if base == "" {
					return fmt.Errorf("--base is required with --repo")
				}
				d, err := a.Git.DiffBetweenRefs(repoPath, base, head)
				if err != nil {
					return err
				}
				diff = d
			}

			issue, err := a.Solver.GeneratePullRequest(ctx, user, args[0], diff)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issue)
		})
	},
}

var solveDiscardCmd = &cobra.Command{
	Use:   "discard <issue-id>",
	Short: "Discard an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, user string) error {
			issue, err := a.Solver.Discard(ctx, user, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issue)
		})
	},
}

var solveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent issues of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		return withApp(cmd, func(ctx context.Context, a *app.App, user string) error {
			if sessionID == "" {
				sessions, err := a.Services.Sessions.List(ctx, user)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sessions)
			}
			issues, err := a.Solver.ListActive(ctx, user, sessionID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issues)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{solveCreateCmd, solvePlanCmd, solvePRCmd, solveDiscardCmd, solveListCmd} {
		c.Flags().String("user", "local", "user id that owns the session")
		solveCmd.AddCommand(c)
	}
	solveCreateCmd.Flags().String("url", "", "GitHub issue URL")
	_ = solveCreateCmd.MarkFlagRequired("url")
	solveCreateCmd.Flags().String("session", "", "existing session id (a new session is created when empty)")
	solveCreateCmd.Flags().String("lang", "", "response language, e.g. de or ja")

	solvePRCmd.Flags().String("diff-file", "", "unified diff file, or - for stdin")
	solvePRCmd.Flags().String("repo", "", "local git repository to diff")
	solvePRCmd.Flags().String("base", "", "base revision for --repo")
	solvePRCmd.Flags().String("head", "HEAD", "head revision for --repo")

	solveListCmd.Flags().String("session", "", "session id (lists sessions when empty)")
}
