package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"issuesolver/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a bearer token for local testing",
	Long: `Sign an HS256 token with auth.jwt_secret. Production deployments
receive tokens from their identity provider; this is for local development.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return err
		}
		token, err := verifier.Issue(user, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "local", "user id placed in the token subject")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
}
