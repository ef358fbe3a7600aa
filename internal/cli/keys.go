package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"issuesolver/internal/app"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys",
	Long: `Store, remove and list provider API keys. Without --user the shared
default key is managed; a user's own key overrides it for that user.`,
}

var keysSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store an API key (read from --key or the first line of stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		keys, err := app.OpenKeys(cfg)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		key, _ := cmd.Flags().GetString("key")
		if key == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read API key from stdin: %w", err)
			}
			key = line
		}
		if err := keys.StoreApiKey(user, args[0], []byte(strings.TrimSpace(key))); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s key for %s\n", args[0], scopeName(user))
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		keys, err := app.OpenKeys(cfg)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		if err := keys.DeleteApiKey(user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s key for %s\n", args[0], scopeName(user))
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys without revealing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		keys, err := app.OpenKeys(cfg)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		infos, err := keys.ListApiKeys(user)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), infos)
	},
}

func scopeName(user string) string {
	if user == "" {
		return "the default scope"
	}
	return "user " + user
}

func init() {
	for _, c := range []*cobra.Command{keysSetCmd, keysDeleteCmd, keysListCmd} {
		c.Flags().String("user", "", "user id (empty manages the shared default key)")
		keysCmd.AddCommand(c)
	}
	keysSetCmd.Flags().String("key", "", "API key value (prefer stdin to keep it out of shell history)")
}
