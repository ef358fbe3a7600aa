package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuesolver/internal/auth"
)

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeConfig creates a config file whose database and keyring live in a temp dir.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "issuesolver.yaml")
	content := fmt.Sprintf(`database:
  path: %s
auth:
  jwt_secret: cli-test-secret
keyring:
  backend: file
  file_dir: %s
  password: hunter2
log:
  level: error
`, filepath.Join(dir, "cli.db"), filepath.Join(dir, "keys"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	SetVersion("test-version")
	out, err := executeCommand("version")
	require.NoError(t, err)
	assert.Contains(t, out, "test-version")
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "migrate", "keys", "models", "solve", "token", "version"} {
		assert.Contains(t, out, sub, "help output missing subcommand %q", sub)
	}
}

func TestSolveSubcommands(t *testing.T) {
	for _, sub := range []string{"create", "plan", "pr", "discard", "list"} {
		out, err := executeCommand("solve", sub, "--help")
		assert.NoError(t, err, "solve %s --help", sub)
		assert.NotEmpty(t, out)
	}
}

func TestMigrateCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := executeCommand("migrate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "is up to date")
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg), "cli.db"))
}

func TestKeysLifecycle(t *testing.T) {
	cfg := writeConfig(t)

	out, err := executeCommand("keys", "set", "openai", "--config", cfg, "--user", "", "--key", "sk-shared")
	require.NoError(t, err)
	assert.Contains(t, out, "stored openai key for the default scope")

	out, err = executeCommand("keys", "set", "anthropic", "--config", cfg, "--user", "alice", "--key", "sk-alice")
	require.NoError(t, err)
	assert.Contains(t, out, "user alice")

	out, err = executeCommand("keys", "list", "--config", cfg, "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, `"anthropic"`)
	assert.NotContains(t, out, "sk-alice")

	out, err = executeCommand("keys", "delete", "anthropic", "--config", cfg, "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted anthropic key")
}

func TestModelsList(t *testing.T) {
	cfg := writeConfig(t)
	out, err := executeCommand("models", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"providerId": "openai"`)
}

func TestTokenCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := executeCommand("token", "--config", cfg, "--user", "bob")
	require.NoError(t, err)

	v, err := auth.NewVerifier("cli-test-secret", "")
	require.NoError(t, err)
	user, err := v.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}

func TestSolvePRRequiresOneDiffSource(t *testing.T) {
	cfg := writeConfig(t)
	_, err := executeCommand("solve", "pr", "some-id", "--config", cfg, "--diff-file", "", "--repo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of --diff-file or --repo")
}

func TestModelsToggle(t *testing.T) {
	cfg := writeConfig(t)

	out, err := executeCommand("models", "disable", "openai|gpt-5", "--config", cfg, "--provider", "")
	require.NoError(t, err)
	assert.Contains(t, out, `"enabled": false`)

	out, err = executeCommand("models", "show", "openai|gpt-5", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"enabled": false`)

	_, err = executeCommand("models", "enable", "--config", cfg, "--provider", "")
	assert.ErrorContains(t, err, "either a model key or --provider")
}
