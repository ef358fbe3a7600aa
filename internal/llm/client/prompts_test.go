package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptLibrary_EmbeddedTemplates(t *testing.T) {
	lib, err := NewPromptLibrary("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{PromptExplain, PromptPlan, PromptPullRequest, PromptTranslate}, lib.Names())

	p, err := lib.Render(PromptExplain, map[string]any{
		"Title":  "Bug in parser",
		"URL":    "https://github.com/acme/widgets/issues/42",
		"State":  "open",
		"Body":   "It crashes.",
		"Labels": []string{"bug", "parser"},
	})
	require.NoError(t, err)
	assert.Contains(t, p.System, "GitHub issue")
	assert.Contains(t, p.User, "Issue: Bug in parser")
	assert.Contains(t, p.User, "Labels: bug, parser")
	assert.Contains(t, p.User, "It crashes.")
}

func TestPromptLibrary_OverrideFromNestedDirectory(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "team", "custom")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	override := `{{define "user"}}Plan for {{.Title}}{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(nested, "plan.tmpl"), []byte(override), 0o644))

	lib, err := NewPromptLibrary(dir)
	require.NoError(t, err)

	p, err := lib.Render(PromptPlan, map[string]any{"Title": "X"})
	require.NoError(t, err)
	assert.Equal(t, "", p.System)
	assert.Equal(t, "Plan for X", p.User)
}

func TestPromptLibrary_OverrideWithoutUserBlock(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "explain.tmpl"), []byte(`{{define "system"}}x{{end}}`), 0o644))

	_, err := NewPromptLibrary(dir)
	assert.ErrorContains(t, err, "has no user block")
}

func TestPromptLibrary_UnknownPrompt(t *testing.T) {
	lib, err := NewPromptLibrary("")
	require.NoError(t, err)
	_, err = lib.Render("missing", nil)
	assert.EqualError(t, err, "prompt missing not found")
}
