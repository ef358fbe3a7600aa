package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content, msg string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestGitService_DiffBetweenRefs(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	base := commitFile(t, repo, dir, "parser.go", "package parser\n\nfunc Parse() {}\n", "initial")
	commitFile(t, repo, dir, "parser.go", "package parser\n\nfunc Parse() error { return nil }\n", "fix parser")

	svc := NewGitService()
	diff, err := svc.DiffBetweenRefs(dir, base, "")
	require.NoError(t, err)
	assert.Contains(t, diff, "diff --git a/parser.go b/parser.go")
	assert.Contains(t, diff, "+func Parse() error { return nil }")
	assert.Contains(t, diff, "-func Parse() {}")

	diff, err = svc.DiffBetweenRefs(dir, "HEAD~1", "HEAD")
	require.NoError(t, err)
	assert.Contains(t, diff, "parser.go")
}

func TestGitService_DiffBetweenRefs_Errors(t *testing.T) {
	svc := NewGitService()

	_, err := svc.DiffBetweenRefs(t.TempDir(), "main", "")
	assert.ErrorContains(t, err, "invalid repository")

	_, err = svc.DiffBetweenRefs(filepath.Join(t.TempDir(), "missing"), "main", "")
	assert.ErrorContains(t, err, "directory does not exist")

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "a.txt", "a\n", "initial")

	_, err = svc.DiffBetweenRefs(dir, "", "")
	assert.EqualError(t, err, "base revision is required")

	_, err = svc.DiffBetweenRefs(dir, "no-such-branch", "")
	assert.ErrorContains(t, err, "failed to resolve no-such-branch")
}
