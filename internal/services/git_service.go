package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"issuesolver/internal/utils"
)

// GitService produces diffs from local repositories for pull request generation.
type GitService struct{}

func NewGitService() *GitService {
	return &GitService{}
}

// Open an existing repo
func (g *GitService) Open(repoPath string) (*git.Repository, error) {
	if err := g.ValidateRepository(repoPath); err != nil {
		return nil, fmt.Errorf("invalid repository: %w", err)
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}
	return repo, nil
}

// ValidateRepository checks if the given path is a valid git repository
func (g *GitService) ValidateRepository(repoPath string) error {
	if repoPath == "" {
		return fmt.Errorf("repository path cannot be empty")
	}
	if !utils.DirectoryExists(repoPath) {
		return fmt.Errorf("directory does not exist: %s", repoPath)
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("not a valid git repository: %w", err)
	}

	// HEAD must resolve; an empty repository has nothing to diff.
	if _, err = repo.Head(); err != nil {
		return fmt.Errorf("repository is in an invalid state: %w", err)
	}

	return nil
}

// DiffBetweenRefs returns the unified diff from base to head. Both accept any
// revision go-git can resolve (branch, tag, hash, HEAD~1). An empty head means HEAD.
func (g *GitService) DiffBetweenRefs(repoPath, base, head string) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("base revision is required")
	}
	if strings.TrimSpace(head) == "" {
		head = "HEAD"
	}

	repo, err := g.Open(repoPath)
	if err != nil {
		return "", err
	}

	baseHash, err := repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", base, err)
	}
	headHash, err := repo.ResolveRevision(plumbing.Revision(head))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", head, err)
	}
	return g.DiffBetweenCommits(repo, baseHash.String(), headHash.String())
}

// DiffBetweenCommits returns the patch (diff) between two commits by their hashes.
func (g *GitService) DiffBetweenCommits(repo *git.Repository, hash1, hash2 string) (string, error) {
	commit1, err := repo.CommitObject(plumbing.NewHash(hash1))
	if err != nil {
		return "", fmt.Errorf("failed to get commit1: %w", err)
	}
	commit2, err := repo.CommitObject(plumbing.NewHash(hash2))
	if err != nil {
		return "", fmt.Errorf("failed to get commit2: %w", err)
	}

	tree1, err := commit1.Tree()
	if err != nil {
		return "", fmt.Errorf("failed to get tree1: %w", err)
	}
	tree2, err := commit2.Tree()
	if err != nil {
		return "", fmt.Errorf("failed to get tree2: %w", err)
	}

	patch, err := tree1.Patch(tree2)
	if err != nil {
		return "", fmt.Errorf("failed to get patch: %w", err)
	}

	var buf bytes.Buffer
	if err := patch.Encode(&buf); err != nil {
		return "", fmt.Errorf("failed to encode patch: %w", err)
	}
	return buf.String(), nil
}
