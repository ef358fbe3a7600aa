package github

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// IssueRef identifies a single GitHub issue.
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

// URL returns the canonical issue URL.
func (r IssueRef) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/issues/%d", r.Owner, r.Repo, r.Number)
}

// ParseIssueURL checks that raw has the shape
// https://github.com/<owner>/<repo>/issues/<number> and extracts its parts.
// A trailing slash, query string or fragment is tolerated.
func ParseIssueURL(raw string) (IssueRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return IssueRef{}, fmt.Errorf("issue url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return IssueRef{}, fmt.Errorf("invalid issue url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return IssueRef{}, fmt.Errorf("invalid issue url %q: scheme must be https", raw)
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return IssueRef{}, fmt.Errorf("invalid issue url %q: host must be github.com", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "issues" || parts[0] == "" || parts[1] == "" {
		return IssueRef{}, fmt.Errorf("invalid issue url %q: expected /<owner>/<repo>/issues/<number>", raw)
	}
	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return IssueRef{}, fmt.Errorf("invalid issue url %q: issue number must be a positive integer", raw)
	}
	return IssueRef{Owner: parts[0], Repo: parts[1], Number: number}, nil
}

func (r IssueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}
