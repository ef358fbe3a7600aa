// Package github fetches issue content from the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v72/github"

	"issuesolver/internal/models"
)

// maxComments bounds how many comments are pulled into the issue snapshot.
const maxComments = 100

// Fetcher turns a GitHub issue URL into structured issue data.
type Fetcher struct {
	client *gh.Client
}

// Options configures the REST client. BaseURL is only needed for GitHub
// Enterprise or tests.
type Options struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewFetcher(opts Options) (*Fetcher, error) {
	client := gh.NewClient(opts.HTTPClient)
	if token := strings.TrimSpace(opts.Token); token != "" {
		client = client.WithAuthToken(token)
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Fetcher{client: client}, nil
}

// Fetch retrieves the issue title, body, state, labels and comments.
func (f *Fetcher) Fetch(ctx context.Context, issueURL string) (*models.Issue, error) {
	ref, err := ParseIssueURL(issueURL)
	if err != nil {
		return nil, err
	}

	issue, _, err := f.client.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, describeError(ref, err)
	}
	if issue.IsPullRequest() {
		return nil, fmt.Errorf("%s/%s#%d is a pull request, not an issue", ref.Owner, ref.Repo, ref.Number)
	}

	out := &models.Issue{
		Owner:  ref.Owner,
		Repo:   ref.Repo,
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		State:  issue.GetState(),
	}
	for _, label := range issue.Labels {
		if name := label.GetName(); name != "" {
			out.Labels = append(out.Labels, name)
		}
	}

	if issue.GetComments() > 0 {
		comments, _, err := f.client.Issues.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, &gh.IssueListCommentsOptions{
			ListOptions: gh.ListOptions{PerPage: maxComments},
		})
		if err != nil {
			return nil, describeError(ref, err)
		}
		for _, c := range comments {
			out.Comments = append(out.Comments, models.IssueComment{
				Author:    c.GetUser().GetLogin(),
				Body:      c.GetBody(),
				CreatedAt: c.GetCreatedAt().Time,
			})
		}
	}

	return out, nil
}

func describeError(ref IssueRef, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("github rate limit exceeded while fetching %s/%s#%d: %w", ref.Owner, ref.Repo, ref.Number, err)
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("issue %s/%s#%d not found or repository is private", ref.Owner, ref.Repo, ref.Number)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("access denied fetching %s/%s#%d: %s", ref.Owner, ref.Repo, ref.Number, respErr.Message)
		}
	}
	return fmt.Errorf("fetch %s/%s#%d: %w", ref.Owner, ref.Repo, ref.Number, err)
}
