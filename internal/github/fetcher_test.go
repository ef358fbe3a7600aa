package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, mux *http.ServeMux) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	f, err := NewFetcher(Options{Token: "test-token", BaseURL: srv.URL})
	require.NoError(t, err)
	return f
}

func TestFetch_IssueWithComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"number": 42,
			"title": "Bug in parser",
			"body": "Parser crashes on empty input",
			"state": "open",
			"comments": 1,
			"labels": [{"name": "bug"}, {"name": "parser"}]
		}`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `[{"body": "Reproduced on main", "user": {"login": "octocat"}, "created_at": "2024-05-01T10:00:00Z"}]`)
	})

	f := newTestFetcher(t, mux)
	issue, err := f.Fetch(context.Background(), "https://github.com/acme/widgets/issues/42")
	require.NoError(t, err)

	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, "Bug in parser", issue.Title)
	assert.Equal(t, "Parser crashes on empty input", issue.Body)
	assert.Equal(t, "open", issue.State)
	assert.Equal(t, []string{"bug", "parser"}, issue.Labels)
	require.Len(t, issue.Comments, 1)
	assert.Equal(t, "octocat", issue.Comments[0].Author)
	assert.Equal(t, "Reproduced on main", issue.Comments[0].Body)
}

func TestFetch_SkipsCommentsWhenNone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 7, "title": "t", "body": "b", "state": "closed", "comments": 0}`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("comments should not be requested")
	})

	f := newTestFetcher(t, mux)
	issue, err := f.Fetch(context.Background(), "https://github.com/acme/widgets/issues/7")
	require.NoError(t, err)
	assert.Equal(t, "closed", issue.State)
	assert.Empty(t, issue.Comments)
}

func TestFetch_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/secret/issues/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	f := newTestFetcher(t, mux)
	_, err := f.Fetch(context.Background(), "https://github.com/acme/secret/issues/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or repository is private")
}

func TestFetch_RejectsPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 9, "title": "PR", "state": "open", "pull_request": {"url": "https://api.github.com/repos/acme/widgets/pulls/9"}}`)
	})

	f := newTestFetcher(t, mux)
	_, err := f.Fetch(context.Background(), "https://github.com/acme/widgets/issues/9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a pull request")
}

func TestFetch_InvalidURL(t *testing.T) {
	f, err := NewFetcher(Options{})
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "https://example.com/acme/widgets/issues/1")
	assert.Error(t, err)
}
