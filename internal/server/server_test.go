package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuesolver/internal/auth"
	"issuesolver/internal/database"
	"issuesolver/internal/llm/client"
	"issuesolver/internal/logging"
	"issuesolver/internal/models"
	"issuesolver/internal/services"
)

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, issueURL string) (*models.Issue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Issue{Number: 42, Title: "Bug in parser", Body: "panics", State: "open", Labels: []string{"bug"}}, nil
}

type fakeGateway struct {
	err error
}

func (g *fakeGateway) Complete(ctx context.Context, c client.Completion) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if strings.Contains(c.SystemPrompt, "JSON") {
		return `{"title":"Fix parser","description":"Guard empty input","summary":"Fixes panic"}`, nil
	}
	return "generated text", nil
}

type fixedResolver struct{}

func (fixedResolver) Resolve(ctx context.Context, userID string) (client.Credentials, error) {
	return client.Credentials{Provider: "openai", APIKey: "k", Source: client.KeySourceDefault}, nil
}

type staticCatalog struct{}

func (staticCatalog) ListModelGroups() ([]models.LLMModelGroup, error) {
	return []models.LLMModelGroup{{ProviderID: "openai", ProviderName: "OpenAI"}}, nil
}

type testAPI struct {
	handler  http.Handler
	verifier *auth.Verifier
	fetcher  *fakeFetcher
	gateway  *fakeGateway
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.Init(database.Config{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	prompts, err := client.NewPromptLibrary("")
	require.NoError(t, err)
	verifier, err := auth.NewVerifier("test-secret", "")
	require.NoError(t, err)

	dbs := services.NewDbServices(db)
	api := &testAPI{verifier: verifier, fetcher: &fakeFetcher{}, gateway: &fakeGateway{}}
	solver := services.NewIssueSolverService(services.IssueSolverDeps{
		Solutions:   dbs.SolutionRepo,
		Sessions:    dbs.SessionRepo,
		Fetcher:     api.fetcher,
		Gateway:     api.gateway,
		Prompts:     prompts,
		Credentials: fixedResolver{},
	}, services.IssueSolverOptions{})

	srv := New(Deps{
		Solver:     solver,
		Sessions:   dbs.Sessions,
		Translator: services.NewTranslatorService(api.gateway, prompts, fixedResolver{}, "en"),
		Models:     staticCatalog{},
		Verifier:   verifier,
		Logger:     logging.Discard(),
	}, Options{RequestTimeout: 5 * time.Second})
	api.handler = srv.Handler()
	return api
}

func (a *testAPI) do(t *testing.T, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		token, err := a.verifier.Issue(user, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

type issueEnvelope struct {
	Issue   models.IssueSolution `json:"issue"`
	Message string               `json:"message"`
}

type errorEnvelope struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	KeySource string `json:"key_source"`
}

func (a *testAPI) session(t *testing.T, user string) string {
	t.Helper()
	rec := a.do(t, user, http.MethodPost, "/sessions", `{"title":"Solve bugs","mode":"issue_solver"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Session models.ChatSession `json:"session"`
	}
	decode(t, rec, &resp)
	return resp.Session.ID
}

func TestIssueSolverWorkflowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	sessionID := api.session(t, "alice")

	rec := api.do(t, "alice", http.MethodPost, "/issue-solver",
		`{"session_id":"`+sessionID+`","issue_url":"https://github.com/acme/widgets/issues/42"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created issueEnvelope
	decode(t, rec, &created)
	assert.Equal(t, models.StepSolution, created.Issue.CurrentStep)
	assert.Equal(t, "generated text", created.Issue.Explanation)

	rec = api.do(t, "alice", http.MethodPatch, "/issue-solver", `{"issue_id":"`+created.Issue.ID+`","action":"solution"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var planned issueEnvelope
	decode(t, rec, &planned)
	assert.Equal(t, models.StepPRContext, planned.Issue.CurrentStep)
	assert.Equal(t, "Solution plan generated", planned.Message)

	rec = api.do(t, "alice", http.MethodPatch, "/issue-solver",
		`{"issue_id":"`+created.Issue.ID+`","action":"pr","git_diff":"diff --git a/x b/x\n+fix"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done issueEnvelope
	decode(t, rec, &done)
	assert.Equal(t, models.StatusCompleted, done.Issue.Status)
	assert.Equal(t, models.StepCompleted, done.Issue.CurrentStep)
	require.NotNil(t, done.Issue.PR())
	assert.Equal(t, "Fix parser", done.Issue.PR().Title)

	rec = api.do(t, "alice", http.MethodPatch, "/issue-solver", `{"issue_id":"`+created.Issue.ID+`","action":"solution"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var conflict errorEnvelope
	decode(t, rec, &conflict)
	assert.Equal(t, "issue_closed", conflict.Code)

	rec = api.do(t, "alice", http.MethodGet, "/issue-solver?session_id="+sessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Issues []models.IssueSolution `json:"issues"`
	}
	decode(t, rec, &listed)
	require.Len(t, listed.Issues, 1)

	rec = api.do(t, "alice", http.MethodGet, "/issue-solver/"+created.Issue.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateIssue_Validation(t *testing.T) {
	api := newTestAPI(t)
	sessionID := api.session(t, "alice")

	rec := api.do(t, "alice", http.MethodPost, "/issue-solver", `{"session_id":"`+sessionID+`","issue_url":"https://gitlab.com/a/b/issues/1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "alice", http.MethodPost, "/issue-solver", `{"issue_url":"https://github.com/a/b/issues/1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "alice", http.MethodPost, "/issue-solver", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "alice", http.MethodPatch, "/issue-solver", `{"issue_id":"x","action":"merge"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthAndOwnership(t *testing.T) {
	api := newTestAPI(t)
	sessionID := api.session(t, "alice")

	rec := api.do(t, "", http.MethodGet, "/issue-solver?session_id="+sessionID, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, "mallory", http.MethodGet, "/issue-solver?session_id="+sessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "mallory", http.MethodDelete, "/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "alice", http.MethodDelete, "/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, "", http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpstreamErrorsMapToStatuses(t *testing.T) {
	api := newTestAPI(t)
	sessionID := api.session(t, "alice")
	body := `{"session_id":"` + sessionID + `","issue_url":"https://github.com/acme/widgets/issues/42"}`

	api.fetcher.err = errors.New("issue acme/widgets#42 not found")
	rec := api.do(t, "alice", http.MethodPost, "/issue-solver", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var fetchErr errorEnvelope
	decode(t, rec, &fetchErr)
	assert.Equal(t, "fetch_failed", fetchErr.Code)
	assert.Equal(t, "issue acme/widgets#42 not found", fetchErr.Error)

	api.fetcher.err = nil
	api.gateway.err = errors.New("You exceeded your current quota")
	rec = api.do(t, "alice", http.MethodPost, "/issue-solver", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var quota errorEnvelope
	decode(t, rec, &quota)
	assert.Equal(t, "quota", quota.Code)
	assert.Equal(t, "default", quota.KeySource)

	api.gateway.err = errors.New("Incorrect API key provided")
	rec = api.do(t, "alice", http.MethodPost, "/translate", `{"text":"hello","language":"de"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var credential errorEnvelope
	decode(t, rec, &credential)
	assert.Equal(t, "invalid_credential", credential.Code)
	assert.Equal(t, "default", credential.KeySource)
}

func TestTranslateAndModels(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "alice", http.MethodPost, "/translate", `{"text":"hello","language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var translated map[string]string
	decode(t, rec, &translated)
	assert.Equal(t, "hello", translated["text"])

	rec = api.do(t, "alice", http.MethodGet, "/models", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"providerId":"openai"`)

	rec = api.do(t, "alice", http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions":[]`)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, "", http.MethodOptions, "/issue-solver", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
