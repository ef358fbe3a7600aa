package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"issuesolver/internal/events"
	"issuesolver/internal/llm/client"
	"issuesolver/internal/models"
	"issuesolver/internal/repositories"
)

const (
	DefaultMaxDiffChars = 8000
	DefaultListLimit    = 10
)

// IssueFetcher retrieves an issue snapshot from its URL.
type IssueFetcher interface {
	Fetch(ctx context.Context, issueURL string) (*models.Issue, error)
}

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, c client.Completion) (string, error)
}

type PromptRenderer interface {
	Render(name string, data any) (client.Prompt, error)
}

// IssueSolverService drives an issue solution through
// fetching -> explaining -> solution_step -> pr_context -> completed, with
// discard allowed from any non-terminal step. Every operation checks that the
// caller owns the row's session.
type IssueSolverService interface {
	CreateAndAnalyze(ctx context.Context, userID, sessionID, issueURL, lang string) (*models.IssueSolution, error)
	RequestSolutionPlan(ctx context.Context, userID, issueID string) (*models.IssueSolution, error)
	GeneratePullRequest(ctx context.Context, userID, issueID, gitDiff string) (*models.IssueSolution, error)
	Discard(ctx context.Context, userID, issueID string) (*models.IssueSolution, error)
	ListActive(ctx context.Context, userID, sessionID string) ([]models.IssueSolution, error)
	Get(ctx context.Context, userID, issueID string) (*models.IssueSolution, error)
}

type IssueSolverDeps struct {
	Solutions   repositories.IssueSolutionRepository
	Sessions    repositories.ChatSessionRepository
	Fetcher     IssueFetcher
	Gateway     Completer
	Prompts     PromptRenderer
	Credentials CredentialResolver
}

type IssueSolverOptions struct {
	MaxDiffChars    int
	ListLimit       int
	DefaultLanguage string
	Now             func() time.Time
}

type issueSolverService struct {
	IssueSolverDeps
	maxDiffChars    int
	listLimit       int
	defaultLanguage string
	now             func() time.Time
}

func NewIssueSolverService(deps IssueSolverDeps, opts IssueSolverOptions) IssueSolverService {
	if opts.MaxDiffChars <= 0 {
		opts.MaxDiffChars = DefaultMaxDiffChars
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	if strings.TrimSpace(opts.DefaultLanguage) == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &issueSolverService{
		IssueSolverDeps: deps,
		maxDiffChars:    opts.MaxDiffChars,
		listLimit:       opts.ListLimit,
		defaultLanguage: opts.DefaultLanguage,
		now:             opts.Now,
	}
}

var (
	planSteps    = []models.SolutionStep{models.StepExplaining, models.StepSolution, models.StepPRContext}
	discardSteps = []models.SolutionStep{models.StepFetching, models.StepExplaining, models.StepSolution, models.StepPRContext}
)

type explainPromptData struct {
	Title    string
	URL      string
	State    string
	Labels   []string
	Body     string
	Comments []models.IssueComment
}

type planPromptData struct {
	Title       string
	Body        string
	Explanation string
}

type pullRequestPromptData struct {
	Title     string
	Plan      string
	Diff      string
	Truncated bool
}

func (s *issueSolverService) CreateAndAnalyze(ctx context.Context, userID, sessionID, issueURL, lang string) (*models.IssueSolution, error) {
	issueURL = strings.TrimSpace(issueURL)
	if issueURL == "" {
		return nil, validationError("issue_url is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, validationError("session_id is required")
	}
	language, err := client.NormalizeLanguage(lang)
	if err != nil {
		return nil, validationError("%v", err)
	}
	if language == "" {
		language = s.defaultLanguage
	}

	session, err := s.Sessions.GetOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrNotFound
	}
	ctx = events.WithSession(ctx, session.ID)

	now := s.now()
	row := &models.IssueSolution{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		IssueURL:    issueURL,
		CurrentStep: models.StepFetching,
		Status:      models.StatusInProgress,
		Language:    language,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Solutions.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create issue solution: %w", err)
	}
	s.emitStep(ctx, row.ID, models.StepFetching, "fetching issue")

	// A failed fetch leaves the row in fetching.
	issue, err := s.Fetcher.Fetch(ctx, issueURL)
	if err != nil {
		s.emitError(ctx, row.ID, models.StepFetching, err)
		return nil, &FetchError{URL: issueURL, Err: err}
	}

	ok, err := s.Solutions.Advance(ctx, row.ID, []models.SolutionStep{models.StepFetching}, map[string]interface{}{
		"issue_number":   issue.Number,
		"issue_state":    issue.State,
		"issue_title":    issue.Title,
		"issue_body":     issue.Body,
		"issue_labels":   datatypes.JSONSlice[string](nonNilLabels(issue.Labels)),
		"issue_comments": datatypes.JSONSlice[models.IssueComment](nonNilComments(issue.Comments)),
		"current_step":   models.StepExplaining,
		"updated_at":     s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store issue snapshot: %w", err)
	}
	if !ok {
		return nil, s.conflict(ctx, userID, row.ID)
	}
	s.emitStep(ctx, row.ID, models.StepExplaining, "issue fetched")

	prompt, err := s.Prompts.Render(client.PromptExplain, explainPromptData{
		Title:    issue.Title,
		URL:      issueURL,
		State:    issue.State,
		Labels:   issue.Labels,
		Body:     issue.Body,
		Comments: issue.Comments,
	})
	if err != nil {
		return nil, err
	}
	explanation, err := s.complete(ctx, userID, language, prompt)
	if err != nil {
		s.emitError(ctx, row.ID, models.StepExplaining, err)
		return nil, err
	}

	ok, err = s.Solutions.Advance(ctx, row.ID, []models.SolutionStep{models.StepExplaining}, map[string]interface{}{
		"explanation":  explanation,
		"current_step": models.StepSolution,
		"updated_at":   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store explanation: %w", err)
	}
	if !ok {
		return nil, s.conflict(ctx, userID, row.ID)
	}
	s.emitStep(ctx, row.ID, models.StepSolution, "explanation generated")

	return s.Get(ctx, userID, row.ID)
}

func (s *issueSolverService) RequestSolutionPlan(ctx context.Context, userID, issueID string) (*models.IssueSolution, error) {
	row, err := s.Get(ctx, userID, issueID)
	if err != nil {
		return nil, err
	}
	if err := checkStep(row, planSteps...); err != nil {
		return nil, err
	}
	ctx = events.WithSession(ctx, row.SessionID)

	prompt, err := s.Prompts.Render(client.PromptPlan, planPromptData{
		Title:       row.IssueTitle,
		Body:        row.IssueBody,
		Explanation: row.Explanation,
	})
	if err != nil {
		return nil, err
	}
	plan, err := s.complete(ctx, userID, row.Language, prompt)
	if err != nil {
		s.emitError(ctx, row.ID, row.CurrentStep, err)
		return nil, err
	}

	ok, err := s.Solutions.Advance(ctx, row.ID, planSteps, map[string]interface{}{
		"solution_plan": plan,
		"current_step":  models.StepPRContext,
		"updated_at":    s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store solution plan: %w", err)
	}
	if !ok {
		return nil, s.conflict(ctx, userID, row.ID)
	}
	s.emitStep(ctx, row.ID, models.StepPRContext, "solution plan generated")

	return s.Get(ctx, userID, row.ID)
}

func (s *issueSolverService) GeneratePullRequest(ctx context.Context, userID, issueID, gitDiff string) (*models.IssueSolution, error) {
	if strings.TrimSpace(gitDiff) == "" {
		return nil, validationError("git_diff is required")
	}
	row, err := s.Get(ctx, userID, issueID)
	if err != nil {
		return nil, err
	}
	if err := checkStep(row, models.StepPRContext); err != nil {
		return nil, err
	}
	ctx = events.WithSession(ctx, row.SessionID)

	diff, truncated := truncateRunes(gitDiff, s.maxDiffChars)
	data := pullRequestPromptData{
		Title:     row.IssueTitle,
		Diff:      diff,
		Truncated: truncated,
	}
	if row.SolutionPlan != nil {
		data.Plan = *row.SolutionPlan
	}
	prompt, err := s.Prompts.Render(client.PromptPullRequest, data)
	if err != nil {
		return nil, err
	}
	output, err := s.complete(ctx, userID, row.Language, prompt)
	if err != nil {
		s.emitError(ctx, row.ID, row.CurrentStep, err)
		return nil, err
	}
	pr := parsePRSolution(output, row)

	ok, err := s.Solutions.Advance(ctx, row.ID, []models.SolutionStep{models.StepPRContext}, map[string]interface{}{
		"git_diff":     gitDiff,
		"pr_solution":  datatypes.NewJSONType(pr),
		"status":       models.StatusCompleted,
		"current_step": models.StepCompleted,
		"updated_at":   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store pull request: %w", err)
	}
	if !ok {
		return nil, s.conflict(ctx, userID, row.ID)
	}
	events.Emit(ctx, events.IssueEventStep, events.NewSuccess(row.ID, string(models.StepCompleted), "pull request generated"))

	return s.Get(ctx, userID, row.ID)
}

func (s *issueSolverService) Discard(ctx context.Context, userID, issueID string) (*models.IssueSolution, error) {
	row, err := s.Get(ctx, userID, issueID)
	if err != nil {
		return nil, err
	}
	if row.Status == models.StatusCompleted || row.CurrentStep.IsTerminal() {
		return row, nil
	}
	ctx = events.WithSession(ctx, row.SessionID)

	ok, err := s.Solutions.Advance(ctx, row.ID, discardSteps, map[string]interface{}{
		"status":       models.StatusCompleted,
		"current_step": models.StepDiscarded,
		"updated_at":   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("discard issue solution: %w", err)
	}

	current, err := s.Get(ctx, userID, row.ID)
	if err != nil {
		return nil, err
	}
	if !ok && !current.CurrentStep.IsTerminal() {
		return nil, ErrStepConflict
	}
	if ok {
		events.Emit(ctx, events.IssueEventStep, events.NewWarn(row.ID, string(models.StepDiscarded), "issue solution discarded"))
	}
	return current, nil
}

func (s *issueSolverService) ListActive(ctx context.Context, userID, sessionID string) ([]models.IssueSolution, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, validationError("session_id is required")
	}
	session, err := s.Sessions.GetOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrNotFound
	}
	rows, err := s.Solutions.ListBySession(ctx, session.ID, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list issue solutions: %w", err)
	}
	if rows == nil {
		rows = []models.IssueSolution{}
	}
	return rows, nil
}

func (s *issueSolverService) Get(ctx context.Context, userID, issueID string) (*models.IssueSolution, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, validationError("issue_id is required")
	}
	row, err := s.Solutions.GetOwned(ctx, issueID, userID)
	if err != nil {
		return nil, fmt.Errorf("load issue solution: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

func (s *issueSolverService) complete(ctx context.Context, userID, language string, prompt client.Prompt) (string, error) {
	creds, err := s.Credentials.Resolve(ctx, userID)
	if err != nil {
		var ge *GatewayError
		if errors.As(err, &ge) {
			return "", ge
		}
		return "", err
	}
	text, err := s.Gateway.Complete(ctx, client.Completion{
		SystemPrompt: prompt.System,
		UserMessage:  prompt.User,
		Language:     language,
		Credentials:  creds,
	})
	if err != nil {
		return "", newGatewayError(err, creds.Source)
	}
	return strings.TrimSpace(text), nil
}

// conflict explains a conditional update that matched no row.
func (s *issueSolverService) conflict(ctx context.Context, userID, issueID string) error {
	row, err := s.Get(ctx, userID, issueID)
	if err != nil {
		return err
	}
	if row.Status == models.StatusCompleted {
		return ErrIssueClosed
	}
	return ErrStepConflict
}

func checkStep(row *models.IssueSolution, allowed ...models.SolutionStep) error {
	if row.Status == models.StatusCompleted || row.CurrentStep.IsTerminal() {
		return ErrIssueClosed
	}
	for _, step := range allowed {
		if row.CurrentStep == step {
			return nil
		}
	}
	return fmt.Errorf("%w: current step is %s", ErrStepConflict, row.CurrentStep)
}

func (s *issueSolverService) emitStep(ctx context.Context, issueID string, step models.SolutionStep, msg string) {
	events.Emit(ctx, events.IssueEventStep, events.NewInfo(issueID, string(step), msg))
}

func (s *issueSolverService) emitError(ctx context.Context, issueID string, step models.SolutionStep, err error) {
	events.Emit(ctx, events.IssueEventError, events.NewError(issueID, string(step), err.Error()))
}

// truncateRunes keeps at most n characters of s.
func truncateRunes(s string, n int) (string, bool) {
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// parsePRSolution reads the model's JSON reply. Replies that are not valid
// JSON become the description, with a title derived from the issue.
func parsePRSolution(output string, row *models.IssueSolution) *models.PRSolution {
	var pr models.PRSolution
	body := stripCodeFence(output)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(body[start:end+1]), &pr); err == nil && strings.TrimSpace(pr.Title) != "" {
			pr.Title = strings.TrimSpace(pr.Title)
			pr.Description = strings.TrimSpace(pr.Description)
			pr.Summary = strings.TrimSpace(pr.Summary)
			if pr.Summary == "" {
				pr.Summary = pr.Title
			}
			return &pr
		}
	}

	title := strings.TrimSpace(row.IssueTitle)
	if row.IssueNumber > 0 {
		title = fmt.Sprintf("Fix #%d: %s", row.IssueNumber, title)
	}
	summary, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	return &models.PRSolution{
		Title:       title,
		Description: strings.TrimSpace(output),
		Summary:     strings.TrimSpace(summary),
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

func nonNilLabels(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}

func nonNilComments(comments []models.IssueComment) []models.IssueComment {
	if comments == nil {
		return []models.IssueComment{}
	}
	return comments
}
