package models

import (
	"time"

	"gorm.io/datatypes"
)

// SolutionStep is the position of an issue-solving attempt within the workflow.
type SolutionStep string

const (
	StepFetching   SolutionStep = "fetching"
	StepExplaining SolutionStep = "explaining"
	StepSolution   SolutionStep = "solution_step"
	StepPRContext  SolutionStep = "pr_context"
	StepCompleted  SolutionStep = "completed"
	StepDiscarded  SolutionStep = "discarded"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s SolutionStep) IsTerminal() bool {
	return s == StepCompleted || s == StepDiscarded
}

type SolutionStatus string

const (
	StatusInProgress SolutionStatus = "in_progress"
	StatusCompleted  SolutionStatus = "completed"
)

// IssueComment is a snapshot of a single comment on the fetched issue.
type IssueComment struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// PRSolution is the generated pull request content.
type PRSolution struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
}

// IssueSolution is one issue-solving attempt. Rows are owned by a chat session
// and removed only when that session is deleted.
type IssueSolution struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	SessionID string `gorm:"size:36;not null;index:idx_issue_session_created,priority:1" json:"session_id"`
	IssueURL  string `gorm:"size:512;not null" json:"issue_url"`

	IssueNumber   int                               `json:"issue_number"`
	IssueState    string                            `gorm:"size:32" json:"issue_state"`
	IssueTitle    string                            `gorm:"type:text" json:"issue_title"`
	IssueBody     string                            `gorm:"type:text" json:"issue_body"`
	IssueLabels   datatypes.JSONSlice[string]       `json:"issue_labels"`
	IssueComments datatypes.JSONSlice[IssueComment] `json:"issue_comments"`

	Explanation  string                          `gorm:"type:text" json:"explanation"`
	SolutionPlan *string                         `gorm:"type:text" json:"solution_plan"`
	GitDiff      *string                         `gorm:"type:text" json:"git_diff"`
	PRSolution   datatypes.JSONType[*PRSolution] `gorm:"column:pr_solution" json:"pr_solution"`

	CurrentStep SolutionStep   `gorm:"size:32;not null;index" json:"current_step"`
	Status      SolutionStatus `gorm:"size:32;not null;default:in_progress" json:"status"`
	Language    string         `gorm:"size:16;not null;default:en" json:"language"`

	CreatedAt time.Time `gorm:"not null;index:idx_issue_session_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Session *ChatSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (IssueSolution) TableName() string { return "issue_solutions" }

// PR returns the stored pull request content, or nil if none was generated.
func (s *IssueSolution) PR() *PRSolution {
	if s == nil {
		return nil
	}
	return s.PRSolution.Data()
}
