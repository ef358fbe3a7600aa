package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	IssueEventStep  = "event:issue:step"
	IssueEventError = "event:issue:error"
)

// StepEvent describes a workflow transition or failure on an issue solution.
type StepEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Message    string            `json:"message"`
	Timestamp  time.Time         `json:"timestamp"`
	SessionKey string            `json:"sessionKey,omitempty"`
	IssueID    string            `json:"issueId,omitempty"`
	Step       string            `json:"step,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type contextKey string

const sessionContextKey contextKey = "issuesolver/events/session"

// WithSession returns a derived context annotated with the given session key
// so event emitters can automatically scope payloads.
func WithSession(ctx context.Context, sessionKey string) context.Context {
	if strings.TrimSpace(sessionKey) == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey, sessionKey)
}

// SessionFromContext extracts the session key associated with ctx.
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(sessionContextKey).(string); ok {
		return v
	}
	return ""
}

func CreateStepEvent(eventType EventType, issueID, step, message string) StepEvent {
	return StepEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		IssueID:   issueID,
		Step:      step,
	}
}

// NewInfo creates an info StepEvent.
func NewInfo(issueID, step, message string) StepEvent {
	return CreateStepEvent(EventInfo, issueID, step, message)
}

// NewWarn creates a warn StepEvent.
func NewWarn(issueID, step, message string) StepEvent {
	return CreateStepEvent(EventWarn, issueID, step, message)
}

// NewError creates an error StepEvent.
func NewError(issueID, step, message string) StepEvent {
	return CreateStepEvent(EventError, issueID, step, message)
}

// NewSuccess creates a success StepEvent.
func NewSuccess(issueID, step, message string) StepEvent {
	return CreateStepEvent(EventSuccess, issueID, step, message)
}
