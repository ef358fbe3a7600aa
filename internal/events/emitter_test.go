package events

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCustomEmitter_FillsSessionFromContext(t *testing.T) {
	t.Cleanup(func() { SetCustomEmitter(nil) })

	var got []StepEvent
	SetCustomEmitter(func(_ context.Context, name string, evt StepEvent) {
		assert.Equal(t, IssueEventStep, name)
		got = append(got, evt)
	})

	ctx := WithSession(context.Background(), "session-1")
	Emit(ctx, IssueEventStep, NewInfo("issue-1", "explaining", "issue fetched"))

	require.Len(t, got, 1)
	assert.Equal(t, "session-1", got[0].SessionKey)
	assert.Equal(t, "issue-1", got[0].IssueID)
	assert.Equal(t, EventInfo, got[0].Type)
	assert.NotEmpty(t, got[0].ID)
}

func TestWithSession_IgnoresBlankKey(t *testing.T) {
	ctx := WithSession(context.Background(), "  ")
	assert.Empty(t, SessionFromContext(ctx))
}

func TestEnableLogEmitter_WritesStructuredLine(t *testing.T) {
	t.Cleanup(func() { SetCustomEmitter(nil) })

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	EnableLogEmitter(logger)

	Emit(context.Background(), IssueEventError, NewError("issue-9", "fetching", "fetch failed"))

	out := buf.String()
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "issue=issue-9")
	assert.Contains(t, out, "step=fetching")
}
