package events

import "github.com/charmbracelet/log"

func logEvent(logger *log.Logger, name string, evt StepEvent) {
	kv := []interface{}{
		"event", name,
		"id", evt.ID,
	}
	if evt.SessionKey != "" {
		kv = append(kv, "session", evt.SessionKey)
	}
	if evt.IssueID != "" {
		kv = append(kv, "issue", evt.IssueID)
	}
	if evt.Step != "" {
		kv = append(kv, "step", evt.Step)
	}
	for k, v := range evt.Metadata {
		kv = append(kv, k, v)
	}

	switch evt.Type {
	case EventError:
		logger.Error(evt.Message, kv...)
	case EventWarn:
		logger.Warn(evt.Message, kv...)
	default:
		logger.Info(evt.Message, kv...)
	}
}
