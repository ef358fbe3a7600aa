package events

import (
	"context"

	"github.com/charmbracelet/log"
)

var Emit = func(ctx context.Context, name string, evt StepEvent) {}

// EnableLogEmitter routes every event to logger.
func EnableLogEmitter(logger *log.Logger) {
	if logger == nil {
		SetCustomEmitter(nil)
		return
	}
	Emit = func(ctx context.Context, name string, evt StepEvent) {
		if evt.SessionKey == "" {
			evt.SessionKey = SessionFromContext(ctx)
		}
		logEvent(logger, name, evt)
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, evt StepEvent)) {
	if f == nil {
		Emit = func(context.Context, string, StepEvent) {}
		return
	}
	Emit = func(ctx context.Context, name string, evt StepEvent) {
		if evt.SessionKey == "" {
			if session := SessionFromContext(ctx); session != "" {
				evt.SessionKey = session
			}
		}
		f(ctx, name, evt)
	}
}
