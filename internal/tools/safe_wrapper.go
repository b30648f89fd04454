package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"campaign_agent/pkg/logger"
)

// SafeToolWrapper wraps any InvokableTool so that errors and panics from
// InvokableRun are returned as string results instead of Go errors. A
// narrative agent loop then sees a recoverable message rather than aborting
// the turn.
type SafeToolWrapper struct {
	inner tool.InvokableTool
}

// WrapToolSafe wraps a tool so its invocation errors become string results.
func WrapToolSafe(t tool.InvokableTool) tool.InvokableTool {
	return &SafeToolWrapper{inner: t}
}

func (w *SafeToolWrapper) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return w.inner.Info(ctx)
}

func (w *SafeToolWrapper) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[tools] tool panicked: %v", r)
			result, err = fmt.Sprintf("[Tool Error] %v", r), nil
		}
	}()
	result, err = w.inner.InvokableRun(ctx, argumentsInJSON, opts...)
	if err != nil {
		logger.Warnf("[tools] tool returned error: %v", err)
		return fmt.Sprintf("[Tool Error] %s", err.Error()), nil
	}
	return result, nil
}
