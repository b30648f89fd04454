package logger

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v7"
)

const CallbackIndex = "campaign_oracle_calls"

// OracleCallback logs every oracle chain run and, when Es is set, ships
// the raw callback payloads.
type OracleCallback struct {
	Es *elasticsearch.Client

	// Verbose prints full prompt and reply bodies instead of previews.
	Verbose bool
}

type oracleCallRecord struct {
	Node      string `json:"node"`
	Component string `json:"component,omitempty"`
	Messages  int    `json:"messages,omitempty"`
	Content   string `json:"content,omitempty"`
	Prompt    int    `json:"prompt_tokens,omitempty"`
	Reply     int    `json:"completion_tokens,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (cb *OracleCallback) ship(ctx context.Context, logType string, rec oracleCallRecord) {
	if err := SendWrappedLog(ctx, cb.Es, CallbackIndex, logType, rec); err != nil {
		Warnf("[OracleCallback] ES write failed: %v", err)
	}
}

func (cb *OracleCallback) preview(s string) string {
	if cb.Verbose {
		return s
	}
	return truncate(strings.ReplaceAll(s, "\n", " "), 120)
}

func (cb *OracleCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	in := model.ConvCallbackInput(input)
	if in == nil {
		Debugf("[oracle] %s started", info.Name)
		return ctx
	}
	rec := oracleCallRecord{Node: info.Name, Component: string(info.Component), Messages: len(in.Messages)}
	if n := len(in.Messages); n > 0 {
		rec.Content = in.Messages[n-1].Content
		Infof("[oracle] %s <- %d messages, last=%q", info.Name, n, cb.preview(rec.Content))
	}
	cb.ship(ctx, "oracle.start", rec)
	return ctx
}

func (cb *OracleCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	out := model.ConvCallbackOutput(output)
	if out == nil || out.Message == nil {
		Debugf("[oracle] %s finished", info.Name)
		return ctx
	}
	rec := oracleCallRecord{Node: info.Name, Component: string(info.Component), Content: out.Message.Content}
	if out.TokenUsage != nil {
		rec.Prompt = out.TokenUsage.PromptTokens
		rec.Reply = out.TokenUsage.CompletionTokens
	}
	Infof("[oracle] %s -> %q (prompt=%d completion=%d)", info.Name, cb.preview(rec.Content), rec.Prompt, rec.Reply)
	cb.ship(ctx, "oracle.end", rec)
	return ctx
}

func (cb *OracleCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	Errorf("[oracle] %s failed: %v", info.Name, err)
	cb.ship(ctx, "oracle.error", oracleCallRecord{Node: info.Name, Component: string(info.Component), Error: err.Error()})
	return ctx
}

func (cb *OracleCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}

func (cb *OracleCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {

	go func() {
		defer func() {
			if err := recover(); err != nil {
				Errorf("[oracle] stream callback panic: %v", err)
			}
		}()

		defer output.Close()

		var sb strings.Builder
		for {
			frame, err := output.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				Warnf("[oracle] %s stream read failed: %v", info.Name, err)
				return
			}
			if out := model.ConvCallbackOutput(frame); out != nil && out.Message != nil {
				sb.WriteString(out.Message.Content)
			}
		}
		if sb.Len() > 0 {
			Infof("[oracle] %s streamed %q", info.Name, cb.preview(sb.String()))
		}
	}()
	return ctx
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
