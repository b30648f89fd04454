package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"campaign_agent/internal/chunker"
	"campaign_agent/internal/prompts"
	"campaign_agent/pkg/logger"
)

const (
	GraphCutoff       = "MemoryCutoffAdvisor"
	GraphChunkSummary = "MemoryChunkSummarizer"
	GraphMerge        = "MemoryMerger"
)

type runnable = compose.Runnable[map[string]any, *schema.Message]

// ChatOracle answers oracle requests with three compiled eino chains of the
// form ChatTemplate -> ChatModel, one per request shape.
type ChatOracle struct {
	cutoff  runnable
	summary runnable
	merge   runnable

	validators *validators
	opts       []compose.Option
	retries    int
	cfg        *Config
}

var _ Oracle = (*ChatOracle)(nil)

func New(ctx context.Context, cfg *Config) (*ChatOracle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	all, err := prompts.GetPrompts()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	system := cfg.SystemPrompt
	if system == "" {
		system = all[prompts.System]
	}

	build := func(name, userTpl string) (runnable, error) {
		tpl := prompt.FromMessages(schema.GoTemplate,
			schema.SystemMessage(system),
			schema.UserMessage(userTpl))
		r, err := compose.NewChain[map[string]any, *schema.Message]().
			AppendChatTemplate(tpl).
			AppendChatModel(cfg.Model).
			Compile(ctx, compose.WithGraphName(name))
		if err != nil {
			return nil, fmt.Errorf("compile %s failed, err=%w", name, err)
		}
		return r, nil
	}

	o := &ChatOracle{cfg: cfg, retries: cfg.GetRetries()}
	if o.cutoff, err = build(GraphCutoff, all[prompts.Cutoff]); err != nil {
		return nil, err
	}
	if o.summary, err = build(GraphChunkSummary, all[prompts.ChunkSummary]); err != nil {
		return nil, err
	}
	if o.merge, err = build(GraphMerge, all[prompts.Merge]); err != nil {
		return nil, err
	}
	if o.validators, err = compileValidators(); err != nil {
		return nil, err
	}
	if len(cfg.Callbacks) > 0 {
		o.opts = append(o.opts, compose.WithCallbacks(cfg.Callbacks...))
	}
	return o, nil
}

// invoke runs r with retries under the configured timeout and hands the
// non-empty reply to parse. A parse error counts as a failed attempt.
func (o *ChatOracle) invoke(ctx context.Context, name string, r runnable, vars map[string]any, parse func(string) error) error {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	return retry(ctx, name, o.retries, o.cfg.GetRetryInterval(), func(ctx context.Context) error {
		msg, err := r.Invoke(ctx, vars, o.opts...)
		if err != nil {
			return fmt.Errorf("%s invoke failed: %w", name, err)
		}
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			return ErrEmptyResponse
		}
		return parse(msg.Content)
	})
}

func (o *ChatOracle) DecideCutoff(ctx context.Context, events []string) (CutoffDecision, error) {
	var reply cutoffReply
	err := o.invoke(ctx, GraphCutoff, o.cutoff, map[string]any{
		"events": strings.Join(events, "\n"),
	}, func(raw string) error {
		reply = cutoffReply{}
		return decodeStructured(raw, o.validators.cutoff, &reply)
	})
	if err != nil {
		return CutoffDecision{}, err
	}
	return CutoffDecision{Reason: reply.Reason.String(), ShouldCompress: bool(reply.ShouldCompress)}, nil
}

func (o *ChatOracle) SummarizeChunk(ctx context.Context, records []chunker.Record) (string, error) {
	var out string
	err := o.invoke(ctx, GraphChunkSummary, o.summary, map[string]any{
		"transcript": renderTranscript(records),
	}, func(raw string) error {
		out = strings.TrimSpace(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (o *ChatOracle) MergeMemory(ctx context.Context, longTerm string, shortTerm []string) (Compression, error) {
	var reply mergeReply
	err := o.invoke(ctx, GraphMerge, o.merge, map[string]any{
		"long_term":  longTerm,
		"short_term": strings.Join(shortTerm, "\n"),
	}, func(raw string) error {
		reply = mergeReply{}
		if err := decodeStructured(raw, o.validators.merge, &reply); err != nil {
			return err
		}
		if strings.TrimSpace(reply.CompressedLongTerm) == "" {
			return fmt.Errorf("%w: compressed_long_term is blank", ErrEmptyResponse)
		}
		return nil
	})
	if err != nil {
		return Compression{}, err
	}
	logger.Debugf("[oracle] merge produced %d chars of long-term memory", len(reply.CompressedLongTerm))
	return Compression{
		CompressedLongTerm: strings.TrimSpace(reply.CompressedLongTerm),
		SessionSummary:     strings.TrimSpace(reply.SessionSummary.String()),
	}, nil
}

// renderTranscript lays records out one block per record, role first.
func renderTranscript(records []chunker.Record) string {
	var sb strings.Builder
	for _, r := range records {
		role := r.Role
		if role == "" {
			role = chunker.RoleUser
		}
		sb.WriteString("[")
		sb.WriteString(role)
		sb.WriteString("]\n")
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
