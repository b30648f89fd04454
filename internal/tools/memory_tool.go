package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const (
	MemoryToolName      = "campaign_memory"
	RecordEventToolName = "record_memory_note"

	ViewFull   = "full"
	ViewPlayer = "player"
	ViewRecent = "recent"
)

// MemoryReader is the read side of the campaign memory.
type MemoryReader interface {
	FullContext() string
	PlayerSummary() string
	ShortTerm() []string
}

// EventRecorder is the write side of the campaign memory.
type EventRecorder interface {
	AddEvent(ctx context.Context, text string) error
}

// MemoryTool lets a narrative agent read the campaign memory.
type MemoryTool struct {
	mem MemoryReader
}

func NewMemoryTool(mem MemoryReader) *MemoryTool {
	return &MemoryTool{mem: mem}
}

func (t *MemoryTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: MemoryToolName,
		Desc: "Read the campaign memory. view=full returns long-term memory plus recent events, " +
			"view=player returns what the players know so far, view=recent returns only the recent events.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"view": {
				Type: schema.String,
				Desc: "Which part of memory to read",
				Enum: []string{ViewFull, ViewPlayer, ViewRecent},
			},
		}),
	}, nil
}

func (t *MemoryTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		View string `json:"view"`
	}
	if s := strings.TrimSpace(argumentsInJSON); s != "" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}
	switch args.View {
	case "", ViewFull:
		return t.mem.FullContext(), nil
	case ViewPlayer:
		return t.mem.PlayerSummary(), nil
	case ViewRecent:
		recent := t.mem.ShortTerm()
		if len(recent) == 0 {
			return "No recent events.", nil
		}
		return strings.Join(recent, "\n"), nil
	default:
		return "", fmt.Errorf("unknown view %q", args.View)
	}
}

// RecordEventTool lets a narrative agent append a memory note.
type RecordEventTool struct {
	mem EventRecorder
}

func NewRecordEventTool(mem EventRecorder) *RecordEventTool {
	return &RecordEventTool{mem: mem}
}

func (t *RecordEventTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: RecordEventToolName,
		Desc: "Record a fact or happening worth remembering for the rest of the campaign.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"note": {
				Type:     schema.String,
				Desc:     "One self-contained sentence describing what happened",
				Required: true,
			},
		}),
	}, nil
}

func (t *RecordEventTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Note string `json:"note"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(args.Note) == "" {
		return "", errors.New("note must not be empty")
	}
	if err := t.mem.AddEvent(ctx, args.Note); err != nil {
		return "", err
	}
	return "recorded", nil
}

// MemoryStore is satisfied by *memory.Store.
type MemoryStore interface {
	MemoryReader
	EventRecorder
}

// NewMemoryTools returns both memory tools, each wrapped with WrapToolSafe.
func NewMemoryTools(mem MemoryStore) []tool.BaseTool {
	return []tool.BaseTool{
		WrapToolSafe(NewMemoryTool(mem)),
		WrapToolSafe(NewRecordEventTool(mem)),
	}
}
