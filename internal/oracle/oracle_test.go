package oracle

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign_agent/internal/chunker"
	"campaign_agent/pkg/logger"
)

// fakeChatModel replays scripted replies. errs[i], when set, fails call i.
type fakeChatModel struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	block   bool
	calls   [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, input)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[min(i, len(f.replies)-1)]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) lastUser(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	msgs := f.calls[len(f.calls)-1]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	return msgs[1].Content
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newOracle(t *testing.T, m *fakeChatModel, mutate ...func(*Config)) *ChatOracle {
	t.Helper()
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(nil) })

	cfg := &Config{Model: m, RetryInterval: time.Millisecond}
	for _, fn := range mutate {
		fn(cfg)
	}
	o, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return o
}

func TestConfigValidate(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, ErrConfigNil)

	_, err = New(context.Background(), &Config{})
	assert.ErrorIs(t, err, ErrModelRequired)

	cfg := &Config{Retries: -1}
	assert.Equal(t, DefaultRetries, cfg.GetRetries())
	assert.Equal(t, DefaultRetryInterval, cfg.GetRetryInterval())
}

func TestDecideCutoff(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  CutoffDecision
	}{
		{"plain", `{"reason":"they left the village","should_compress":true}`, CutoffDecision{"they left the village", true}},
		{"fenced", "```json\n{\"reason\":\"mid-fight\",\"should_compress\":false}\n```", CutoffDecision{"mid-fight", false}},
		{"quoted bool", `Here you go: {"reason":"long rest","should_compress":"true"}`, CutoffDecision{"long rest", true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeChatModel{replies: []string{tt.reply}}
			o := newOracle(t, m)

			got, err := o.DecideCutoff(context.Background(), []string{"event one", "event two"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			user := m.lastUser(t)
			assert.Contains(t, user, "event one\nevent two")
			assert.Contains(t, user, "natural narrative break")
		})
	}
}

func TestDecideCutoffMalformed(t *testing.T) {
	m := &fakeChatModel{replies: []string{`{"reason":"no verdict"}`}}
	o := newOracle(t, m)

	_, err := o.DecideCutoff(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 1, m.callCount())
}

func TestDecodeStructured(t *testing.T) {
	v, err := compileValidators()
	require.NoError(t, err)

	var ok cutoffReply
	require.NoError(t, decodeStructured("```json\n{\"reason\":\"scene over\",\"should_compress\":true,\"score\":0.75}\n```", v.cutoff, &ok))
	assert.Equal(t, "scene over", ok.Reason.String())
	assert.True(t, bool(ok.ShouldCompress))

	tests := []string{
		`{"reason":"x","should_compress":1}`,
		`{"reason":"x"}`,
		`{"reason":"x","should_compress":true`,
	}
	for _, reply := range tests {
		var got cutoffReply
		assert.ErrorIs(t, decodeStructured(reply, v.cutoff, &got), ErrMalformedResponse, reply)
	}
}

func TestSummarizeChunk(t *testing.T) {
	m := &fakeChatModel{replies: []string{"  The party met Elara at the inn.  "}}
	o := newOracle(t, m)

	got, err := o.SummarizeChunk(context.Background(), []chunker.Record{
		{Role: chunker.RoleUser, Content: "We enter the inn."},
		{Role: chunker.RoleAssistant, Content: "Elara waves you over."},
	})
	require.NoError(t, err)
	assert.Equal(t, "The party met Elara at the inn.", got)

	user := m.lastUser(t)
	assert.Contains(t, user, "third-person prose")
	assert.Contains(t, user, "[user]\nWe enter the inn.")
	assert.Contains(t, user, "[assistant]\nElara waves you over.")
}

func TestSummarizeChunkEmptyReply(t *testing.T) {
	o := newOracle(t, &fakeChatModel{replies: []string{"   "}})
	_, err := o.SummarizeChunk(context.Background(), []chunker.Record{{Role: "user", Content: "x"}})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestMergeMemory(t *testing.T) {
	m := &fakeChatModel{replies: []string{`{"compressed_long_term":"## Story Progression\nThe heroes reached Waterdeep.","session_summary":["Travelled north","Arrived"]}`}}
	o := newOracle(t, m)

	got, err := o.MergeMemory(context.Background(), "## Characters Met\nElara", []string{"We ride north", "We arrive"})
	require.NoError(t, err)
	assert.Equal(t, "## Story Progression\nThe heroes reached Waterdeep.", got.CompressedLongTerm)
	assert.Equal(t, "Travelled north\nArrived", got.SessionSummary)

	user := m.lastUser(t)
	assert.Contains(t, user, "CURRENT LONG-TERM MEMORY:\n## Characters Met\nElara")
	assert.Contains(t, user, "We ride north\nWe arrive")
}

func TestMergeMemoryRejectsBlankLongTerm(t *testing.T) {
	tests := map[string]error{
		`{"compressed_long_term":"","session_summary":"x"}`:    ErrMalformedResponse,
		`{"compressed_long_term":"   ","session_summary":"x"}`: ErrEmptyResponse,
		`{"session_summary":"x"}`:                              ErrMalformedResponse,
		`not json at all`:                                      ErrMalformedResponse,
	}
	for reply, want := range tests {
		o := newOracle(t, &fakeChatModel{replies: []string{reply}})
		_, err := o.MergeMemory(context.Background(), "", []string{"a"})
		assert.ErrorIs(t, err, want, reply)
	}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	m := &fakeChatModel{
		errs:    []error{errors.New("503 upstream")},
		replies: []string{`{"reason":"ok","should_compress":true}`},
	}
	o := newOracle(t, m, func(c *Config) { c.Retries = 2 })

	got, err := o.DecideCutoff(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.True(t, got.ShouldCompress)
	assert.Equal(t, 2, m.callCount())
}

func TestRetryExhausted(t *testing.T) {
	boom := errors.New("still down")
	m := &fakeChatModel{errs: []error{boom, boom, boom}}
	o := newOracle(t, m, func(c *Config) { c.Retries = 1 })

	_, err := o.SummarizeChunk(context.Background(), []chunker.Record{{Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still down")
	assert.Equal(t, 2, m.callCount())
}

func TestTimeout(t *testing.T) {
	m := &fakeChatModel{block: true}
	o := newOracle(t, m, func(c *Config) { c.Timeout = 20 * time.Millisecond })

	start := time.Now()
	_, err := o.MergeMemory(context.Background(), "", []string{"a"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCallbacksAttached(t *testing.T) {
	var mu sync.Mutex
	var names []string
	h := callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
			mu.Lock()
			names = append(names, info.Name)
			mu.Unlock()
			return ctx
		}).Build()

	m := &fakeChatModel{replies: []string{"summary"}}
	o := newOracle(t, m, func(c *Config) { c.Callbacks = []callbacks.Handler{h, &logger.OracleCallback{}} })

	_, err := o.SummarizeChunk(context.Background(), []chunker.Record{{Content: "x"}})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, names, GraphChunkSummary)
}

func TestRenderTranscriptDefaultsRole(t *testing.T) {
	got := renderTranscript([]chunker.Record{{Content: "a"}, {Role: "system", Content: "b"}})
	assert.Equal(t, "[user]\na\n\n[system]\nb", got)
	assert.True(t, strings.HasPrefix(got, "[user]"))
}
