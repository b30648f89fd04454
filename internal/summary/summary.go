/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"campaign_agent/internal/chunker"
	"campaign_agent/internal/events"
	"campaign_agent/internal/oracle"
	"campaign_agent/internal/tokens"
	"campaign_agent/pkg/logger"
)

// RoleSummary tags records that carry a previous pass's summary.
const RoleSummary = chunker.RoleSystem

type Summarizer struct {
	oracle      oracle.ChunkSummarizer
	est         tokens.Estimator
	chunkTokens int
	maxDepth    int
	metrics     *logger.Metrics
	emitter     events.Emitter
}

func New(cfg *Config) (*Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Summarizer{
		oracle:      cfg.Summarizer,
		est:         cfg.GetEstimator(),
		chunkTokens: cfg.GetChunkTokens(),
		maxDepth:    cfg.GetMaxDepth(),
		metrics:     cfg.Metrics,
		emitter:     cfg.GetEmitter(),
	}, nil
}

// Reduce summarizes records into one string. Any oracle failure aborts the
// whole reduction.
func (s *Summarizer) Reduce(ctx context.Context, records []chunker.Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	timer := logger.NewTimer()
	out, err := s.reduce(ctx, records, 1)
	if err != nil {
		s.metrics.Emit(ctx, logger.MetricsEvent{
			LogType:    logger.LTReduceError,
			Phase:      logger.PhaseReduce,
			Event:      "error",
			DurationMs: timer.ElapsedMs(),
			Error:      err.Error(),
		})
		s.emitter.Emit(events.NewEvent(events.TypeError, "", events.ErrorData{
			Phase:   logger.PhaseReduce,
			Message: err.Error(),
		}))
		return "", err
	}
	s.emitter.Emit(events.NewEvent(events.TypeReduced, "", events.ReducedData{
		Records:    len(records),
		SummaryLen: len(out),
		DurationMs: timer.ElapsedMs(),
	}))
	return out, nil
}

func (s *Summarizer) reduce(ctx context.Context, records []chunker.Record, depth int) (string, error) {
	if depth > s.maxDepth {
		return "", fmt.Errorf("%w: exceeded %d passes with %d records left", ErrNotConverging, s.maxDepth, len(records))
	}
	chunks := chunker.Chunk(records, s.chunkTokens, s.est)

	timer := logger.NewTimer()
	summaries := make([]string, 0, len(chunks))
	for i, c := range chunks {
		sum, err := s.oracle.SummarizeChunk(ctx, c)
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d at pass %d: %w", i+1, len(chunks), depth, err)
		}
		summaries = append(summaries, sum)
	}
	logger.Debugf("[summary] pass %d: %d records -> %d summaries", depth, len(records), len(summaries))
	s.metrics.Emit(ctx, logger.MetricsEvent{
		LogType:    logger.LTReducePass,
		Phase:      logger.PhaseReduce,
		Event:      "pass",
		Depth:      depth,
		Chunks:     len(chunks),
		DurationMs: timer.ElapsedMs(),
	})

	if len(summaries) == 1 {
		return summaries[0], nil
	}

	next := make([]chunker.Record, len(summaries))
	for i, sum := range summaries {
		next[i] = chunker.Record{Role: RoleSummary, Content: sum}
	}
	in, out := chunker.Tokens(records, s.est), chunker.Tokens(next, s.est)
	if out >= in {
		return "", fmt.Errorf("%w: pass %d summaries hold %d tokens, input held %d", ErrNotConverging, depth, out, in)
	}
	return s.reduce(ctx, next, depth+1)
}

// CompressHistory condenses an agent's chat history into a memory string.
func (s *Summarizer) CompressHistory(ctx context.Context, history []*schema.Message) (string, error) {
	return s.Reduce(ctx, FromMessages(history))
}

// FromMessages converts chat messages into records, flattening tool calls
// and multi-part text into the record content. Messages with no text are
// dropped.
func FromMessages(msgs []*schema.Message) []chunker.Record {
	out := make([]chunker.Record, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		content := renderContent(m)
		if content == "" {
			continue
		}
		role := string(m.Role)
		if m.Role == schema.Tool && m.ToolName != "" {
			role = "tool:" + m.ToolName
		}
		out = append(out, chunker.Record{Role: role, Content: content})
	}
	return out
}

func renderContent(m *schema.Message) string {
	var sb strings.Builder
	if m.Content != "" {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	if m.Role == schema.Assistant {
		for _, tc := range m.ToolCalls {
			if tc.Function.Name != "" {
				sb.WriteString("tool_call: ")
				sb.WriteString(tc.Function.Name)
				sb.WriteString("\n")
			}
			if tc.Function.Arguments != "" {
				sb.WriteString("args: ")
				sb.WriteString(tc.Function.Arguments)
				sb.WriteString("\n")
			}
		}
	}
	for _, part := range m.UserInputMultiContent {
		if part.Type == schema.ChatMessagePartTypeText && part.Text != "" {
			sb.WriteString(part.Text)
			sb.WriteString("\n")
		}
	}
	for _, part := range m.AssistantGenMultiContent {
		if part.Type == schema.ChatMessagePartTypeText && part.Text != "" {
			sb.WriteString(part.Text)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

var (
	// ErrConfigNil is returned when the config is nil.
	ErrConfigNil = errors.New("config is nil")

	// ErrSummarizerRequired is returned when no chunk summarizer is configured.
	ErrSummarizerRequired = errors.New("summarizer is required in config")

	// ErrNotConverging is returned when repeated passes stop shrinking the input.
	ErrNotConverging = errors.New("hierarchical summary is not converging")
)
