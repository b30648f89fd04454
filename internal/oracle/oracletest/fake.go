// Package oracletest provides a scriptable in-memory oracle for tests.
package oracletest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"campaign_agent/internal/chunker"
	"campaign_agent/internal/oracle"
)

var ErrScripted = errors.New("scripted oracle failure")

// Fake implements oracle.Oracle. Zero value answers every request:
// cutoff says no, chunk summaries are "summary(<n> records)", and merges
// append the events to the long-term text.
type Fake struct {
	mu sync.Mutex

	Decision    oracle.CutoffDecision
	DecisionErr error

	// SummarizeFn overrides the default chunk summary.
	SummarizeFn func(records []chunker.Record) (string, error)

	// MergeFn overrides the default merge.
	MergeFn  func(longTerm string, shortTerm []string) (oracle.Compression, error)
	MergeErr error

	CutoffCalls    [][]string
	SummarizeCalls [][]chunker.Record
	MergeCalls     []MergeCall
}

type MergeCall struct {
	LongTerm  string
	ShortTerm []string
}

var _ oracle.Oracle = (*Fake)(nil)

func (f *Fake) DecideCutoff(_ context.Context, events []string) (oracle.CutoffDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CutoffCalls = append(f.CutoffCalls, append([]string(nil), events...))
	if f.DecisionErr != nil {
		return oracle.CutoffDecision{}, f.DecisionErr
	}
	return f.Decision, nil
}

func (f *Fake) SummarizeChunk(ctx context.Context, records []chunker.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.SummarizeCalls = append(f.SummarizeCalls, append([]chunker.Record(nil), records...))
	if f.SummarizeFn != nil {
		return f.SummarizeFn(records)
	}
	return fmt.Sprintf("summary(%d records)", len(records)), nil
}

func (f *Fake) MergeMemory(ctx context.Context, longTerm string, shortTerm []string) (oracle.Compression, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MergeCalls = append(f.MergeCalls, MergeCall{LongTerm: longTerm, ShortTerm: append([]string(nil), shortTerm...)})
	if err := ctx.Err(); err != nil {
		return oracle.Compression{}, err
	}
	if f.MergeErr != nil {
		return oracle.Compression{}, f.MergeErr
	}
	if f.MergeFn != nil {
		return f.MergeFn(longTerm, shortTerm)
	}
	merged := strings.TrimSpace(longTerm + "\n" + strings.Join(shortTerm, "\n"))
	return oracle.Compression{
		CompressedLongTerm: merged,
		SessionSummary:     fmt.Sprintf("%d events merged", len(shortTerm)),
	}, nil
}

// Calls returns how many requests of each shape were made.
func (f *Fake) Calls() (cutoff, summarize, merge int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.CutoffCalls), len(f.SummarizeCalls), len(f.MergeCalls)
}
