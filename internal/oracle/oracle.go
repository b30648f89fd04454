// Package oracle is the boundary to the generative-text service. Every
// request is synchronous and either returns a usable answer or an error;
// callers never see a partially parsed result.
package oracle

import (
	"context"
	"errors"

	"campaign_agent/internal/chunker"
)

var (
	// ErrConfigNil is returned when the config is nil.
	ErrConfigNil = errors.New("config is nil")

	// ErrModelRequired is returned when the model is not provided in config.
	ErrModelRequired = errors.New("model is required in config")

	// ErrEmptyResponse is returned when the model answers with no usable content.
	ErrEmptyResponse = errors.New("oracle returned an empty response")

	// ErrMalformedResponse is returned when a structured answer fails to parse or validate.
	ErrMalformedResponse = errors.New("oracle returned a malformed response")
)

// CutoffDecision is the oracle's verdict on whether recent events form a
// self-contained session.
type CutoffDecision struct {
	Reason         string `json:"reason"`
	ShouldCompress bool   `json:"should_compress"`
}

// Compression is the result of merging short-term events into long-term memory.
type Compression struct {
	CompressedLongTerm string `json:"compressed_long_term"`
	SessionSummary     string `json:"session_summary"`
}

type CutoffDecider interface {
	DecideCutoff(ctx context.Context, events []string) (CutoffDecision, error)
}

type ChunkSummarizer interface {
	SummarizeChunk(ctx context.Context, records []chunker.Record) (string, error)
}

type MemoryMerger interface {
	MergeMemory(ctx context.Context, longTerm string, shortTerm []string) (Compression, error)
}

// Oracle bundles the three request shapes.
type Oracle interface {
	CutoffDecider
	ChunkSummarizer
	MemoryMerger
}
