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
	"campaign_agent/internal/chunker"
	"campaign_agent/internal/events"
	"campaign_agent/internal/oracle"
	"campaign_agent/internal/tokens"
	"campaign_agent/pkg/logger"
)

// Config defines parameters for hierarchical summarization.
//
// Required fields:
//   - Summarizer: the oracle that condenses one chunk
//
// Optional fields:
//   - Estimator: token estimator (default: ~4 chars/token)
//   - ChunkTokens: per-chunk budget (default: 1500)
//   - MaxDepth: pass limit (default: 16)
//   - Emitter: receives memory.reduced and error events
//   - Metrics: ES metrics sink
type Config struct {
	// Summarizer condenses one chunk into prose. Required.
	Summarizer oracle.ChunkSummarizer

	// Estimator measures record content. Optional.
	Estimator tokens.Estimator

	// ChunkTokens is the per-chunk budget used on every pass.
	//
	// Default: DefaultChunkTokens. Set to 0 or negative to use default.
	ChunkTokens int

	// MaxDepth bounds the number of summarize passes.
	//
	// Default: DefaultMaxDepth. Set to 0 or negative to use default.
	MaxDepth int

	Metrics *logger.Metrics

	// Emitter defaults to events.NopEmitter.
	Emitter events.Emitter
}

const (
	DefaultChunkTokens = chunker.DefaultMaxTokens
	DefaultMaxDepth    = 16
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.Summarizer == nil {
		return ErrSummarizerRequired
	}
	return nil
}

// GetChunkTokens returns the effective chunk budget, using default if not set.
func (c *Config) GetChunkTokens() int {
	if c.ChunkTokens <= 0 {
		return DefaultChunkTokens
	}
	return c.ChunkTokens
}

// GetMaxDepth returns the effective pass limit, using default if not set.
func (c *Config) GetMaxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

func (c *Config) GetEmitter() events.Emitter {
	if c.Emitter == nil {
		return events.NopEmitter{}
	}
	return c.Emitter
}

// GetEstimator returns the configured estimator or the char heuristic.
func (c *Config) GetEstimator() tokens.Estimator {
	if c.Estimator == nil {
		return tokens.CharEstimator{}
	}
	return c.Estimator
}
