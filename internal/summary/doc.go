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

// Package summary reduces an arbitrarily long list of records to a single
// summary string by repeated chunk-and-summarize passes.
//
// Overview:
//
// A record list that does not fit in a prompt is split by the chunker into
// token-budgeted chunks. Each chunk is summarized by the oracle. If more
// than one summary comes back, the summaries themselves become records
// (role "system") and the process repeats until one summary remains.
//
// Termination:
//
// The summaries of every pass must carry strictly fewer estimated tokens
// than the records that pass consumed, and the number of passes is capped
// by Config.MaxDepth. A summarizer that does not shrink its input therefore
// yields ErrNotConverging instead of recursing forever.
//
// Basic Usage:
//
//	s, err := summary.New(&summary.Config{
//		Summarizer: chatOracle,
//		Estimator:  tokens.NewWithFallback(tokens.DefaultEncoding),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	text, err := s.Reduce(ctx, records)
//
// Degenerate input:
//
//	Reduce(ctx, nil) returns "" without calling the oracle.
//	A single oversized record is summarized on its own in one call.
package summary
