// Package chunker packs ordered records into token-budgeted chunks.
package chunker

import "campaign_agent/internal/tokens"

// DefaultMaxTokens is the per-chunk budget used when callers pass <= 0.
const DefaultMaxTokens = 1500

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Record is one role-tagged message.
type Record struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chunk greedily packs records into consecutive chunks whose estimated
// content tokens stay within maxTokens. A record that alone exceeds the
// budget occupies a chunk by itself. Order is preserved and concatenating the
// chunks yields the input. Empty input yields a single empty chunk.
func Chunk(records []Record, maxTokens int, est tokens.Estimator) [][]Record {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if est == nil {
		est = tokens.CharEstimator{}
	}

	chunks := [][]Record{{}}
	total := 0
	for _, r := range records {
		n := est.Estimate(r.Content)
		cur := chunks[len(chunks)-1]
		if total+n > maxTokens && len(cur) > 0 {
			chunks = append(chunks, []Record{})
			total = 0
		}
		chunks[len(chunks)-1] = append(chunks[len(chunks)-1], r)
		total += n
	}
	return chunks
}

// Tokens sums the estimated content tokens of records.
func Tokens(records []Record, est tokens.Estimator) int {
	if est == nil {
		est = tokens.CharEstimator{}
	}
	total := 0
	for _, r := range records {
		total += est.Estimate(r.Content)
	}
	return total
}
