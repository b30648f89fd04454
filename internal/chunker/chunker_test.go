package chunker

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign_agent/internal/tokens"
)

func rec(n int) Record {
	return Record{Role: RoleUser, Content: strings.Repeat("a", n)}
}

func flatten(chunks [][]Record) []Record {
	var out []Record
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func TestChunkEmptyInput(t *testing.T) {
	chunks := Chunk(nil, 100, tokens.CharEstimator{})
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0])
}

func TestChunkPacksGreedily(t *testing.T) {
	// 40 chars -> 10 tokens each
	records := []Record{rec(40), rec(40), rec(40), rec(40), rec(40)}
	chunks := Chunk(records, 25, tokens.CharEstimator{})

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)
}

func TestChunkOversizedRecordSitsAlone(t *testing.T) {
	big := rec(4000) // 1000 tokens
	records := []Record{rec(40), big, rec(40)}
	chunks := Chunk(records, 100, tokens.CharEstimator{})

	require.Len(t, chunks, 3)
	assert.Equal(t, []Record{big}, chunks[1])
	assert.Equal(t, records, flatten(chunks))
}

func TestChunkOversizedFirstRecord(t *testing.T) {
	big := rec(4000)
	chunks := Chunk([]Record{big}, 100, tokens.CharEstimator{})
	require.Len(t, chunks, 1)
	assert.Equal(t, []Record{big}, chunks[0])
}

func TestChunkDefaultBudget(t *testing.T) {
	records := []Record{rec(4 * 1200), rec(4 * 400), rec(4 * 200)}
	chunks := Chunk(records, 0, nil)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 1)
	assert.Len(t, chunks[1], 2)
}

func TestChunkProperties(t *testing.T) {
	est := tokens.CharEstimator{}
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		budget := 10 + r.Intn(200)
		records := make([]Record, r.Intn(30))
		for j := range records {
			records[j] = Record{Role: RoleAssistant, Content: fmt.Sprintf("%d:%s", j, strings.Repeat("b", r.Intn(600)))}
		}

		chunks := Chunk(records, budget, est)
		require.NotEmpty(t, chunks)

		if len(records) == 0 {
			assert.Equal(t, [][]Record{{}}, chunks)
			continue
		}
		assert.Equal(t, records, flatten(chunks), "concatenation must reproduce input")
		for _, c := range chunks {
			require.NotEmpty(t, c)
			if len(c) > 1 {
				assert.LessOrEqual(t, Tokens(c, est), budget)
			}
		}
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, 0, Tokens(nil, nil))
	assert.Equal(t, 3, Tokens([]Record{rec(8), rec(0)}, tokens.CharEstimator{}))
}
