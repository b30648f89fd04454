package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPrompts(t *testing.T) {
	all, err := GetPrompts()
	require.NoError(t, err)
	for _, name := range []string{Cutoff, ChunkSummary, Merge, System} {
		assert.NotEmpty(t, all[name], name)
	}
}

func TestMergePromptListsSections(t *testing.T) {
	p, err := GetSinglePrompt(Merge)
	require.NoError(t, err)
	for _, section := range []string{
		"## Key Decisions & Actions",
		"## Characters Met",
		"## Locations Visited",
		"## Quests & Objectives",
		"## Important Information Learned",
		"## Ongoing Consequences",
		"## Story Progression",
	} {
		assert.Contains(t, p, section)
	}
	assert.Contains(t, p, "{{.long_term}}")
	assert.Contains(t, p, "{{.short_term}}")
}

func TestCutoffPromptTemplate(t *testing.T) {
	p, err := GetSinglePrompt(Cutoff)
	require.NoError(t, err)
	assert.Contains(t, p, "{{.events}}")
	assert.Contains(t, p, "should_compress")

	p, err = GetSinglePrompt(ChunkSummary)
	require.NoError(t, err)
	assert.Contains(t, p, "third-person prose")
	assert.Contains(t, p, "{{.transcript}}")
}

func TestGetSinglePromptMissing(t *testing.T) {
	_, err := GetSinglePrompt("nope")
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestGetPromptsReturnsCopy(t *testing.T) {
	a, err := GetPrompts()
	require.NoError(t, err)
	a[Merge] = "mutated"

	b, err := GetPrompts()
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b[Merge])
}
