package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign_agent/internal/oracle/oracletest"
)

func TestFilePersisterMissingFile(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "nope.yaml"))
	snap, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFilePersisterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "campaign.yaml")
	p := NewFilePersister(path)

	last := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	in := Snapshot{
		LongTermMemory:   "## Characters Met\n- Elara, the innkeeper\n",
		ShortTermMemory:  []string{"We leave at dawn.", "A raven follows us: \"caw\""},
		CompressionCount: 3,
		LastCompression:  &last,
	}
	require.NoError(t, p.Save(context.Background(), in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "long_term_memory:")
	assert.Contains(t, string(raw), "compression_count: 3")

	out, err := p.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.LongTermMemory, out.LongTermMemory)
	assert.Equal(t, in.ShortTermMemory, out.ShortTermMemory)
	assert.Equal(t, in.CompressionCount, out.CompressionCount)
	require.NotNil(t, out.LastCompression)
	assert.True(t, last.Equal(*out.LastCompression))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFilePersisterNilLastCompression(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "c.yaml"))
	require.NoError(t, p.Save(context.Background(), Snapshot{ShortTermMemory: []string{"a"}}))
	out, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out.LastCompression)
}

func TestFilePersisterCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("long_term_memory: [unterminated"), 0o644))
	_, err := NewFilePersister(path).Load(context.Background())
	assert.Error(t, err)
}

func TestStoreSurvivesRestartWithFilePersister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	f := &oracletest.Fake{}

	s, err := Open(context.Background(), Config{}, Deps{Merger: f, Persister: NewFilePersister(path), Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	addEvents(t, s, 5)
	_, err = s.Compress(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.AddEvent(context.Background(), "after"))
	before := s.Snapshot()

	reopened, err := Open(context.Background(), Config{}, Deps{Merger: f, Persister: NewFilePersister(path)})
	require.NoError(t, err)
	after := reopened.Snapshot()

	assert.Equal(t, before.LongTermMemory, after.LongTermMemory)
	assert.Equal(t, before.ShortTermMemory, after.ShortTermMemory)
	assert.Equal(t, before.CompressionCount, after.CompressionCount)
	require.NotNil(t, after.LastCompression)
	assert.True(t, before.LastCompression.Equal(*after.LastCompression))
	assert.Equal(t, s.FullContext(), reopened.FullContext())
}
