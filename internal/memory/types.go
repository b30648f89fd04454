package memory

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultTailSize = 3

	// NoRecentEvents renders in place of an empty short-term log.
	NoRecentEvents = "No recent events."
	// CampaignJustStarted is the player summary before the first compression.
	CampaignJustStarted = "Campaign just started - no major events yet."
)

var (
	ErrMergerRequired  = errors.New("memory merger is required")
	ErrAdvisorRequired = errors.New("cutoff advisor is required for periodic compression")
	ErrPersist         = errors.New("persist memory snapshot")
)

// Snapshot is the serializable form of a Store. Field names match the
// campaign save format.
type Snapshot struct {
	LongTermMemory   string     `json:"long_term_memory" yaml:"long_term_memory"`
	ShortTermMemory  []string   `json:"short_term_memory" yaml:"short_term_memory"`
	CompressionCount int        `json:"compression_count" yaml:"compression_count"`
	LastCompression  *time.Time `json:"last_compression" yaml:"last_compression"`
}

// Persister stores and retrieves snapshots. Load returns (nil, nil) when no
// snapshot has been saved yet.
type Persister interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// CompressionRecorder is an optional Persister extension that keeps a
// history of completed compressions.
type CompressionRecorder interface {
	RecordCompression(ctx context.Context, count int, sessionSummary string) error
}

// NopPersister keeps nothing. Load always reports an absent snapshot.
type NopPersister struct{}

func (NopPersister) Save(context.Context, Snapshot) error    { return nil }
func (NopPersister) Load(context.Context) (*Snapshot, error) { return nil, nil }
