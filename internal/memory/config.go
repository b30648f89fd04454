package memory

import (
	"time"

	"campaign_agent/internal/events"
	"campaign_agent/internal/oracle"
	"campaign_agent/internal/policy"
	"campaign_agent/pkg/logger"
)

// Config holds the store's tunables.
type Config struct {
	// CampaignID tags emitted events and metrics.
	CampaignID string

	// TailSize is the number of most recent events kept after a compression.
	// Default: DefaultTailSize. Set to 0 or negative to use default.
	TailSize int

	// OracleTimeout bounds each merge and cutoff request. Zero disables it.
	OracleTimeout time.Duration
}

func (c Config) GetTailSize() int {
	if c.TailSize <= 0 {
		return DefaultTailSize
	}
	return c.TailSize
}

// Deps are the store's collaborators. Only Merger is required.
type Deps struct {
	Merger oracle.MemoryMerger

	// Advisor drives MaybeCompress.
	Advisor *policy.Advisor

	// Persister defaults to NopPersister.
	Persister Persister

	// Emitter defaults to events.NopEmitter.
	Emitter events.Emitter

	Metrics *logger.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}
