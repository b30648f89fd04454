// Package memory holds a campaign's two-tier memory: a short-term log of
// recent events and a long-term markdown document that compression folds
// them into.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"campaign_agent/internal/events"
	"campaign_agent/internal/oracle"
	"campaign_agent/internal/policy"
	"campaign_agent/pkg/logger"
)

// Store is safe for concurrent use. Every mutation holds the lock through
// the oracle call and the persistence write, so events and compressions are
// applied strictly in call order.
type Store struct {
	mu sync.Mutex

	longTerm         string
	shortTerm        []string
	compressionCount int
	lastCompression  *time.Time

	cfg       Config
	merger    oracle.MemoryMerger
	advisor   *policy.Advisor
	persister Persister
	emitter   events.Emitter
	metrics   *logger.Metrics
	now       func() time.Time
}

// New returns an empty store.
func New(cfg Config, deps Deps) (*Store, error) {
	if deps.Merger == nil {
		return nil, ErrMergerRequired
	}
	s := &Store{
		cfg:       cfg,
		merger:    deps.Merger,
		advisor:   deps.Advisor,
		persister: deps.Persister,
		emitter:   deps.Emitter,
		metrics:   deps.Metrics.ForCampaign(cfg.CampaignID),
		now:       deps.Now,
	}
	if s.persister == nil {
		s.persister = NopPersister{}
	}
	if s.emitter == nil {
		s.emitter = events.NopEmitter{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Open returns a store restored from the persister's snapshot, or an empty
// store when none has been saved.
func Open(ctx context.Context, cfg Config, deps Deps) (*Store, error) {
	s, err := New(cfg, deps)
	if err != nil {
		return nil, err
	}
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load memory snapshot: %w", err)
	}
	if snap != nil {
		s.restore(*snap)
		logger.Infof("[memory] restored campaign %q: %d short-term events, %d compressions",
			cfg.CampaignID, len(s.shortTerm), s.compressionCount)
	}
	return s, nil
}

func (s *Store) restore(snap Snapshot) {
	s.longTerm = snap.LongTermMemory
	s.shortTerm = append([]string(nil), snap.ShortTermMemory...)
	s.compressionCount = snap.CompressionCount
	s.lastCompression = nil
	if snap.LastCompression != nil {
		t := *snap.LastCompression
		s.lastCompression = &t
	}
}

// AddEvent appends the trimmed text to short-term memory and persists.
// Blank text is ignored. A persistence error is returned but the event
// stays in memory; Save retries the write.
func (s *Store) AddEvent(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.shortTerm = append(s.shortTerm, text)
	s.emitter.Emit(events.NewEvent(events.TypeEventAdded, s.cfg.CampaignID, events.EventAddedData{
		Content:   text,
		ShortTerm: len(s.shortTerm),
	}))
	return s.persistLocked(ctx)
}

// Save writes the current snapshot without touching the oracle.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.persister.Save(ctx, s.snapshotLocked()); err != nil {
		logger.Errorf("[memory] snapshot write failed for campaign %q: %v", s.cfg.CampaignID, err)
		s.metrics.Emit(ctx, logger.MetricsEvent{
			LogType:   logger.LTPersistError,
			Phase:     logger.PhasePersist,
			Event:     "error",
			ShortTerm: len(s.shortTerm),
			Error:     err.Error(),
		})
		s.emitter.Emit(events.NewEvent(events.TypePersistFailed, s.cfg.CampaignID, events.ErrorData{
			Phase:   logger.PhasePersist,
			Message: err.Error(),
		}))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// FullContext renders the memory document handed to the narrative agent.
func (s *Store) FullContext() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := NoRecentEvents
	if len(s.shortTerm) > 0 {
		recent = strings.Join(s.shortTerm, "\n")
	}

	var sb strings.Builder
	sb.WriteString("# CAMPAIGN MEMORY\n\n")
	if s.longTerm != "" {
		sb.WriteString("## Long-term Memory\n")
		sb.WriteString(s.longTerm)
		sb.WriteString("\n\n")
	}
	sb.WriteString("## Recent Events\n")
	sb.WriteString(recent)
	sb.WriteString("\n")
	return sb.String()
}

// PlayerSummary is what the players know: the long-term document, or a
// placeholder before the first compression.
func (s *Store) PlayerSummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.longTerm == "" {
		return CampaignJustStarted
	}
	return s.longTerm
}

func (s *Store) LongTerm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.longTerm
}

// ShortTerm returns a copy of the short-term log, oldest first.
func (s *Store) ShortTerm() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shortTerm...)
}

func (s *Store) CompressionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compressionCount
}

// LastCompression returns nil before the first compression.
func (s *Store) LastCompression() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCompression == nil {
		return nil
	}
	t := *s.lastCompression
	return &t
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		LongTermMemory:   s.longTerm,
		ShortTermMemory:  make([]string, len(s.shortTerm)),
		CompressionCount: s.compressionCount,
	}
	copy(snap.ShortTermMemory, s.shortTerm)
	if s.lastCompression != nil {
		t := *s.lastCompression
		snap.LastCompression = &t
	}
	return snap
}
