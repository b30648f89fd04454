package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"campaign_agent/internal/events"
	"campaign_agent/internal/memory"
)

// Session binds one campaign to the store. It is the memory.Persister for
// that campaign's memory.Store.
type Session struct {
	Campaign Campaign
	store    *Store
	emitter  events.Emitter
}

var (
	_ memory.Persister           = (*Session)(nil)
	_ memory.CompressionRecorder = (*Session)(nil)
)

// NewSession creates a new campaign and persists it to the store.
func NewSession(ctx context.Context, store *Store, emitter events.Emitter, name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled campaign"
	}
	id := uuid.NewString()
	if err := store.CreateCampaign(ctx, id, name); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	c, err := store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	emitter.Emit(events.NewEvent(events.TypeInfo, id, events.InfoData{Message: "campaign created: " + name}))
	return &Session{Campaign: *c, store: store, emitter: emitter}, nil
}

// ResumeSession loads an existing campaign from the store.
func ResumeSession(ctx context.Context, store *Store, emitter events.Emitter, campaignID string) (*Session, error) {
	c, err := store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &Session{Campaign: *c, store: store, emitter: emitter}, nil
}

func (s *Session) ID() string {
	return s.Campaign.ID
}

func (s *Session) Save(ctx context.Context, snap memory.Snapshot) error {
	return s.store.SaveSnapshot(ctx, s.Campaign.ID, snap)
}

func (s *Session) Load(ctx context.Context) (*memory.Snapshot, error) {
	return s.store.LoadSnapshot(ctx, s.Campaign.ID)
}

func (s *Session) RecordCompression(ctx context.Context, count int, sessionSummary string) error {
	_, err := s.store.RecordCompression(ctx, s.Campaign.ID, count, sessionSummary)
	return err
}

// Compressions returns the campaign's compression history.
func (s *Session) Compressions(ctx context.Context) ([]CompressionRecord, error) {
	return s.store.ListCompressions(ctx, s.Campaign.ID)
}
