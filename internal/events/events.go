package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types emitted by the memory layer.
const (
	TypeEventAdded        = "memory.event_added"
	TypeCutoffDecided     = "memory.cutoff_decided"
	TypeCompressed        = "memory.compressed"
	TypeCompressionFailed = "memory.compression_failed"
	TypePersistFailed     = "memory.persist_failed"
	TypeReduced           = "memory.reduced"

	TypeInfo  = "info"
	TypeError = "error"
)

// Event is the unified event structure sent to consumers (CLI printer, ES, ...).
// Data is a json.RawMessage so consumers can decode it based on Type.
type Event struct {
	Type       string          `json:"type"`
	CampaignID string          `json:"campaign_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent creates an Event, marshaling data to JSON. If marshaling fails, data is set to null.
func NewEvent(eventType string, campaignID string, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("null")
	}
	return Event{
		Type:       eventType,
		CampaignID: campaignID,
		Timestamp:  time.Now().UTC(),
		Data:       raw,
	}
}

// Decode unmarshals the event payload into dst.
func (e Event) Decode(dst any) error {
	return json.Unmarshal(e.Data, dst)
}

// --- Typed event data structs ---

type EventAddedData struct {
	Content   string `json:"content"`
	ShortTerm int    `json:"short_term"`
}

type CutoffDecidedData struct {
	ShouldCompress bool   `json:"should_compress"`
	Reason         string `json:"reason"`
	ShortTerm      int    `json:"short_term"`
}

type CompressedData struct {
	SessionSummary   string `json:"session_summary"`
	CompressionCount int    `json:"compression_count"`
	MergedEvents     int    `json:"merged_events"`
	KeptEvents       int    `json:"kept_events"`
	LongTermChars    int    `json:"long_term_chars"`
	DurationMs       int64  `json:"duration_ms"`
}

type ReducedData struct {
	Records    int   `json:"records"`
	SummaryLen int   `json:"summary_length"`
	DurationMs int64 `json:"duration_ms"`
}

type ErrorData struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

type InfoData struct {
	Message string `json:"message"`
}

// --- Emitter interface and channel-based implementation ---

// Emitter is the interface for publishing events.
type Emitter interface {
	Emit(event Event)
	Subscribe() <-chan Event
	Close()
}

// ChannelEmitter fans events out to buffered subscriber channels.
type ChannelEmitter struct {
	subs    []chan Event
	subSize int
	mu      sync.RWMutex
	closed  bool
}

// NewChannelEmitter creates a new emitter whose subscribers buffer bufSize events.
func NewChannelEmitter(bufSize int) *ChannelEmitter {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &ChannelEmitter{subSize: bufSize}
}

// Emit publishes an event to all subscribers. Non-blocking: drops if subscriber is full.
func (e *ChannelEmitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	for _, sub := range e.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Subscribe returns a channel that receives all events emitted after the call.
// Subscribing to a closed emitter returns a closed channel.
func (e *ChannelEmitter) Subscribe() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Event, e.subSize)
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Close closes all subscriber channels.
func (e *ChannelEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, sub := range e.subs {
		close(sub)
	}
}

// NopEmitter is a no-op emitter for when event reporting is not needed.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
func (NopEmitter) Subscribe() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}
func (NopEmitter) Close() {}
