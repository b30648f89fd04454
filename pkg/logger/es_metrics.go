package logger

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
)

const (
	MetricsIndex = "campaign_memory_metrics"

	PhaseCutoff   = "cutoff"
	PhaseCompress = "compress"
	PhaseReduce   = "reduce"
	PhasePersist  = "persist"

	// LogType values, used for filtering in ES
	LTCutoffDecision = "memory.cutoff.decision"
	LTCutoffError    = "memory.cutoff.error"
	LTCompressStart  = "memory.compress.start"
	LTCompressEnd    = "memory.compress.end"
	LTCompressError  = "memory.compress.error"
	LTReducePass     = "memory.reduce.pass"
	LTReduceError    = "memory.reduce.error"
	LTPersistError   = "memory.persist.error"
)

// MetricsEvent is one measurement shipped to ES.
type MetricsEvent struct {
	Timestamp    time.Time   `json:"@timestamp"`
	LogType      string      `json:"log_type"`
	Phase        string      `json:"phase"`
	Event        string      `json:"event"`
	CampaignID   string      `json:"campaign_id,omitempty"`
	Depth        int         `json:"depth,omitempty"`
	Chunks       int         `json:"chunks,omitempty"`
	ShortTerm    int         `json:"short_term,omitempty"`
	Compressions int         `json:"compressions,omitempty"`
	DurationMs   int64       `json:"duration_ms,omitempty"`
	Error        string      `json:"error,omitempty"`
	Detail       interface{} `json:"detail,omitempty"`
}

// Metrics ships MetricsEvents. A nil *Metrics or a nil client is silent.
type Metrics struct {
	es         *elasticsearch.Client
	index      string
	campaignID string
}

func NewMetrics(es *elasticsearch.Client) *Metrics {
	return &Metrics{es: es, index: MetricsIndex}
}

// ForCampaign returns a copy that stamps every event with campaignID.
func (m *Metrics) ForCampaign(campaignID string) *Metrics {
	if m == nil {
		return nil
	}
	cp := *m
	cp.campaignID = campaignID
	return &cp
}

// Emit ships one event. Failures are logged and never returned.
func (m *Metrics) Emit(ctx context.Context, evt MetricsEvent) {
	if m == nil || m.es == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.CampaignID == "" {
		evt.CampaignID = m.campaignID
	}
	logType := evt.LogType
	if logType == "" {
		logType = "memory." + evt.Phase + "." + evt.Event
	}
	if err := SendWrappedLog(ctx, m.es, m.index, logType, evt); err != nil {
		Warnf("[Metrics] ES write failed (log_type=%s): %v", logType, err)
		return
	}
	Debugf("[Metrics] shipped log_type=%s", logType)
}

// Timer measures elapsed wall time.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ElapsedMs() int64 {
	return time.Since(t.start).Milliseconds()
}
