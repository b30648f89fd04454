package memory

import (
	"context"
	"fmt"
	"strings"

	"campaign_agent/internal/events"
	"campaign_agent/internal/oracle"
	"campaign_agent/pkg/logger"
)

// Compress merges the short-term log into long-term memory.
//
// It returns (false, nil) when there is nothing to compress and (false, err)
// when the oracle fails, in which case no field of the store has changed.
// On success it returns true; the error is then non-nil only if the
// snapshot could not be written (it wraps ErrPersist) and Save may be used
// to retry the write.
func (s *Store) Compress(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compressLocked(ctx)
}

// MaybeCompress asks the advisor whether now is a good cutoff and
// compresses if it agrees. An advisor error is returned with false.
func (s *Store) MaybeCompress(ctx context.Context) (bool, error) {
	if s.advisor == nil {
		return false, ErrAdvisorRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.shortTerm) < s.advisor.MinEvents() {
		return false, nil
	}

	octx, cancel := s.oracleContext(ctx)
	decision, err := s.advisor.ShouldCompress(octx, append([]string(nil), s.shortTerm...))
	cancel()
	if err != nil {
		logger.Warnf("[memory] cutoff check failed, skipping compression: %v", err)
		return false, err
	}
	s.emitter.Emit(events.NewEvent(events.TypeCutoffDecided, s.cfg.CampaignID, events.CutoffDecidedData{
		ShouldCompress: decision.ShouldCompress,
		Reason:         decision.Reason,
		ShortTerm:      len(s.shortTerm),
	}))
	if !decision.ShouldCompress {
		return false, nil
	}
	return s.compressLocked(ctx)
}

func (s *Store) compressLocked(ctx context.Context) (bool, error) {
	if len(s.shortTerm) == 0 {
		return false, nil
	}

	timer := logger.NewTimer()
	pending := append([]string(nil), s.shortTerm...)
	s.metrics.Emit(ctx, logger.MetricsEvent{
		LogType:      logger.LTCompressStart,
		Phase:        logger.PhaseCompress,
		Event:        "start",
		ShortTerm:    len(pending),
		Compressions: s.compressionCount,
	})

	res, err := s.merge(ctx, s.longTerm, pending)
	if err != nil {
		logger.Errorf("[memory] compression failed for campaign %q: %v", s.cfg.CampaignID, err)
		s.metrics.Emit(ctx, logger.MetricsEvent{
			LogType:    logger.LTCompressError,
			Phase:      logger.PhaseCompress,
			Event:      "error",
			ShortTerm:  len(pending),
			DurationMs: timer.ElapsedMs(),
			Error:      err.Error(),
		})
		s.emitter.Emit(events.NewEvent(events.TypeCompressionFailed, s.cfg.CampaignID, events.ErrorData{
			Phase:   logger.PhaseCompress,
			Message: err.Error(),
		}))
		return false, fmt.Errorf("compress memory: %w", err)
	}

	kept := pending[max(0, len(pending)-s.cfg.GetTailSize()):]
	now := s.now().UTC()

	s.longTerm = res.CompressedLongTerm
	s.shortTerm = append([]string(nil), kept...)
	s.compressionCount++
	s.lastCompression = &now

	logger.Infof("[memory] compressed campaign %q (#%d). Session summary: %s",
		s.cfg.CampaignID, s.compressionCount, res.SessionSummary)
	s.metrics.Emit(ctx, logger.MetricsEvent{
		LogType:      logger.LTCompressEnd,
		Phase:        logger.PhaseCompress,
		Event:        "end",
		ShortTerm:    len(s.shortTerm),
		Compressions: s.compressionCount,
		DurationMs:   timer.ElapsedMs(),
		Detail:       map[string]string{"session_summary": res.SessionSummary},
	})
	s.emitter.Emit(events.NewEvent(events.TypeCompressed, s.cfg.CampaignID, events.CompressedData{
		SessionSummary:   res.SessionSummary,
		CompressionCount: s.compressionCount,
		MergedEvents:     len(pending),
		KeptEvents:       len(s.shortTerm),
		LongTermChars:    len(s.longTerm),
		DurationMs:       timer.ElapsedMs(),
	}))

	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	// History is written only once the snapshot carrying this count is stored.
	if rec, ok := s.persister.(CompressionRecorder); ok {
		if err := rec.RecordCompression(ctx, s.compressionCount, res.SessionSummary); err != nil {
			logger.Warnf("[memory] could not record compression history: %v", err)
		}
	}
	return true, nil
}

// merge calls the oracle under the configured timeout. Blank results and
// panics count as oracle failures.
func (s *Store) merge(ctx context.Context, longTerm string, shortTerm []string) (res oracle.Compression, err error) {
	ctx, cancel := s.oracleContext(ctx)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("memory merger panicked: %v", r)
		}
	}()

	res, err = s.merger.MergeMemory(ctx, longTerm, shortTerm)
	if err != nil {
		return oracle.Compression{}, err
	}
	if strings.TrimSpace(res.CompressedLongTerm) == "" {
		return oracle.Compression{}, oracle.ErrEmptyResponse
	}
	return res, nil
}

func (s *Store) oracleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OracleTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.OracleTimeout)
	}
	return context.WithCancel(ctx)
}
