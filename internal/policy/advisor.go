// Package policy decides when short-term memory is worth compressing.
package policy

import (
	"context"
	"errors"
	"fmt"

	"campaign_agent/internal/oracle"
	"campaign_agent/pkg/logger"
)

// DefaultMinEvents is the smallest short-term log the oracle is asked about.
const DefaultMinEvents = 5

var ErrDeciderRequired = errors.New("cutoff decider is required")

type Config struct {
	Decider oracle.CutoffDecider

	// MinEvents below which no oracle call is made. Default: DefaultMinEvents.
	MinEvents int

	Metrics *logger.Metrics
}

func (c *Config) GetMinEvents() int {
	if c.MinEvents <= 0 {
		return DefaultMinEvents
	}
	return c.MinEvents
}

// Advisor asks the oracle whether recent events form a closed session.
type Advisor struct {
	decider   oracle.CutoffDecider
	minEvents int
	metrics   *logger.Metrics
}

func New(cfg Config) (*Advisor, error) {
	if cfg.Decider == nil {
		return nil, ErrDeciderRequired
	}
	return &Advisor{decider: cfg.Decider, minEvents: cfg.GetMinEvents(), metrics: cfg.Metrics}, nil
}

func (a *Advisor) MinEvents() int {
	return a.minEvents
}

// ShouldCompress returns the cutoff decision for shortTerm. Short logs are
// refused without consulting the oracle. On oracle failure the decision is
// negative and the error is returned for the caller to log.
func (a *Advisor) ShouldCompress(ctx context.Context, shortTerm []string) (oracle.CutoffDecision, error) {
	if len(shortTerm) < a.minEvents {
		return oracle.CutoffDecision{
			Reason: fmt.Sprintf("only %d of %d events needed before compression is considered", len(shortTerm), a.minEvents),
		}, nil
	}

	timer := logger.NewTimer()
	decision, err := a.decider.DecideCutoff(ctx, shortTerm)
	if err != nil {
		a.metrics.Emit(ctx, logger.MetricsEvent{
			LogType:    logger.LTCutoffError,
			Phase:      logger.PhaseCutoff,
			Event:      "error",
			ShortTerm:  len(shortTerm),
			DurationMs: timer.ElapsedMs(),
			Error:      err.Error(),
		})
		return oracle.CutoffDecision{}, fmt.Errorf("decide cutoff: %w", err)
	}

	logger.Infof("[policy] cutoff decision: compress=%v reason=%q", decision.ShouldCompress, decision.Reason)
	a.metrics.Emit(ctx, logger.MetricsEvent{
		LogType:    logger.LTCutoffDecision,
		Phase:      logger.PhaseCutoff,
		Event:      "decision",
		ShortTerm:  len(shortTerm),
		DurationMs: timer.ElapsedMs(),
		Detail:     decision,
	})
	return decision, nil
}
