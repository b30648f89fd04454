package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cloudwego/eino/callbacks"
	"github.com/elastic/go-elasticsearch/v7"

	"campaign_agent/internal/config"
	"campaign_agent/internal/events"
	"campaign_agent/internal/memory"
	"campaign_agent/internal/oracle"
	"campaign_agent/internal/policy"
	"campaign_agent/internal/session"
	"campaign_agent/internal/summary"
	"campaign_agent/internal/tokens"
	"campaign_agent/pkg/logger"
)

// newOracle builds the LLM-backed oracle. Tests replace it.
var newOracle = func(ctx context.Context, cfg *config.Config, es *elasticsearch.Client) (oracle.Oracle, error) {
	cm, err := oracle.NewChatModel(ctx, oracle.ModelConfig{
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Name,
		BaseURL: cfg.Model.BaseURL,
		Timeout: cfg.Model.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return oracle.New(ctx, &oracle.Config{
		Model:         cm,
		Retries:       cfg.Model.GetRetries(),
		RetryInterval: cfg.Model.RetryInterval,
		Callbacks: []callbacks.Handler{
			&logger.OracleCallback{Es: es, Verbose: cfg.Model.Verbose},
		},
	})
}

// app is everything one command invocation needs.
type app struct {
	cfg      *config.Config
	es       *elasticsearch.Client
	emitter  *events.ChannelEmitter
	esDone   <-chan struct{}
	metrics  *logger.Metrics
	est      tokens.Estimator
	oracle   oracle.Oracle
	sessions *session.Store
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	logger.SetDebug(cfg.Debug || debugFlag)

	es, err := logger.NewESClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		es:      es,
		emitter: events.NewChannelEmitter(256),
		metrics: logger.NewMetrics(es),
		est:     tokens.NewWithFallback(cfg.Tokenizer.Name),
	}
	if es != nil {
		a.esDone = events.NewESConsumer(es, cfg.Elasticsearch.EventsIndex).Start(ctx, a.emitter)
	}

	if a.oracle, err = newOracle(ctx, cfg, es); err != nil {
		a.Close()
		return nil, fmt.Errorf("create oracle: %w", err)
	}
	if a.sessions, err = session.OpenStore(cfg.Storage.Path); err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return a, nil
}

// Close flushes pending events and releases the database.
func (a *app) Close() {
	a.emitter.Close()
	if a.esDone != nil {
		<-a.esDone
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			logger.Warnf("[cli] close store: %v", err)
		}
	}
}

func (a *app) summarizer() (*summary.Summarizer, error) {
	return summary.New(&summary.Config{
		Summarizer:  a.oracle,
		Estimator:   a.est,
		ChunkTokens: a.cfg.Memory.ChunkTokens,
		MaxDepth:    a.cfg.Memory.MaxDepth,
		Metrics:     a.metrics,
		Emitter:     a.emitter,
	})
}

// openMemory resumes a campaign and restores its memory from the configured
// storage driver.
func (a *app) openMemory(ctx context.Context, id string) (*session.Session, *memory.Store, error) {
	sess, err := session.ResumeSession(ctx, a.sessions, a.emitter, id)
	if err != nil {
		return nil, nil, fmt.Errorf("resume campaign %s: %w", id, err)
	}

	advisor, err := policy.New(policy.Config{
		Decider:   a.oracle,
		MinEvents: a.cfg.Memory.MinEvents,
		Metrics:   a.metrics.ForCampaign(id),
	})
	if err != nil {
		return nil, nil, err
	}

	var persister memory.Persister = sess
	if a.cfg.Storage.Driver == config.StorageFile {
		persister = memory.NewFilePersister(filepath.Join(a.cfg.Storage.SaveDir, id+".yaml"))
	}

	mem, err := memory.Open(ctx, memory.Config{
		CampaignID:    id,
		TailSize:      a.cfg.Memory.TailSize,
		OracleTimeout: a.cfg.Memory.OracleTimeout,
	}, memory.Deps{
		Merger:    a.oracle,
		Advisor:   advisor,
		Persister: persister,
		Emitter:   a.emitter,
		Metrics:   a.metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, mem, nil
}
