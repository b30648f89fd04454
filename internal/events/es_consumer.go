package events

import (
	"context"

	"github.com/elastic/go-elasticsearch/v7"

	"campaign_agent/pkg/logger"
)

const DefaultIndex = "campaign_memory_events"

// ESConsumer reads events from an Emitter and writes them to Elasticsearch.
type ESConsumer struct {
	es    *elasticsearch.Client
	index string
}

// NewESConsumer creates a consumer that forwards events to ES.
// Call Start() to begin consuming from an emitter.
func NewESConsumer(es *elasticsearch.Client, index string) *ESConsumer {
	if index == "" {
		index = DefaultIndex
	}
	return &ESConsumer{es: es, index: index}
}

// Start consumes events in a background goroutine until the emitter is
// closed. The returned channel is closed once every buffered event has been
// forwarded.
func (c *ESConsumer) Start(ctx context.Context, emitter Emitter) <-chan struct{} {
	ch := emitter.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range ch {
			if err := logger.SendWrappedLog(ctx, c.es, c.index, evt.Type, evt); err != nil {
				logger.Warnf("[ESConsumer] failed to write event (type=%s): %v", evt.Type, err)
			}
		}
	}()
	return done
}
