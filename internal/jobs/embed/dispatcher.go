package embed

import (
	"context"

	"github.com/yungbote/geocatalog-backend/internal/platform/envutil"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// Request is the contract with the out-of-process embedding worker.
type Request struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Result carries the worker's answer; only the named record's embedding
// column is touched on success.
type Result struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Bus is the message-passing boundary to the worker process.
type Bus interface {
	PublishRequest(ctx context.Context, req Request) error
	SubscribeResults(ctx context.Context, onResult func(Result)) error
	Close() error
}

// Applier writes a finished embedding back to the store, serialized per id.
type Applier interface {
	ApplyEmbedding(ctx context.Context, id string, embedding []float64) error
}

// Dispatcher bounds outstanding embedding jobs to a fixed batch size so a
// large reindex cannot fan out unbounded memory or network work.
type Dispatcher struct {
	bus     Bus
	applier Applier
	log     *logger.Logger
	slots   chan struct{}
}

func NewDispatcher(bus Bus, applier Applier, baseLog *logger.Logger) *Dispatcher {
	maxInflight := envutil.Int("EMBED_MAX_INFLIGHT", 5)
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &Dispatcher{
		bus:     bus,
		applier: applier,
		log:     baseLog.With("component", "EmbedDispatcher"),
		slots:   make(chan struct{}, maxInflight),
	}
}

// Start begins consuming worker results. Each result frees a slot whether or
// not it succeeded.
func (d *Dispatcher) Start(ctx context.Context) error {
	return d.bus.SubscribeResults(ctx, func(res Result) {
		select {
		case <-d.slots:
		default:
			// result for a request issued before a restart
		}
		if !res.Success {
			d.log.Warn("embedding job failed", "id", res.ID, "error", res.Error)
			return
		}
		if err := d.applier.ApplyEmbedding(ctx, res.ID, res.Embedding); err != nil {
			d.log.Warn("failed to apply embedding", "id", res.ID, "error", err)
		}
	})
}

// Enqueue blocks while the in-flight cap is reached, then publishes the job.
func (d *Dispatcher) Enqueue(ctx context.Context, id, text string) error {
	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := d.bus.PublishRequest(ctx, Request{ID: id, Text: text}); err != nil {
		<-d.slots
		return err
	}
	return nil
}

// Inflight reports the number of outstanding jobs.
func (d *Dispatcher) Inflight() int { return len(d.slots) }
