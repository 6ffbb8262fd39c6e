package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchLoader writes multiple assessment events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.AssessmentEvent) error
}

// DispatcherConfig tunes batching. Zero values fall back to the defaults
// used by the service configuration.
type DispatcherConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
	// FinalFlushTimeout bounds the last write made after Run's context ends.
	FinalFlushTimeout time.Duration
	Clock             clockwork.Clock
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 500 * time.Millisecond
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.FinalFlushTimeout <= 0 {
		c.FinalFlushTimeout = 5 * time.Second
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}

// Dispatcher publishes assessment events off the request path. Publish never
// blocks; Run drains the queue in batches until its context is cancelled.
type Dispatcher struct {
	loader  BatchLoader
	logger  *slog.Logger
	metrics *observability.Metrics
	cfg     DispatcherConfig
	queue   chan domain.AssessmentEvent
	running atomic.Bool

	// intake guards stopped so no Publish can enqueue after shutdown drains.
	intake  sync.RWMutex
	stopped bool
}

// NewDispatcher creates a Dispatcher that writes through loader.
func NewDispatcher(loader BatchLoader, cfg DispatcherConfig, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		queue:   make(chan domain.AssessmentEvent, cfg.BufferSize),
	}
}

// Publish enqueues ev and reports whether it was accepted. Events are dropped
// when the queue is full or the dispatcher has stopped.
func (d *Dispatcher) Publish(ev domain.AssessmentEvent) bool {
	d.intake.RLock()
	defer d.intake.RUnlock()
	if d.stopped {
		d.metrics.EventsDropped.Inc()
		return false
	}
	select {
	case d.queue <- ev:
		return true
	default:
		d.metrics.EventsDropped.Inc()
		d.logger.Warn("event queue full, dropping assessment event", "id", ev.ID)
		return false
	}
}

// Pending returns the number of queued events not yet taken by Run.
func (d *Dispatcher) Pending() int { return len(d.queue) }

// Running reports whether Run is active.
func (d *Dispatcher) Running() bool { return d.running.Load() }

// Run flushes queued events until the context is cancelled, then makes one
// final attempt to write whatever is still pending.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started",
		"batch_size", d.cfg.BatchSize,
		"flush_interval", d.cfg.FlushInterval,
		"buffer_size", d.cfg.BufferSize,
	)
	d.metrics.DispatcherRunning.Set(1)
	d.running.Store(true)
	defer func() {
		d.metrics.DispatcherRunning.Set(0)
		d.running.Store(false)
	}()

	ticker := d.cfg.Clock.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := d.newBatch()
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			d.shutdown(ctx, batch)
			return nil
		}

		select {
		case <-ctx.Done():
		case ev := <-d.queue:
			batch = append(batch, ev)
			if len(batch) >= d.cfg.BatchSize {
				batch = d.flush(ctx, batch, &backoff)
			}
		case <-ticker.Chan():
			batch = d.flush(ctx, batch, &backoff)
		}
	}
}

// flush writes batch, retrying with exponential backoff while ctx is live.
// It returns an empty batch on success or the unsent batch on cancellation.
func (d *Dispatcher) flush(ctx context.Context, batch []domain.AssessmentEvent, backoff *time.Duration) []domain.AssessmentEvent {
	if len(batch) == 0 {
		return batch
	}
	for {
		err := d.loader.LoadBatch(ctx, batch)
		if err == nil {
			d.recordLoaded(batch)
			*backoff = initialBackoff
			return d.newBatch()
		}
		if ctx.Err() != nil {
			return batch
		}

		d.metrics.PublishErrors.Inc()
		d.logger.Error("publish batch failed", "error", err, "batch_size", len(batch), "retry_in", *backoff)
		if !sleepWithContext(ctx, d.cfg.Clock, *backoff) {
			return batch
		}
		*backoff = retry.NextBackoff(*backoff, maxBackoff)
	}
}

// shutdown stops intake, drains the queue and writes everything in a single
// attempt per batch on a context detached from the cancelled one.
func (d *Dispatcher) shutdown(ctx context.Context, batch []domain.AssessmentEvent) {
	d.intake.Lock()
	d.stopped = true
	d.intake.Unlock()

drain:
	for {
		select {
		case ev := <-d.queue:
			batch = append(batch, ev)
		default:
			break drain
		}
	}

	if len(batch) == 0 {
		d.logger.Info("dispatcher stopping", "reason", ctx.Err())
		return
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.FinalFlushTimeout)
	defer cancel()

	for start := 0; start < len(batch); start += d.cfg.BatchSize {
		end := min(start+d.cfg.BatchSize, len(batch))
		chunk := batch[start:end]
		if err := d.loader.LoadBatch(flushCtx, chunk); err != nil {
			d.metrics.PublishErrors.Inc()
			d.metrics.EventsDropped.Add(float64(len(chunk)))
			d.logger.Error("final flush failed, dropping events", "error", err, "batch_size", len(chunk))
			continue
		}
		d.recordLoaded(chunk)
	}
	d.logger.Info("dispatcher stopping", "reason", ctx.Err(), "final_batch", len(batch))
}

func (d *Dispatcher) recordLoaded(batch []domain.AssessmentEvent) {
	d.metrics.EventsPublished.Add(float64(len(batch)))
	d.metrics.PublishBatchSize.Observe(float64(len(batch)))
}

func (d *Dispatcher) newBatch() []domain.AssessmentEvent {
	return make([]domain.AssessmentEvent, 0, d.cfg.BatchSize)
}

// sleepWithContext mirrors retry.SleepWithContext on the dispatcher's clock.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
