package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-system/internal/core/domain"
	"github.com/sweetshop/inventory-system/internal/core/ports"
	"github.com/sweetshop/inventory-system/internal/infrastructure/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	drainTimeout   = 5 * time.Second
)

// Dispatcher fans committed stock events out to a fixed set of workers that
// persist them. Events are sharded on the sweet ID, so the audit trail of a
// single sweet is written in commit order.
type Dispatcher struct {
	workers []chan domain.StockEvent
	sink    ports.StockEventRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.StockEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.StockEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.StockEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// after flushing whatever is still buffered.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands an event to the worker responsible for its sweet. It never
// blocks: when the shard's buffer is full the event is dropped and counted.
func (d *Dispatcher) Publish(event domain.StockEvent) {
	idx := d.shardIndex(event.SweetID)
	select {
	case d.workers[idx] <- event:
		metrics.StockEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.StockEventsDroppedTotal.Inc()
		d.log.Warn().
			Str("sweet_id", event.SweetID).
			Str("kind", string(event.Kind)).
			Int("worker_id", idx).
			Msg("stock event queue full, event dropped")
	}
}

// shardIndex maps a sweet ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(sweetID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sweetID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.StockEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			metrics.StockEventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.persist(ctx, id, event)
		}
	}
}

func (d *Dispatcher) drain(id int, ch <-chan domain.StockEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-ch:
			d.persist(ctx, id, event)
		default:
			metrics.StockEventsQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
			return
		}
	}
}

func (d *Dispatcher) persist(ctx context.Context, id int, event domain.StockEvent) {
	if err := d.sink.Insert(ctx, &event); err != nil {
		metrics.StockEventsErrorsTotal.Inc()
		d.log.Error().Err(err).
			Str("sweet_id", event.SweetID).
			Int("worker_id", id).
			Msg("stock event persistence failed")
	}
}
