package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/trialslog/trial-score-manager-go/log"
)

// Dispatcher decouples scoring transactions from notification targets.
// LedgerChanged enqueues without blocking; a dispatch goroutine forwards the
// change to every registered target. When the queue is full the change is
// dropped and counted, the scoring transaction is never delayed or failed.
type Dispatcher struct {
	targets []ChangeNotifier
	queue   chan Change
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dropped atomic.Int64
	logger  *log.Logger
}

type DispatcherOption func(d *Dispatcher)

func WithTargets(targets ...ChangeNotifier) DispatcherOption {
	return func(d *Dispatcher) {
		d.targets = append(d.targets, targets...)
	}
}

func WithQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		d.queue = make(chan Change, size)
	}
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:  make(chan Change, 64),
		ctx:    ctx,
		cancel: cancel,
		logger: log.Default().Named("notify"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.wg.Add(1)
	go d.dispatch()
	return d
}

func (d *Dispatcher) LedgerChanged(change Change) {
	select {
	case d.queue <- change:
	default:
		dropped := d.dropped.Add(1)
		d.logger.Warn("notification queue full, change dropped",
			log.String("kind", string(change.Kind)),
			log.Int64("dropped", dropped))
	}
}

// Dropped is the number of changes lost to a saturated queue.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close stops dispatching after draining the queue.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()
	for {
		select {
		case change := <-d.queue:
			d.forward(change)
		case <-d.ctx.Done():
			// drain what is left
			for {
				select {
				case change := <-d.queue:
					d.forward(change)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) forward(change Change) {
	for _, target := range d.targets {
		target.LedgerChanged(change)
	}
}
