package processing

import (
	"context"
	"sync"
	"time"

	"github.com/trialslog/trial-score-manager-go/log"
	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/notify"
)

// StandingsSource recomputes all class leaderboards from the current ledger.
type StandingsSource func(ctx context.Context) ([]*model.Leaderboard, error)

// Processor turns committed ledger changes into recomputed standings.
// It implements notify.ChangeNotifier; every change triggers a debounced
// recompute whose result is published on Updates. A burst of changes, e.g.
// a reset or several judges submitting at once, collapses into one
// recompute at the end of the debounce window.
type Processor struct {
	source   StandingsSource
	debounce time.Duration
	out      chan []*model.Leaderboard
	trigger  chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *log.Logger
}

type ProcessorOption func(proc *Processor)

func WithStandingsSource(source StandingsSource) ProcessorOption {
	return func(proc *Processor) {
		proc.source = source
	}
}

func WithDebounce(d time.Duration) ProcessorOption {
	return func(proc *Processor) {
		proc.debounce = d
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	ret := &Processor{
		debounce: 100 * time.Millisecond,
		out:      make(chan []*model.Leaderboard),
		trigger:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.Default().Named("processing"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.wg.Add(1)
	go ret.run()
	return ret
}

// Updates is the stream of recomputed standings, typically consumed by a
// broadcast server feeding the live displays.
func (p *Processor) Updates() <-chan []*model.Leaderboard {
	return p.out
}

// LedgerChanged schedules a recompute. Never blocks: the trigger channel
// holds one pending recompute, more is not needed.
func (p *Processor) LedgerChanged(_ notify.Change) {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Processor) Close() {
	p.cancel()
	p.wg.Wait()
}

func (p *Processor) run() {
	defer p.wg.Done()
	defer close(p.out)
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.trigger:
		}
		if !p.await(p.debounce) {
			return
		}
		// drain triggers that arrived during the debounce window
		select {
		case <-p.trigger:
		default:
		}
		boards, err := p.source(p.ctx)
		if err != nil {
			p.logger.Error("standings recompute failed", log.ErrorField(err))
			continue
		}
		select {
		case p.out <- boards:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Processor) await(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-p.ctx.Done():
		return false
	}
}
