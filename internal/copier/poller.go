package copier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/signal"
	"solana-copy-trader/internal/storage"
)

// DefaultPollInterval is the signal poll period.
const DefaultPollInterval = time.Second

// Handler consumes one signal.
type Handler interface {
	Handle(ctx context.Context, sig domain.Signal)
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Source   signal.Source
	Signals  storage.SignalStore
	Handler  Handler
	Interval time.Duration
	Logger   *zap.Logger
}

// Poller fetches new signals on a fixed interval and hands them to the
// handler without waiting for them to finish.
type Poller struct {
	source   signal.Source
	signals  storage.SignalStore
	handler  Handler
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cursor int64 // highest message id handed off
}

// NewPoller creates a Poller.
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Source == nil || opts.Signals == nil || opts.Handler == nil {
		return nil, errors.New("copier: poller needs a source, a signal store and a handler")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Poller{
		source:   opts.Source,
		signals:  opts.Signals,
		handler:  opts.Handler,
		interval: opts.Interval,
		logger:   opts.Logger,
	}, nil
}

// Run polls until ctx is cancelled, then waits for in-flight signals. The
// first tick runs immediately and picks up everything after the stored
// cursor.
func (p *Poller) Run(ctx context.Context) error {
	var inflight conc.WaitGroup
	defer inflight.Wait()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("signal poller started", zap.Duration("interval", p.interval))
	for {
		p.Tick(ctx, &inflight)

		select {
		case <-ctx.Done():
			p.logger.Info("signal poller stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one poll. Handed-off signals are tracked on inflight.
func (p *Poller) Tick(ctx context.Context, inflight *conc.WaitGroup) {
	if ctx.Err() != nil {
		return
	}

	after, err := p.after(ctx)
	if err != nil {
		p.logger.Error("read signal cursor", zap.Error(err))
		return
	}

	signals, err := p.source.Fetch(ctx, after)
	if err != nil {
		p.logger.Error("fetch signals", zap.Int64("after", after), zap.Error(err))
		return
	}
	observability.RecordPoll(time.Now().Unix())

	for _, sig := range signals {
		if sig.MessageID <= after {
			continue
		}
		p.advance(sig.MessageID)
		inflight.Go(func() { p.handler.Handle(ctx, sig) })
	}
	if len(signals) > 0 {
		p.logger.Debug("dispatched signals", zap.Int("count", len(signals)), zap.Int64("after", after))
	}
}

// after is the larger of the stored cursor and the last handed-off id, so a
// signal whose insert is still in flight is not dispatched twice.
func (p *Poller) after(ctx context.Context) (int64, error) {
	stored, err := p.signals.LastMessageID(ctx)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return max(stored, p.cursor), nil
}

func (p *Poller) advance(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id > p.cursor {
		p.cursor = id
	}
}
