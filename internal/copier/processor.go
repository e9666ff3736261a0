package copier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/signer"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/trader"
)

// Trader executes buy and sell orders.
type Trader interface {
	MetaBuy(ctx context.Context, o trader.BuyOrder) (*trader.Execution, error)
	MetaSell(ctx context.Context, o trader.SellOrder) (*trader.Execution, error)
}

// Compile-time interface check.
var _ Trader = (*trader.Trader)(nil)

// Skip reasons reported to metrics.
const (
	skipTradingOff = "trading_off"
	skipFiltered   = "strategy_filtered"
	skipDuplicate  = "duplicate"
	skipNoSigner   = "no_signer"
)

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	// Required
	Trader  Trader
	Signals storage.SignalStore

	// Optional
	Strategies *domain.StrategyBook // nil sells whole positions
	Memory     *TradeMemory
	Signer     signer.Signer // used when the context carries none

	// TradeOn=false only records signals.
	TradeOn bool

	// When StrategyFilterOn is set, only signals whose strategy is in
	// FilterStrategies are traded.
	StrategyFilterOn bool
	FilterStrategies []string

	PositionSizeSOL float64
	SlippageBps     uint16
	TipLamports     uint64

	Logger *zap.Logger
	Now    func() time.Time
}

// Processor persists each signal and trades it.
type Processor struct {
	trader     Trader
	signals    storage.SignalStore
	strategies *domain.StrategyBook
	memory     *TradeMemory
	signer     signer.Signer

	tradeOn      bool
	filterOn     bool
	allowed      map[string]struct{}
	positionSize float64
	slippageBps  uint16
	tipLamports  uint64

	logger *zap.Logger
	now    func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	if opts.Trader == nil || opts.Signals == nil {
		return nil, errors.New("copier: trader and signal store are required")
	}
	if opts.TradeOn && opts.PositionSizeSOL <= 0 {
		return nil, fmt.Errorf("copier: position size must be positive, got %v", opts.PositionSizeSOL)
	}

	p := &Processor{
		trader:       opts.Trader,
		signals:      opts.Signals,
		strategies:   opts.Strategies,
		memory:       opts.Memory,
		signer:       opts.Signer,
		tradeOn:      opts.TradeOn,
		filterOn:     opts.StrategyFilterOn,
		allowed:      make(map[string]struct{}, len(opts.FilterStrategies)),
		positionSize: opts.PositionSizeSOL,
		slippageBps:  opts.SlippageBps,
		tipLamports:  opts.TipLamports,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	for _, id := range opts.FilterStrategies {
		p.allowed[id] = struct{}{}
	}
	if p.memory == nil {
		p.memory = NewTradeMemory(DefaultDedupTimeout)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Memory returns the dedup memory used by the processor.
func (p *Processor) Memory() *TradeMemory { return p.memory }

// Handle records sig and trades it, running both concurrently. It returns
// once both are done. Panics in either task are logged, not propagated.
func (p *Processor) Handle(ctx context.Context, sig domain.Signal) {
	observability.RecordSignal(string(sig.Kind))

	log := p.logger.With(
		zap.Int64("message_id", sig.MessageID),
		zap.String("kind", string(sig.Kind)),
		zap.String("token", sig.ContractAddress()),
		zap.String("strategy", sig.Strategy()))

	// The signer is fixed before the tasks start.
	s, err := signer.FromContext(ctx)
	if err != nil {
		s = p.signer
	}
	if s != nil {
		ctx = signer.WithSigner(ctx, s)
	}

	var wg conc.WaitGroup
	wg.Go(func() { p.persist(ctx, sig, log) })
	wg.Go(func() { p.execute(ctx, sig, s != nil, log) })
	if r := wg.WaitAndRecover(); r != nil {
		log.Error("signal task panicked", zap.String("panic", r.String()))
	}
}

func (p *Processor) persist(ctx context.Context, sig domain.Signal, log *zap.Logger) {
	rec := &domain.SignalRecord{Signal: sig, ReceivedAt: p.now().UnixMilli()}
	err := p.signals.Insert(context.WithoutCancel(ctx), rec)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrDuplicateKey):
		log.Debug("signal already recorded")
	default:
		log.Error("record signal", zap.Error(err))
	}
}

func (p *Processor) execute(ctx context.Context, sig domain.Signal, hasSigner bool, log *zap.Logger) {
	token := sig.ContractAddress()
	if sig.Kind == domain.SignalClose {
		defer p.memory.Forget(token)
	}

	if !p.tradeOn {
		observability.RecordSignalSkipped(skipTradingOff)
		return
	}
	if p.filterOn {
		if _, ok := p.allowed[sig.Strategy()]; !ok {
			observability.RecordSignalSkipped(skipFiltered)
			log.Debug("strategy not in filter")
			return
		}
	}
	if !hasSigner {
		observability.RecordSignalSkipped(skipNoSigner)
		log.Error("no signer configured")
		return
	}

	switch sig.Kind {
	case domain.SignalOpen:
		p.open(ctx, sig, log)
	case domain.SignalClose:
		p.close(ctx, sig, log)
	}
}

func (p *Processor) open(ctx context.Context, sig domain.Signal, log *zap.Logger) {
	o := sig.Open
	if ok, prev := p.memory.Reserve(o.ContractAddress, o.Strategy, p.now()); !ok {
		observability.RecordSignalSkipped(skipDuplicate)
		log.Info("skipping repeated buy",
			zap.String("last_strategy", prev.Strategy),
			zap.Bool("pending", prev.Pending),
			zap.Time("last_trade", prev.LastTrade))
		return
	}

	exec, err := p.trader.MetaBuy(ctx, trader.BuyOrder{
		MessageID:   sig.MessageID,
		Token:       o.ContractAddress,
		Name:        o.Token,
		StrategyID:  o.Strategy,
		SolAmount:   p.positionSize,
		SlippageBps: p.slippageBps,
		TipLamports: p.tipLamports,
		EntryPrice:  o.BuyPrice,
	})
	if err != nil {
		p.memory.Release(o.ContractAddress)
		log.Error("buy failed", zap.Error(err))
		return
	}

	p.memory.Commit(o.ContractAddress, o.Strategy, p.now())
	log.Info("bought",
		zap.String("signature", exec.Signature),
		zap.String("venue", exec.Venue),
		zap.Uint64("holdings", exec.Holdings))
}

func (p *Processor) close(ctx context.Context, sig domain.Signal, log *zap.Logger) {
	c := sig.Close

	var strat *domain.Strategy
	if p.strategies != nil {
		if s, ok := p.strategies.Get(c.Strategy); ok {
			strat = s
		} else {
			log.Warn("unknown strategy, selling whole position")
		}
	}

	exec, err := p.trader.MetaSell(ctx, trader.SellOrder{
		MessageID:    sig.MessageID,
		Token:        c.ContractAddress,
		StrategyID:   c.Strategy,
		ProfitPct:    c.ProfitPct,
		OpType:       c.OpType,
		Strategy:     strat,
		SlippageBps:  p.slippageBps,
		TipLamports:  p.tipLamports,
		CurrentPrice: c.ExitPrice,
	})
	switch {
	case err == nil:
		log.Info("sold",
			zap.String("op", c.OpType.String()),
			zap.String("signature", exec.Signature),
			zap.Uint64("amount", exec.Amount),
			zap.Uint64("remaining", exec.Holdings))
	case errors.Is(err, trader.ErrNoActiveTrade):
		log.Info("no position to close")
	default:
		log.Error("sell failed", zap.Error(err))
	}
}
