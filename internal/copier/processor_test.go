package copier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/signer"
	"solana-copy-trader/internal/storage/memory"
	"solana-copy-trader/internal/trader"
)

type fakeTrader struct {
	mu      sync.Mutex
	buys    []trader.BuyOrder
	sells   []trader.SellOrder
	signers []signer.Signer
	buyErr  error
	sellErr error
	panicOn string
}

func (f *fakeTrader) MetaBuy(ctx context.Context, o trader.BuyOrder) (*trader.Execution, error) {
	if o.Token == f.panicOn {
		panic("boom")
	}
	s, _ := signer.FromContext(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buys = append(f.buys, o)
	f.signers = append(f.signers, s)
	if f.buyErr != nil {
		return nil, f.buyErr
	}
	return &trader.Execution{Signature: "sig", Venue: "amm", Holdings: 1000}, nil
}

func (f *fakeTrader) MetaSell(_ context.Context, o trader.SellOrder) (*trader.Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sells = append(f.sells, o)
	if f.sellErr != nil {
		return nil, f.sellErr
	}
	return &trader.Execution{Signature: "sig", Venue: "amm", Amount: 500, Holdings: 500}, nil
}

type nopSigner struct{ key solana.PublicKey }

func (s nopSigner) PublicKey() solana.PublicKey { return s.key }
func (nopSigner) SignAndSend(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not implemented")
}
func (nopSigner) PrioritySignAndSend(context.Context, []solana.Instruction, signer.Priority) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not implemented")
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	proc    *Processor
	trader  *fakeTrader
	signals *memory.SignalStore
	clock   *clock
}

func newHarness(t *testing.T, mutate func(*ProcessorOptions)) *harness {
	t.Helper()

	book, err := domain.NewStrategyBook([]domain.Strategy{{
		StrategyID: "S1",
		SellConditions: domain.SellConditions{
			TakeProfitConditions: []domain.TakeProfitCondition{{PnlPercentage: 10, TargetOpenPercentage: 50}},
		},
	}})
	require.NoError(t, err)

	h := &harness{
		trader:  &fakeTrader{},
		signals: memory.NewSignalStore(),
		clock:   &clock{now: time.Unix(1_700_000_000, 0)},
	}
	opts := ProcessorOptions{
		Trader:          h.trader,
		Signals:         h.signals,
		Strategies:      book,
		Signer:          nopSigner{key: solana.NewWallet().PublicKey()},
		TradeOn:         true,
		PositionSizeSOL: 0.1,
		SlippageBps:     300,
		TipLamports:     1000,
		Now:             h.clock.Now,
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.proc, err = NewProcessor(opts)
	require.NoError(t, err)
	return h
}

func openSignal(id int64, mint, strategy string) domain.Signal {
	return domain.Signal{
		MessageID: id,
		Kind:      domain.SignalOpen,
		Open:      &domain.OpenSignal{Strategy: strategy, Token: "TKN", ContractAddress: mint, BuyPrice: 0.002},
	}
}

func closeSignal(id int64, mint, strategy string, op domain.OperationType, pct float64) domain.Signal {
	return domain.Signal{
		MessageID: id,
		Kind:      domain.SignalClose,
		Close: &domain.CloseSignal{
			Strategy: strategy, ContractAddress: mint, OpType: op, ProfitPct: pct, ExitPrice: 0.003,
		},
	}
}

func TestProcessor_OpenBuysAndRecords(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.proc.Handle(ctx, openSignal(1, "MintA", "S1"))

	require.Len(t, h.trader.buys, 1)
	got := h.trader.buys[0]
	assert.Equal(t, trader.BuyOrder{
		MessageID:   1,
		Token:       "MintA",
		Name:        "TKN",
		StrategyID:  "S1",
		SolAmount:   0.1,
		SlippageBps: 300,
		TipLamports: 1000,
		EntryPrice:  0.002,
	}, got)
	assert.NotNil(t, h.trader.signers[0], "configured signer is bound to the context")

	rec, err := h.signals.GetByMessageID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, h.clock.Now().UnixMilli(), rec.ReceivedAt)

	e, ok := h.proc.Memory().Get("MintA")
	require.True(t, ok)
	assert.False(t, e.Pending)
	assert.Equal(t, h.clock.Now(), e.LastTrade)
}

func TestProcessor_ContextSignerWins(t *testing.T) {
	h := newHarness(t, nil)
	mine := nopSigner{key: solana.NewWallet().PublicKey()}

	h.proc.Handle(signer.WithSigner(context.Background(), mine), openSignal(1, "MintA", "S1"))

	require.Len(t, h.trader.signers, 1)
	assert.Equal(t, mine.PublicKey(), h.trader.signers[0].PublicKey())
}

func TestProcessor_DedupWithinTimeout(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.proc.Handle(ctx, openSignal(1, "MintA", "S1"))
	h.clock.Advance(10 * time.Second)
	h.proc.Handle(ctx, openSignal(2, "MintA", "S1"))
	assert.Len(t, h.trader.buys, 1)

	h.clock.Advance(25 * time.Second)
	h.proc.Handle(ctx, openSignal(3, "MintA", "S1"))
	assert.Len(t, h.trader.buys, 2)

	for _, id := range []int64{1, 2, 3} {
		_, err := h.signals.GetByMessageID(ctx, id)
		assert.NoError(t, err, "signal %d recorded even when skipped", id)
	}
}

func TestProcessor_FailedBuyDoesNotBlock(t *testing.T) {
	h := newHarness(t, nil)
	h.trader.buyErr = trader.ErrTradeFailed
	ctx := context.Background()

	h.proc.Handle(ctx, openSignal(1, "MintA", "S1"))
	h.proc.Handle(ctx, openSignal(2, "MintA", "S1"))

	assert.Len(t, h.trader.buys, 2)
	_, ok := h.proc.Memory().Get("MintA")
	assert.False(t, ok)
}

func TestProcessor_TradeOff(t *testing.T) {
	h := newHarness(t, func(o *ProcessorOptions) { o.TradeOn = false })
	ctx := context.Background()

	h.proc.Handle(ctx, openSignal(1, "MintA", "S1"))
	h.proc.Handle(ctx, closeSignal(2, "MintA", "S1", domain.OpStopLoss, -30))

	assert.Empty(t, h.trader.buys)
	assert.Empty(t, h.trader.sells)
	last, err := h.signals.LastMessageID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
}

func TestProcessor_StrategyFilter(t *testing.T) {
	h := newHarness(t, func(o *ProcessorOptions) {
		o.StrategyFilterOn = true
		o.FilterStrategies = []string{"S1"}
	})
	ctx := context.Background()

	h.proc.Memory().Commit("MintB", "S9", h.clock.Now())

	h.proc.Handle(ctx, openSignal(1, "MintA", "S2"))
	h.proc.Handle(ctx, closeSignal(2, "MintB", "S9", domain.OpTakeProfit, 20))
	h.proc.Handle(ctx, openSignal(3, "MintC", "S1"))

	require.Len(t, h.trader.buys, 1)
	assert.Equal(t, "MintC", h.trader.buys[0].Token)
	assert.Empty(t, h.trader.sells)

	_, ok := h.proc.Memory().Get("MintB")
	assert.False(t, ok, "close clears memory even when filtered")
}

func TestProcessor_CloseSells(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.proc.Handle(ctx, openSignal(1, "MintA", "S1"))
	h.proc.Handle(ctx, closeSignal(2, "MintA", "S1", domain.OpTakeProfit, 12))

	require.Len(t, h.trader.sells, 1)
	got := h.trader.sells[0]
	assert.Equal(t, int64(2), got.MessageID)
	assert.Equal(t, "MintA", got.Token)
	assert.Equal(t, domain.OpTakeProfit, got.OpType)
	assert.Equal(t, 12.0, got.ProfitPct)
	assert.Equal(t, 0.003, got.CurrentPrice)
	require.NotNil(t, got.Strategy)
	assert.Equal(t, "S1", got.Strategy.StrategyID)

	_, ok := h.proc.Memory().Get("MintA")
	assert.False(t, ok)
}

func TestProcessor_CloseUnknownStrategySellsAll(t *testing.T) {
	h := newHarness(t, nil)
	h.trader.sellErr = trader.ErrNoActiveTrade

	h.proc.Handle(context.Background(), closeSignal(1, "MintA", "Other", domain.OpManual, 0))

	require.Len(t, h.trader.sells, 1)
	assert.Nil(t, h.trader.sells[0].Strategy)
}

func TestProcessor_NoSignerSkipsTrade(t *testing.T) {
	h := newHarness(t, func(o *ProcessorOptions) { o.Signer = nil })
	ctx := context.Background()

	h.proc.Handle(ctx, openSignal(1, "MintA", "S1"))

	assert.Empty(t, h.trader.buys)
	_, err := h.signals.GetByMessageID(ctx, 1)
	assert.NoError(t, err)
}

func TestProcessor_RecoversPanics(t *testing.T) {
	h := newHarness(t, nil)
	h.trader.panicOn = "MintP"
	ctx := context.Background()

	assert.NotPanics(t, func() { h.proc.Handle(ctx, openSignal(1, "MintP", "S1")) })

	_, err := h.signals.GetByMessageID(ctx, 1)
	assert.NoError(t, err, "persist task unaffected")
}

func TestNewProcessor_Validation(t *testing.T) {
	_, err := NewProcessor(ProcessorOptions{})
	assert.Error(t, err)

	_, err = NewProcessor(ProcessorOptions{Trader: &fakeTrader{}, Signals: memory.NewSignalStore(), TradeOn: true})
	assert.Error(t, err, "trading needs a position size")
}
