package copier

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage/memory"
)

type fakeSource struct {
	mu      sync.Mutex
	signals []domain.Signal
	afters  []int64
	err     error
}

func (s *fakeSource) Fetch(_ context.Context, after int64) ([]domain.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afters = append(s.afters, after)
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Signal
	for _, sig := range s.signals {
		if sig.MessageID > after {
			out = append(out, sig)
		}
	}
	return out, nil
}

type recordingHandler struct {
	mu    sync.Mutex
	ids   []int64
	block chan struct{}
}

func (h *recordingHandler) Handle(_ context.Context, sig domain.Signal) {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, sig.MessageID)
}

func (h *recordingHandler) handled() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]int64(nil), h.ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestPoller_TickDispatchesNewSignals(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSignalStore()
	require.NoError(t, store.Insert(ctx, &domain.SignalRecord{Signal: openSignal(2, "MintA", "S1")}))

	src := &fakeSource{signals: []domain.Signal{
		openSignal(1, "MintA", "S1"),
		openSignal(2, "MintA", "S1"),
		openSignal(3, "MintB", "S1"),
		openSignal(4, "MintC", "S1"),
	}}
	h := &recordingHandler{}
	p, err := NewPoller(PollerOptions{Source: src, Signals: store, Handler: h})
	require.NoError(t, err)

	var wg conc.WaitGroup
	p.Tick(ctx, &wg)
	wg.Wait()

	assert.Equal(t, []int64{3, 4}, h.handled())
	assert.Equal(t, []int64{2}, src.afters)
}

func TestPoller_InflightSignalsNotRedispatched(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{signals: []domain.Signal{openSignal(1, "MintA", "S1")}}
	h := &recordingHandler{block: make(chan struct{})}
	p, err := NewPoller(PollerOptions{Source: src, Signals: memory.NewSignalStore(), Handler: h})
	require.NoError(t, err)

	var wg conc.WaitGroup
	p.Tick(ctx, &wg)
	// The handler has not persisted anything yet; the poller's own cursor
	// must keep the second tick from handing out the signal again.
	p.Tick(ctx, &wg)
	close(h.block)
	wg.Wait()

	assert.Equal(t, []int64{1}, h.handled())
	assert.Equal(t, []int64{0, 1}, src.afters)
}

func TestPoller_FetchErrorIsLogged(t *testing.T) {
	src := &fakeSource{err: errors.New("feed down")}
	h := &recordingHandler{}
	p, err := NewPoller(PollerOptions{Source: src, Signals: memory.NewSignalStore(), Handler: h})
	require.NoError(t, err)

	var wg conc.WaitGroup
	p.Tick(context.Background(), &wg)
	wg.Wait()

	assert.Empty(t, h.handled())
}

func TestPoller_RunStopsAndDrains(t *testing.T) {
	src := &fakeSource{signals: []domain.Signal{openSignal(1, "MintA", "S1"), openSignal(2, "MintB", "S1")}}
	h := &recordingHandler{}
	p, err := NewPoller(PollerOptions{
		Source:   src,
		Signals:  memory.NewSignalStore(),
		Handler:  h,
		Interval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(h.handled()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, []int64{1, 2}, h.handled())
}

func TestPoller_WithProcessor(t *testing.T) {
	h := newHarness(t, nil)
	src := &fakeSource{signals: []domain.Signal{
		openSignal(1, "MintA", "S1"),
		closeSignal(2, "MintB", "S1", domain.OpStopLoss, -30),
	}}
	p, err := NewPoller(PollerOptions{Source: src, Signals: h.signals, Handler: h.proc})
	require.NoError(t, err)

	var wg conc.WaitGroup
	p.Tick(context.Background(), &wg)
	wg.Wait()

	last, err := h.signals.LastMessageID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
	assert.Len(t, h.trader.buys, 1)
	assert.Len(t, h.trader.sells, 1)
}

func TestNewPoller_RequiresDependencies(t *testing.T) {
	_, err := NewPoller(PollerOptions{})
	assert.Error(t, err)
}
