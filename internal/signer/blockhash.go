package signer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/observability"
)

// BlockhashOptions configures a BlockhashCache.
type BlockhashOptions struct {
	MaxAge          time.Duration
	RefreshInterval time.Duration
	Commitment      chain.Commitment
	Logger          *zap.Logger
	Now             func() time.Time
}

// DefaultBlockhashOptions returns the default cache settings.
func DefaultBlockhashOptions() BlockhashOptions {
	return BlockhashOptions{
		MaxAge:          60 * time.Second,
		RefreshInterval: 10 * time.Second,
		Commitment:      chain.CommitmentFinalized,
	}
}

// BlockhashCache serves a recent blockhash, refreshing it on a ticker and on
// demand once it is older than MaxAge.
type BlockhashCache struct {
	src  chain.BlockhashSource
	opts BlockhashOptions

	mu        sync.RWMutex
	hash      solana.Hash
	fetchedAt time.Time

	refreshMu sync.Mutex
}

// NewBlockhashCache creates a cache over src. Nothing is fetched until Get,
// Refresh or Run.
func NewBlockhashCache(src chain.BlockhashSource, opts BlockhashOptions) *BlockhashCache {
	def := DefaultBlockhashOptions()
	if opts.MaxAge <= 0 {
		opts.MaxAge = def.MaxAge
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = def.RefreshInterval
	}
	if opts.Commitment == "" {
		opts.Commitment = def.Commitment
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BlockhashCache{src: src, opts: opts}
}

func (c *BlockhashCache) cached() (solana.Hash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fetchedAt.IsZero() || c.opts.Now().Sub(c.fetchedAt) >= c.opts.MaxAge {
		return solana.Hash{}, false
	}
	return c.hash, true
}

// Get returns the cached blockhash, refreshing first if it is stale.
func (c *BlockhashCache) Get(ctx context.Context) (solana.Hash, error) {
	if h, ok := c.cached(); ok {
		return h, nil
	}

	// One caller refreshes; the rest reuse its result.
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if h, ok := c.cached(); ok {
		return h, nil
	}
	if err := c.refreshLocked(ctx); err != nil {
		return solana.Hash{}, err
	}
	h, _ := c.cached()
	return h, nil
}

// Refresh fetches a new blockhash unconditionally.
func (c *BlockhashCache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *BlockhashCache) refreshLocked(ctx context.Context) error {
	latest, err := c.src.GetLatestBlockhash(ctx, c.opts.Commitment)
	observability.RecordBlockhashRefresh(err)
	if err != nil {
		return fmt.Errorf("refresh blockhash: %w", err)
	}

	c.mu.Lock()
	c.hash = latest.Blockhash
	c.fetchedAt = c.opts.Now()
	c.mu.Unlock()
	return nil
}

// Invalidate forces the next Get to refresh.
func (c *BlockhashCache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Run refreshes on every RefreshInterval until ctx is done.
func (c *BlockhashCache) Run(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
		c.opts.Logger.Warn("initial blockhash refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				c.opts.Logger.Warn("blockhash refresh failed", zap.Error(err))
			}
		}
	}
}
