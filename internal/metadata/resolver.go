package metadata

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
)

// Source resolves token metadata from one service.
type Source interface {
	TokenInfo(ctx context.Context, address string) (*domain.TokenInfo, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, address string) (*domain.TokenInfo, error)

func (f SourceFunc) TokenInfo(ctx context.Context, address string) (*domain.TokenInfo, error) {
	return f(ctx, address)
}

// Resolver tries pump.fun first and falls back to DexScreener.
type Resolver struct {
	pump     Source
	fallback Source
	logger   *zap.Logger
}

// NewResolver creates a Resolver. Either source may be nil.
func NewResolver(pump, fallback Source, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{pump: pump, fallback: fallback, logger: logger}
}

// NewHTTPResolver wires the pump.fun and DexScreener clients.
func NewHTTPResolver(pump *PumpClient, dex *DexScreenerClient, logger *zap.Logger) *Resolver {
	return NewResolver(SourceFunc(pump.Coin), SourceFunc(dex.Search), logger)
}

// TokenInfo returns metadata for address. Returns ErrNoTokenInfo if both sources fail.
func (r *Resolver) TokenInfo(ctx context.Context, address string) (*domain.TokenInfo, error) {
	var pumpErr, dexErr error

	if r.pump != nil {
		info, err := r.pump.TokenInfo(ctx, address)
		if err == nil {
			return info, nil
		}
		pumpErr = err
		r.logger.Debug("pump.fun lookup failed", zap.String("token", address), zap.Error(err))
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if r.fallback != nil {
		info, err := r.fallback.TokenInfo(ctx, address)
		if err == nil {
			return info, nil
		}
		dexErr = err
		r.logger.Debug("dexscreener lookup failed", zap.String("token", address), zap.Error(err))
	}

	return nil, fmt.Errorf("%w: %s: pump: %v, dexscreener: %v", ErrNoTokenInfo, address, pumpErr, dexErr)
}
