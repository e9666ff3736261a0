// Package app wires configuration into the stores, chain clients, signer and
// trader shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/accounts"
	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/httpclient"
	"solana-copy-trader/internal/metadata"
	"solana-copy-trader/internal/signer"
	"solana-copy-trader/internal/storage"
	chstore "solana-copy-trader/internal/storage/clickhouse"
	"solana-copy-trader/internal/storage/memory"
	"solana-copy-trader/internal/storage/migrations"
	pgstore "solana-copy-trader/internal/storage/postgres"
	"solana-copy-trader/internal/trader"
	"solana-copy-trader/internal/venue"
)

// Stores groups the persistence layer.
type Stores struct {
	Trades  storage.ActiveTradeStore
	Signals storage.SignalStore
	Reports storage.ExecutionReportStore
	close   func()
}

// Close releases database connections.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores returns memory stores, or postgres and clickhouse stores with
// migrations applied.
func OpenStores(ctx context.Context, cfg config.Storage, logger *zap.Logger) (*Stores, error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		return &Stores{
			Trades:  memory.NewActiveTradeStore(),
			Signals: memory.NewSignalStore(),
			Reports: memory.NewExecutionReportStore(),
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	return &Stores{
		Trades:  pgstore.NewActiveTradeStore(pool),
		Signals: pgstore.NewSignalStore(pool),
		Reports: chstore.NewExecutionReportStore(conn),
		close: func() {
			if err := conn.Close(); err != nil {
				logger.Warn("close clickhouse", zap.Error(err))
			}
			pool.Close()
		},
	}, nil
}

// Runtime is a fully wired trader with its dependencies.
type Runtime struct {
	Config    *config.Config
	Stores    *Stores
	RPC       *chain.HTTPClient
	Blockhash *signer.BlockhashCache
	Signer    signer.Signer // nil when no wallet is configured
	Trader    *trader.Trader

	ws *chain.WSClientImpl
}

// Options tweak Build.
type Options struct {
	// SkipConfirmer leaves transactions unconfirmed instead of opening a
	// websocket.
	SkipConfirmer bool
	Logger        *zap.Logger
}

// Build connects everything cfg describes. The caller owns the returned
// Runtime and must Close it.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *Runtime, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rt := &Runtime{Config: cfg}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	rt.Stores, err = OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	rt.RPC = chain.NewHTTPClient(cfg.Chain.RPCURL, chain.WithRateLimit(cfg.Chain.RPCRateLimit, int(cfg.Chain.RPCRateLimit)+1))

	bhOpts := signer.DefaultBlockhashOptions()
	bhOpts.RefreshInterval = cfg.Blockhash.RefreshInterval
	bhOpts.MaxAge = cfg.Blockhash.MaxAge
	bhOpts.Logger = logger.Named("blockhash")
	rt.Blockhash = signer.NewBlockhashCache(rt.RPC, bhOpts)

	rt.Signer, err = NewSigner(cfg, rt.RPC, rt.Blockhash, logger)
	if err != nil {
		return nil, err
	}

	var confirmer chain.Confirmer
	if !opts.SkipConfirmer && cfg.Chain.WSURL != "" {
		wsCfg := chain.DefaultWSConfig()
		wsCfg.Logger = logger.Named("ws")
		ws, werr := chain.NewWSClient(ctx, cfg.Chain.WSURL, &wsCfg)
		if werr != nil {
			logger.Warn("websocket unavailable, confirmations disabled", zap.Error(werr))
		} else {
			rt.ws = ws
			confirmer = ws
		}
	}

	fetcher := accounts.NewFetcher(rt.RPC, accounts.FetcherOptions{Logger: logger.Named("accounts")})
	metaHTTP := httpclient.Options{MaxRetries: 2, RateLimit: 5, Burst: 5, Logger: logger.Named("metadata")}
	resolver := metadata.NewHTTPResolver(
		metadata.NewPumpClient(cfg.Metadata.PumpURL, metaHTTP),
		metadata.NewDexScreenerClient(cfg.Metadata.DexScreenerURL, metaHTTP),
		logger.Named("metadata"),
	)

	rt.Trader = trader.New(trader.Options{
		Resolver:         resolver,
		AMM:              venue.NewAMMVenue(fetcher, rt.RPC, venue.AMMOptions{Logger: logger.Named("amm")}),
		BondingCurve:     venue.NewBondingCurveVenue(fetcher, venue.BondingCurveOptions{Logger: logger.Named("curve")}),
		Balances:         rt.RPC,
		Trades:           rt.Stores.Trades,
		Reports:          rt.Stores.Reports,
		Signer:           rt.Signer,
		Confirmer:        confirmer,
		ConfirmTimeout:   cfg.Trading.ConfirmTimeout,
		SubmitRetries:    cfg.Trading.SubmitRetries,
		ComputeUnitLimit: cfg.Trading.ComputeUnitLimit,
		ComputeUnitPrice: cfg.Trading.ComputeUnitPrice,
		Logger:           logger.Named("trader"),
	})
	return rt, nil
}

// Close releases the websocket and the stores.
func (rt *Runtime) Close() {
	if rt.ws != nil {
		rt.ws.Close()
	}
	if rt.Stores != nil {
		rt.Stores.Close()
	}
}

// NewSigner builds the signer cfg selects. It returns nil, nil when the local
// mode has no key, which leaves the runtime read-only.
func NewSigner(cfg *config.Config, rpc chain.TransactionSender, cache *signer.BlockhashCache, logger *zap.Logger) (signer.Signer, error) {
	switch cfg.Signer.Mode {
	case config.SignerDelegated:
		pub, err := solana.PublicKeyFromBase58(cfg.Signer.WalletAddress)
		if err != nil {
			return nil, fmt.Errorf("custody wallet address: %w", err)
		}
		s, err := signer.NewDelegatedSigner(signer.DelegatedConfig{
			BaseURL:   cfg.Signer.CustodyURL,
			AppID:     cfg.Signer.CustodyAppID,
			AppSecret: cfg.Signer.CustodyAppSecret,
			WalletID:  cfg.Signer.CustodyWalletID,
			PublicKey: pub,
		}, cache, signer.DelegatedOptions{Logger: logger})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SignerLocal:
		if cfg.Signer.PrivateKey == "" {
			return nil, nil
		}
		key, err := signer.ParsePrivateKey(cfg.Signer.PrivateKey)
		if err != nil {
			return nil, err
		}
		return signer.NewLocalSigner(key, rpc, cache, signer.LocalOptions{Logger: logger.Named("signer")}), nil
	default:
		return nil, errors.New("unknown signer mode " + string(cfg.Signer.Mode))
	}
}
