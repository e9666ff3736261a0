// Package main runs the copy trader: it polls the signal feed, records every
// signal and trades it against pump.fun and Raydium.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"solana-copy-trader/internal/app"
	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/copier"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/logging"
	"solana-copy-trader/internal/observability"
	signalsrc "solana-copy-trader/internal/signal"
)

const shutdownGrace = 30 * time.Second

func main() {
	envFile := flag.String("env-file", "", "Path to .env file (default ENV_FILE or ./.env)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	tradeOn := flag.Bool("trade-on", false, "Execute trades (otherwise only record signals)")
	signalFile := flag.String("signal-file", "", "JSONL signal feed")
	strategiesFile := flag.String("strategies-file", "", "YAML strategy definitions")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Parse()

	if err := config.LoadDotenv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags set on the command line win over the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "use-memory":
			cfg.Storage.UseMemory = *useMemory
		case "trade-on":
			cfg.Trading.TradeOn = *tradeOn
		case "signal-file":
			cfg.Signals.SignalFile = *signalFile
		case "strategies-file":
			cfg.Signals.StrategiesFile = *strategiesFile
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Error("second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(shutdownGrace):
			logger.Error("graceful shutdown timed out, forcing exit", zap.Duration("after", shutdownGrace))
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)
	close(done)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("copier failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	strategies, err := loadStrategies(cfg.Signals.StrategiesFile, logger)
	if err != nil {
		return err
	}

	rt, err := app.Build(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.Trading.TradeOn && rt.Signer == nil {
		return errors.New("trading enabled without a signer")
	}
	if rt.Signer != nil {
		logger.Info("wallet", zap.String("address", rt.Signer.PublicKey().String()))
	}

	go rt.Blockhash.Run(ctx)

	proc, err := copier.NewProcessor(copier.ProcessorOptions{
		Trader:           rt.Trader,
		Signals:          rt.Stores.Signals,
		Strategies:       strategies,
		Memory:           copier.NewTradeMemory(cfg.Trading.DedupTimeout),
		Signer:           rt.Signer,
		TradeOn:          cfg.Trading.TradeOn,
		StrategyFilterOn: cfg.Trading.StrategyFilterOn,
		FilterStrategies: cfg.Trading.FilterStrategies,
		PositionSizeSOL:  cfg.Trading.PositionSizeSOL,
		SlippageBps:      cfg.Trading.SlippageBps,
		TipLamports:      cfg.Trading.TipLamports,
		Logger:           logger.Named("copier"),
	})
	if err != nil {
		return err
	}

	poller, err := copier.NewPoller(copier.PollerOptions{
		Source:   signalsrc.NewFileSource(cfg.Signals.SignalFile, logger.Named("signals")),
		Signals:  rt.Stores.Signals,
		Handler:  proc,
		Interval: cfg.Signals.PollInterval,
		Logger:   logger.Named("poller"),
	})
	if err != nil {
		return err
	}

	srv := startHTTPServer(cfg.MetricsAddr, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("copier started",
		zap.Bool("trade_on", cfg.Trading.TradeOn),
		zap.Bool("memory", cfg.Storage.UseMemory),
		zap.String("signal_file", cfg.Signals.SignalFile),
		zap.Strings("strategies", strategies.IDs()))

	return poller.Run(ctx)
}

// loadStrategies reads the strategy book. A missing file yields an empty
// book, so every close sells the whole position.
func loadStrategies(path string, logger *zap.Logger) (*domain.StrategyBook, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("strategy file not found, closes sell whole positions", zap.String("path", path))
		return domain.NewStrategyBook(nil)
	}
	return config.LoadStrategies(path)
}

func startHTTPServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	return srv
}
