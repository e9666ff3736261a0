// Package main is a manual trading CLI over the same trader the copier uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"solana-copy-trader/internal/app"
	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/logging"
	"solana-copy-trader/internal/trader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	envFile   string
	useMemory bool
	noConfirm bool
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "tradectl",
		Short:         "Manual buys, sells and position inspection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to .env file (default ENV_FILE or ./.env)")
	root.PersistentFlags().BoolVar(&opts.useMemory, "use-memory", false, "Use in-memory storage")
	root.PersistentFlags().BoolVar(&opts.noConfirm, "no-confirm", false, "Do not wait for on-chain confirmation")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(buyCmd(opts), sellCmd(opts), infoCmd(opts), positionsCmd(opts))
	return root
}

// runtime loads configuration and wires a trader. Confirmation is skipped
// unless confirm is set and --no-confirm is not.
func (o *rootOptions) runtime(cmd *cobra.Command, confirm bool) (*app.Runtime, error) {
	if err := config.LoadDotenv(o.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("use-memory") {
		cfg.Storage.UseMemory = o.useMemory
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), cfg, app.Options{SkipConfirmer: !confirm || o.noConfirm, Logger: logger})
}

func buyCmd(root *rootOptions) *cobra.Command {
	var (
		sol        float64
		strategyID string
		slippage   uint16
		tip        uint64
		price      float64
	)
	cmd := &cobra.Command{
		Use:   "buy <mint>",
		Short: "Buy a token and record the position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sol <= 0 {
				return errors.New("--sol must be positive")
			}
			rt, err := root.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if !cmd.Flags().Changed("slippage-bps") {
				slippage = rt.Config.Trading.SlippageBps
			}
			exec, err := rt.Trader.MetaBuy(cmd.Context(), trader.BuyOrder{
				Token:       args[0],
				StrategyID:  strategyID,
				SolAmount:   sol,
				SlippageBps: slippage,
				TipLamports: tip,
				EntryPrice:  price,
			})
			if err != nil {
				return err
			}
			printExecution(cmd, "bought", exec)
			return nil
		},
	}
	cmd.Flags().Float64Var(&sol, "sol", 0, "SOL to spend")
	cmd.Flags().StringVar(&strategyID, "strategy", "manual", "Strategy the position belongs to")
	cmd.Flags().Uint16Var(&slippage, "slippage-bps", 0, "Slippage tolerance in basis points")
	cmd.Flags().Uint64Var(&tip, "tip", 0, "Priority tip in lamports")
	cmd.Flags().Float64Var(&price, "price", 0, "Entry price to record")
	_ = cmd.MarkFlagRequired("sol")
	return cmd
}

func sellCmd(root *rootOptions) *cobra.Command {
	var (
		strategyID string
		pct        float64
		op         string
		slippage   uint16
		tip        uint64
		price      float64
	)
	cmd := &cobra.Command{
		Use:   "sell <mint>",
		Short: "Sell all or part of a position using the strategy's exit rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opType, err := domain.ParseOperationType(op)
			if err != nil {
				return err
			}
			rt, err := root.runtime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			strat, err := lookupStrategy(rt.Config.Signals.StrategiesFile, strategyID)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("slippage-bps") {
				slippage = rt.Config.Trading.SlippageBps
			}
			exec, err := rt.Trader.MetaSell(cmd.Context(), trader.SellOrder{
				Token:        args[0],
				StrategyID:   strategyID,
				ProfitPct:    pct,
				OpType:       opType,
				Strategy:     strat,
				SlippageBps:  slippage,
				TipLamports:  tip,
				CurrentPrice: price,
			})
			if err != nil {
				return err
			}
			printExecution(cmd, "sold", exec)
			return nil
		},
	}
	cmd.Flags().StringVar(&strategyID, "strategy", "manual", "Strategy the position belongs to")
	cmd.Flags().Float64Var(&pct, "pct", 0, "Profit percentage driving the exit rule")
	cmd.Flags().StringVar(&op, "op", string(domain.OpManual), "Exit reason: SL, TP, TSL or Manual")
	cmd.Flags().Uint16Var(&slippage, "slippage-bps", 0, "Slippage tolerance in basis points")
	cmd.Flags().Uint64Var(&tip, "tip", 0, "Priority tip in lamports")
	cmd.Flags().Float64Var(&price, "price", 0, "Current price, raises the recorded high")
	return cmd
}

func infoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <mint>",
		Short: "Show routing metadata for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.runtime(cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			info, err := rt.Trader.TokenInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mint:          %s\n", info.Mint)
			fmt.Fprintf(out, "name:          %s (%s)\n", info.Name, info.Symbol)
			fmt.Fprintf(out, "source:        %s\n", info.Source)
			fmt.Fprintf(out, "complete:      %t\n", info.Complete)
			fmt.Fprintf(out, "bonding curve: %s\n", orDash(info.BondingCurve))
			fmt.Fprintf(out, "amm pool:      %s\n", orDash(info.AMMPool))
			return nil
		},
	}
}

func positionsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime(cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			list, err := rt.Trader.Positions(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no open positions")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOKEN\tNAME\tSTRATEGY\tREMAINING\tINITIAL\tENTRY\tHIGH\tOPENED")
			for _, p := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%g\t%s\n",
					p.TokenAddress, p.TokenName, p.StrategyID,
					p.RemainingHoldings, p.InitialHoldings,
					p.EntryPrice, p.HighestPrice,
					time.Unix(p.CreatedAt, 0).UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

// lookupStrategy returns nil when the file or the strategy is missing, which
// sells the whole position.
func lookupStrategy(path, id string) (*domain.Strategy, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	book, err := config.LoadStrategies(path)
	if err != nil {
		return nil, err
	}
	s, _ := book.Get(id)
	return s, nil
}

func printExecution(cmd *cobra.Command, verb string, e *trader.Execution) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d via %s (attempts %d), holdings %d\nsignature %s\n",
		verb, e.Amount, e.Venue, e.Attempts, e.Holdings, e.Signature)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
