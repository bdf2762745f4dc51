package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/traderlab/optioneer/backtest"
	"github.com/traderlab/optioneer/config"
	"github.com/traderlab/optioneer/journal"
	"github.com/traderlab/optioneer/market"
	"github.com/traderlab/optioneer/metrics"
	"github.com/traderlab/optioneer/notify"
	"github.com/traderlab/optioneer/risk"
	"github.com/traderlab/optioneer/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical bars through a trading strategy",
	Long: `Backtest replays a CSV bar file through a strategy and reports
risk-adjusted performance.

Supported strategies:
  - noop: does nothing (baseline test)
  - buy-once: buys a fixed position on the first bar
  - ema-cross: EMA crossover with configurable periods
  - covered-call: holds shares and writes synthetic calls priced by the kernel

Example:
  optioneer backtest --bars data/spy.csv --strategy ema-cross --fast 20 --slow 50`,
	RunE: runBacktest,
}

var (
	btConfigPath string
	btBarsPath   string
	btCapital    float64
	btStrategy   string
	btSymbol     string
	btUnits      float64
	btFast       int
	btSlow       int
	btFillModel  string
	btSlippage   float64
	btRiskMode   string
	btDBPath     string
	btNotify     bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "scenario config file (YAML or JSON); flags override")
	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV (time,symbol,open,high,low,close[,volume])")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", 100_000, "initial capital")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "noop", "strategy name (noop, buy-once, ema-cross, covered-call)")
	backtestCmd.Flags().StringVar(&btSymbol, "symbol", "SPY", "strategy symbol")
	backtestCmd.Flags().Float64VarP(&btUnits, "units", "u", 100, "order units (used by some strategies)")
	backtestCmd.Flags().IntVar(&btFast, "fast", 20, "ema-cross: fast EMA period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 50, "ema-cross: slow EMA period")
	backtestCmd.Flags().StringVar(&btFillModel, "fill", "close-price", "fill model (close-price, close-plus-slippage, bid-ask-midpoint)")
	backtestCmd.Flags().Float64Var(&btSlippage, "slippage-bps", 0, "slippage in basis points for close-plus-slippage")
	backtestCmd.Flags().StringVar(&btRiskMode, "risk-mode", "clamp", "infeasible order handling: clamp or fail")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "optional SQLite journal DB path")
	backtestCmd.Flags().BoolVar(&btNotify, "notify", false, "print completion alert")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	mopts := metrics.DefaultOptions()

	if btConfigPath != "" {
		cfg, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return err
		}
		if btBarsPath == "" {
			btBarsPath = cfg.Backtest.BarsFile
		}
		btCapital = cfg.Account.Capital
		btStrategy = cfg.Strategy.Name
		btSymbol = cfg.Strategy.Symbol
		btUnits = cfg.Strategy.Units
		btFast = cfg.Strategy.Fast
		btSlow = cfg.Strategy.Slow
		if cfg.Backtest.FillModel != "" {
			btFillModel = cfg.Backtest.FillModel
		}
		btSlippage = cfg.Backtest.SlippageBps
		if cfg.Backtest.RiskMode != "" {
			btRiskMode = cfg.Backtest.RiskMode
		}
		if cfg.Backtest.RiskFreeRate > 0 {
			mopts.RiskFreeRate = cfg.Backtest.RiskFreeRate
		}
		if cfg.Backtest.PeriodsPerYear > 0 {
			mopts.PeriodsPerYear = cfg.Backtest.PeriodsPerYear
		}
		if cfg.Journal.Type == "sqlite" && btDBPath == "" {
			btDBPath = cfg.Journal.DBPath
		}
	}
	if btBarsPath == "" {
		return fmt.Errorf("bars file is required (--bars or config)")
	}

	strat, err := strategies.ByName(btStrategy, btSymbol, btUnits, btFast, btSlow)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	fill, err := backtest.FillModelByName(btFillModel, btSlippage)
	if err != nil {
		return err
	}

	policy := risk.DefaultPolicy()
	if btRiskMode == "fail" {
		policy.Mode = risk.Fail
	}

	var j journal.Journal = journal.Nop{}
	if btDBPath != "" {
		sj, err := journal.NewSQLite(btDBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sj.Close()
		j = sj
	}

	feed, err := market.NewCSVBarFeed(btBarsPath, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}

	fmt.Printf("Running backtest with strategy: %s\n", strat.Name())
	fmt.Printf("  Bars: %s\n", btBarsPath)
	fmt.Printf("  Fill: %s, risk mode: %s\n\n", fill.Name(), policy.Mode)

	res, err := backtest.RunFeed(feed, backtest.Config{
		InitialCapital: btCapital,
		Fill:           fill,
		Risk:           policy,
		Journal:        j,
	}, strat)
	if err != nil {
		// Partial results are still worth reporting on failure.
		fmt.Printf("Run %s: %s\n", res.State, res.Reason)
		return err
	}

	perf := metrics.Compute(res.EquityCurve, res.Trades, mopts)

	fmt.Printf("Backtest %s (%s to %s)\n", res.State,
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"))
	fmt.Printf("  Final cash:    $%.2f\n", res.FinalCash)
	fmt.Printf("  Final equity:  $%.2f\n", res.FinalEquity)
	fmt.Printf("  Trades:        %d\n", perf.NumTrades)
	fmt.Printf("  Total return:  %.2f%%\n", perf.TotalReturn*100)
	fmt.Printf("  Annualized:    %.2f%%\n", perf.AnnualizedReturn*100)
	fmt.Printf("  Volatility:    %.2f%%\n", perf.Volatility*100)
	fmt.Printf("  Sharpe:        %.2f\n", perf.SharpeRatio)
	fmt.Printf("  Sortino:       %.2f\n", perf.SortinoRatio)
	fmt.Printf("  Max drawdown:  %.2f%%\n", perf.MaxDrawdown*100)
	fmt.Printf("  Win rate:      %.2f%%\n", perf.WinRate*100)

	if btNotify {
		notify.Send(notify.Console{}, "backtest %s: %s return %.2f%%, max drawdown %.2f%%",
			res.State, strat.Name(), perf.TotalReturn*100, perf.MaxDrawdown*100)
	}
	return nil
}
