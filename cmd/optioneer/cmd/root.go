package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optioneer",
	Short: "An options pricing and strategy backtesting toolkit",
	Long: `Optioneer values option contracts and backtests trading strategies.

It provides tools for:
  - Pricing options with Black-Scholes, binomial lattice and Monte Carlo models
  - Computing Greeks and implied volatility
  - Replaying historical bars through pluggable strategies
  - Position/portfolio accounting with average-cost P&L
  - Risk-adjusted performance metrics (Sharpe, Sortino, drawdown)
  - Journaling trades and equity curves to CSV or SQLite`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
