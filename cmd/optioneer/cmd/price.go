package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/traderlab/optioneer/pricing"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Value an option contract",
	Long: `Price values a single option contract under a chosen model.

Models:
  black-scholes  closed form with full Greeks (European)
  binomial       CRR lattice, supports American early exercise
  monte-carlo    GBM simulation with vanilla/asian/barrier payoffs

Example:
  optioneer price --spot 100 --strike 105 --vol 0.25 --expiry 0.5 --model binomial --steps 500 --american`,
	RunE: runPrice,
}

var (
	prSpot     float64
	prStrike   float64
	prRate     float64
	prVol      float64
	prExpiry   float64
	prPut      bool
	prAmerican bool

	prModel   string
	prSteps   int
	prPaths   int
	prSeed    int64
	prPayoff  string
	prBarrier float64
)

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().Float64Var(&prSpot, "spot", 100, "spot price of the underlying")
	priceCmd.Flags().Float64Var(&prStrike, "strike", 100, "strike price")
	priceCmd.Flags().Float64Var(&prRate, "rate", 0.05, "annual risk-free rate (decimal)")
	priceCmd.Flags().Float64Var(&prVol, "vol", 0.2, "annual volatility (decimal)")
	priceCmd.Flags().Float64Var(&prExpiry, "expiry", 1, "time to expiry in years")
	priceCmd.Flags().BoolVar(&prPut, "put", false, "price a put instead of a call")
	priceCmd.Flags().BoolVar(&prAmerican, "american", false, "American exercise style (binomial only)")

	priceCmd.Flags().StringVarP(&prModel, "model", "m", "black-scholes", "pricing model (black-scholes, binomial, monte-carlo)")
	priceCmd.Flags().IntVar(&prSteps, "steps", 250, "binomial: lattice steps")
	priceCmd.Flags().IntVar(&prPaths, "paths", 100_000, "monte-carlo: simulation paths")
	priceCmd.Flags().Int64Var(&prSeed, "seed", 0, "monte-carlo: random seed (0 = nondeterministic)")
	priceCmd.Flags().StringVar(&prPayoff, "payoff", "vanilla", "monte-carlo: payoff kind (vanilla, asian, barrier-down, barrier-up)")
	priceCmd.Flags().Float64Var(&prBarrier, "barrier", 0, "monte-carlo: barrier level for knockout payoffs")
}

func runPrice(cmd *cobra.Command, args []string) error {
	spec := pricing.OptionSpec{
		Spot:         prSpot,
		Strike:       prStrike,
		Rate:         prRate,
		Volatility:   prVol,
		TimeToExpiry: prExpiry,
	}
	if prPut {
		spec.Kind = pricing.Put
	}
	if prAmerican {
		spec.Style = pricing.American
	}

	model, err := pricing.ByName(prModel, prSteps, prPaths, prSeed)
	if err != nil {
		return err
	}
	if mc, ok := model.(*pricing.MonteCarlo); ok {
		payoff, err := pricing.PayoffByName(prPayoff, prBarrier)
		if err != nil {
			return err
		}
		mc.Payoff = payoff
	}

	res, err := model.Price(spec)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s @ %.2f/%.2f (vol %.2f, rate %.2f, T %.3fy)\n",
		model.Name(), spec.Kind, spec.Spot, spec.Strike, spec.Volatility, spec.Rate, spec.TimeToExpiry)
	fmt.Printf("  Price: %.4f\n", res.Price)

	if res.Greeks != nil {
		g := res.Greeks
		fmt.Printf("  Delta: %.4f  Gamma: %.4f  Theta: %.4f  Vega: %.4f  Rho: %.4f\n",
			g.Delta, g.Gamma, g.Theta, g.Vega, g.Rho)
	}
	if res.Confidence != nil {
		fmt.Printf("  95%% CI: [%.4f, %.4f]  StdErr: %.5f  Paths: %d\n",
			res.Confidence.Low, res.Confidence.High, res.Confidence.StdError, res.Paths)
	}
	if res.EarlyExerciseNodes > 0 {
		fmt.Printf("  Early exercise optimal at %d nodes\n", res.EarlyExerciseNodes)
	}
	if res.Warning != "" {
		fmt.Printf("  Warning: %s\n", res.Warning)
	}
	return nil
}
