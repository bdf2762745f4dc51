// Package metrics scores a finished backtest: pure functions over the
// equity curve and trade log, no side effects.
package metrics

import (
	"math"

	"github.com/traderlab/optioneer/portfolio"
)

// Options control annualization and the Sharpe/Sortino excess return.
type Options struct {
	RiskFreeRate   float64 // annual, decimal
	PeriodsPerYear float64 // 252 for daily bars
}

func DefaultOptions() Options {
	return Options{RiskFreeRate: 0.05, PeriodsPerYear: 252}
}

// Result is the fixed-shape record of performance metrics. Never mutated
// once computed.
type Result struct {
	TotalReturn      float64
	AnnualizedReturn float64
	Volatility       float64
	SharpeRatio      float64
	SortinoRatio     float64
	MaxDrawdown      float64
	WinRate          float64
	NumTrades        int
}

// Compute derives all metrics from an equity curve and trade log. A curve
// with fewer than two samples yields a zero Result. Ratios degrade to 0,
// never NaN: a flat curve has Sharpe 0, no losing periods means Sortino 0.
func Compute(equity []portfolio.EquityPoint, trades []portfolio.Trade, opts Options) Result {
	res := Result{NumTrades: len(trades), WinRate: winRate(trades)}
	if len(equity) < 2 {
		return res
	}
	if opts.PeriodsPerYear <= 0 {
		opts.PeriodsPerYear = 252
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}

	first, last := equity[0].Value, equity[len(equity)-1].Value
	if first != 0 {
		res.TotalReturn = last/first - 1
	}
	if res.TotalReturn <= -1 {
		// Margin or short losses can take equity below zero; compounding
		// is undefined past a total wipeout, so pin the annualized figure
		// at -100% instead of returning NaN.
		res.AnnualizedReturn = -1
	} else {
		res.AnnualizedReturn = math.Pow(1+res.TotalReturn, opts.PeriodsPerYear/float64(len(returns))) - 1
	}
	res.Volatility = stddev(returns) * math.Sqrt(opts.PeriodsPerYear)

	excess := res.AnnualizedReturn - opts.RiskFreeRate
	if res.Volatility > 0 {
		res.SharpeRatio = excess / res.Volatility
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideDev := stddev(downside) * math.Sqrt(opts.PeriodsPerYear)
	if downsideDev > 0 {
		res.SortinoRatio = excess / downsideDev
	}

	res.MaxDrawdown = MaxDrawdown(equity)
	return res
}

// MaxDrawdown is the largest peak-to-trough decline, as a fraction of the
// peak.
func MaxDrawdown(equity []portfolio.EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, pt := range equity {
		if pt.Value > peak {
			peak = pt.Value
		}
		if peak > 0 {
			dd := (peak - pt.Value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// winRate is the fraction of closing trades with positive realized P&L.
func winRate(trades []portfolio.Trade) float64 {
	closed, wins := 0, 0
	for _, t := range trades {
		if !t.Closing {
			continue
		}
		closed++
		if t.RealizedPL > 0 {
			wins++
		}
	}
	if closed == 0 {
		return 0
	}
	return float64(wins) / float64(closed)
}

// stddev is the sample standard deviation (n-1); 0 for fewer than two
// samples.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}
