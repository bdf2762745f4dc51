// Package strategies defines the decision contract the backtest engine
// drives and a few reference implementations. Strategies only propose
// Signals; applying them is the engine's job, which keeps replays
// deterministic.
package strategies

import (
	"errors"
	"fmt"
	"strings"

	"github.com/traderlab/optioneer/market"
	"github.com/traderlab/optioneer/portfolio"
)

// ErrInsufficientData reports that the visible history is shorter than the
// strategy's required lookback. The engine skips the bar or fails the run
// depending on its configuration.
var ErrInsufficientData = errors.New("insufficient history")

// Context is what a strategy may observe: the bar history accumulated so
// far and a read-only view of the portfolio. Strategies must not retain
// mutable engine state beyond this.
type Context struct {
	History   *market.History
	Portfolio portfolio.View
}

// Strategy is the lifecycle contract a backtest drives.
// OnStart runs once before replay, OnBar once per bar (and may return any
// number of signals, including none), OnEnd once after the final bar.
type Strategy interface {
	Name() string
	OnStart(ctx *Context) error
	OnBar(ctx *Context, bar market.Bar) ([]Signal, error)
	OnEnd(ctx *Context) error
}

var registry = make(map[string]Strategy)

func Register(name string, strat Strategy) {
	registry[name] = strat
}

func Get(name string) Strategy {
	return registry[name]
}

// ByName builds a strategy from a CLI-style selector with common knobs.
func ByName(name, symbol string, units float64, fast, slow int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return NoopStrategy{}, nil

	case "buy-once":
		return &BuyOnce{Symbol: symbol, Units: units}, nil

	case "ema-cross", "emacross":
		return NewEMACross(&EMACrossConfig{
			Symbol:     symbol,
			Units:      units,
			FastPeriod: fast,
			SlowPeriod: slow,
		}), nil

	case "covered-call":
		return NewCoveredCall(CoveredCallConfigDefaults(symbol)), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, buy-once, ema-cross, covered-call)", name)
	}
}
