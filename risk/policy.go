// Package risk holds the order feasibility policy the backtest engine
// consults before applying a fill, plus position sizing helpers.
package risk

import (
	"errors"
	"fmt"
)

// ErrRejected reports an order the policy refused outright (Fail mode).
var ErrRejected = errors.New("order exceeds risk limits")

// Mode decides what happens to an infeasible order: clamp it to the largest
// feasible quantity, or fail the whole run. This is an explicit policy
// choice; the engine never silently mis-sizes an order.
type Mode int8

const (
	Clamp Mode = iota
	Fail
)

func (m Mode) String() string {
	if m == Fail {
		return "fail"
	}
	return "clamp"
}

// Policy bounds what a single order may do.
type Policy struct {
	Mode        Mode
	AllowShort  bool // sells may exceed the current long position
	AllowMargin bool // buys may exceed available cash

	// SizingFraction is the fraction of equity committed when a signal
	// leaves sizing to the engine (quantity 0). Defaults to 0.10.
	SizingFraction float64
}

func DefaultPolicy() Policy {
	return Policy{Mode: Clamp, SizingFraction: 0.10}
}

// AdjustBuy bounds a buy to what cash supports when margin is disallowed.
// Returns the executable quantity, which is 0 when nothing is feasible.
func (p Policy) AdjustBuy(requested, price, cash float64) (float64, error) {
	if requested <= 0 || price <= 0 {
		return 0, fmt.Errorf("%w: buy of %v at %v", ErrRejected, requested, price)
	}
	if p.AllowMargin {
		return requested, nil
	}

	affordable := cash / price
	if requested <= affordable {
		return requested, nil
	}
	if p.Mode == Fail {
		return 0, fmt.Errorf("%w: buy %v at %v needs %.2f cash, have %.2f",
			ErrRejected, requested, price, requested*price, cash)
	}
	return affordable, nil
}

// AdjustSell bounds a sell to the current long position when shorting is
// disallowed.
func (p Policy) AdjustSell(requested, held float64) (float64, error) {
	if requested <= 0 {
		return 0, fmt.Errorf("%w: sell of %v", ErrRejected, requested)
	}
	if p.AllowShort {
		return requested, nil
	}

	if held <= 0 {
		if p.Mode == Fail {
			return 0, fmt.Errorf("%w: sell %v with no long position", ErrRejected, requested)
		}
		return 0, nil
	}
	if requested <= held {
		return requested, nil
	}
	if p.Mode == Fail {
		return 0, fmt.Errorf("%w: sell %v exceeds long position %v", ErrRejected, requested, held)
	}
	return held, nil
}

// Size computes the engine-default quantity for an unsized signal: the
// policy's sizing fraction of current equity, floored to whole units.
func (p Policy) Size(equity, price float64) float64 {
	if price <= 0 || equity <= 0 {
		return 0
	}
	fraction := p.SizingFraction
	if fraction <= 0 {
		fraction = 0.10
	}
	units := equity * fraction / price
	return float64(int64(units))
}
