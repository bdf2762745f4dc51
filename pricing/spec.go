// Package pricing values option contracts under three interchangeable models:
// Black-Scholes closed form, Cox-Ross-Rubinstein binomial lattice, and
// Monte Carlo simulation. All models share the OptionSpec input and the
// Result output so callers can swap them freely.
package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter reports a malformed pricing input. It is always
// returned wrapped with the offending field.
var ErrInvalidParameter = errors.New("invalid parameter")

// Kind selects call or put.
type Kind int8

const (
	Call Kind = iota
	Put
)

func (k Kind) String() string {
	if k == Put {
		return "put"
	}
	return "call"
}

// Style selects the exercise style.
type Style int8

const (
	European Style = iota
	American
)

func (s Style) String() string {
	if s == American {
		return "american"
	}
	return "european"
}

// OptionSpec is the immutable input to every pricing model.
//
// Rate and Volatility are annualized decimals, TimeToExpiry is in years.
type OptionSpec struct {
	Spot         float64
	Strike       float64
	Rate         float64
	Volatility   float64
	TimeToExpiry float64
	Kind         Kind
	Style        Style
}

// Validate checks the spec the same way for every model: spot and strike
// must be positive, volatility and time-to-expiry non-negative. The rate
// may be any real number.
func (s OptionSpec) Validate() error {
	if s.Spot <= 0 {
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidParameter, s.Spot)
	}
	if s.Strike <= 0 {
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidParameter, s.Strike)
	}
	if s.Volatility < 0 {
		return fmt.Errorf("%w: volatility must be non-negative, got %v", ErrInvalidParameter, s.Volatility)
	}
	if s.TimeToExpiry < 0 {
		return fmt.Errorf("%w: time to expiry must be non-negative, got %v", ErrInvalidParameter, s.TimeToExpiry)
	}
	return nil
}

// Intrinsic returns the exercise value of the option at the given spot.
func (s OptionSpec) Intrinsic(spot float64) float64 {
	if s.Kind == Call {
		return max(spot-s.Strike, 0)
	}
	return max(s.Strike-spot, 0)
}

// Pricer is the capability every valuation model implements.
type Pricer interface {
	Name() string
	Price(spec OptionSpec) (Result, error)
}

// PriceBoth values the call and put sides of the same terms under one
// model; handy for parity checks and straddle quotes.
func PriceBoth(p Pricer, spec OptionSpec) (call, put Result, err error) {
	c := spec
	c.Kind = Call
	call, err = p.Price(c)
	if err != nil {
		return Result{}, Result{}, err
	}

	q := spec
	q.Kind = Put
	put, err = p.Price(q)
	if err != nil {
		return Result{}, Result{}, err
	}
	return call, put, nil
}

// ByName returns a model for a CLI-style selector: "black-scholes",
// "binomial" or "monte-carlo". Numeric knobs come from the caller.
func ByName(name string, steps, paths int, seed int64) (Pricer, error) {
	switch name {
	case "black-scholes", "bs":
		return BlackScholes{}, nil
	case "binomial", "tree":
		return Binomial{Steps: steps}, nil
	case "monte-carlo", "mc":
		return &MonteCarlo{Paths: paths, Seed: seed}, nil
	default:
		return nil, fmt.Errorf("%w: unknown model %q (supported: black-scholes, binomial, monte-carlo)", ErrInvalidParameter, name)
	}
}
