package pricing

import (
	"fmt"
	"math"
)

// Binomial prices with a recombining Cox-Ross-Rubinstein lattice. Unlike
// the closed form it handles American early exercise; as Steps grows the
// European price converges to Black-Scholes.
type Binomial struct {
	// Steps is the lattice depth; a precision/cost trade-off with typical
	// values in the 100-500 range.
	Steps int
}

func (Binomial) Name() string { return "binomial" }

func (m Binomial) Price(spec OptionSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}
	if m.Steps <= 0 {
		return Result{}, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidParameter, m.Steps)
	}

	if spec.TimeToExpiry == 0 {
		return Result{Price: spec.Intrinsic(spec.Spot), Greeks: expiryGreeks(spec)}, nil
	}
	if spec.Volatility == 0 {
		// Degenerate lattice (u == d == 1) has no spread to induct over.
		res := Result{Price: discountedIntrinsic(spec), Greeks: zeroVolGreeks(spec)}
		if spec.Style == American {
			// Early exercise dominates whenever intrinsic beats the
			// discounted forward value.
			res.Price = max(res.Price, spec.Intrinsic(spec.Spot))
		}
		return res, nil
	}

	n := m.Steps
	dt := spec.TimeToExpiry / float64(n)
	u := math.Exp(spec.Volatility * math.Sqrt(dt))
	d := 1 / u
	p := (math.Exp(spec.Rate*dt) - d) / (u - d)
	discount := math.Exp(-spec.Rate * dt)

	// A deep-in-the-money rate/vol combination can push the risk-neutral
	// probability outside [0,1]; clamp instead of producing negative
	// weights.
	p = clamp(p, 0, 1)

	// Terminal payoffs. values[j] holds the node with j down-moves.
	values := make([]float64, n+1)
	for j := 0; j <= n; j++ {
		values[j] = spec.Intrinsic(spec.Spot * math.Pow(u, float64(n-j)) * math.Pow(d, float64(j)))
	}

	earlyNodes := 0

	// Retained first levels for tree Greeks. For the shallowest lattices
	// those levels are the terminal one.
	var level1, level2 []float64
	if n == 1 {
		level1 = append([]float64(nil), values[:2]...)
	}
	if n == 2 {
		level2 = append([]float64(nil), values[:3]...)
	}

	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			hold := discount * (p*values[j] + (1-p)*values[j+1])
			if spec.Style == American {
				exercise := spec.Intrinsic(spec.Spot * math.Pow(u, float64(i-j)) * math.Pow(d, float64(j)))
				if exercise > hold {
					hold = exercise
					earlyNodes++
				}
			}
			values[j] = hold
		}
		switch i {
		case 2:
			level2 = append([]float64(nil), values[:3]...)
		case 1:
			level1 = append([]float64(nil), values[:2]...)
		}
	}

	g := &Greeks{}
	if n >= 1 {
		sUp := spec.Spot * u
		sDown := spec.Spot * d
		g.Delta = (level1[0] - level1[1]) / (sUp - sDown)
	}
	if n >= 2 {
		sUU := spec.Spot * u * u
		sDD := spec.Spot * d * d
		deltaUp := (level2[0] - level2[1]) / (sUU - spec.Spot)
		deltaDown := (level2[1] - level2[2]) / (spec.Spot - sDD)
		g.Gamma = (deltaUp - deltaDown) / (0.5 * (sUU - sDD))
	}

	return Result{Price: values[0], Greeks: g, EarlyExerciseNodes: earlyNodes}, nil
}

// EarlyExercisePremium reports how much the right to exercise early is
// worth: the American price minus the European price of the same spec.
func (m Binomial) EarlyExercisePremium(spec OptionSpec) (float64, error) {
	american := spec
	american.Style = American
	european := spec
	european.Style = European

	a, err := m.Price(american)
	if err != nil {
		return 0, err
	}
	e, err := m.Price(european)
	if err != nil {
		return 0, err
	}
	return a.Price - e.Price, nil
}
