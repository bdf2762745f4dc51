package pricing

import (
	"fmt"
	"math"
)

// BlackScholes is the closed-form Black-Scholes-Merton model. It assumes
// European exercise, lognormal returns and constant rate/volatility.
// American specs are priced as if European; use Binomial for early exercise.
type BlackScholes struct{}

func (BlackScholes) Name() string { return "black-scholes" }

// Price values the option and computes the full set of Greeks.
//
// Degenerate limits are substituted, never faulted on:
//   - TimeToExpiry == 0: price is max(intrinsic, 0), delta becomes a
//     moneyness indicator, the remaining Greeks are 0.
//   - Volatility == 0: price is the discounted intrinsic value.
func (m BlackScholes) Price(spec OptionSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	if spec.TimeToExpiry == 0 {
		return Result{
			Price:  spec.Intrinsic(spec.Spot),
			Greeks: expiryGreeks(spec),
		}, nil
	}
	if spec.Volatility == 0 {
		return Result{
			Price:  discountedIntrinsic(spec),
			Greeks: zeroVolGreeks(spec),
		}, nil
	}

	d1, d2 := d1d2(spec)
	sqrtT := math.Sqrt(spec.TimeToExpiry)
	discount := math.Exp(-spec.Rate * spec.TimeToExpiry)

	var price float64
	if spec.Kind == Call {
		price = spec.Spot*normCDF(d1) - spec.Strike*discount*normCDF(d2)
	} else {
		price = spec.Strike*discount*normCDF(-d2) - spec.Spot*normCDF(-d1)
	}

	g := &Greeks{
		Gamma: normPDF(d1) / (spec.Spot * spec.Volatility * sqrtT),
		Vega:  spec.Spot * normPDF(d1) * sqrtT / 100,
	}

	term1 := -(spec.Spot * normPDF(d1) * spec.Volatility) / (2 * sqrtT)
	if spec.Kind == Call {
		g.Delta = normCDF(d1)
		g.Theta = (term1 - spec.Rate*spec.Strike*discount*normCDF(d2)) / 365
		g.Rho = spec.Strike * spec.TimeToExpiry * discount * normCDF(d2) / 100
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = (term1 + spec.Rate*spec.Strike*discount*normCDF(-d2)) / 365
		g.Rho = -spec.Strike * spec.TimeToExpiry * discount * normCDF(-d2) / 100
	}

	return Result{Price: price, Greeks: g}, nil
}

// ImpliedVolatility solves for the volatility that reproduces marketPrice
// using Newton-Raphson with a Brenner-Subrahmanyam initial guess. Sigma is
// bounded to [0.001, 5.0] between iterations.
func (m BlackScholes) ImpliedVolatility(spec OptionSpec, marketPrice float64) (float64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	if spec.TimeToExpiry == 0 {
		return 0, fmt.Errorf("%w: implied volatility undefined at expiry", ErrInvalidParameter)
	}

	const (
		tolerance = 1e-6
		maxIter   = 100
	)

	sigma := math.Sqrt(2*math.Pi/spec.TimeToExpiry) * marketPrice / spec.Spot
	sigma = clamp(sigma, 0.001, 5.0)

	for i := 0; i < maxIter; i++ {
		trial := spec
		trial.Volatility = sigma

		res, err := m.Price(trial)
		if err != nil {
			return 0, err
		}
		vega := res.Greeks.Vega * 100 // raw vega, per unit vol

		diff := res.Price - marketPrice
		if math.Abs(diff) < tolerance {
			return sigma, nil
		}
		if vega < 1e-10 {
			break
		}
		sigma = clamp(sigma-diff/vega, 0.001, 5.0)
	}
	return sigma, nil
}

func d1d2(spec OptionSpec) (d1, d2 float64) {
	sqrtT := math.Sqrt(spec.TimeToExpiry)
	d1 = (math.Log(spec.Spot/spec.Strike) + (spec.Rate+0.5*spec.Volatility*spec.Volatility)*spec.TimeToExpiry) /
		(spec.Volatility * sqrtT)
	d2 = d1 - spec.Volatility*sqrtT
	return d1, d2
}

func discountedIntrinsic(spec OptionSpec) float64 {
	forward := spec.Strike * math.Exp(-spec.Rate*spec.TimeToExpiry)
	if spec.Kind == Call {
		return max(spec.Spot-forward, 0)
	}
	return max(forward-spec.Spot, 0)
}

// expiryGreeks: at T=0 delta degenerates to a moneyness indicator and the
// other sensitivities vanish.
func expiryGreeks(spec OptionSpec) *Greeks {
	g := &Greeks{}
	if spec.Kind == Call {
		if spec.Spot > spec.Strike {
			g.Delta = 1
		}
	} else {
		if spec.Spot < spec.Strike {
			g.Delta = -1
		}
	}
	return g
}

// zeroVolGreeks: with no diffusion the option behaves like a forward when
// in the money and is worthless otherwise.
func zeroVolGreeks(spec OptionSpec) *Greeks {
	g := &Greeks{}
	forward := spec.Strike * math.Exp(-spec.Rate*spec.TimeToExpiry)
	if spec.Kind == Call {
		if spec.Spot > forward {
			g.Delta = 1
		}
	} else {
		if spec.Spot < forward {
			g.Delta = -1
		}
	}
	return g
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
