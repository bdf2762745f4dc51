package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atmSpec is the workhorse contract used throughout the pricing tests:
// at the money, one year out, 20% vol, 5% rate.
func atmSpec(kind Kind) OptionSpec {
	return OptionSpec{
		Spot:         100,
		Strike:       100,
		Rate:         0.05,
		Volatility:   0.20,
		TimeToExpiry: 1.0,
		Kind:         kind,
	}
}

func TestBlackScholesKnownValues(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}

	call, err := m.Price(atmSpec(Call))
	require.NoError(t, err)
	assert.InDelta(t, 10.4506, call.Price, 1e-3)

	put, err := m.Price(atmSpec(Put))
	require.NoError(t, err)
	assert.InDelta(t, 5.5735, put.Price, 1e-3)
}

func TestBlackScholesPutCallParity(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}

	specs := []OptionSpec{
		atmSpec(Call),
		{Spot: 120, Strike: 100, Rate: 0.03, Volatility: 0.35, TimeToExpiry: 0.5},
		{Spot: 80, Strike: 100, Rate: 0.01, Volatility: 0.15, TimeToExpiry: 2.0},
	}

	for _, spec := range specs {
		c, p, err := PriceBoth(m, spec)
		require.NoError(t, err)

		parity := spec.Spot - spec.Strike*math.Exp(-spec.Rate*spec.TimeToExpiry)
		assert.InDelta(t, parity, c.Price-p.Price, 1e-9)
	}
}

func TestBlackScholesGreeks(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}

	call, err := m.Price(atmSpec(Call))
	require.NoError(t, err)
	require.NotNil(t, call.Greeks)

	put, err := m.Price(atmSpec(Put))
	require.NoError(t, err)
	require.NotNil(t, put.Greeks)

	// Call delta sits in (0,1), put delta in (-1,0), and they differ by
	// exactly one for the same contract.
	assert.Greater(t, call.Greeks.Delta, 0.0)
	assert.Less(t, call.Greeks.Delta, 1.0)
	assert.Less(t, put.Greeks.Delta, 0.0)
	assert.InDelta(t, 1.0, call.Greeks.Delta-put.Greeks.Delta, 1e-12)

	// Gamma and vega are kind-independent and positive.
	assert.InDelta(t, call.Greeks.Gamma, put.Greeks.Gamma, 1e-12)
	assert.InDelta(t, call.Greeks.Vega, put.Greeks.Vega, 1e-12)
	assert.Greater(t, call.Greeks.Gamma, 0.0)
	assert.Greater(t, call.Greeks.Vega, 0.0)

	// Per-day theta of a long ATM option is negative; call rho positive,
	// put rho negative.
	assert.Less(t, call.Greeks.Theta, 0.0)
	assert.Greater(t, call.Greeks.Rho, 0.0)
	assert.Less(t, put.Greeks.Rho, 0.0)
}

func TestBlackScholesAtExpiry(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}

	itm := OptionSpec{Spot: 110, Strike: 100, Rate: 0.05, Volatility: 0.2, Kind: Call}
	res, err := m.Price(itm)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Price)
	assert.Equal(t, 1.0, res.Greeks.Delta)
	assert.Zero(t, res.Greeks.Gamma)

	otm := itm
	otm.Kind = Put
	res, err = m.Price(otm)
	require.NoError(t, err)
	assert.Zero(t, res.Price)
	assert.Zero(t, res.Greeks.Delta)
}

func TestBlackScholesZeroVolatility(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}

	spec := OptionSpec{Spot: 110, Strike: 100, Rate: 0.05, TimeToExpiry: 1.0, Kind: Call}
	res, err := m.Price(spec)
	require.NoError(t, err)

	want := 110 - 100*math.Exp(-0.05)
	assert.InDelta(t, want, res.Price, 1e-12)
	assert.Equal(t, 1.0, res.Greeks.Delta)

	otm := spec
	otm.Spot = 80
	res, err = m.Price(otm)
	require.NoError(t, err)
	assert.Zero(t, res.Price)
}

func TestBlackScholesInvalidInputs(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}

	bad := []OptionSpec{
		{Spot: 0, Strike: 100, Volatility: 0.2, TimeToExpiry: 1},
		{Spot: -5, Strike: 100, Volatility: 0.2, TimeToExpiry: 1},
		{Spot: 100, Strike: 0, Volatility: 0.2, TimeToExpiry: 1},
		{Spot: 100, Strike: 100, Volatility: -0.1, TimeToExpiry: 1},
		{Spot: 100, Strike: 100, Volatility: 0.2, TimeToExpiry: -1},
	}
	for _, spec := range bad {
		_, err := m.Price(spec)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	}
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}

	for _, vol := range []float64{0.10, 0.25, 0.60} {
		spec := atmSpec(Call)
		spec.Volatility = vol

		res, err := m.Price(spec)
		require.NoError(t, err)

		solveSpec := spec
		solveSpec.Volatility = 0 // solver ignores the input vol
		got, err := m.ImpliedVolatility(solveSpec, res.Price)
		require.NoError(t, err)
		assert.InDelta(t, vol, got, 1e-4)
	}
}

func TestImpliedVolatilityAtExpiry(t *testing.T) {
	t.Parallel()

	m := BlackScholes{}
	spec := OptionSpec{Spot: 100, Strike: 100, Kind: Call}
	_, err := m.ImpliedVolatility(spec, 5.0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{
		"black-scholes": "black-scholes",
		"bs":            "black-scholes",
		"binomial":      "binomial",
		"monte-carlo":   "monte-carlo",
		"mc":            "monte-carlo",
	} {
		p, err := ByName(name, 100, 1000, 1)
		require.NoError(t, err)
		assert.Equal(t, want, p.Name())
	}

	_, err := ByName("trinomial", 100, 1000, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
