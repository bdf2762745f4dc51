package strategies

import (
	"fmt"
	"time"

	"github.com/traderlab/optioneer/market"
	"github.com/traderlab/optioneer/pricing"
)

// CoveredCall holds shares of the underlying and writes synthetic calls
// against them, using the pricing kernel to value the short call.
//
// The backtester trades only the underlying, so the written call lives
// inside the strategy: premium and strike drive the exit decisions, and an
// in-the-money expiry is modelled as assignment (the shares are sold at
// the bar close).
type CoveredCall struct {
	CoveredCallConfig

	callStrike float64
	callExpiry time.Time
	premium    float64
}

type CoveredCallConfig struct {
	Symbol       string
	Shares       float64 // lot size, conventionally 100
	DaysToExpiry int     // target expiry for written calls
	StrikeMargin float64 // strike as a multiple of spot, e.g. 1.05
	Volatility   float64 // assumed vol for valuing the call
	Rate         float64 // risk-free rate
	RollProfit   float64 // buy back when call value falls to this fraction of premium
}

func CoveredCallConfigDefaults(symbol string) CoveredCallConfig {
	return CoveredCallConfig{
		Symbol:       symbol,
		Shares:       100,
		DaysToExpiry: 30,
		StrikeMargin: 1.05,
		Volatility:   0.25,
		Rate:         0.05,
		RollProfit:   0.5,
	}
}

func NewCoveredCall(cfg CoveredCallConfig) *CoveredCall {
	if cfg.Shares <= 0 {
		cfg.Shares = 100
	}
	if cfg.DaysToExpiry <= 0 {
		cfg.DaysToExpiry = 30
	}
	if cfg.StrikeMargin <= 0 {
		cfg.StrikeMargin = 1.05
	}
	return &CoveredCall{CoveredCallConfig: cfg}
}

func (s *CoveredCall) Name() string { return fmt.Sprintf("covered-call(%s)", s.Symbol) }

func (s *CoveredCall) OnStart(*Context) error {
	s.callStrike = 0
	s.callExpiry = time.Time{}
	s.premium = 0
	return nil
}

func (s *CoveredCall) OnBar(ctx *Context, bar market.Bar) ([]Signal, error) {
	if bar.Symbol != s.Symbol {
		return nil, nil
	}

	held := ctx.Portfolio.Quantity(s.Symbol)

	// Establish the stock leg and write the first call.
	if held == 0 {
		s.writeCall(bar.Close, bar.Time)
		return []Signal{NewBuy(s.Symbol, s.Shares, "initiate covered call position")}, nil
	}

	if s.callStrike == 0 {
		s.writeCall(bar.Close, bar.Time)
		return nil, nil
	}

	// Expiry: in the money means assignment, shares are called away.
	if !bar.Time.Before(s.callExpiry) {
		if bar.Close > s.callStrike {
			s.callStrike = 0
			return []Signal{NewSell(s.Symbol, held, "call assigned at expiry")}, nil
		}
		// Expired worthless; write the next one.
		s.writeCall(bar.Close, bar.Time)
		return nil, nil
	}

	// Roll early when the short call has decayed enough to buy back.
	value, err := s.callValue(bar.Close, bar.Time)
	if err != nil {
		return nil, err
	}
	if s.premium > 0 && value <= s.premium*s.RollProfit {
		s.writeCall(bar.Close, bar.Time)
	}
	return nil, nil
}

func (s *CoveredCall) OnEnd(*Context) error { return nil }

// writeCall sells a new synthetic call above spot and records its premium.
func (s *CoveredCall) writeCall(spot float64, now time.Time) {
	s.callStrike = spot * s.StrikeMargin
	s.callExpiry = now.AddDate(0, 0, s.DaysToExpiry)

	res, err := pricing.BlackScholes{}.Price(pricing.OptionSpec{
		Spot:         spot,
		Strike:       s.callStrike,
		Rate:         s.Rate,
		Volatility:   s.Volatility,
		TimeToExpiry: float64(s.DaysToExpiry) / 365,
		Kind:         pricing.Call,
	})
	if err != nil {
		// Spec inputs are constructed above and always valid; a zero
		// premium only disables the roll heuristic.
		s.premium = 0
		return
	}
	s.premium = res.Price
}

// callValue marks the written call at the current spot and remaining life.
func (s *CoveredCall) callValue(spot float64, now time.Time) (float64, error) {
	remaining := s.callExpiry.Sub(now).Hours() / 24 / 365
	if remaining < 0.001 {
		remaining = 0.001
	}

	res, err := pricing.BlackScholes{}.Price(pricing.OptionSpec{
		Spot:         spot,
		Strike:       s.callStrike,
		Rate:         s.Rate,
		Volatility:   s.Volatility,
		TimeToExpiry: remaining,
		Kind:         pricing.Call,
	})
	if err != nil {
		return 0, err
	}
	return res.Price, nil
}
