package strategies

import "github.com/traderlab/optioneer/market"

// BuyOnce buys a fixed number of units on the first bar for its symbol and
// then holds. Handy for wiring tests and buy-and-hold baselines.
type BuyOnce struct {
	Symbol string
	Units  float64

	done bool
}

func (s *BuyOnce) Name() string { return "buy-once" }

func (s *BuyOnce) OnStart(*Context) error {
	s.done = false
	return nil
}

func (s *BuyOnce) OnBar(ctx *Context, bar market.Bar) ([]Signal, error) {
	if s.done || bar.Symbol != s.Symbol {
		return nil, nil
	}
	s.done = true
	return []Signal{NewBuy(s.Symbol, s.Units, "initial entry")}, nil
}

func (s *BuyOnce) OnEnd(*Context) error { return nil }
