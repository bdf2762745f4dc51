package strategies

import "github.com/traderlab/optioneer/market"

// NoopStrategy does nothing; useful as a baseline and in tests.
type NoopStrategy struct{}

func (NoopStrategy) Name() string           { return "noop" }
func (NoopStrategy) OnStart(*Context) error { return nil }
func (NoopStrategy) OnEnd(*Context) error   { return nil }
func (NoopStrategy) OnBar(*Context, market.Bar) ([]Signal, error) {
	return nil, nil
}
