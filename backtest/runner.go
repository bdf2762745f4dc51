package backtest

import (
	"fmt"

	"github.com/traderlab/optioneer/market"
	"github.com/traderlab/optioneer/strategies"
)

// RunFeed materializes a bar feed and replays it with a fresh engine.
// The feed is closed before the replay starts; the loop itself never
// blocks on I/O.
func RunFeed(feed market.BarFeed, cfg Config, strat strategies.Strategy) (Result, error) {
	bars, err := market.Collect(feed)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: read feed: %w", err)
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return Result{}, err
	}
	return engine.Run(bars, strat)
}
