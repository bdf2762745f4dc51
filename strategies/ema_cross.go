package strategies

import (
	"encoding/json"
	"fmt"

	"github.com/traderlab/optioneer/indicators"
	"github.com/traderlab/optioneer/market"
)

// EMACross trades a single symbol on a fast/slow EMA crossover.
// - Enters long on a bull cross
// - Exits (sells the whole position) on a bear cross
// Sizing is fixed units, or engine-default when Units is 0.
type EMACross struct {
	*EMACrossConfig

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA

	lastDiff     float64
	haveLastDiff bool
}

type EMACrossConfig struct {
	Symbol     string  `json:"symbol"`
	Units      float64 `json:"units"`
	FastPeriod int     `json:"fast-period"` // 20
	SlowPeriod int     `json:"slow-period"` // 50
}

func (c *EMACrossConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func NewEMACross(cfg *EMACrossConfig) *EMACross {
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = 20
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = 50
	}

	return &EMACross{
		EMACrossConfig: cfg,
		fast:           indicators.NewEMA(cfg.FastPeriod),
		slow:           indicators.NewEMA(cfg.SlowPeriod),
	}
}

func (s *EMACross) Name() string {
	return fmt.Sprintf("ema-cross(%d,%d)", s.FastPeriod, s.SlowPeriod)
}

func (s *EMACross) OnStart(*Context) error {
	s.fast.Reset()
	s.slow.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
	return nil
}

func (s *EMACross) OnBar(ctx *Context, bar market.Bar) ([]Signal, error) {
	if bar.Symbol != s.Symbol {
		return nil, nil
	}

	s.fast.Update(bar)
	s.slow.Update(bar)

	// Wait until both EMAs are warmed up.
	if !s.fast.Ready() || !s.slow.Ready() {
		return nil, nil
	}

	diff := s.fast.Value() - s.slow.Value()

	// Need a previous diff to detect a cross.
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil, nil
	}

	// Cross logic:
	// - Bull cross: diff goes from <=0 to >0
	// - Bear cross: diff goes from >=0 to <0
	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	held := ctx.Portfolio.Quantity(s.Symbol)

	switch {
	case bullCross && held == 0:
		return []Signal{NewBuy(s.Symbol, s.Units, "bull cross")}, nil

	case bearCross && held > 0:
		return []Signal{NewSell(s.Symbol, held, "bear cross")}, nil
	}
	return nil, nil
}

func (s *EMACross) OnEnd(*Context) error { return nil }
