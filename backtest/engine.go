// Package backtest replays historical bars through a strategy, simulating
// fills against a portfolio and sampling the equity curve. The loop is
// strictly single-threaded: bar N+1 is never processed before bar N's
// fills and equity sample are finalized.
package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/traderlab/optioneer/internal/id"
	"github.com/traderlab/optioneer/journal"
	"github.com/traderlab/optioneer/market"
	"github.com/traderlab/optioneer/portfolio"
	"github.com/traderlab/optioneer/risk"
	"github.com/traderlab/optioneer/strategies"
)

// State of an engine run.
type State int8

const (
	Initialized State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "initialized"
	}
}

// DataPolicy decides what to do when a strategy reports insufficient
// history for its lookback.
type DataPolicy int8

const (
	SkipBar DataPolicy = iota
	FailRun
)

// Config for one backtest run.
type Config struct {
	InitialCapital float64

	// Fill defaults to ClosePrice.
	Fill FillModel

	// Risk bounds each order; defaults to risk.DefaultPolicy (clamp, no
	// shorting, no margin).
	Risk risk.Policy

	// OnInsufficientData defaults to SkipBar.
	OnInsufficientData DataPolicy

	// Journal optionally records every fill and equity sample.
	Journal journal.Journal
}

// Result of a run. On failure the trades and equity curve accumulated up
// to the fault are still populated for diagnostics.
type Result struct {
	State  State
	Reason string // failure reason, empty when Completed

	Trades      []portfolio.Trade
	EquityCurve []portfolio.EquityPoint
	Portfolio   *portfolio.Portfolio

	FinalCash   float64
	FinalEquity float64
	Start, End  time.Time
}

// Engine drives a single replay. One engine owns one portfolio for one
// run; engines are not reused.
type Engine struct {
	cfg   Config
	state State
	pf    *portfolio.Portfolio
}

func NewEngine(cfg Config) (*Engine, error) {
	pf, err := portfolio.New(cfg.InitialCapital)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	if cfg.Fill == nil {
		cfg.Fill = ClosePrice{}
	}
	if cfg.Risk == (risk.Policy{}) {
		cfg.Risk = risk.DefaultPolicy()
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.Nop{}
	}

	return &Engine{cfg: cfg, pf: pf}, nil
}

func (e *Engine) State() State { return e.state }

// Run replays the bar sequence through the strategy. Per-bar order:
// append to history, invoke OnBar, fill each returned signal, apply fills
// to the portfolio, then sample equity at the bar close.
//
// Unrecoverable faults (non-monotonic timestamps, negative quantities,
// strategy errors, rejected orders under a Fail risk policy) transition
// the engine to Failed; the partial Result is returned along with the
// error.
func (e *Engine) Run(bars []market.Bar, strat strategies.Strategy) (Result, error) {
	if e.state != Initialized {
		return e.result(""), fmt.Errorf("backtest: engine already ran (state %s)", e.state)
	}
	if strat == nil {
		return e.result(""), fmt.Errorf("backtest: strategy is required")
	}
	if len(bars) == 0 {
		return e.result(""), fmt.Errorf("backtest: empty bar sequence")
	}

	e.state = Running

	history := market.NewHistory(len(bars))
	sctx := &strategies.Context{History: history, Portfolio: e.pf}

	if err := strat.OnStart(sctx); err != nil {
		return e.fail(fmt.Sprintf("strategy start: %v", err))
	}

	var prev time.Time
	for i, bar := range bars {
		if bar.High < bar.Low {
			return e.fail(fmt.Sprintf("bar %d: high %v below low %v", i, bar.High, bar.Low))
		}
		if i > 0 && !prev.Before(bar.Time) {
			return e.fail(fmt.Sprintf("bar %d: non-monotonic timestamp %s after %s",
				i, bar.Time.Format(time.RFC3339), prev.Format(time.RFC3339)))
		}
		prev = bar.Time

		history.Append(bar)
		e.pf.SetMark(bar.Symbol, bar.Close)

		sigs, err := strat.OnBar(sctx, bar)
		switch {
		case errors.Is(err, strategies.ErrInsufficientData):
			if e.cfg.OnInsufficientData == FailRun {
				return e.fail(fmt.Sprintf("bar %d: %v", i, err))
			}
			sigs = nil // skip the bar, keep sampling equity
		case err != nil:
			return e.fail(fmt.Sprintf("bar %d: strategy: %v", i, err))
		}

		for _, sig := range sigs {
			if err := e.execute(sig, bar); err != nil {
				return e.fail(fmt.Sprintf("bar %d: %v", i, err))
			}
		}

		pt := e.pf.SampleEquity(bar.Time)
		if err := e.cfg.Journal.RecordEquity(journal.EquitySnapshot{
			Time:   pt.Time,
			Cash:   e.pf.Cash(),
			Equity: pt.Value,
		}); err != nil {
			return e.fail(fmt.Sprintf("journal: %v", err))
		}
	}

	if err := strat.OnEnd(sctx); err != nil {
		return e.fail(fmt.Sprintf("strategy end: %v", err))
	}

	e.state = Completed
	res := e.result("")
	res.Start = bars[0].Time
	res.End = bars[len(bars)-1].Time
	return res, nil
}

// execute turns one signal into a fill and applies it.
func (e *Engine) execute(sig strategies.Signal, bar market.Bar) error {
	if sig.Action == strategies.Hold {
		return nil
	}
	if sig.Quantity < 0 {
		return fmt.Errorf("signal: negative quantity %v for %q", sig.Quantity, sig.Symbol)
	}

	symbol := sig.Symbol
	if symbol == "" {
		symbol = bar.Symbol
	}

	price := e.cfg.Fill.FillPrice(sig, bar)
	if price <= 0 {
		return fmt.Errorf("fill: non-positive price %v for %q", price, symbol)
	}

	qty := sig.Quantity
	if qty == 0 {
		qty = e.cfg.Risk.Size(e.pf.Equity(), price)
		if qty == 0 {
			return nil // equity too small to size an order
		}
	}

	var delta float64
	var err error
	if sig.Action == strategies.Buy {
		qty, err = e.cfg.Risk.AdjustBuy(qty, price, e.pf.Cash())
		delta = qty
	} else {
		qty, err = e.cfg.Risk.AdjustSell(qty, e.pf.Quantity(symbol))
		delta = -qty
	}
	if err != nil {
		return err
	}
	if qty == 0 {
		return nil // clamped to nothing feasible
	}

	trade, err := e.pf.ApplyFill(id.New(), symbol, delta, price, bar.Time)
	if err != nil {
		return err
	}

	return e.cfg.Journal.RecordTrade(journal.TradeRecord{
		TradeID:    trade.ID,
		Symbol:     trade.Symbol,
		Side:       trade.Side.String(),
		Quantity:   trade.Quantity,
		Price:      trade.Price,
		Time:       trade.Time,
		RealizedPL: trade.RealizedPL,
		Reason:     sig.Reason,
	})
}

func (e *Engine) fail(reason string) (Result, error) {
	e.state = Failed
	return e.result(reason), fmt.Errorf("backtest failed: %s", reason)
}

func (e *Engine) result(reason string) Result {
	return Result{
		State:       e.state,
		Reason:      reason,
		Trades:      e.pf.Trades(),
		EquityCurve: e.pf.EquityCurve(),
		Portfolio:   e.pf,
		FinalCash:   e.pf.Cash(),
		FinalEquity: e.pf.Equity(),
	}
}
