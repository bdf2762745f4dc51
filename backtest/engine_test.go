package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderlab/optioneer/journal"
	"github.com/traderlab/optioneer/market"
	"github.com/traderlab/optioneer/portfolio"
	"github.com/traderlab/optioneer/risk"
	"github.com/traderlab/optioneer/strategies"
)

// scriptedStrategy plays back a fixed list of signals, one entry per bar.
type scriptedStrategy struct {
	script [][]strategies.Signal
	bar    int
	err    error // returned from every OnBar when set
}

func (s *scriptedStrategy) Name() string                      { return "scripted" }
func (s *scriptedStrategy) OnStart(*strategies.Context) error { s.bar = 0; return nil }
func (s *scriptedStrategy) OnEnd(*strategies.Context) error   { return nil }

func (s *scriptedStrategy) OnBar(_ *strategies.Context, _ market.Bar) ([]strategies.Signal, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := s.bar
	s.bar++
	if i < len(s.script) {
		return s.script[i], nil
	}
	return nil, nil
}

func dailyBars(symbol string, closes ...float64) []market.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
		}
	}
	return bars
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()

	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = 10_000
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

// Three bars closing 100/105/95: buy 10 on the first, sell them on the
// last. Final cash 9,950 and a realized loss of 50.
func TestRunBuyThenSell(t *testing.T) {
	t.Parallel()

	bars := dailyBars("AAPL", 100, 105, 95)
	strat := &scriptedStrategy{script: [][]strategies.Signal{
		{strategies.NewBuy("AAPL", 10, "entry")},
		nil,
		{strategies.NewSell("AAPL", 10, "exit")},
	}}

	e := newTestEngine(t, Config{})
	res, err := e.Run(bars, strat)
	require.NoError(t, err)

	assert.Equal(t, Completed, res.State)
	assert.Empty(t, res.Reason)
	assert.Equal(t, bars[0].Time, res.Start)
	assert.Equal(t, bars[2].Time, res.End)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, portfolio.Buy, res.Trades[0].Side)
	assert.Equal(t, 10.0, res.Trades[0].Quantity)
	assert.Equal(t, 100.0, res.Trades[0].Price)
	assert.Equal(t, portfolio.Sell, res.Trades[1].Side)
	assert.Equal(t, 95.0, res.Trades[1].Price)
	assert.InDelta(t, -50.0, res.Trades[1].RealizedPL, 1e-12)

	assert.InDelta(t, 9950.0, res.FinalCash, 1e-12)
	assert.InDelta(t, 9950.0, res.FinalEquity, 1e-12)

	// Equity samples at each bar close: flat entry, marked-up middle,
	// realized exit.
	require.Len(t, res.EquityCurve, 3)
	assert.InDelta(t, 10_000.0, res.EquityCurve[0].Value, 1e-12)
	assert.InDelta(t, 10_050.0, res.EquityCurve[1].Value, 1e-12)
	assert.InDelta(t, 9950.0, res.EquityCurve[2].Value, 1e-12)
}

// Two replays of the same bars and script produce identical trades and
// equity, trade IDs aside.
func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	bars := dailyBars("AAPL", 100, 105, 95, 102, 98)
	script := func() *scriptedStrategy {
		return &scriptedStrategy{script: [][]strategies.Signal{
			{strategies.NewBuy("AAPL", 10, "entry")},
			nil,
			{strategies.NewSell("AAPL", 5, "trim")},
			{strategies.NewBuy("AAPL", 3, "add")},
			{strategies.NewSell("AAPL", 8, "exit")},
		}}
	}

	first, err := newTestEngine(t, Config{}).Run(bars, script())
	require.NoError(t, err)
	second, err := newTestEngine(t, Config{}).Run(bars, script())
	require.NoError(t, err)

	require.Equal(t, len(first.Trades), len(second.Trades))
	for i := range first.Trades {
		a, b := first.Trades[i], second.Trades[i]
		assert.Equal(t, a.Side, b.Side)
		assert.Equal(t, a.Quantity, b.Quantity)
		assert.Equal(t, a.Price, b.Price)
		assert.Equal(t, a.RealizedPL, b.RealizedPL)
	}
	assert.Equal(t, first.EquityCurve, second.EquityCurve)
	assert.Equal(t, first.FinalCash, second.FinalCash)
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	t.Run("nil strategy", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, Config{})
		_, err := e.Run(dailyBars("X", 1), nil)
		assert.Error(t, err)
	})

	t.Run("empty bars", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, Config{})
		_, err := e.Run(nil, &scriptedStrategy{})
		assert.Error(t, err)
	})

	t.Run("engine not reusable", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t, Config{})
		_, err := e.Run(dailyBars("X", 1, 2), &scriptedStrategy{})
		require.NoError(t, err)
		assert.Equal(t, Completed, e.State())

		_, err = e.Run(dailyBars("X", 1, 2), &scriptedStrategy{})
		assert.Error(t, err)
	})
}

func TestRunFailsOnBadBars(t *testing.T) {
	t.Parallel()

	t.Run("non-monotonic timestamps", func(t *testing.T) {
		t.Parallel()

		bars := dailyBars("AAPL", 100, 105, 95)
		bars[2].Time = bars[0].Time // jump backwards

		strat := &scriptedStrategy{script: [][]strategies.Signal{
			{strategies.NewBuy("AAPL", 10, "entry")},
		}}
		e := newTestEngine(t, Config{})
		res, err := e.Run(bars, strat)
		require.Error(t, err)

		// Partial results up to the fault survive.
		assert.Equal(t, Failed, res.State)
		assert.Contains(t, res.Reason, "non-monotonic")
		assert.Len(t, res.Trades, 1)
		assert.Len(t, res.EquityCurve, 2)
	})

	t.Run("crossed high low", func(t *testing.T) {
		t.Parallel()

		bars := dailyBars("AAPL", 100, 105)
		bars[1].High, bars[1].Low = bars[1].Low, bars[1].High

		e := newTestEngine(t, Config{})
		res, err := e.Run(bars, &scriptedStrategy{})
		require.Error(t, err)
		assert.Equal(t, Failed, res.State)
		assert.Contains(t, res.Reason, "high")
	})
}

func TestRunStrategyError(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{})
	res, err := e.Run(dailyBars("AAPL", 100, 105), &scriptedStrategy{err: errors.New("boom")})
	require.Error(t, err)
	assert.Equal(t, Failed, res.State)
	assert.Contains(t, res.Reason, "boom")
}

// warmupStrategy reports insufficient history until enough bars arrived.
type warmupStrategy struct {
	need   int
	seen   int
	fired  bool
	signal strategies.Signal
}

func (s *warmupStrategy) Name() string                      { return "warmup" }
func (s *warmupStrategy) OnStart(*strategies.Context) error { return nil }
func (s *warmupStrategy) OnEnd(*strategies.Context) error   { return nil }

func (s *warmupStrategy) OnBar(_ *strategies.Context, _ market.Bar) ([]strategies.Signal, error) {
	s.seen++
	if s.seen < s.need {
		return nil, strategies.ErrInsufficientData
	}
	if !s.fired {
		s.fired = true
		return []strategies.Signal{s.signal}, nil
	}
	return nil, nil
}

func TestInsufficientData(t *testing.T) {
	t.Parallel()

	bars := dailyBars("AAPL", 100, 101, 102, 103)
	signal := strategies.NewBuy("AAPL", 5, "warmed up")

	t.Run("skip bar", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, Config{OnInsufficientData: SkipBar})
		res, err := e.Run(bars, &warmupStrategy{need: 3, signal: signal})
		require.NoError(t, err)
		assert.Equal(t, Completed, res.State)

		// Skipped bars still sample equity.
		assert.Len(t, res.EquityCurve, 4)
		require.Len(t, res.Trades, 1)
		assert.Equal(t, 102.0, res.Trades[0].Price)
	})

	t.Run("fail run", func(t *testing.T) {
		t.Parallel()

		e := newTestEngine(t, Config{OnInsufficientData: FailRun})
		res, err := e.Run(bars, &warmupStrategy{need: 3, signal: signal})
		require.Error(t, err)
		assert.Equal(t, Failed, res.State)
		assert.Contains(t, res.Reason, "insufficient history")
	})
}

func TestRiskClampAndFail(t *testing.T) {
	t.Parallel()

	t.Run("clamp oversized buy", func(t *testing.T) {
		t.Parallel()

		strat := &scriptedStrategy{script: [][]strategies.Signal{
			{strategies.NewBuy("AAPL", 500, "all in")},
		}}
		e := newTestEngine(t, Config{Risk: risk.Policy{Mode: risk.Clamp, SizingFraction: 0.1}})
		res, err := e.Run(dailyBars("AAPL", 100, 101), strat)
		require.NoError(t, err)

		// 10,000 cash at 100/unit affords 100 units.
		require.Len(t, res.Trades, 1)
		assert.Equal(t, 100.0, res.Trades[0].Quantity)
		assert.InDelta(t, 0.0, res.FinalCash, 1e-9)
	})

	t.Run("fail oversized buy", func(t *testing.T) {
		t.Parallel()

		strat := &scriptedStrategy{script: [][]strategies.Signal{
			{strategies.NewBuy("AAPL", 500, "all in")},
		}}
		e := newTestEngine(t, Config{Risk: risk.Policy{Mode: risk.Fail, SizingFraction: 0.1}})
		res, err := e.Run(dailyBars("AAPL", 100, 101), strat)
		require.Error(t, err)
		assert.Equal(t, Failed, res.State)
		assert.Empty(t, res.Trades)
	})

	t.Run("clamped sell with nothing held is a no-op", func(t *testing.T) {
		t.Parallel()

		strat := &scriptedStrategy{script: [][]strategies.Signal{
			{strategies.NewSell("AAPL", 10, "phantom exit")},
		}}
		e := newTestEngine(t, Config{})
		res, err := e.Run(dailyBars("AAPL", 100, 101), strat)
		require.NoError(t, err)
		assert.Empty(t, res.Trades)
		assert.Equal(t, 10_000.0, res.FinalCash)
	})
}

func TestDefaultSizing(t *testing.T) {
	t.Parallel()

	// Quantity 0 defers to the risk policy: 10% of 10,000 equity at
	// 100/unit is 10 units.
	strat := &scriptedStrategy{script: [][]strategies.Signal{
		{strategies.NewBuy("AAPL", 0, "sized by engine")},
	}}
	e := newTestEngine(t, Config{})
	res, err := e.Run(dailyBars("AAPL", 100, 101), strat)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, 10.0, res.Trades[0].Quantity)
}

func TestNegativeQuantityFails(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{script: [][]strategies.Signal{
		{{Symbol: "AAPL", Action: strategies.Buy, Quantity: -5}},
	}}
	e := newTestEngine(t, Config{})
	res, err := e.Run(dailyBars("AAPL", 100, 101), strat)
	require.Error(t, err)
	assert.Equal(t, Failed, res.State)
	assert.Contains(t, res.Reason, "negative quantity")
}

func TestHoldSignalsAreIgnored(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{script: [][]strategies.Signal{
		{strategies.NewHold("no edge")},
	}}
	e := newTestEngine(t, Config{})
	res, err := e.Run(dailyBars("AAPL", 100, 101), strat)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
}

// captureJournal records calls in memory.
type captureJournal struct {
	trades []journal.TradeRecord
	equity []journal.EquitySnapshot
}

func (j *captureJournal) RecordTrade(r journal.TradeRecord) error {
	j.trades = append(j.trades, r)
	return nil
}

func (j *captureJournal) RecordEquity(s journal.EquitySnapshot) error {
	j.equity = append(j.equity, s)
	return nil
}

func (j *captureJournal) Close() error { return nil }

func TestJournalReceivesFillsAndEquity(t *testing.T) {
	t.Parallel()

	jnl := &captureJournal{}
	strat := &scriptedStrategy{script: [][]strategies.Signal{
		{strategies.NewBuy("AAPL", 10, "entry")},
		nil,
		{strategies.NewSell("AAPL", 10, "exit")},
	}}

	e := newTestEngine(t, Config{Journal: jnl})
	_, err := e.Run(dailyBars("AAPL", 100, 105, 95), strat)
	require.NoError(t, err)

	require.Len(t, jnl.trades, 2)
	assert.Equal(t, "buy", jnl.trades[0].Side)
	assert.Equal(t, "entry", jnl.trades[0].Reason)
	assert.NotEmpty(t, jnl.trades[0].TradeID)
	assert.Equal(t, "exit", jnl.trades[1].Reason)
	assert.InDelta(t, -50.0, jnl.trades[1].RealizedPL, 1e-12)

	require.Len(t, jnl.equity, 3)
	assert.InDelta(t, 10_050.0, jnl.equity[1].Equity, 1e-12)
	assert.InDelta(t, 9000.0, jnl.equity[0].Cash, 1e-12)
}
