// Package portfolio is the position/cash ledger a backtest run mutates.
// Only the backtest engine applies fills; strategies see the ledger through
// the read-only View.
package portfolio

import (
	"fmt"
	"time"
)

// Side of an executed trade.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Position is a signed holding with an average cost basis. Quantity > 0 is
// long, < 0 is short.
type Position struct {
	Symbol   string
	Quantity float64
	AvgCost  float64
}

// Trade is one executed fill, appended to an immutable log. RealizedPL is
// non-zero only when the fill reduced an existing position toward or
// through zero (Closing is then true).
type Trade struct {
	ID         string
	Symbol     string
	Side       Side
	Quantity   float64 // always positive; Side carries direction
	Price      float64
	Time       time.Time
	RealizedPL float64
	Closing    bool
}

// EquityPoint is one sample of total portfolio value.
type EquityPoint struct {
	Time  time.Time
	Value float64
}

// View is the read-only capability handed to strategies.
type View interface {
	Cash() float64
	Equity() float64
	Quantity(symbol string) float64
	Position(symbol string) (Position, bool)
}

// Portfolio tracks cash, positions and the equity curve for one run.
// It is owned exclusively by a single backtest engine; no locking.
type Portfolio struct {
	initial   float64
	cash      float64
	positions map[string]*Position
	marks     map[string]float64
	trades    []Trade
	equity    []EquityPoint
}

func New(initialCapital float64) (*Portfolio, error) {
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", initialCapital)
	}
	return &Portfolio{
		initial:   initialCapital,
		cash:      initialCapital,
		positions: make(map[string]*Position),
		marks:     make(map[string]float64),
	}, nil
}

func (p *Portfolio) InitialCapital() float64 { return p.initial }
func (p *Portfolio) Cash() float64           { return p.cash }

// Quantity returns the signed position size, 0 when flat.
func (p *Portfolio) Quantity(symbol string) float64 {
	if pos, ok := p.positions[symbol]; ok {
		return pos.Quantity
	}
	return 0
}

// Position returns a copy of the symbol's position.
func (p *Portfolio) Position(symbol string) (Position, bool) {
	if pos, ok := p.positions[symbol]; ok {
		return *pos, true
	}
	return Position{}, false
}

// SetMark records the latest mark price used to value the symbol.
func (p *Portfolio) SetMark(symbol string, price float64) {
	p.marks[symbol] = price
}

// Equity is cash plus every position valued at its mark price.
func (p *Portfolio) Equity() float64 {
	equity := p.cash
	for sym, pos := range p.positions {
		equity += pos.Quantity * p.marks[sym]
	}
	return equity
}

// ApplyFill mutates the ledger for one executed fill and appends the
// resulting Trade. delta is the signed quantity (buys positive). Average
// cost basis accounting: adding to a position blends the basis, reducing
// realizes P&L against it, and a fill through zero flips the position with
// the fill price as the new basis.
func (p *Portfolio) ApplyFill(id, symbol string, delta, price float64, t time.Time) (Trade, error) {
	if delta == 0 {
		return Trade{}, fmt.Errorf("apply fill: zero quantity for %q", symbol)
	}
	if price <= 0 {
		return Trade{}, fmt.Errorf("apply fill: non-positive price %v for %q", price, symbol)
	}

	pos, ok := p.positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		p.positions[symbol] = pos
	}

	trade := Trade{
		ID:       id,
		Symbol:   symbol,
		Quantity: abs(delta),
		Price:    price,
		Time:     t,
	}
	if delta < 0 {
		trade.Side = Sell
	}

	q0 := pos.Quantity
	switch {
	case q0 == 0 || sameSign(q0, delta):
		// Opening or adding: blend the cost basis.
		total := abs(q0) + abs(delta)
		pos.AvgCost = (abs(q0)*pos.AvgCost + abs(delta)*price) / total
		pos.Quantity = q0 + delta

	default:
		// Reducing, possibly through zero.
		closeQty := min(abs(delta), abs(q0))
		trade.RealizedPL = closeQty * (price - pos.AvgCost) * sign(q0)
		trade.Closing = true

		pos.Quantity = q0 + delta
		if sameSign(pos.Quantity, delta) {
			// Flipped through zero: remainder opens at the fill price.
			pos.AvgCost = price
		}
	}

	if pos.Quantity == 0 {
		delete(p.positions, symbol)
	}

	p.cash -= delta * price
	p.marks[symbol] = price
	p.trades = append(p.trades, trade)
	return trade, nil
}

// SampleEquity appends the current total value to the equity curve.
func (p *Portfolio) SampleEquity(t time.Time) EquityPoint {
	pt := EquityPoint{Time: t, Value: p.Equity()}
	p.equity = append(p.equity, pt)
	return pt
}

// Trades returns the trade log in execution order.
func (p *Portfolio) Trades() []Trade { return p.trades }

// EquityCurve returns the sampled equity series.
func (p *Portfolio) EquityCurve() []EquityPoint { return p.equity }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
