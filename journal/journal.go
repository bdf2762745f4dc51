// Package journal persists backtest output: every executed fill and every
// equity sample. SQLite and CSV backends share the Journal interface.
package journal

import "time"

// TradeRecord mirrors one executed fill from a backtest run.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Side       string
	Quantity   float64
	Price      float64
	Time       time.Time
	RealizedPL float64
	Reason     string
}

// EquitySnapshot is one equity-curve sample.
type EquitySnapshot struct {
	Time   time.Time
	Cash   float64
	Equity float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything; the engine uses it when journaling is off.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
