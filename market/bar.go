// Package market defines the data records the engine consumes: OHLCV bars,
// quotes, and the feeds that yield them. The core owns none of this data;
// providers hand over ordered, read-only sequences.
package market

import (
	"fmt"
	"time"
)

// Bar is one OHLCV time step for a single symbol.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is a current bid/ask snapshot for a symbol.
type Quote struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
}

// Mid returns the bid/ask midpoint.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// ValidateBars checks that a bar sequence is well formed: timestamps
// strictly increasing and prices internally consistent. The backtest engine
// fails a run on the first violation.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.High < b.Low {
			return fmt.Errorf("bar %d (%s): high %v below low %v", i, b.Time.Format(time.RFC3339), b.High, b.Low)
		}
		if i == 0 {
			continue
		}
		if !bars[i-1].Time.Before(b.Time) {
			return fmt.Errorf("bar %d (%s): timestamp not after previous bar %s",
				i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
