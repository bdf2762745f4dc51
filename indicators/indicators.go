// Package indicators provides technical analysis indicators for strategies
package indicators

import "github.com/traderlab/optioneer/market"

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in replay and backtests.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "SMA(50)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. If !Ready(), it returns 0;
	// callers should always check Ready().
	Value() float64
}
