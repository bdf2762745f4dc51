package market

// History is the strategy-visible window of bars accumulated during a
// replay. The engine appends; strategies only read.
type History struct {
	bars []Bar
}

// NewHistory returns an empty history, optionally pre-sized.
func NewHistory(capacity int) *History {
	return &History{bars: make([]Bar, 0, capacity)}
}

// Append adds the next bar. Only the backtest engine should call this.
func (h *History) Append(b Bar) { h.bars = append(h.bars, b) }

// Len returns the number of bars seen so far.
func (h *History) Len() int { return len(h.bars) }

// At returns the i-th bar (0 is oldest).
func (h *History) At(i int) Bar { return h.bars[i] }

// Last returns the most recent bar; ok is false while empty.
func (h *History) Last() (Bar, bool) {
	if len(h.bars) == 0 {
		return Bar{}, false
	}
	return h.bars[len(h.bars)-1], true
}

// Closes returns the last n close prices for a symbol, oldest first. Fewer
// than n are returned when the history is short.
func (h *History) Closes(symbol string, n int) []float64 {
	out := make([]float64, 0, n)
	for i := len(h.bars) - 1; i >= 0 && len(out) < n; i-- {
		if h.bars[i].Symbol == symbol {
			out = append(out, h.bars[i].Close)
		}
	}
	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
