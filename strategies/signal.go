package strategies

// Action is the closed set of things a strategy can ask for on a bar.
type Action int8

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Signal is one proposed order (or an explicit hold). Build signals through
// the constructors below so a Hold can never carry a quantity and buys and
// sells always carry a positive one. The engine consumes signals
// immediately; they are not persisted beyond the run.
type Signal struct {
	Symbol   string
	Action   Action
	Quantity float64 // positive; 0 lets the engine apply its default sizing
	Limit    float64 // optional price hint; 0 means fill-model price
	Reason   string
}

// NewBuy proposes buying qty units. qty 0 defers sizing to the engine.
func NewBuy(symbol string, qty float64, reason string) Signal {
	return Signal{Symbol: symbol, Action: Buy, Quantity: qty, Reason: reason}
}

// NewSell proposes selling qty units. qty 0 defers sizing to the engine.
func NewSell(symbol string, qty float64, reason string) Signal {
	return Signal{Symbol: symbol, Action: Sell, Quantity: qty, Reason: reason}
}

// NewHold records an explicit no-trade decision with a reason.
func NewHold(reason string) Signal {
	return Signal{Action: Hold, Reason: reason}
}

// At attaches a price hint to a buy or sell; the engine's fill model still
// applies slippage/spread on top. Ignored for holds.
func (s Signal) At(price float64) Signal {
	if s.Action != Hold {
		s.Limit = price
	}
	return s
}
