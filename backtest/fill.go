package backtest

import (
	"fmt"

	"github.com/traderlab/optioneer/market"
	"github.com/traderlab/optioneer/strategies"
)

// FillModel decides the execution price for a signal on a bar. Fills are
// always for the full requested quantity; liquidity is assumed unlimited.
type FillModel interface {
	Name() string
	FillPrice(sig strategies.Signal, bar market.Bar) float64
}

// ClosePrice executes at the bar's close (or the signal's price hint when
// present). The default model.
type ClosePrice struct{}

func (ClosePrice) Name() string { return "close-price" }

func (ClosePrice) FillPrice(sig strategies.Signal, bar market.Bar) float64 {
	return basePrice(sig, bar)
}

// CloseSlippage executes at close adjusted against the trader by a fixed
// number of basis points.
type CloseSlippage struct {
	Bps float64
}

func (m CloseSlippage) Name() string { return fmt.Sprintf("close-plus-slippage(%g)", m.Bps) }

func (m CloseSlippage) FillPrice(sig strategies.Signal, bar market.Bar) float64 {
	base := basePrice(sig, bar)
	adj := m.Bps / 10_000
	if sig.Action == strategies.Sell {
		return base * (1 - adj)
	}
	return base * (1 + adj)
}

// QuoteSource supplies a current quote for a bar; used by BidAskMid.
// Returning ok=false falls back to the bar close.
type QuoteSource func(bar market.Bar) (market.Quote, bool)

// BidAskMid executes at the bid/ask midpoint from a quote source,
// falling back to the bar close when no quote is available.
type BidAskMid struct {
	Quotes QuoteSource
}

func (BidAskMid) Name() string { return "bid-ask-midpoint" }

func (m BidAskMid) FillPrice(sig strategies.Signal, bar market.Bar) float64 {
	if m.Quotes != nil {
		if q, ok := m.Quotes(bar); ok {
			return q.Mid()
		}
	}
	return basePrice(sig, bar)
}

// FillModelByName resolves the enumerated fill-model configuration.
func FillModelByName(name string, slippageBps float64) (FillModel, error) {
	switch name {
	case "", "close-price":
		return ClosePrice{}, nil
	case "close-plus-slippage":
		return CloseSlippage{Bps: slippageBps}, nil
	case "bid-ask-midpoint":
		return BidAskMid{}, nil
	default:
		return nil, fmt.Errorf("unknown fill model %q (supported: close-price, close-plus-slippage, bid-ask-midpoint)", name)
	}
}

func basePrice(sig strategies.Signal, bar market.Bar) float64 {
	if sig.Limit > 0 {
		return sig.Limit
	}
	return bar.Close
}
