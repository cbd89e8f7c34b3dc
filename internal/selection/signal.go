package selection

import "github.com/wonny/cruzer/internal/contracts"

// Signal is the action label shown next to a setup
type Signal string

const (
	SignalHold        Signal = "Hold (Trail Stop)"
	SignalBuyBreakout Signal = "Buy (Breakout)"
	SignalBuyPullback Signal = "Buy (Pullback)"
	SignalWait        Signal = "Wait Confirmation"
)

// DeriveSignal maps score, trend points and RSI points to an action.
// rangeEntry is true when the entry is a zone rather than a single price.
func DeriveSignal(score, trend, rsi float64, rangeEntry bool) Signal {
	// already extended
	if score >= 85 && rsi >= 65 {
		return SignalHold
	}
	if trend >= 60 && rsi >= 50 && rsi <= 70 && !rangeEntry {
		return SignalBuyBreakout
	}
	if trend >= 40 && rsi <= 45 && rangeEntry {
		return SignalBuyPullback
	}
	if score < 70 {
		return SignalWait
	}
	return SignalBuyPullback
}

// DeriveContext describes the market structure behind a setup
func DeriveContext(score, trend float64) string {
	switch {
	case trend >= 60:
		return "Strong Uptrend"
	case score >= 80:
		return "Bullish Continuation"
	case trend >= 40:
		return "Bullish Pullback Zone"
	default:
		return "Range Consolidation"
	}
}

// SignalFor derives the signal from a setup's score breakdown
func SignalFor(s *contracts.StockSetup) Signal {
	trend, _ := s.ScoreBreakdown.Get("Trend")
	rsi, _ := s.ScoreBreakdown.Get("RSI")
	return DeriveSignal(float64(s.Score), float64(trend), float64(rsi), s.EntryLow != s.EntryHigh)
}

// ContextFor derives the context label from a setup's score breakdown
func ContextFor(s *contracts.StockSetup) string {
	trend, _ := s.ScoreBreakdown.Get("Trend")
	return DeriveContext(float64(s.Score), float64(trend))
}
