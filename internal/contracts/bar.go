package contracts

import (
	"math"
	"sort"
	"time"
)

// Bar is one daily OHLCV row
// ⭐ SSOT: 모든 지표/전략의 입력 단위
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether every field is present and usable
func (b Bar) Valid() bool {
	if b.Date.IsZero() {
		return false
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return !math.IsNaN(b.Volume) && !math.IsInf(b.Volume, 0) && b.Volume >= 0
}

// Bars is a date-ascending series, one bar per trading day
type Bars []Bar

// CleanBars drops rows with any missing field, sorts by date and keeps the
// last row for a duplicated date. The input is not modified.
func CleanBars(raw []Bar) Bars {
	out := make(Bars, 0, len(raw))
	for _, b := range raw {
		if b.Valid() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	deduped := out[:0]
	for i, b := range out {
		if i+1 < len(out) && sameDay(b.Date, out[i+1].Date) {
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Len returns the number of bars
func (b Bars) Len() int { return len(b) }

// Last returns the most recent bar. Callers check Len first.
func (b Bars) Last() Bar { return b[len(b)-1] }

func (b Bars) column(f func(Bar) float64) []float64 {
	out := make([]float64, len(b))
	for i, bar := range b {
		out[i] = f(bar)
	}
	return out
}

func (b Bars) Closes() []float64  { return b.column(func(x Bar) float64 { return x.Close }) }
func (b Bars) Highs() []float64   { return b.column(func(x Bar) float64 { return x.High }) }
func (b Bars) Lows() []float64    { return b.column(func(x Bar) float64 { return x.Low }) }
func (b Bars) Volumes() []float64 { return b.column(func(x Bar) float64 { return x.Volume }) }

// Dates returns the bar dates in order
func (b Bars) Dates() []time.Time {
	out := make([]time.Time, len(b))
	for i, bar := range b {
		out[i] = bar.Date
	}
	return out
}

// Tail returns the last n bars (all of them when n ≥ Len)
func (b Bars) Tail(n int) Bars {
	if n >= len(b) {
		return b
	}
	return b[len(b)-n:]
}
