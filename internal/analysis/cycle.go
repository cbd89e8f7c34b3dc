package analysis

import (
	"time"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/indicator"
)

// Clock returns the current time; injected so projections are reproducible
type Clock func() time.Time

// CycleProjector finds swing lows as closes equal to a centred rolling
// minimum and projects the next lows/highs from their average spacing.
type CycleProjector struct {
	Window    int // centred rolling-min window
	MinBars   int
	MinSwings int
	now       Clock
}

// NewCycleProjector uses time.Now when now is nil
func NewCycleProjector(now Clock) *CycleProjector {
	if now == nil {
		now = time.Now
	}
	return &CycleProjector{Window: 50, MinBars: 200, MinSwings: 4, now: now}
}

// SwingLows returns the indices whose close equals the centred rolling min.
// Adjacent equal closes in one trough are all kept.
func (p *CycleProjector) SwingLows(closes []float64) []int {
	mins := indicator.CenteredRollingMin(closes, p.Window)
	var idx []int
	for i, c := range closes {
		if m, ok := mins.At(i); ok && c == m {
			idx = append(idx, i)
		}
	}
	return idx
}

// Project returns nil when history is shorter than MinBars or fewer than
// MinSwings swing lows are found.
func (p *CycleProjector) Project(bars contracts.Bars) *contracts.CyclePrediction {
	if bars.Len() < p.MinBars {
		return nil
	}

	lows := p.SwingLows(bars.Closes())
	if len(lows) < p.MinSwings {
		return nil
	}

	dates := make([]time.Time, len(lows))
	for i, idx := range lows {
		dates[i] = civil(bars[idx].Date)
	}

	gaps := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		gaps = append(gaps, float64(daysBetween(dates[i-1], dates[i])))
	}

	cycle := int(indicator.Mean(gaps))
	if cycle <= 0 {
		return nil
	}
	half := cycle / 2
	buffer := 3
	if cycle >= 70 {
		buffer = 4
	}

	today := civil(p.now())
	lastLow := dates[len(dates)-1]

	next := lastLow.AddDate(0, 0, cycle)
	if behind := daysBetween(next, today); behind > 0 {
		steps := (behind + cycle - 1) / cycle
		next = next.AddDate(0, 0, steps*cycle)
	}
	second := next.AddDate(0, 0, cycle)
	nextHigh := next.AddDate(0, 0, -half)
	secondHigh := second.AddDate(0, 0, -half)

	stddev := indicator.StdDev(gaps)

	return &contracts.CyclePrediction{
		LastLowDate:   lastLow,
		SwingLowCount: len(lows),
		CycleDays:     cycle,
		HalfCycleDays: half,
		StdDevDays:    indicator.Round(stddev, 2),
		Confidence:    confidence(stddev),

		NextLow:       next,
		NextLowWin:    window(next, buffer),
		SecondLow:     second,
		SecondWin:     window(second, buffer),
		NextHigh:      nextHigh,
		NextHighWin:   window(nextHigh, buffer),
		SecondHigh:    secondHigh,
		SecondHighWin: window(secondHigh, buffer),

		DaysToNextLow:    daysBetween(today, next),
		DaysToSecondLow:  daysBetween(today, second),
		DaysToNextHigh:   daysBetween(today, nextHigh),
		DaysToSecondHigh: daysBetween(today, secondHigh),
	}
}

func confidence(stddev float64) contracts.Confidence {
	switch {
	case stddev <= 15:
		return contracts.ConfidenceHigh
	case stddev <= 35:
		return contracts.ConfidenceMedium
	default:
		return contracts.ConfidenceLow
	}
}

func window(center time.Time, days int) contracts.DateWindow {
	return contracts.DateWindow{Start: center.AddDate(0, 0, -days), End: center.AddDate(0, 0, days)}
}

// civil drops the time of day, keeping the calendar date in UTC
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b (both civil dates)
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
