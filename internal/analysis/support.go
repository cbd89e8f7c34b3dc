package analysis

import (
	"sort"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/indicator"
	"github.com/wonny/cruzer/internal/tick"
)

// Lookbacks for the support tiers
const (
	microWindow = 7
	minorWindow = 12
	majorWindow = 30
)

// RankSupports orders the given levels by absolute distance from last and
// labels them Near, Mid, Far. Ties keep the input order, so callers pass
// levels as micro, minor, major.
func RankSupports(last int64, levels []contracts.SupportLevel) []contracts.RankedSupport {
	ranked := make([]contracts.RankedSupport, len(levels))
	for i, lv := range levels {
		ranked[i] = contracts.RankedSupport{SupportLevel: lv, Distance: abs64(last - lv.Price)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Distance < ranked[j].Distance })

	for i := range ranked {
		switch i {
		case 0:
			ranked[i].Rank = contracts.RankNear
		case 1:
			ranked[i].Rank = contracts.RankMid
		default:
			ranked[i].Rank = contracts.RankFar
		}
	}
	return ranked
}

// supportTiers computes micro (7-bar low), minor (12-bar low) and major
// (the 30-bar closing low already rounded by the caller)
func supportTiers(bars contracts.Bars, major int64) []contracts.SupportLevel {
	lows := bars.Lows()
	levels := make([]contracts.SupportLevel, 0, 3)

	if len(lows) >= microWindow {
		levels = append(levels, contracts.SupportLevel{
			Tier:  contracts.TierMicro,
			Price: tick.RoundToTick(indicator.Min(indicator.Tail(lows, microWindow))),
		})
	}
	if len(lows) >= minorWindow {
		levels = append(levels, contracts.SupportLevel{
			Tier:  contracts.TierMinor,
			Price: tick.RoundToTick(indicator.Min(indicator.Tail(lows, minorWindow))),
		})
	}
	if major > 0 {
		levels = append(levels, contracts.SupportLevel{Tier: contracts.TierMajor, Price: major})
	}
	return levels
}

// entryLadder derives the near and deep entry bands from ranked supports.
// With fewer than two levels the deep band falls back to the nearest one.
func entryLadder(ranked []contracts.RankedSupport) (near, deep contracts.PriceRange) {
	if len(ranked) == 0 {
		return near, deep
	}
	nearPx := float64(ranked[0].Price)
	midPx := nearPx
	if len(ranked) > 1 {
		midPx = float64(ranked[1].Price)
	}

	near = contracts.PriceRange{Low: tick.RoundToTick(nearPx * 0.995), High: tick.RoundToTick(nearPx * 1.015)}
	deep = contracts.PriceRange{Low: tick.RoundToTick(midPx * 0.99), High: tick.RoundToTick(midPx * 1.02)}
	return near, deep
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
