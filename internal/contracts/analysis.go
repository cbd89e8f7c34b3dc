package contracts

import "time"

// TrendKind classifies the MA20/MA50 structure
type TrendKind string

const (
	TrendBullishStrong TrendKind = "bullish_strong"
	TrendBullishWeak   TrendKind = "bullish_weak"
	TrendBearishStrong TrendKind = "bearish_strong"
	TrendBearishWeak   TrendKind = "bearish_weak"
	TrendSideways      TrendKind = "sideways"
)

// Label returns the display label used by renderers
func (k TrendKind) Label() string {
	switch k {
	case TrendBullishStrong:
		return "Bullish (Strong)"
	case TrendBullishWeak:
		return "Bullish (Weak)"
	case TrendBearishStrong:
		return "Bearish (Strong)"
	case TrendBearishWeak:
		return "Bearish (Weak)"
	default:
		return "Sideways / Transition"
	}
}

// PriceRange is an inclusive tick-valid band
type PriceRange struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// Contains reports whether price falls inside the band
func (r PriceRange) Contains(price int64) bool {
	return price >= r.Low && price <= r.High
}

// SupportTier names the lookback a support level came from
type SupportTier string

const (
	TierMicro SupportTier = "micro" // 7-bar low
	TierMinor SupportTier = "minor" // 12-bar low
	TierMajor SupportTier = "major" // 30-bar closing low
)

// SupportRank is the proximity label of a support level
type SupportRank string

const (
	RankNear SupportRank = "Near"
	RankMid  SupportRank = "Mid"
	RankFar  SupportRank = "Far"
)

// SupportLevel is one tick-rounded support price
type SupportLevel struct {
	Tier  SupportTier `json:"tier"`
	Price int64       `json:"price"`
}

// RankedSupport is a support level ordered by distance from the last price
type RankedSupport struct {
	SupportLevel
	Rank     SupportRank `json:"rank"`
	Distance int64       `json:"distance"`
}

// AnalysisResult is the support/resistance structure of one symbol
// ⭐ SSOT: 지지/저항 분석 결과
type AnalysisResult struct {
	Symbol     string    `json:"symbol"`
	Trend      TrendKind `json:"trend_kind"`
	TrendLabel string    `json:"trend"`
	MA20       float64   `json:"ma20"`
	MA50       float64   `json:"ma50"`
	GapPct     float64   `json:"gap_pct"`

	LastPrice  int64 `json:"last_price"`
	Support    int64 `json:"support"`
	Resistance int64 `json:"resistance"`

	MicroSupport *int64          `json:"micro_support,omitempty"`
	MinorSupport *int64          `json:"minor_support,omitempty"`
	Supports     []RankedSupport `json:"supports"`

	EntryZone PriceRange `json:"entry_zone"`
	EntryNear PriceRange `json:"entry_near"`
	EntryDeep PriceRange `json:"entry_deep"`
	RiskPct   float64    `json:"risk_pct"`

	Insight string           `json:"insight"`
	Cycle   *CyclePrediction `json:"cycle,omitempty"`
}

// Confidence grades how regular the detected cycle is
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// DateWindow is an inclusive calendar-date window
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CyclePrediction projects the next swing lows and highs from past lows
// ⭐ SSOT: 사이클 예측 결과
type CyclePrediction struct {
	LastLowDate   time.Time `json:"last_low_date"`
	SwingLowCount int       `json:"swing_low_count"`

	CycleDays     int        `json:"cycle_days"`
	HalfCycleDays int        `json:"half_cycle_days"`
	StdDevDays    float64    `json:"stddev_days"`
	Confidence    Confidence `json:"confidence"`

	NextLow    time.Time  `json:"next_low"`
	NextLowWin DateWindow `json:"next_low_window"`
	SecondLow  time.Time  `json:"second_low"`
	SecondWin  DateWindow `json:"second_low_window"`

	NextHigh      time.Time  `json:"next_high"`
	NextHighWin   DateWindow `json:"next_high_window"`
	SecondHigh    time.Time  `json:"second_high"`
	SecondHighWin DateWindow `json:"second_high_window"`

	DaysToNextLow    int `json:"days_to_next_low"`
	DaysToSecondLow  int `json:"days_to_second_low"`
	DaysToNextHigh   int `json:"days_to_next_high"`
	DaysToSecondHigh int `json:"days_to_second_high"`
}
