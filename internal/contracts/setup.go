package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wonny/cruzer/internal/tick"
)

// StrategyID identifies a screening strategy
type StrategyID string

const (
	StrategyBreakout  StrategyID = "breakout"
	StrategyDaySwing  StrategyID = "swing_trade_day"
	StrategyWeekSwing StrategyID = "swing_trade_week"
)

// AllStrategies lists strategies in display order
var AllStrategies = []StrategyID{StrategyWeekSwing, StrategyDaySwing, StrategyBreakout}

var strategyAliases = map[string]StrategyID{
	"breakout":         StrategyBreakout,
	"bsjp":             StrategyBreakout,
	"swing_trade_day":  StrategyDaySwing,
	"day":              StrategyDaySwing,
	"swing_trade_week": StrategyWeekSwing,
	"week":             StrategyWeekSwing,
}

// ParseStrategyID resolves a strategy id or one of its short aliases
func ParseStrategyID(s string) (StrategyID, bool) {
	id, ok := strategyAliases[strings.ToLower(strings.TrimSpace(s))]
	return id, ok
}

// ScoreItem is one named component of a composite score
type ScoreItem struct {
	Name   string
	Points int
}

// ScoreBreakdown is an ordered, read-only list of score components.
// It marshals to a JSON object whose key order follows the list.
type ScoreBreakdown struct {
	items []ScoreItem
}

// NewScoreBreakdown builds a breakdown from independently computed parts
func NewScoreBreakdown(items ...ScoreItem) ScoreBreakdown {
	cp := make([]ScoreItem, len(items))
	copy(cp, items)
	return ScoreBreakdown{items: cp}
}

// Items returns a copy of the components
func (s ScoreBreakdown) Items() []ScoreItem {
	cp := make([]ScoreItem, len(s.items))
	copy(cp, s.items)
	return cp
}

// Total sums all components
func (s ScoreBreakdown) Total() int {
	total := 0
	for _, it := range s.items {
		total += it.Points
	}
	return total
}

// Get returns the points of a named component
func (s ScoreBreakdown) Get(name string) (int, bool) {
	for _, it := range s.items {
		if it.Name == name {
			return it.Points, true
		}
	}
	return 0, false
}

// Len returns the number of components
func (s ScoreBreakdown) Len() int { return len(s.items) }

func (s ScoreBreakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, it := range s.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(it.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", it.Points)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *ScoreBreakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("score breakdown: expected object")
	}

	var items []ScoreItem
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var points int
		if err := dec.Decode(&points); err != nil {
			return fmt.Errorf("score breakdown %v: %w", keyTok, err)
		}
		items = append(items, ScoreItem{Name: keyTok.(string), Points: points})
	}
	s.items = items
	return nil
}

// StockSetup is a scored trade setup with tick-valid price levels
// ⭐ SSOT: 전략 스크리너의 유일한 출력 타입
type StockSetup struct {
	Symbol         string         `json:"symbol"`
	Strategy       StrategyID     `json:"strategy"`
	LastPrice      int64          `json:"last_price"`
	Score          int            `json:"score"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`

	EntryLow   int64   `json:"entry_low"`
	EntryHigh  int64   `json:"entry_high"`
	Targets    []int64 `json:"targets"`
	Stop       int64   `json:"stop"`
	RiskReward float64 `json:"risk_reward"`

	TrendLabel          string `json:"trend"`
	SetupLabel          string `json:"setup"`
	RecommendationLabel string `json:"recommendation"`
}

// ExpectedGainPct is the move from last price to the middle target, in percent
func (s *StockSetup) ExpectedGainPct() float64 {
	if s.LastPrice <= 0 || len(s.Targets) < 2 {
		return 0
	}
	return float64(s.Targets[1]-s.LastPrice) / float64(s.LastPrice) * 100
}

// Validate checks the ordering and tick invariants of a setup
func (s *StockSetup) Validate() error {
	if s.ScoreBreakdown.Total() != s.Score {
		return fmt.Errorf("score %d does not match breakdown total %d", s.Score, s.ScoreBreakdown.Total())
	}
	if s.EntryLow > s.EntryHigh {
		return fmt.Errorf("entry low %d above entry high %d", s.EntryLow, s.EntryHigh)
	}
	if s.Stop >= s.EntryLow {
		return fmt.Errorf("stop %d not below entry low %d", s.Stop, s.EntryLow)
	}
	for i := 1; i < len(s.Targets); i++ {
		if s.Targets[i] <= s.Targets[i-1] {
			return fmt.Errorf("targets not strictly increasing: %v", s.Targets)
		}
	}
	prices := append([]int64{s.LastPrice, s.EntryLow, s.EntryHigh, s.Stop}, s.Targets...)
	for _, p := range prices {
		if !tick.IsValid(p) {
			return fmt.Errorf("price %d is not on the tick grid", p)
		}
	}
	return nil
}
