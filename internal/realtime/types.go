package realtime

import (
	"time"

	"github.com/wonny/cruzer/internal/contracts"
)

// EventType names a pushed message
type EventType string

const (
	EventRun   EventType = "run"
	EventHello EventType = "hello"
)

// SetupSummary is the compact form of a setup sent to subscribers
type SetupSummary struct {
	Symbol    string  `json:"symbol"`
	Score     int     `json:"score"`
	LastPrice int64   `json:"last_price"`
	EntryLow  int64   `json:"entry_low"`
	EntryHigh int64   `json:"entry_high"`
	Stop      int64   `json:"stop"`
	Target    int64   `json:"target"` // middle target
	GainPct   float64 `json:"gain_pct"`
}

// RunEvent represents a finished screening run
// ⭐ SSOT: 실시간 푸시 메시지 구조
type RunEvent struct {
	Type       EventType            `json:"type"`
	Strategy   contracts.StrategyID `json:"strategy,omitempty"`
	FinishedAt time.Time            `json:"finished_at"`
	Requested  int                  `json:"requested"`
	Succeeded  int                  `json:"succeeded"`
	NoSetup    int                  `json:"no_setup"`
	Failed     int                  `json:"failed"`
	Cancelled  bool                 `json:"cancelled,omitempty"`
	Top        []SetupSummary       `json:"top,omitempty"`
}

// NewRunEvent summarizes a run with at most top setups
func NewRunEvent(run *contracts.ScreeningRun, top int) RunEvent {
	ev := RunEvent{
		Type:       EventRun,
		Strategy:   run.Strategy,
		FinishedAt: run.FinishedAt,
		Requested:  run.Requested,
		Succeeded:  run.Succeeded,
		NoSetup:    run.NoSetup,
		Failed:     run.Failed,
		Cancelled:  run.Cancelled,
	}
	for _, s := range run.Top(top) {
		sum := SetupSummary{
			Symbol:    s.Symbol,
			Score:     s.Score,
			LastPrice: s.LastPrice,
			EntryLow:  s.EntryLow,
			EntryHigh: s.EntryHigh,
			Stop:      s.Stop,
			GainPct:   s.ExpectedGainPct(),
		}
		if len(s.Targets) > 1 {
			sum.Target = s.Targets[1]
		}
		ev.Top = append(ev.Top, sum)
	}
	return ev
}
