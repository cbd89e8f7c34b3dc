package contracts

import "time"

// SymbolFailure records a symbol that could not be screened
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"` // fetch, compute
	Error  string `json:"error"`
}

// ScreeningRun is the aggregated outcome of one engine run
// ⭐ SSOT: 엔진 1회 실행 결과 (점수 내림차순 정렬)
type ScreeningRun struct {
	ID         int64           `json:"id,omitempty"`
	Strategy   StrategyID      `json:"strategy"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Requested  int             `json:"requested"`
	Succeeded  int             `json:"succeeded"`
	NoSetup    int             `json:"no_setup"`
	Failed     int             `json:"failed"`
	Cancelled  bool            `json:"cancelled,omitempty"`
	Setups     []StockSetup    `json:"setups"`
	Failures   []SymbolFailure `json:"failures,omitempty"`
}

// Duration returns the wall time of the run
func (r *ScreeningRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Top returns at most n setups from the head of the ranking
func (r *ScreeningRun) Top(n int) []StockSetup {
	if n <= 0 || n >= len(r.Setups) {
		return r.Setups
	}
	return r.Setups[:n]
}
