package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"tradeassist/internal/indicator"
	"tradeassist/internal/levels"
	"tradeassist/internal/pivot"
	"tradeassist/internal/trend"
)

// Result bundles everything one simulation produced. Config echoes the fully
// resolved parameters so a stored result can be rerun as-is.
type Result struct {
	ID         string            `json:"id"`
	Symbol     string            `json:"symbol"`
	Timeframe  string            `json:"timeframe"`
	Config     Config            `json:"config"`
	Trades     []Trade           `json:"trades"`
	Labels     map[Label]int     `json:"labels"`
	Analytics  Analytics         `json:"analytics"`
	Pivots     []pivot.Point     `json:"pivots"`
	TrendHighs []pivot.Point     `json:"trendHighs"`
	TrendLows  []pivot.Point     `json:"trendLows"`
	Ranges     []levels.Range    `json:"ranges"`
	Segments   []trend.Segment   `json:"segments"`
	// Indicators carries NaN warm-up values and is recomputable from the
	// history and config, so it never enters the persisted payload.
	Indicators *indicator.Series `json:"-"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
}

// Analytics summarizes trade grades. Percentages are decimals rounded to
// two places so serialized results stay stable across platforms.
type Analytics struct {
	Trades            int             `json:"trades"`
	Profits           int             `json:"profits"`
	HalfProfits       int             `json:"halfProfits"`
	Losses            int             `json:"losses"`
	Unfinished        int             `json:"unfinished"`
	ProfitPercent     decimal.Decimal `json:"profitPercent"`
	LossPercent       decimal.Decimal `json:"lossPercent"`
	UnfinishedPercent decimal.Decimal `json:"unfinishedPercent"`
	GoodRun           bool            `json:"goodRun"`
}

// Thresholds marking a parameter set worth keeping.
var (
	goodRunProfitPct     = decimal.NewFromInt(60)
	goodRunUnfinishedPct = decimal.NewFromInt(23)
	goodRunMinTrades     = 45
)

// Summarize computes grade counts and percentages from trade labels. A trade
// that ran a stop distance before stopping out counts as a win, and trades
// that never resolved stay out of the win-rate denominator; only the
// unfinished share is taken over all trades. An empty trade list yields zero
// percentages and never qualifies as a good run.
func Summarize(trades []Trade) Analytics {
	a := Analytics{Trades: len(trades)}
	if len(trades) == 0 {
		return a
	}
	for _, t := range trades {
		switch t.Label {
		case LabelProfit:
			a.Profits++
		case LabelHalfProfit:
			a.HalfProfits++
		case LabelLoss:
			a.Losses++
		default:
			a.Unfinished++
		}
	}
	hundred := decimal.NewFromInt(100)
	wins := a.Profits + a.HalfProfits
	if closed := wins + a.Losses; closed > 0 {
		cd := decimal.NewFromInt(int64(closed))
		a.ProfitPercent = decimal.NewFromInt(int64(wins)).Mul(hundred).DivRound(cd, 2)
		a.LossPercent = decimal.NewFromInt(int64(a.Losses)).Mul(hundred).DivRound(cd, 2)
	}
	total := decimal.NewFromInt(int64(a.Trades))
	a.UnfinishedPercent = decimal.NewFromInt(int64(a.Unfinished)).Mul(hundred).DivRound(total, 2)

	a.GoodRun = a.ProfitPercent.GreaterThan(goodRunProfitPct) &&
		a.Trades > goodRunMinTrades &&
		a.UnfinishedPercent.LessThan(goodRunUnfinishedPct)
	return a
}

// CountLabels tallies the refined trade grades.
func CountLabels(trades []Trade) map[Label]int {
	out := map[Label]int{}
	for _, t := range trades {
		out[t.Label]++
	}
	return out
}
