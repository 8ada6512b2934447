package backtest

import (
	"context"
	"fmt"

	"tradeassist/internal/indicator"
	"tradeassist/internal/levels"
	"tradeassist/internal/market"
	"tradeassist/internal/pivot"
	"tradeassist/internal/signal"
	"tradeassist/internal/trend"
)

// Engine replays a candle history bar by bar, opens a position whenever the
// combined signal clears its threshold, and simulates each position forward
// until target or stop is touched. The evaluation cursor never reads data
// past itself: indicators stream forward, and a pivot only becomes visible
// once the bar completing its confirmation window has passed.
type Engine struct {
	cfg     Config
	history *market.History
	series  *indicator.Series
	labels  []trend.Label

	pivots     []pivot.Point
	trendHighs []pivot.Point
	trendLows  []pivot.Point

	ranges        []levels.Range
	rangePivotCnt int
}

// NewEngine validates the configuration against the history and prepares the
// per-bar series the decision loop consumes.
func NewEngine(cfg Config, h *market.History) (*Engine, error) {
	if h == nil || h.Len() == 0 {
		return nil, fmt.Errorf("history is empty")
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	cfg = cfg.withDefaults(h.C[0])
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.StartIndex >= h.Len() {
		return nil, fmt.Errorf("start index %d beyond history of %d bars", cfg.StartIndex, h.Len())
	}

	ind := indicator.NewEngine(cfg.Indicators)
	for i := 0; i < h.Len(); i++ {
		ind.Step(h.Candle(i))
	}

	e := &Engine{
		cfg:     cfg,
		history: h,
		series:  ind.Series(),
		labels:  trend.Series(h, cfg.TrendPolicy),
		pivots:  pivot.Detect(h.C, pivot.Options{Offset: cfg.VPointOffset}),
	}
	e.trendHighs = pivot.Detect(h.H, pivot.Options{Offset: cfg.TrendLineVPointOffset})
	e.trendLows = pivot.Detect(h.L, pivot.Options{Offset: cfg.TrendLineVPointOffset})
	return e, nil
}

// Run walks the history from the configured start. After a position closes
// the cursor rewinds to the bar right after the entry, so bars consumed by
// the position's lifetime are re-evaluated without the position held.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	cfg := e.cfg
	h := e.history
	start := cfg.StartIndex
	if start < cfg.WarmUp {
		start = cfg.WarmUp
	}

	var trades []Trade
	lastDir := signal.Hold
	lastOpen := -cfg.Cooldown

	for i := start; i < h.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		visible := e.visiblePivots(i)
		e.rebuildRanges(visible, i)

		d := signal.Evaluate(signal.Inputs{
			History:    h,
			Series:     e.series,
			Trend:      e.labels,
			Ranges:     e.ranges,
			PivotHighs: e.visibleTrendPoints(e.trendHighs, i),
			PivotLows:  e.visibleTrendPoints(e.trendLows, i),
		}, i, cfg.signalOptions())

		if d.Direction == signal.Hold {
			continue
		}
		if d.Direction == lastDir && i-lastOpen < cfg.Cooldown {
			continue
		}

		t, ok := e.open(d, i)
		if !ok {
			continue
		}
		e.simulate(&t)
		t.Label = labelFor(t)
		trades = append(trades, t)
		lastDir = d.Direction
		lastOpen = i
		// The cursor resumes right after the entry bar.
	}

	res := &Result{
		Symbol:     cfg.Symbol,
		Timeframe:  cfg.Timeframe,
		Config:     cfg,
		Trades:     trades,
		Labels:     CountLabels(trades),
		Analytics:  Summarize(trades),
		Pivots:     e.pivots,
		TrendHighs: e.trendHighs,
		TrendLows:  e.trendLows,
		Ranges:     e.ranges,
		Segments:   trend.GroupSegments(e.labels),
		Indicators: e.series,
	}
	return res, nil
}

// visiblePivots returns the pivots confirmed by bar i: a pivot at index k
// needs data through k+offset, so it surfaces only when i >= k+offset.
func (e *Engine) visiblePivots(i int) []pivot.Point {
	cut := i - e.cfg.VPointOffset
	n := 0
	for n < len(e.pivots) && e.pivots[n].Index <= cut {
		n++
	}
	return e.pivots[:n]
}

func (e *Engine) visibleTrendPoints(points []pivot.Point, i int) []pivot.Point {
	cut := i - e.cfg.TrendLineVPointOffset
	n := 0
	for n < len(points) && points[n].Index <= cut {
		n++
	}
	return points[:n]
}

// rebuildRanges refreshes the support/resistance bands when a new pivot
// surfaced. Prices beyond bar i never participate.
func (e *Engine) rebuildRanges(visible []pivot.Point, i int) {
	if len(visible) == e.rangePivotCnt && e.ranges != nil {
		return
	}
	e.rangePivotCnt = len(visible)
	e.ranges = levels.Build(visible, e.history.C[:i+1], levels.Options{
		Tolerance: e.cfg.RangeTolerance,
	})
}

// open converts a decision into a position. The fixed-percent target is the
// only target ever used; when a still-strong opposing band sits closer than
// that target, the trade is rejected outright rather than shortened.
func (e *Engine) open(d signal.Decision, i int) (Trade, bool) {
	entry := e.history.C[i]
	t := Trade{
		Direction:  d.Direction,
		StartIndex: i,
		Entry:      entry,
		TradeHigh:  entry,
		TradeLow:   entry,
		Score:      d.Score,
		Votes:      d.Votes,
	}
	if d.Direction == signal.Buy {
		t.Target = entry * (1 + e.cfg.TargetProfitPercent/100)
		t.Stop = entry * (1 - e.cfg.StopLossPercent/100)
		if r, ok := levels.NearestAbove(e.ranges, entry); ok && r.Min < t.Target {
			return Trade{}, false
		}
	} else {
		t.Target = entry * (1 - e.cfg.TargetProfitPercent/100)
		t.Stop = entry * (1 + e.cfg.StopLossPercent/100)
		if r, ok := levels.NearestBelow(e.ranges, entry); ok && r.Max > t.Target {
			return Trade{}, false
		}
	}
	return t, true
}

// simulate walks bars after entry until the stop or the target is touched.
// A bar touching both resolves as a loss. Running out of bars leaves the
// trade unfinished at the final close.
func (e *Engine) simulate(t *Trade) {
	h := e.history
	for j := t.StartIndex + 1; j < h.Len(); j++ {
		hi, lo := h.H[j], h.L[j]
		if hi > t.TradeHigh {
			t.TradeHigh = hi
		}
		if lo < t.TradeLow {
			t.TradeLow = lo
		}
		if t.Long() {
			if lo <= t.Stop {
				t.close(j, t.Stop, OutcomeLoss)
				return
			}
			if hi >= t.Target {
				t.close(j, t.Target, OutcomeProfit)
				return
			}
		} else {
			if hi >= t.Stop {
				t.close(j, t.Stop, OutcomeLoss)
				return
			}
			if lo <= t.Target {
				t.close(j, t.Target, OutcomeProfit)
				return
			}
		}
	}
	t.close(h.Len()-1, h.C[h.Len()-1], OutcomeUnfinished)
}

func (t *Trade) close(index int, price float64, o Outcome) {
	t.EndIndex = index
	t.Exit = price
	t.Outcome = o
}
