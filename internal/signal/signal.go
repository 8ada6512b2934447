// Package signal scores a bar by combining weighted votes from price levels,
// moving averages, oscillators and the trend classifier.
package signal

import (
	"math"

	"tradeassist/internal/indicator"
	"tradeassist/internal/levels"
	"tradeassist/internal/market"
	"tradeassist/internal/pivot"
	"tradeassist/internal/trend"
)

// Vote is one signal's opinion about a bar.
type Vote int

const (
	Sell Vote = -1
	Hold Vote = 0
	Buy  Vote = 1
)

// Signal names. Unknown names in toggles or weight maps are ignored.
const (
	NameSR        = "sr"
	NameMACross   = "maCross"
	NameRSI       = "rsi"
	NameMACD      = "macd"
	NameBollinger = "bollinger"
	NameTrend     = "trend"
	NameCCI       = "cci"
	NameStoch     = "stoch"
	NameMFI       = "mfi"
	NameTrendline = "tl"
)

// Weights maps a signal name to its importance multiplier.
type Weights map[string]float64

// DefaultWeights favors band breakouts and momentum crosses over single
// oscillator readings.
func DefaultWeights() Weights {
	return Weights{
		NameSR:        2,
		NameMACross:   2,
		NameRSI:       1,
		NameMACD:      2,
		NameBollinger: 3,
		NameTrend:     1,
		NameCCI:       1,
		NameStoch:     1,
		NameMFI:       1,
		NameTrendline: 1,
	}
}

// Options tunes the combiner.
type Options struct {
	Weights        Weights
	BuyThreshold   float64
	SellThreshold  float64
	DecisionPoints int
	WarmUp         int
	// Additional toggles oscillators that are off by default. Unknown
	// names are ignored.
	Additional map[string]bool
}

const (
	DefaultBuyThreshold  = 3
	DefaultSellThreshold = 3
	DefaultDecisionPts   = 3
	DefaultWarmUp        = 200

	rsiBuyLevel    = 48
	rsiSellLevel   = 63
	cciLevel       = 100
	stochBuyLevel  = 20
	stochSellLevel = 80
	mfiBuyLevel    = 20
	mfiSellLevel   = 80
)

func (o Options) withDefaults() Options {
	if o.Weights == nil {
		o.Weights = DefaultWeights()
	}
	if o.BuyThreshold <= 0 {
		o.BuyThreshold = DefaultBuyThreshold
	}
	if o.SellThreshold <= 0 {
		o.SellThreshold = DefaultSellThreshold
	}
	if o.DecisionPoints <= 0 {
		o.DecisionPoints = DefaultDecisionPts
	}
	if o.WarmUp <= 0 {
		o.WarmUp = DefaultWarmUp
	}
	return o
}

// Inputs carries every per-bar data source the combiner reads. All series
// are aligned with the history by bar index.
type Inputs struct {
	History    *market.History
	Series     *indicator.Series
	Trend      []trend.Label
	Ranges     []levels.Range
	PivotHighs []pivot.Point
	PivotLows  []pivot.Point
}

// Decision is the combined outcome for one bar.
type Decision struct {
	Direction Vote            `json:"direction"`
	Score     float64         `json:"score"`
	Votes     map[string]Vote `json:"votes"`
}

// Evaluate scores bar i. Bars inside the warm-up window always hold, as does
// any individual signal whose inputs are not yet valid.
func Evaluate(in Inputs, i int, opts Options) Decision {
	opts = opts.withDefaults()
	votes := map[string]Vote{}
	if i < opts.WarmUp || i >= in.History.Len() {
		return Decision{Direction: Hold, Votes: votes}
	}

	votes[NameSR] = bandBreakout(in, i)
	votes[NameMACross] = maCross(in.Series, i, opts.DecisionPoints)
	votes[NameRSI] = thresholdVote(in.Series.RSI[i], rsiBuyLevel, rsiSellLevel)
	votes[NameMACD] = macdCross(in.Series, i)
	votes[NameBollinger] = bollingerTouch(in, i)
	votes[NameTrend] = trendVote(in.Trend, i)
	if opts.Additional[NameCCI] {
		votes[NameCCI] = thresholdVote(in.Series.CCI[i], -cciLevel, cciLevel)
	}
	if opts.Additional[NameStoch] {
		votes[NameStoch] = thresholdVote(in.Series.Stoch[i].K, stochBuyLevel, stochSellLevel)
	}
	if opts.Additional[NameMFI] {
		votes[NameMFI] = thresholdVote(in.Series.MFI[i], mfiBuyLevel, mfiSellLevel)
	}
	if opts.Additional[NameTrendline] {
		votes[NameTrendline] = trendlineBreak(in, i)
	}

	score := 0.0
	for name, v := range votes {
		score += opts.Weights[name] * float64(v)
	}

	d := Decision{Score: score, Votes: votes, Direction: Hold}
	switch {
	case score >= opts.BuyThreshold:
		d.Direction = Buy
	case score <= -opts.SellThreshold:
		d.Direction = Sell
	}
	return d
}

// bandBreakout fires when the close moves through a still-strong band edge
// it sat on or under the bar before.
func bandBreakout(in Inputs, i int) Vote {
	if i == 0 {
		return Hold
	}
	prev, cur := in.History.C[i-1], in.History.C[i]
	for _, r := range in.Ranges {
		if !r.StillStrong {
			continue
		}
		if prev <= r.Max && cur > r.Max {
			return Buy
		}
		if prev >= r.Min && cur < r.Min {
			return Sell
		}
	}
	return Hold
}

// maCross requires the fast average to hold one side of the slow average for
// points consecutive bars right after sitting on the other side.
func maCross(s *indicator.Series, i, points int) Vote {
	if i < points {
		return Hold
	}
	above, below := true, true
	for j := i - points + 1; j <= i; j++ {
		f, sl := s.SMAFast[j], s.SMASlow[j]
		if math.IsNaN(f) || math.IsNaN(sl) {
			return Hold
		}
		if f <= sl {
			above = false
		}
		if f >= sl {
			below = false
		}
	}
	pf, ps := s.SMAFast[i-points], s.SMASlow[i-points]
	if math.IsNaN(pf) || math.IsNaN(ps) {
		return Hold
	}
	if above && pf <= ps {
		return Buy
	}
	if below && pf >= ps {
		return Sell
	}
	return Hold
}

func macdCross(s *indicator.Series, i int) Vote {
	if i == 0 {
		return Hold
	}
	h0, h1 := s.MACD[i-1].Hist, s.MACD[i].Hist
	if math.IsNaN(h0) || math.IsNaN(h1) || h1 == 0 {
		return Hold
	}
	if h0 <= 0 && h1 > 0 {
		return Buy
	}
	if h0 >= 0 && h1 < 0 {
		return Sell
	}
	return Hold
}

func bollingerTouch(in Inputs, i int) Vote {
	up, lo := in.Series.Boll[i].Upper, in.Series.Boll[i].Lower
	if math.IsNaN(up) || math.IsNaN(lo) {
		return Hold
	}
	// A zero-variance window collapses the band onto the close; a touch of
	// a zero-width band carries no information.
	if up <= lo {
		return Hold
	}
	c := in.History.C[i]
	if c <= lo {
		return Buy
	}
	if c >= up {
		return Sell
	}
	return Hold
}

// thresholdVote buys below buyAt and sells above sellAt. NaN holds.
func thresholdVote(v, buyAt, sellAt float64) Vote {
	if math.IsNaN(v) {
		return Hold
	}
	if v < buyAt {
		return Buy
	}
	if v > sellAt {
		return Sell
	}
	return Hold
}

func trendVote(labels []trend.Label, i int) Vote {
	if i >= len(labels) {
		return Hold
	}
	switch labels[i] {
	case trend.Up:
		return Buy
	case trend.Down:
		return Sell
	}
	return Hold
}

// trendlineBreak projects the line through the last two pivot highs and the
// last two pivot lows. A close breaking above a falling high line buys, a
// close breaking below a rising low line sells.
func trendlineBreak(in Inputs, i int) Vote {
	c := in.History.C[i]
	if highs := lastTwoBefore(in.PivotHighs, i); highs != nil && highs[1].Value <= highs[0].Value {
		if y, ok := projectLine(highs, i); ok {
			if c > y && in.History.C[i-1] <= projectAt(highs, i-1) {
				return Buy
			}
		}
	}
	if lows := lastTwoBefore(in.PivotLows, i); lows != nil && lows[1].Value >= lows[0].Value {
		if y, ok := projectLine(lows, i); ok {
			if c < y && in.History.C[i-1] >= projectAt(lows, i-1) {
				return Sell
			}
		}
	}
	return Hold
}

func lastTwoBefore(points []pivot.Point, i int) []pivot.Point {
	var out []pivot.Point
	for j := len(points) - 1; j >= 0 && len(out) < 2; j-- {
		if points[j].Index < i {
			out = append(out, points[j])
		}
	}
	if len(out) < 2 {
		return nil
	}
	out[0], out[1] = out[1], out[0]
	return out
}

func projectLine(pts []pivot.Point, at int) (float64, bool) {
	if len(pts) != 2 || pts[0].Index == pts[1].Index {
		return 0, false
	}
	return projectAt(pts, at), true
}

func projectAt(pts []pivot.Point, at int) float64 {
	if len(pts) != 2 {
		return math.NaN()
	}
	slope := (pts[1].Value - pts[0].Value) / float64(pts[1].Index-pts[0].Index)
	return pts[1].Value + slope*float64(at-pts[1].Index)
}
