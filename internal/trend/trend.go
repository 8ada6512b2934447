// Package trend classifies the local market direction per bar using either a
// robust high/low spread policy or a candle body-count policy.
package trend

import (
	"sort"

	"tradeassist/internal/market"
)

// Label is the direction assigned to a bar.
type Label string

const (
	Up    Label = "up"
	Down  Label = "down"
	Range Label = "range"
)

// Policy selects the classification rule.
type Policy string

const (
	// PolicySpread compares the closing price against robust recent
	// extremes and treats a narrow spread as ranging.
	PolicySpread Policy = "spread"
	// PolicyCandle counts directional candle bodies over a short window.
	PolicyCandle Policy = "candle"
)

const (
	spreadLookback    = 12
	spreadRangeFrac   = 0.007
	candleLookback    = 8
	candleQuietFrac   = 0.0035
	candleBodyFrac    = 0.0015
	candleMinLead     = 2
	candleBaselineLen = 24
)

// Classify labels a single bar. Bars without enough history default to Range.
func Classify(h *market.History, i int, policy Policy) Label {
	if policy == PolicyCandle {
		return classifyCandle(h, i)
	}
	return classifySpread(h, i)
}

// Series labels every bar of the history under the given policy.
func Series(h *market.History, policy Policy) []Label {
	out := make([]Label, h.Len())
	for i := range out {
		out[i] = Classify(h, i, policy)
	}
	return out
}

// classifySpread sorts the last spreadLookback closes and averages the two
// lowest and two highest to get robust extremes. A spread under
// spreadRangeFrac of price is ranging; otherwise the close position against
// the robust extremes decides the direction.
func classifySpread(h *market.History, i int) Label {
	if i < spreadLookback {
		return Range
	}
	window := make([]float64, spreadLookback)
	copy(window, h.C[i-spreadLookback+1:i+1])
	sort.Float64s(window)
	low := (window[0] + window[1]) / 2
	high := (window[len(window)-1] + window[len(window)-2]) / 2

	price := h.C[i]
	if price == 0 || (high-low)/price < spreadRangeFrac {
		return Range
	}
	switch {
	case price > high:
		return Up
	case price < low:
		return Down
	default:
		return Range
	}
}

// classifyCandle inspects the last candleLookback candles. When fewer than
// three closes deviate more than candleQuietFrac from the window average the
// market is ranging. Otherwise bodies larger than candleBodyFrac of price are
// counted by color; a lead of candleMinLead with price on the matching side
// of the candleBaselineLen-bar average close confirms the direction.
func classifyCandle(h *market.History, i int) Label {
	if i < candleLookback+2 {
		return Range
	}

	var avg float64
	for j := i - candleLookback + 1; j <= i; j++ {
		avg += h.C[j]
	}
	avg /= candleLookback

	deviating := 0
	for j := i - candleLookback + 1; j <= i; j++ {
		if avg > 0 && absFloat(h.C[j]-avg)/avg > candleQuietFrac {
			deviating++
		}
	}
	if deviating < 3 {
		return Range
	}

	green, red := 0, 0
	for j := i - candleLookback + 1; j <= i; j++ {
		if h.BodySize(j) < candleBodyFrac*h.C[j] {
			continue
		}
		if h.IsGreen(j) {
			green++
		} else {
			red++
		}
	}

	baseFrom := i - candleBaselineLen + 1
	if baseFrom < 0 {
		baseFrom = 0
	}
	var baseline float64
	for j := baseFrom; j <= i; j++ {
		baseline += h.C[j]
	}
	baseline /= float64(i - baseFrom + 1)

	price := h.C[i]
	switch {
	case green-red >= candleMinLead && price > baseline:
		return Up
	case red-green >= candleMinLead && price < baseline:
		return Down
	default:
		return Range
	}
}

// Segment is a maximal run of identical labels.
type Segment struct {
	Index int   `json:"index"`
	Label Label `json:"label"`
}

// GroupSegments compresses per-bar labels into the last bar of every run,
// always keeping the final bar so the current state is visible.
func GroupSegments(labels []Label) []Segment {
	if len(labels) == 0 {
		return nil
	}
	var out []Segment
	for i := 0; i < len(labels)-1; i++ {
		if labels[i] != labels[i+1] {
			out = append(out, Segment{Index: i, Label: labels[i]})
		}
	}
	out = append(out, Segment{Index: len(labels) - 1, Label: labels[len(labels)-1]})
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
