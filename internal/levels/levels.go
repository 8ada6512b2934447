// Package levels derives horizontal support/resistance bands from clustered
// pivots and the price path between them.
package levels

import (
	"math"

	"tradeassist/internal/pivot"
)

// Range is a horizontal band where price oscillated between two nearly-equal
// pivot levels. StillStrong marks a band the most recent price action has not
// decisively broken.
type Range struct {
	Min         float64       `json:"min"`
	Max         float64       `json:"max"`
	Start       pivot.Point   `json:"start"`
	End         pivot.Point   `json:"end"`
	Points      []pivot.Point `json:"points"`
	StillStrong bool          `json:"stillStrong"`
}

// Options tunes band construction. Tolerance is a fraction of price deciding
// when a pivot level counts as "nearly equal" to the band; it depends on the
// sampling timeframe.
type Options struct {
	Tolerance float64
	MaxCross  int
}

const (
	DefaultTolerance = 0.0017 // 5-minute bars
	DefaultMaxCross  = 3
)

// ToleranceForTimeframe returns the price-proportional tolerance used for a
// bar interval given in minutes ("5" means 5-minute bars).
func ToleranceForTimeframe(tf string) float64 {
	switch tf {
	case "1":
		return 0.001
	case "5":
		return 0.0017
	case "15":
		return 0.0025
	case "60":
		return 0.004
	default:
		return DefaultTolerance
	}
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxCross <= 0 {
		o.MaxCross = DefaultMaxCross
	}
	return o
}

// Build grows a candidate range from every pivot: later pivots join while
// their value stays within tolerance of the running min/max and the price
// path has not crossed the accumulated band more than MaxCross times. Growth
// stops at the last valid pivot once crossings exceed the limit. Ranges that
// run out of pivots instead check the tail of the series; fewer than MaxCross
// tail crossings marks them still strong. Ranges with fewer than three points
// are dropped, then sub-ranges contained in two or more parents are dropped.
func Build(points []pivot.Point, prices []float64, opts Options) []Range {
	opts = opts.withDefaults()
	if len(points) == 0 || len(prices) == 0 {
		return nil
	}

	var ranges []Range
	for si, start := range points {
		lo, hi := start.Value, start.Value
		accepted := []pivot.Point{start}
		broken := false
		for _, p := range points[si+1:] {
			tol := opts.Tolerance * p.Value
			if math.Abs(p.Value-lo) > tol && math.Abs(p.Value-hi) > tol {
				continue
			}
			newLo, newHi := math.Min(lo, p.Value), math.Max(hi, p.Value)
			if CountCrossings(prices[start.Index:p.Index+1], newLo, newHi) > opts.MaxCross {
				broken = true
				break
			}
			lo, hi = newLo, newHi
			accepted = append(accepted, p)
		}
		r := Range{
			Min:    lo,
			Max:    hi,
			Start:  start,
			End:    accepted[len(accepted)-1],
			Points: accepted,
		}
		if !broken {
			if CountCrossings(prices[r.End.Index:], lo, hi) < opts.MaxCross {
				r.StillStrong = true
			}
		}
		ranges = append(ranges, r)
	}

	valid := ranges[:0]
	for _, r := range ranges {
		if len(r.Points) > 2 {
			valid = append(valid, r)
		}
	}
	return dropSubRanges(valid)
}

// CountCrossings counts full traversals of the [lo, hi] band. The first exit
// only establishes polarity; each later exit on the opposite side counts one
// crossing. Prices inside the band never flip the state.
func CountCrossings(prices []float64, lo, hi float64) int {
	state := 0
	count := 0
	for _, p := range prices {
		switch {
		case p > hi:
			if state == -1 {
				count++
			}
			state = 1
		case p < lo:
			if state == 1 {
				count++
			}
			state = -1
		}
	}
	return count
}

// dropSubRanges removes every range fully contained, by index span and price
// extent, inside at least two sibling ranges.
func dropSubRanges(ranges []Range) []Range {
	if len(ranges) < 3 {
		return ranges
	}
	out := make([]Range, 0, len(ranges))
	for i, r := range ranges {
		parents := 0
		for j, other := range ranges {
			if i == j {
				continue
			}
			if contains(other, r) {
				parents++
			}
		}
		if parents < 2 {
			out = append(out, r)
		}
	}
	return out
}

func contains(outer, inner Range) bool {
	return inner.Start.Index >= outer.Start.Index &&
		inner.End.Index <= outer.End.Index &&
		inner.Min >= outer.Min &&
		inner.Max <= outer.Max
}

// NearestAbove returns the closest still-strong band whose lower edge sits
// above price, or false when none qualifies.
func NearestAbove(ranges []Range, price float64) (Range, bool) {
	best := Range{}
	found := false
	for _, r := range ranges {
		if !r.StillStrong || r.Min <= price {
			continue
		}
		if !found || r.Min < best.Min {
			best = r
			found = true
		}
	}
	return best, found
}

// NearestBelow returns the closest still-strong band whose upper edge sits
// below price, or false when none qualifies.
func NearestBelow(ranges []Range, price float64) (Range, bool) {
	best := Range{}
	found := false
	for _, r := range ranges {
		if !r.StillStrong || r.Max >= price {
			continue
		}
		if !found || r.Max > best.Max {
			best = r
			found = true
		}
	}
	return best, found
}
