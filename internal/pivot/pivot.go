// Package pivot finds V-points: local price extrema that hold over a
// symmetric neighbor window and survive flat regions.
package pivot

// Point is a confirmed local extremum.
type Point struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Options controls detection. StartFrom plus Previous allow incremental
// extension: pivots confirmed before the cursor are kept as-is and only newer
// candidates are scanned. The caller must set StartFrom at least Offset bars
// before the first index it needs re-derived, since fresh data can confirm
// candidates that were still inside the unconfirmed tail.
type Options struct {
	Offset    int
	StartFrom int
	Previous  []Point
}

const DefaultOffset = 10

// Detect scans prices for V-points in increasing index order. A candidate at
// index i qualifies when its value is >= every neighbor in [i-offset, i+offset]
// or <= every neighbor in that window; the window must be fully available, so
// the last offset bars never confirm. Consecutive pivots of equal value
// collapse to the earliest index.
func Detect(prices []float64, opts Options) []Point {
	offset := opts.Offset
	if offset <= 0 {
		offset = DefaultOffset
	}
	if len(prices) < 2*offset+1 {
		return collapse(opts.Previous)
	}

	scanFrom := opts.StartFrom
	if scanFrom < offset {
		scanFrom = offset
	}

	out := make([]Point, 0, len(opts.Previous)+8)
	for _, p := range opts.Previous {
		if p.Index < scanFrom {
			out = append(out, p)
		}
	}

	last := len(prices) - 1 - offset
	for i := scanFrom; i <= last; i++ {
		if isExtremum(prices, i, offset) {
			out = append(out, Point{Index: i, Value: prices[i]})
		}
	}
	return collapse(out)
}

func isExtremum(prices []float64, i, offset int) bool {
	v := prices[i]
	isHigh, isLow := true, true
	for j := i - offset; j <= i+offset; j++ {
		if prices[j] > v {
			isHigh = false
		}
		if prices[j] < v {
			isLow = false
		}
		if !isHigh && !isLow {
			return false
		}
	}
	return true
}

// collapse merges runs of adjacent equal-value pivots, keeping the first.
func collapse(points []Point) []Point {
	if len(points) == 0 {
		return []Point{}
	}
	out := points[:0:0]
	out = append(out, points[0])
	for _, p := range points[1:] {
		if p.Value == out[len(out)-1].Value {
			continue
		}
		out = append(out, p)
	}
	return out
}
