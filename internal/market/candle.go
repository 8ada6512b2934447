package market

import (
	"fmt"
	"math"
)

// Candle is a single OHLCV bar. Time is epoch seconds of the bar open.
type Candle struct {
	Index  int     `json:"index"`
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// History holds a symbol's candles as parallel arrays, indexed positionally.
// All arrays share the same length and T is strictly increasing.
type History struct {
	T []int64   `json:"t"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}

func (h History) Len() int { return len(h.C) }

// Candle materializes bar i. Panics on out-of-range like a slice would.
func (h History) Candle(i int) Candle {
	return Candle{
		Index:  i,
		Time:   h.T[i],
		Open:   h.O[i],
		High:   h.H[i],
		Low:    h.L[i],
		Close:  h.C[i],
		Volume: h.V[i],
	}
}

// Slice returns a half-open positional window [from, to) as a copy.
func (h History) Slice(from, to int) History {
	if from < 0 {
		from = 0
	}
	if to > h.Len() {
		to = h.Len()
	}
	if from >= to {
		return History{}
	}
	out := History{
		T: make([]int64, to-from),
		O: make([]float64, to-from),
		H: make([]float64, to-from),
		L: make([]float64, to-from),
		C: make([]float64, to-from),
		V: make([]float64, to-from),
	}
	copy(out.T, h.T[from:to])
	copy(out.O, h.O[from:to])
	copy(out.H, h.H[from:to])
	copy(out.L, h.L[from:to])
	copy(out.C, h.C[from:to])
	copy(out.V, h.V[from:to])
	return out
}

// Validate fails fast on structural problems, naming the broken field.
// NaN prices are allowed here; downstream signal math treats them as holds.
func (h History) Validate() error {
	n := len(h.C)
	if n == 0 {
		return fmt.Errorf("market: close array missing or empty")
	}
	if len(h.T) != n {
		return fmt.Errorf("market: time array length %d != close length %d", len(h.T), n)
	}
	if len(h.O) != n {
		return fmt.Errorf("market: open array length %d != close length %d", len(h.O), n)
	}
	if len(h.H) != n {
		return fmt.Errorf("market: high array length %d != close length %d", len(h.H), n)
	}
	if len(h.L) != n {
		return fmt.Errorf("market: low array length %d != close length %d", len(h.L), n)
	}
	if len(h.V) != n {
		return fmt.Errorf("market: volume array length %d != close length %d", len(h.V), n)
	}
	for i := 1; i < n; i++ {
		if h.T[i] <= h.T[i-1] {
			return fmt.Errorf("market: time not strictly increasing at index %d (%d <= %d)", i, h.T[i], h.T[i-1])
		}
	}
	return nil
}

// FromCandles rebuilds the parallel-array form from materialized bars.
func FromCandles(candles []Candle) History {
	out := History{
		T: make([]int64, len(candles)),
		O: make([]float64, len(candles)),
		H: make([]float64, len(candles)),
		L: make([]float64, len(candles)),
		C: make([]float64, len(candles)),
		V: make([]float64, len(candles)),
	}
	for i, c := range candles {
		out.T[i] = c.Time
		out.O[i] = c.Open
		out.H[i] = c.High
		out.L[i] = c.Low
		out.C[i] = c.Close
		out.V[i] = c.Volume
	}
	return out
}

// Candles materializes the whole series.
func (h History) Candles() []Candle {
	out := make([]Candle, h.Len())
	for i := range out {
		out[i] = h.Candle(i)
	}
	return out
}

// IsGreen reports whether bar i closed above its open.
func (h History) IsGreen(i int) bool { return h.C[i] > h.O[i] }

// BodySize returns the absolute candle body of bar i.
func (h History) BodySize(i int) float64 { return math.Abs(h.C[i] - h.O[i]) }
