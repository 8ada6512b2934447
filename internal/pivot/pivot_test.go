package pivot

import (
	"math/rand"
	"testing"
)

func walk(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	price := 150.0
	for i := range out {
		price += (rng.Float64() - 0.5) * 3
		out[i] = price
	}
	return out
}

func TestDetectWindowProperty(t *testing.T) {
	prices := walk(500, 7)
	offset := 10
	points := Detect(prices, Options{Offset: offset})
	if len(points) == 0 {
		t.Fatal("expected pivots on a random walk")
	}
	for _, p := range points {
		lo, hi := p.Index-offset, p.Index+offset
		if lo < 0 || hi >= len(prices) {
			t.Fatalf("pivot %d window out of bounds", p.Index)
		}
		isHigh, isLow := true, true
		for j := lo; j <= hi; j++ {
			if prices[j] > p.Value {
				isHigh = false
			}
			if prices[j] < p.Value {
				isLow = false
			}
		}
		if !isHigh && !isLow {
			t.Fatalf("pivot %d is not an extremum of its window", p.Index)
		}
	}
	for i := 1; i < len(points); i++ {
		if points[i].Value == points[i-1].Value {
			t.Fatalf("adjacent pivots %d and %d share value %v", points[i-1].Index, points[i].Index, points[i].Value)
		}
		if points[i].Index <= points[i-1].Index {
			t.Fatal("pivots out of order")
		}
	}
}

func TestDetectIncrementalMatchesFull(t *testing.T) {
	prices := walk(600, 21)
	offset := 10
	m := 400

	full := Detect(prices, Options{Offset: offset})
	first := Detect(prices[:m], Options{Offset: offset})
	second := Detect(prices, Options{Offset: offset, StartFrom: m - offset, Previous: first})

	if len(second) != len(full) {
		t.Fatalf("incremental found %d pivots, full scan %d", len(second), len(full))
	}
	for i := range full {
		if full[i] != second[i] {
			t.Fatalf("pivot %d differs: full %+v incremental %+v", i, full[i], second[i])
		}
	}

	// The shared prefix must be untouched.
	for i := range first {
		if first[i].Index < m-2*offset {
			if second[i] != first[i] {
				t.Fatalf("prefix pivot %d changed across incremental call", first[i].Index)
			}
		}
	}
}

func TestDetectEdgeCases(t *testing.T) {
	if got := Detect(nil, Options{Offset: 10}); len(got) != 0 {
		t.Fatalf("empty input: got %d pivots", len(got))
	}
	short := walk(15, 3)
	if got := Detect(short, Options{Offset: 10}); len(got) != 0 {
		t.Fatalf("series shorter than 2*offset+1: got %d pivots", len(got))
	}
}

func TestDetectFlatSeriesCollapses(t *testing.T) {
	prices := make([]float64, 120)
	for i := range prices {
		prices[i] = 100
	}
	got := Detect(prices, Options{Offset: 10})
	if len(got) != 1 {
		t.Fatalf("flat series should collapse to one pivot, got %d", len(got))
	}
	if got[0].Index != 10 || got[0].Value != 100 {
		t.Fatalf("unexpected collapsed pivot %+v", got[0])
	}
}

func TestDetectMonotonicRamp(t *testing.T) {
	prices := make([]float64, 300)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.5
	}
	got := Detect(prices, Options{Offset: 10})
	// Every candidate has strictly larger neighbors on one side and strictly
	// smaller on the other, so nothing mid-ramp can confirm.
	if len(got) != 0 {
		t.Fatalf("ramp should yield no pivots, got %d: %+v", len(got), got)
	}
}

func TestDetectVShape(t *testing.T) {
	prices := make([]float64, 100)
	for i := 0; i < 50; i++ {
		prices[i] = 200 - float64(i)*0.2 // down 5%
	}
	for i := 50; i < 100; i++ {
		prices[i] = prices[49] + float64(i-49)*0.2
	}
	got := Detect(prices, Options{Offset: 10})
	foundTrough := false
	for _, p := range got {
		if p.Index >= 45 && p.Index <= 55 && p.Value <= prices[49]+1e-9 {
			foundTrough = true
		}
	}
	if !foundTrough {
		t.Fatalf("expected a trough pivot near index 50, got %+v", got)
	}
}
