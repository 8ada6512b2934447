package trend

import (
	"testing"

	"tradeassist/internal/market"
)

func histFromCloses(closes []float64) *market.History {
	h := &market.History{}
	for i, c := range closes {
		h.T = append(h.T, int64(i)*300)
		h.O = append(h.O, c)
		h.H = append(h.H, c)
		h.L = append(h.L, c)
		h.C = append(h.C, c)
		h.V = append(h.V, 1)
	}
	return h
}

func histFromBodies(bodies []float64, start float64) *market.History {
	h := &market.History{}
	price := start
	for i, b := range bodies {
		open := price
		price += b
		hi, lo := open, price
		if price > open {
			hi = price
			lo = open
		}
		h.T = append(h.T, int64(i)*300)
		h.O = append(h.O, open)
		h.H = append(h.H, hi)
		h.L = append(h.L, lo)
		h.C = append(h.C, price)
		h.V = append(h.V, 1)
	}
	return h
}

func TestSpreadPolicy(t *testing.T) {
	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 * pow(1.01, i)
	}
	h := histFromCloses(up)
	if got := Classify(h, len(up)-1, PolicySpread); got != Up {
		t.Errorf("rising series = %v, want %v", got, Up)
	}

	down := make([]float64, 30)
	for i := range down {
		down[i] = 100 * pow(0.99, i)
	}
	if got := Classify(histFromCloses(down), 29, PolicySpread); got != Down {
		t.Errorf("falling series = %v, want %v", got, Down)
	}

	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	if got := Classify(histFromCloses(flat), 29, PolicySpread); got != Range {
		t.Errorf("flat series = %v, want %v", got, Range)
	}
}

func TestSpreadPolicyWarmup(t *testing.T) {
	h := histFromCloses([]float64{100, 110, 120, 130})
	for i := 0; i < h.Len(); i++ {
		if got := Classify(h, i, PolicySpread); got != Range {
			t.Errorf("bar %d before warmup = %v, want %v", i, got, Range)
		}
	}
}

func TestCandlePolicy(t *testing.T) {
	// Twelve quiet bars then eight strong green bodies (~0.5% each).
	bodies := make([]float64, 20)
	for i := 12; i < 20; i++ {
		bodies[i] = 0.5 * float64(i) / 10 // grows with price scale
	}
	h := histFromBodies(bodies, 100)
	if got := Classify(h, 19, PolicyCandle); got != Up {
		t.Errorf("green run = %v, want %v", got, Up)
	}

	for i := 12; i < 20; i++ {
		bodies[i] = -bodies[i]
	}
	h = histFromBodies(bodies, 100)
	if got := Classify(h, 19, PolicyCandle); got != Down {
		t.Errorf("red run = %v, want %v", got, Down)
	}
}

func TestCandlePolicyQuietMarket(t *testing.T) {
	bodies := make([]float64, 20) // doji bars only
	h := histFromBodies(bodies, 100)
	if got := Classify(h, 19, PolicyCandle); got != Range {
		t.Errorf("quiet market = %v, want %v", got, Range)
	}
}

func TestGroupSegments(t *testing.T) {
	labels := []Label{Range, Range, Up, Up, Up, Down}
	segs := GroupSegments(labels)
	want := []Segment{{1, Range}, {4, Up}, {5, Down}}
	if len(segs) != len(want) {
		t.Fatalf("segments = %d, want %d", len(segs), len(want))
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, segs[i], want[i])
		}
	}
	if segs := GroupSegments(nil); segs != nil {
		t.Errorf("empty input should yield nil, got %+v", segs)
	}
}

func pow(base float64, n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= base
	}
	return v
}
