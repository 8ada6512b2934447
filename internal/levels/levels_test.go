package levels

import (
	"testing"

	"tradeassist/internal/pivot"
)

func TestCountCrossings(t *testing.T) {
	cases := []struct {
		name   string
		prices []float64
		lo, hi float64
		want   int
	}{
		{"inside only", []float64{100, 101, 99, 100}, 98, 102, 0},
		{"single exit sets polarity", []float64{100, 103, 104}, 98, 102, 0},
		{"full traversals", []float64{100, 103, 100, 97, 100, 103}, 98, 102, 2},
		{"start below", []float64{97, 103, 97}, 98, 102, 2},
		{"same side exits", []float64{103, 100, 103, 100, 103}, 98, 102, 0},
	}
	for _, c := range cases {
		if got := CountCrossings(c.prices, c.lo, c.hi); got != c.want {
			t.Errorf("%s: crossings = %d, want %d", c.name, got, c.want)
		}
	}
}

func flatPrices(n int, v float64) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = v
	}
	return p
}

func TestBuildStillStrongRange(t *testing.T) {
	prices := flatPrices(200, 100)
	points := []pivot.Point{
		{Index: 20, Value: 100.0},
		{Index: 60, Value: 100.1},
		{Index: 100, Value: 99.95},
	}
	ranges := Build(points, prices, Options{})
	if len(ranges) == 0 {
		t.Fatal("expected at least one range")
	}
	r := ranges[0]
	if len(r.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(r.Points))
	}
	if r.Min != 99.95 || r.Max != 100.1 {
		t.Errorf("band = [%v, %v], want [99.95, 100.1]", r.Min, r.Max)
	}
	if !r.StillStrong {
		t.Error("flat tail should leave the range still strong")
	}
	if r.Start.Index != 20 || r.End.Index != 100 {
		t.Errorf("span = [%d, %d], want [20, 100]", r.Start.Index, r.End.Index)
	}
}

func TestBuildGrowthStopsOnCrossings(t *testing.T) {
	prices := flatPrices(200, 100)
	// Whipsaw between the third and fourth pivot breaks the band repeatedly.
	for i := 105; i < 135; i++ {
		if i%2 == 0 {
			prices[i] = 110
		} else {
			prices[i] = 90
		}
	}
	points := []pivot.Point{
		{Index: 20, Value: 100.0},
		{Index: 60, Value: 100.1},
		{Index: 100, Value: 99.95},
		{Index: 140, Value: 100.05},
	}
	ranges := Build(points, prices, Options{})
	if len(ranges) != 1 {
		t.Fatalf("ranges = %d, want 1", len(ranges))
	}
	r := ranges[0]
	if len(r.Points) != 3 {
		t.Fatalf("points = %d, want 3 (growth must stop before the fourth pivot)", len(r.Points))
	}
	if r.End.Index != 100 {
		t.Errorf("end index = %d, want 100", r.End.Index)
	}
	if r.StillStrong {
		t.Error("a range terminated by crossings must not be still strong")
	}
}

func TestBuildTailBreakClearsStillStrong(t *testing.T) {
	prices := flatPrices(200, 100)
	// After the last pivot the price traverses the band four times.
	seq := []float64{110, 90, 110, 90, 110}
	for i, v := range seq {
		prices[150+i] = v
	}
	points := []pivot.Point{
		{Index: 20, Value: 100.0},
		{Index: 60, Value: 100.1},
		{Index: 100, Value: 99.95},
	}
	ranges := Build(points, prices, Options{})
	if len(ranges) != 1 {
		t.Fatalf("ranges = %d, want 1", len(ranges))
	}
	if ranges[0].StillStrong {
		t.Error("four tail crossings must clear still-strong")
	}
}

func TestBuildDropsThinRanges(t *testing.T) {
	prices := flatPrices(100, 100)
	points := []pivot.Point{
		{Index: 20, Value: 100.0},
		{Index: 60, Value: 150.0}, // far outside tolerance
	}
	if got := Build(points, prices, Options{}); len(got) != 0 {
		t.Fatalf("ranges = %d, want 0 (two-point bands are dropped)", len(got))
	}
}

func TestDropSubRanges(t *testing.T) {
	parentA := Range{
		Min: 99, Max: 101,
		Start:  pivot.Point{Index: 10, Value: 100},
		End:    pivot.Point{Index: 200, Value: 100},
		Points: make([]pivot.Point, 4),
	}
	parentB := Range{
		Min: 99.5, Max: 101.5,
		Start:  pivot.Point{Index: 20, Value: 100},
		End:    pivot.Point{Index: 190, Value: 100},
		Points: make([]pivot.Point, 4),
	}
	inner := Range{
		Min: 99.8, Max: 100.2,
		Start:  pivot.Point{Index: 50, Value: 100},
		End:    pivot.Point{Index: 120, Value: 100},
		Points: make([]pivot.Point, 3),
	}
	out := dropSubRanges([]Range{parentA, parentB, inner})
	if len(out) != 2 {
		t.Fatalf("ranges = %d, want 2", len(out))
	}
	for _, r := range out {
		if r.Start.Index == 50 {
			t.Error("inner range contained in two parents must be dropped")
		}
	}
}

func TestNearestAboveBelow(t *testing.T) {
	ranges := []Range{
		{Min: 110, Max: 112, StillStrong: true},
		{Min: 105, Max: 107, StillStrong: true},
		{Min: 103, Max: 104, StillStrong: false},
		{Min: 90, Max: 92, StillStrong: true},
		{Min: 95, Max: 96, StillStrong: true},
	}
	up, ok := NearestAbove(ranges, 100)
	if !ok || up.Min != 105 {
		t.Errorf("NearestAbove = (%v, %v), want Min 105", up.Min, ok)
	}
	down, ok := NearestBelow(ranges, 100)
	if !ok || down.Max != 96 {
		t.Errorf("NearestBelow = (%v, %v), want Max 96", down.Max, ok)
	}
	if _, ok := NearestAbove(ranges, 120); ok {
		t.Error("no still-strong band above 120")
	}
}
