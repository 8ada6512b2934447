package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/markcheno/go-talib"

	"tradeassist/internal/market"
)

// genWalk builds a deterministic random-walk candle series so streaming
// values can be checked against talib's batch output.
func genWalk(n int) market.History {
	rng := rand.New(rand.NewSource(42))
	h := market.History{
		T: make([]int64, n),
		O: make([]float64, n),
		H: make([]float64, n),
		L: make([]float64, n),
		C: make([]float64, n),
		V: make([]float64, n),
	}
	price := 250.0
	for i := 0; i < n; i++ {
		open := price
		price += (rng.Float64() - 0.5) * 2.4
		high := math.Max(open, price) + rng.Float64()*0.8
		low := math.Min(open, price) - rng.Float64()*0.8
		h.T[i] = int64(1_600_000_000 + i*300)
		h.O[i] = open
		h.H[i] = high
		h.L[i] = low
		h.C[i] = price
		h.V[i] = 1000 + rng.Float64()*5000
	}
	return h
}

func runEngine(h market.History, s Settings) *Series {
	eng := NewEngine(s)
	for i := 0; i < h.Len(); i++ {
		eng.Step(h.Candle(i))
	}
	return eng.Series()
}

func assertClose(t *testing.T, name string, got, want []float64, from int, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d != %d", name, len(got), len(want))
	}
	for i := from; i < len(got); i++ {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("%s: index %d: got %v want %v", name, i, got[i], want[i])
		}
	}
}

func TestStreamingMatchesTalib(t *testing.T) {
	h := genWalk(400)
	s := DefaultSettings()
	series := runEngine(h, s)

	assertClose(t, "smaFast", series.SMAFast, talib.Sma(h.C, s.SMAFast), s.SMAFast-1, 1e-9)
	assertClose(t, "smaSlow", series.SMASlow, talib.Sma(h.C, s.SMASlow), s.SMASlow-1, 1e-9)
	assertClose(t, "rsi", series.RSI, talib.Rsi(h.C, s.RSIPeriod), s.RSIPeriod, 1e-6)
	assertClose(t, "cci", series.CCI, talib.Cci(h.H, h.L, h.C, s.CCIPeriod), s.CCIPeriod-1, 1e-6)
	assertClose(t, "willR", series.WillR, talib.WillR(h.H, h.L, h.C, s.WillRPeriod), s.WillRPeriod-1, 1e-6)
	assertClose(t, "mfi", series.MFI, talib.Mfi(h.H, h.L, h.C, h.V, s.MFIPeriod), s.MFIPeriod, 1e-6)

	upper, middle, lower := talib.BBands(h.C, s.BollPeriod, s.BollStdDev, s.BollStdDev, talib.SMA)
	gotUpper := make([]float64, len(series.Boll))
	gotMiddle := make([]float64, len(series.Boll))
	gotLower := make([]float64, len(series.Boll))
	for i, v := range series.Boll {
		gotUpper[i], gotMiddle[i], gotLower[i] = v.Upper, v.Middle, v.Lower
	}
	assertClose(t, "bollUpper", gotUpper, upper, s.BollPeriod-1, 1e-6)
	assertClose(t, "bollMiddle", gotMiddle, middle, s.BollPeriod-1, 1e-6)
	assertClose(t, "bollLower", gotLower, lower, s.BollPeriod-1, 1e-6)

	slowK, slowD := talib.Stoch(h.H, h.L, h.C, s.StochPeriod, s.StochSmooth, talib.SMA, s.StochSmooth, talib.SMA)
	gotK := make([]float64, len(series.Stoch))
	gotD := make([]float64, len(series.Stoch))
	for i, v := range series.Stoch {
		gotK[i], gotD[i] = v.K, v.D
	}
	assertClose(t, "stochK", gotK, slowK, s.StochPeriod+2*s.StochSmooth, 1e-6)
	assertClose(t, "stochD", gotD, slowD, s.StochPeriod+2*s.StochSmooth, 1e-6)

	// EMA seeds differ only at the head; the recursion converges well before
	// bar 150, same for the MACD signal leg.
	macdLine, macdSignal, macdHist := talib.Macd(h.C, s.MACDFast, s.MACDSlow, s.MACDSignal)
	gotLine := make([]float64, len(series.MACD))
	gotSignal := make([]float64, len(series.MACD))
	gotHist := make([]float64, len(series.MACD))
	for i, v := range series.MACD {
		gotLine[i], gotSignal[i], gotHist[i] = v.MACD, v.Signal, v.Hist
	}
	assertClose(t, "macdLine", gotLine, macdLine, 150, 1e-6)
	assertClose(t, "macdSignal", gotSignal, macdSignal, 150, 1e-6)
	assertClose(t, "macdHist", gotHist, macdHist, 150, 1e-6)
}

func TestEMAMatchesTalib(t *testing.T) {
	h := genWalk(300)
	ema := NewEMA(21)
	want := talib.Ema(h.C, 21)
	for i, v := range h.C {
		got := ema.Update(v)
		if i < 20 {
			if !math.IsNaN(got) {
				t.Fatalf("ema warmup index %d: got %v, want NaN", i, got)
			}
			continue
		}
		if math.Abs(got-want[i]) > 1e-9 {
			t.Fatalf("ema index %d: got %v want %v", i, got, want[i])
		}
	}
}

func TestWarmupIsNaN(t *testing.T) {
	eng := NewEngine(Settings{})
	snap := eng.Step(market.Candle{Index: 0, Close: 100, High: 101, Low: 99, Volume: 500})
	if !math.IsNaN(snap.SMAFast) || !math.IsNaN(snap.RSI) || !math.IsNaN(snap.MACD.MACD) {
		t.Fatalf("first bar should be all NaN, got %+v", snap)
	}
}

func TestNaNInputDoesNotPoisonState(t *testing.T) {
	sma := NewSMA(3)
	sma.Update(1)
	sma.Update(2)
	if got := sma.Update(math.NaN()); !math.IsNaN(got) {
		t.Fatalf("NaN input should yield NaN, got %v", got)
	}
	if got := sma.Update(3); got != 2 {
		t.Fatalf("sma after NaN skip: got %v want 2", got)
	}

	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Update(100 + float64(i))
	}
	rsi.Update(math.NaN())
	if got := rsi.Update(120); math.IsNaN(got) {
		t.Fatal("rsi should recover after a NaN input")
	}
}
