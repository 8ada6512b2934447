package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/markcheno/go-talib"

	"tradeassist/internal/backtest"
	"tradeassist/internal/levels"
	"tradeassist/internal/market"
	"tradeassist/internal/signal"
)

// WriteChart renders the history as a candlestick chart with moving-average
// overlays and entry/exit markers, written as a standalone HTML file.
func WriteChart(path string, h *market.History, res *backtest.Result) error {
	if h == nil || h.Len() == 0 {
		return fmt.Errorf("history is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	x := make([]string, h.Len())
	candles := make([]opts.KlineData, h.Len())
	for i := 0; i < h.Len(); i++ {
		x[i] = time.Unix(h.T[i], 0).UTC().Format("01-02 15:04")
		// echarts candlestick order: open, close, low, high
		candles[i] = opts.KlineData{Value: [4]float64{h.O[i], h.C[i], h.L[i], h.H[i]}}
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s %sm", res.Symbol, res.Timeframe),
			Width:     "1400px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %sm", res.Symbol, res.Timeframe),
			Subtitle: fmt.Sprintf("%d trades, %s%% profit", res.Analytics.Trades, res.Analytics.ProfitPercent),
		}),
		charts.WithXAxisOpts(opts.XAxis{SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	kline.SetXAxis(x).AddSeries("price", candles)

	if res.Indicators != nil {
		kline.Overlap(maLine(x, "sma fast", res.Indicators.SMAFast))
		kline.Overlap(maLine(x, "sma slow", res.Indicators.SMASlow))
	}
	if h.Len() > emaOverlayPeriod {
		kline.Overlap(emaLine(x, h.C))
	}
	if len(res.Ranges) > 0 {
		kline.Overlap(rangeBands(x, res.Ranges))
	}
	kline.Overlap(tradeMarkers(x, h, res.Trades))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}
	defer f.Close()
	if err := kline.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

const emaOverlayPeriod = 50

func maLine(x []string, name string, values []float64) *charts.Line {
	line := charts.NewLine()
	line.SetXAxis(x).AddSeries(name, toLineData(values),
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)
	return line
}

// toLineData maps NaN values to "-", which echarts renders as a gap.
func toLineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// rangeBands draws each consolidation band as a pair of flat segments over
// the bars it spans.
func rangeBands(x []string, ranges []levels.Range) *charts.Line {
	lo := make([]float64, len(x))
	hi := make([]float64, len(x))
	for i := range lo {
		lo[i], hi[i] = math.NaN(), math.NaN()
	}
	for _, r := range ranges {
		for i := r.Start.Index; i <= r.End.Index && i < len(x); i++ {
			if i < 0 {
				continue
			}
			lo[i], hi[i] = r.Min, r.Max
		}
	}
	line := charts.NewLine()
	line.SetXAxis(x).
		AddSeries("support", toLineData(lo)).
		AddSeries("resistance", toLineData(hi))
	return line
}

// emaLine draws a slow exponential average as a trend reference. Warm-up
// entries come back as zeros from talib and are masked out.
func emaLine(x []string, closes []float64) *charts.Line {
	ema := talib.Ema(closes, emaOverlayPeriod)
	for i := 0; i < emaOverlayPeriod-1 && i < len(ema); i++ {
		ema[i] = math.NaN()
	}
	return maLine(x, fmt.Sprintf("ema %d", emaOverlayPeriod), ema)
}

// tradeMarkers plots entries and exits as scatter points on the price axis.
func tradeMarkers(x []string, h *market.History, trades []backtest.Trade) *charts.Scatter {
	scatter := charts.NewScatter()
	entries := make([]opts.ScatterData, 0, len(trades))
	exits := make([]opts.ScatterData, 0, len(trades))
	for _, tr := range trades {
		sym := "triangle"
		if tr.Direction == signal.Sell {
			sym = "arrow"
		}
		entries = append(entries, opts.ScatterData{
			Value:      []interface{}{x[tr.StartIndex], tr.Entry},
			Symbol:     sym,
			SymbolSize: 12,
		})
		exits = append(exits, opts.ScatterData{
			Value:      []interface{}{x[tr.EndIndex], tr.Exit},
			Symbol:     "circle",
			SymbolSize: 8,
		})
	}
	scatter.SetXAxis(x).
		AddSeries("entries", entries).
		AddSeries("exits", exits)
	return scatter
}
