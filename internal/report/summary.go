// Package report renders simulation results as terminal tables and as
// standalone HTML candlestick charts.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tradeassist/internal/backtest"
	"tradeassist/internal/signal"
	"tradeassist/internal/store"
)

// WriteSummary prints the analytics block of one run.
func WriteSummary(w io.Writer, res *backtest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s %sm  run %s", res.Symbol, res.Timeframe, res.ID))

	a := res.Analytics
	t.AppendRows([]table.Row{
		{"trades", a.Trades},
		{"profits", fmt.Sprintf("%d (%s%%)", a.Profits, a.ProfitPercent)},
		{"half profits", a.HalfProfits},
		{"losses", fmt.Sprintf("%d (%s%%)", a.Losses, a.LossPercent)},
		{"unfinished", fmt.Sprintf("%d (%s%%)", a.Unfinished, a.UnfinishedPercent)},
	})
	t.AppendSeparator()
	verdict := "discard"
	if a.GoodRun {
		verdict = "good run"
	}
	t.AppendRow(table.Row{"verdict", verdict})
	t.Render()
}

// WriteTrades prints every trade of one run.
func WriteTrades(w io.Writer, res *backtest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "side", "entry bar", "exit bar", "entry", "exit", "outcome", "label", "score"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})

	for i, tr := range res.Trades {
		side := "short"
		if tr.Direction == signal.Buy {
			side = "long"
		}
		t.AppendRow(table.Row{
			i + 1, side, tr.StartIndex, tr.EndIndex,
			fmt.Sprintf("%.4f", tr.Entry), fmt.Sprintf("%.4f", tr.Exit),
			string(tr.Outcome), string(tr.Label), fmt.Sprintf("%.1f", tr.Score),
		})
	}
	t.Render()
}

// WriteResultList prints the stored-result index.
func WriteResultList(w io.Writer, metas []store.ResultMeta) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"id", "symbol", "tf", "trades", "profit %", "good run", "created"})
	for _, m := range metas {
		t.AppendRow(table.Row{
			m.ID, m.Symbol, m.Timeframe, m.Trades, m.ProfitPercent, m.GoodRun,
			time.UnixMilli(m.CreatedAt).UTC().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}

// WriteBatch prints one row per run, most profitable first, for comparing
// parameter sets across symbols.
func WriteBatch(w io.Writer, results []*backtest.Result) {
	sorted := make([]*backtest.Result, 0, len(results))
	for _, res := range results {
		if res != nil {
			sorted = append(sorted, res)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Analytics.ProfitPercent.GreaterThan(sorted[j].Analytics.ProfitPercent)
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"symbol", "tf", "trades", "profit %", "unfinished %", "good run"})
	for _, res := range sorted {
		a := res.Analytics
		t.AppendRow(table.Row{
			res.Symbol, res.Timeframe, a.Trades,
			a.ProfitPercent.String(), a.UnfinishedPercent.String(), a.GoodRun,
		})
	}
	t.Render()
}
