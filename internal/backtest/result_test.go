package backtest

import (
	"testing"

	"tradeassist/internal/signal"
)

func labeledTrades(profit, half, loss, unfinished int) []Trade {
	var trades []Trade
	for i := 0; i < profit; i++ {
		trades = append(trades, Trade{Label: LabelProfit})
	}
	for i := 0; i < half; i++ {
		trades = append(trades, Trade{Label: LabelHalfProfit})
	}
	for i := 0; i < loss; i++ {
		trades = append(trades, Trade{Label: LabelLoss})
	}
	for i := 0; i < unfinished; i++ {
		trades = append(trades, Trade{Label: LabelUnfinished})
	}
	return trades
}

func TestSummarize(t *testing.T) {
	a := Summarize(labeledTrades(40, 8, 12, 2))
	if a.Trades != 62 || a.Profits != 40 || a.HalfProfits != 8 || a.Losses != 12 || a.Unfinished != 2 {
		t.Fatalf("counts = %+v", a)
	}
	// 48 wins over 60 resolved trades; the 2 unfinished stay out.
	if a.ProfitPercent.String() != "80" {
		t.Errorf("profit%% = %s, want 80", a.ProfitPercent)
	}
	if a.LossPercent.String() != "20" {
		t.Errorf("loss%% = %s, want 20", a.LossPercent)
	}
	if a.UnfinishedPercent.String() != "3.23" {
		t.Errorf("unfinished%% = %s, want 3.23", a.UnfinishedPercent)
	}
	if !a.GoodRun {
		t.Error("80% win rate over 62 trades with 3% unfinished is a good run")
	}
}

func TestSummarizeHalfProfitCountsAsWin(t *testing.T) {
	a := Summarize(labeledTrades(20, 15, 15, 10))
	// 35 wins over 50 resolved trades.
	if a.ProfitPercent.String() != "70" {
		t.Errorf("profit%% = %s, want 70", a.ProfitPercent)
	}
	if !a.GoodRun {
		t.Error("70% win rate over 60 trades with 17% unfinished is a good run")
	}
}

func TestSummarizeGoodRunBoundaries(t *testing.T) {
	mk := func(profit, half, loss, unfinished int) Analytics {
		return Summarize(labeledTrades(profit, half, loss, unfinished))
	}

	if mk(30, 0, 10, 0).GoodRun {
		t.Error("40 trades is under the volume floor")
	}
	if mk(28, 0, 22, 0).GoodRun {
		t.Error("56% win rate misses the profit floor")
	}
	if mk(40, 0, 6, 15).GoodRun {
		t.Error("unfinished share exceeds the ceiling")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	a := Summarize(nil)
	if a.Trades != 0 || a.GoodRun {
		t.Fatalf("empty summary = %+v", a)
	}
	if !a.ProfitPercent.IsZero() || !a.UnfinishedPercent.IsZero() {
		t.Error("percentages of an empty run must be zero")
	}
}

func TestLabelFor(t *testing.T) {
	base := Trade{
		Direction: signal.Buy,
		Entry:     100,
		Target:    101.4, // 1.4% away
		Stop:      99.3,  // 0.7% away, under 80% of the target distance
	}

	tr := base
	tr.Outcome = OutcomeProfit
	if got := labelFor(tr); got != LabelProfit {
		t.Errorf("profit label = %v", got)
	}

	tr = base
	tr.Outcome = OutcomeLoss
	tr.TradeHigh = 100.8 // past entry + stop distance (100.7)
	if got := labelFor(tr); got != LabelHalfProfit {
		t.Errorf("loss that ran a stop distance = %v, want half-profit", got)
	}

	tr = base
	tr.Outcome = OutcomeLoss
	tr.TradeHigh = 100.2
	if got := labelFor(tr); got != LabelLoss {
		t.Errorf("plain loss = %v", got)
	}

	tr = base
	tr.Outcome = OutcomeUnfinished
	tr.TradeHigh = 100.1
	if got := labelFor(tr); got != LabelUnfinished {
		t.Errorf("unfinished label = %v", got)
	}

	// Short side mirror.
	tr = Trade{Direction: signal.Sell, Entry: 100, Target: 98.6, Stop: 100.7, Outcome: OutcomeLoss, TradeLow: 99.2}
	if got := labelFor(tr); got != LabelHalfProfit {
		t.Errorf("short that ran a stop distance = %v, want half-profit", got)
	}
}

func TestLabelForTightStopNeverHalf(t *testing.T) {
	// Stop distance at 90% of the target distance disables the checkpoint.
	tr := Trade{
		Direction: signal.Buy,
		Entry:     100,
		Target:    101,
		Stop:      99.1,
		Outcome:   OutcomeLoss,
		TradeHigh: 100.95,
	}
	if got := labelFor(tr); got != LabelLoss {
		t.Errorf("label = %v, want loss when stop is nearly the target", got)
	}
}

func TestCountLabels(t *testing.T) {
	trades := []Trade{
		{Label: LabelProfit}, {Label: LabelProfit},
		{Label: LabelHalfProfit}, {Label: LabelLoss},
	}
	got := CountLabels(trades)
	if got[LabelProfit] != 2 || got[LabelHalfProfit] != 1 || got[LabelLoss] != 1 {
		t.Fatalf("labels = %v", got)
	}
}

func TestBandedTargets(t *testing.T) {
	cases := []struct {
		price        float64
		target, stop float64
	}{
		{80, 1.0, 0.6},
		{120, 1.0, 0.6},
		{250, 1.4, 0.7},
		{700, 1.1, 0.55},
		{2500, 1.0, 0.6},
	}
	for _, c := range cases {
		tgt, stop := BandedTargets(c.price)
		if tgt != c.target || stop != c.stop {
			t.Errorf("price %v: got %v/%v, want %v/%v", c.price, tgt, stop, c.target, c.stop)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults(250)
	if cfg.TargetProfitPercent != 1.4 || cfg.StopLossPercent != 0.7 {
		t.Errorf("banded defaults = %v/%v", cfg.TargetProfitPercent, cfg.StopLossPercent)
	}
	if cfg.VPointOffset != DefaultVPointOffset || cfg.Cooldown != DefaultCooldown {
		t.Errorf("offsets = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("resolved defaults must validate: %v", err)
	}

	cfg = Config{TargetProfitPercent: 2, StopLossPercent: 1}.withDefaults(250)
	if cfg.TargetProfitPercent != 2 || cfg.StopLossPercent != 1 {
		t.Error("explicit percentages must win over the band table")
	}
}
