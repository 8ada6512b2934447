package backtest

import "tradeassist/internal/signal"

// Outcome is how a simulated trade terminated.
type Outcome string

const (
	OutcomeProfit     Outcome = "profit"
	OutcomeLoss       Outcome = "loss"
	OutcomeUnfinished Outcome = "unfinished"
)

// Label refines the raw outcome: a losing or unfinished trade that still ran
// one stop-distance in its favor earns the half-profit label when the stop
// distance is meaningfully smaller than the target distance.
type Label string

const (
	LabelProfit     Label = "profit"
	LabelHalfProfit Label = "half-profit"
	LabelLoss       Label = "loss"
	LabelUnfinished Label = "unfinished"
)

// Trade is one simulated position from entry to closure.
type Trade struct {
	Direction  signal.Vote            `json:"direction"`
	StartIndex int                    `json:"startIndex"`
	EndIndex   int                    `json:"endIndex"`
	Entry      float64                `json:"entry"`
	Target     float64                `json:"target"`
	Stop       float64                `json:"stop"`
	Exit       float64                `json:"exit"`
	TradeHigh  float64                `json:"tradeHigh"`
	TradeLow   float64                `json:"tradeLow"`
	Outcome    Outcome                `json:"outcome"`
	Label      Label                  `json:"label"`
	Score      float64                `json:"score"`
	Votes      map[string]signal.Vote `json:"votes"`
}

// Long reports whether the trade was opened in the buy direction.
func (t Trade) Long() bool { return t.Direction == signal.Buy }

// labelFor grades a finished trade. The half-profit checkpoint sits one stop
// distance from entry and only applies while that distance stays under 80%
// of the target distance.
func labelFor(t Trade) Label {
	switch t.Outcome {
	case OutcomeProfit:
		return LabelProfit
	case OutcomeLoss, OutcomeUnfinished:
		stopDist := t.Entry - t.Stop
		targetDist := t.Target - t.Entry
		checkpoint := t.Entry + stopDist
		reached := t.TradeHigh >= checkpoint
		if !t.Long() {
			stopDist = t.Stop - t.Entry
			targetDist = t.Entry - t.Target
			checkpoint = t.Entry - stopDist
			reached = t.TradeLow <= checkpoint
		}
		if targetDist > 0 && stopDist < 0.8*targetDist && reached {
			return LabelHalfProfit
		}
		if t.Outcome == OutcomeLoss {
			return LabelLoss
		}
		return LabelUnfinished
	}
	return LabelUnfinished
}
