package indicator

import "math"

// MACDValue is one step of the MACD line, its signal line and histogram.
type MACDValue struct {
	MACD   float64 `json:"macd"`
	Signal float64 `json:"signal"`
	Hist   float64 `json:"hist"`
}

// MACD tracks fast/slow EMAs of the close plus a signal EMA over their
// difference. The signal EMA starts once the slow EMA is warm, so values line
// up with talib.Macd after the head converges.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	if fastPeriod <= 0 {
		fastPeriod = 12
	}
	if slowPeriod <= 0 {
		slowPeriod = 26
	}
	if fastPeriod > slowPeriod {
		fastPeriod, slowPeriod = slowPeriod, fastPeriod
	}
	if signalPeriod <= 0 {
		signalPeriod = 9
	}
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Update(close float64) MACDValue {
	nan := MACDValue{MACD: math.NaN(), Signal: math.NaN(), Hist: math.NaN()}
	if math.IsNaN(close) || math.IsInf(close, 0) {
		return nan
	}
	f := m.fast.Update(close)
	s := m.slow.Update(close)
	if math.IsNaN(s) || math.IsNaN(f) {
		return nan
	}
	line := f - s
	sig := m.signal.Update(line)
	if math.IsNaN(sig) {
		return MACDValue{MACD: line, Signal: math.NaN(), Hist: math.NaN()}
	}
	return MACDValue{MACD: line, Signal: sig, Hist: line - sig}
}
