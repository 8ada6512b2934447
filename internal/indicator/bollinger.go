package indicator

import "math"

// BollingerValue is one step of the Bollinger envelope.
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger computes an SMA middle band with population-stddev envelopes,
// matching talib.BBands with SMA smoothing.
type Bollinger struct {
	period int
	dev    float64
	buf    []float64
	head   int
	count  int
}

func NewBollinger(period int, stddev float64) *Bollinger {
	if period <= 0 {
		period = 20
	}
	if stddev <= 0 {
		stddev = 2
	}
	return &Bollinger{period: period, dev: stddev, buf: make([]float64, period)}
}

func (b *Bollinger) Update(close float64) BollingerValue {
	nan := BollingerValue{Upper: math.NaN(), Middle: math.NaN(), Lower: math.NaN()}
	if math.IsNaN(close) || math.IsInf(close, 0) {
		return nan
	}
	b.buf[b.head] = close
	b.head = (b.head + 1) % b.period
	if b.count < b.period {
		b.count++
	}
	if b.count < b.period {
		return nan
	}
	sum := 0.0
	for _, v := range b.buf {
		sum += v
	}
	mean := sum / float64(b.period)
	variance := 0.0
	for _, v := range b.buf {
		variance += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(variance / float64(b.period))
	return BollingerValue{
		Upper:  mean + b.dev*sd,
		Middle: mean,
		Lower:  mean - b.dev*sd,
	}
}
