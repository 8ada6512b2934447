// Package indicator provides streaming technical indicators. Each accumulator
// consumes one bar at a time and returns its current value, math.NaN() while
// warming up. NaN inputs are skipped so a single bad bar cannot poison the
// state that follows it.
package indicator

import "math"

// SMA is a simple moving average over a fixed window.
type SMA struct {
	period int
	buf    []float64
	head   int
	count  int
	sum    float64
}

func NewSMA(period int) *SMA {
	if period <= 0 {
		period = 1
	}
	return &SMA{period: period, buf: make([]float64, period)}
}

func (s *SMA) Update(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	if s.count == s.period {
		s.sum -= s.buf[s.head]
	} else {
		s.count++
	}
	s.buf[s.head] = v
	s.head = (s.head + 1) % s.period
	s.sum += v
	if s.count < s.period {
		return math.NaN()
	}
	return s.sum / float64(s.period)
}

// Value returns the current average without consuming a bar.
func (s *SMA) Value() float64 {
	if s.count < s.period {
		return math.NaN()
	}
	return s.sum / float64(s.period)
}

// EMA is an exponential moving average seeded with the SMA of the first
// period values, matching talib.Ema.
type EMA struct {
	period int
	k      float64
	seed   float64
	count  int
	value  float64
}

func NewEMA(period int) *EMA {
	if period <= 0 {
		period = 1
	}
	return &EMA{period: period, k: 2.0 / float64(period+1)}
}

func (e *EMA) Update(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	if e.count < e.period {
		e.seed += v
		e.count++
		if e.count < e.period {
			return math.NaN()
		}
		e.value = e.seed / float64(e.period)
		return e.value
	}
	e.value = (v-e.value)*e.k + e.value
	return e.value
}

func (e *EMA) Value() float64 {
	if e.count < e.period {
		return math.NaN()
	}
	return e.value
}
