package indicator

import "math"

// RSI uses Wilder smoothing: the first value appears after period deltas,
// later values recurse with weight 1/period. Matches talib.Rsi.
type RSI struct {
	period   int
	prev     float64
	havePrev bool
	count    int
	avgGain  float64
	avgLoss  float64
}

func NewRSI(period int) *RSI {
	if period <= 0 {
		period = 14
	}
	return &RSI{period: period}
}

func (r *RSI) Update(close float64) float64 {
	if math.IsNaN(close) || math.IsInf(close, 0) {
		return math.NaN()
	}
	if !r.havePrev {
		r.prev = close
		r.havePrev = true
		return math.NaN()
	}
	delta := close - r.prev
	r.prev = close
	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	if r.count < r.period {
		r.avgGain += gain
		r.avgLoss += loss
		r.count++
		if r.count < r.period {
			return math.NaN()
		}
		r.avgGain /= float64(r.period)
		r.avgLoss /= float64(r.period)
		return r.value()
	}
	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	return r.value()
}

func (r *RSI) value() float64 {
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// CCI is the commodity channel index over typical prices with the usual
// 0.015 scaling constant. Matches talib.Cci.
type CCI struct {
	period int
	buf    []float64
	head   int
	count  int
}

func NewCCI(period int) *CCI {
	if period <= 0 {
		period = 20
	}
	return &CCI{period: period, buf: make([]float64, period)}
}

func (c *CCI) Update(high, low, close float64) float64 {
	tp := (high + low + close) / 3
	if math.IsNaN(tp) || math.IsInf(tp, 0) {
		return math.NaN()
	}
	c.buf[c.head] = tp
	c.head = (c.head + 1) % c.period
	if c.count < c.period {
		c.count++
	}
	if c.count < c.period {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range c.buf {
		sum += v
	}
	mean := sum / float64(c.period)
	dev := 0.0
	for _, v := range c.buf {
		dev += math.Abs(v - mean)
	}
	dev /= float64(c.period)
	if dev == 0 {
		return 0
	}
	return (tp - mean) / (0.015 * dev)
}

// WilliamsR is %R over a high/low window. Matches talib.WillR.
type WilliamsR struct {
	period int
	highs  []float64
	lows   []float64
	head   int
	count  int
}

func NewWilliamsR(period int) *WilliamsR {
	if period <= 0 {
		period = 14
	}
	return &WilliamsR{period: period, highs: make([]float64, period), lows: make([]float64, period)}
}

func (w *WilliamsR) Update(high, low, close float64) float64 {
	if math.IsNaN(high) || math.IsNaN(low) || math.IsNaN(close) {
		return math.NaN()
	}
	w.highs[w.head] = high
	w.lows[w.head] = low
	w.head = (w.head + 1) % w.period
	if w.count < w.period {
		w.count++
	}
	if w.count < w.period {
		return math.NaN()
	}
	hh, ll := w.highs[0], w.lows[0]
	for i := 1; i < w.period; i++ {
		if w.highs[i] > hh {
			hh = w.highs[i]
		}
		if w.lows[i] < ll {
			ll = w.lows[i]
		}
	}
	if hh == ll {
		return 0
	}
	return -100 * (hh - close) / (hh - ll)
}

// Stochastic produces slow %K (raw %K smoothed by an SMA) and slow %D
// (an SMA of %K), like talib.Stoch with SMA smoothing on both legs.
type Stochastic struct {
	period  int
	highs   []float64
	lows    []float64
	head    int
	count   int
	smoothK *SMA
	smoothD *SMA
}

func NewStochastic(period, kSmooth, dSmooth int) *Stochastic {
	if period <= 0 {
		period = 14
	}
	if kSmooth <= 0 {
		kSmooth = 3
	}
	if dSmooth <= 0 {
		dSmooth = 3
	}
	return &Stochastic{
		period:  period,
		highs:   make([]float64, period),
		lows:    make([]float64, period),
		smoothK: NewSMA(kSmooth),
		smoothD: NewSMA(dSmooth),
	}
}

// StochValue carries the smoothed %K / %D pair.
type StochValue struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

func (s *Stochastic) Update(high, low, close float64) StochValue {
	nan := StochValue{K: math.NaN(), D: math.NaN()}
	if math.IsNaN(high) || math.IsNaN(low) || math.IsNaN(close) {
		return nan
	}
	s.highs[s.head] = high
	s.lows[s.head] = low
	s.head = (s.head + 1) % s.period
	if s.count < s.period {
		s.count++
	}
	if s.count < s.period {
		return nan
	}
	hh, ll := s.highs[0], s.lows[0]
	for i := 1; i < s.period; i++ {
		if s.highs[i] > hh {
			hh = s.highs[i]
		}
		if s.lows[i] < ll {
			ll = s.lows[i]
		}
	}
	raw := 0.0
	if hh != ll {
		raw = 100 * (close - ll) / (hh - ll)
	}
	k := s.smoothK.Update(raw)
	if math.IsNaN(k) {
		return nan
	}
	d := s.smoothD.Update(k)
	return StochValue{K: k, D: d}
}

// MFI is the money flow index over typical-price volume flows.
// Matches talib.Mfi.
type MFI struct {
	period   int
	flows    []float64 // signed raw money flow per bar
	head     int
	count    int
	prevTP   float64
	havePrev bool
}

func NewMFI(period int) *MFI {
	if period <= 0 {
		period = 14
	}
	return &MFI{period: period, flows: make([]float64, period)}
}

func (m *MFI) Update(high, low, close, volume float64) float64 {
	tp := (high + low + close) / 3
	if math.IsNaN(tp) || math.IsNaN(volume) {
		return math.NaN()
	}
	if !m.havePrev {
		m.prevTP = tp
		m.havePrev = true
		return math.NaN()
	}
	flow := tp * volume
	if tp < m.prevTP {
		flow = -flow
	} else if tp == m.prevTP {
		flow = 0
	}
	m.prevTP = tp
	m.flows[m.head] = flow
	m.head = (m.head + 1) % m.period
	if m.count < m.period {
		m.count++
	}
	if m.count < m.period {
		return math.NaN()
	}
	pos, neg := 0.0, 0.0
	for _, f := range m.flows {
		if f > 0 {
			pos += f
		} else {
			neg -= f
		}
	}
	if pos+neg == 0 {
		return 50
	}
	return 100 * pos / (pos + neg)
}
