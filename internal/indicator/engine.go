package indicator

import (
	"tradeassist/internal/market"
)

// Settings holds lookback periods for every accumulator the engine carries.
// Zero fields fall back to defaults.
type Settings struct {
	SMAFast     int     `json:"smaFast" yaml:"sma_fast"`
	SMASlow     int     `json:"smaSlow" yaml:"sma_slow"`
	RSIPeriod   int     `json:"rsiPeriod" yaml:"rsi_period"`
	MACDFast    int     `json:"macdFast" yaml:"macd_fast"`
	MACDSlow    int     `json:"macdSlow" yaml:"macd_slow"`
	MACDSignal  int     `json:"macdSignal" yaml:"macd_signal"`
	BollPeriod  int     `json:"bollPeriod" yaml:"boll_period"`
	BollStdDev  float64 `json:"bollStdDev" yaml:"boll_std_dev"`
	CCIPeriod   int     `json:"cciPeriod" yaml:"cci_period"`
	StochPeriod int     `json:"stochPeriod" yaml:"stoch_period"`
	StochSmooth int     `json:"stochSmooth" yaml:"stoch_smooth"`
	MFIPeriod   int     `json:"mfiPeriod" yaml:"mfi_period"`
	WillRPeriod int     `json:"willRPeriod" yaml:"willr_period"`
}

func DefaultSettings() Settings {
	return Settings{
		SMAFast:     20,
		SMASlow:     200,
		RSIPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		BollPeriod:  20,
		BollStdDev:  2,
		CCIPeriod:   20,
		StochPeriod: 14,
		StochSmooth: 3,
		MFIPeriod:   14,
		WillRPeriod: 14,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.SMAFast <= 0 {
		s.SMAFast = def.SMAFast
	}
	if s.SMASlow <= 0 {
		s.SMASlow = def.SMASlow
	}
	if s.RSIPeriod <= 0 {
		s.RSIPeriod = def.RSIPeriod
	}
	if s.MACDFast <= 0 {
		s.MACDFast = def.MACDFast
	}
	if s.MACDSlow <= 0 {
		s.MACDSlow = def.MACDSlow
	}
	if s.MACDSignal <= 0 {
		s.MACDSignal = def.MACDSignal
	}
	if s.BollPeriod <= 0 {
		s.BollPeriod = def.BollPeriod
	}
	if s.BollStdDev <= 0 {
		s.BollStdDev = def.BollStdDev
	}
	if s.CCIPeriod <= 0 {
		s.CCIPeriod = def.CCIPeriod
	}
	if s.StochPeriod <= 0 {
		s.StochPeriod = def.StochPeriod
	}
	if s.StochSmooth <= 0 {
		s.StochSmooth = def.StochSmooth
	}
	if s.MFIPeriod <= 0 {
		s.MFIPeriod = def.MFIPeriod
	}
	if s.WillRPeriod <= 0 {
		s.WillRPeriod = def.WillRPeriod
	}
	return s
}

// Snapshot is every indicator's value at one bar.
type Snapshot struct {
	Index   int
	SMAFast float64
	SMASlow float64
	RSI     float64
	MACD    MACDValue
	Boll    BollingerValue
	CCI     float64
	Stoch   StochValue
	MFI     float64
	WillR   float64
}

// Series accumulates per-bar values for charting and crossover checks.
// All slices stay aligned with the bar index fed so far.
type Series struct {
	SMAFast []float64        `json:"smaFast"`
	SMASlow []float64        `json:"smaSlow"`
	RSI     []float64        `json:"rsi"`
	MACD    []MACDValue      `json:"macd"`
	Boll    []BollingerValue `json:"bollingerBand"`
	CCI     []float64        `json:"cci"`
	Stoch   []StochValue     `json:"stochastic"`
	MFI     []float64        `json:"mfi"`
	WillR   []float64        `json:"willR"`
}

// Engine feeds one bar into every configured accumulator. State carries
// forward; nothing is recomputed from scratch per step.
type Engine struct {
	settings Settings
	smaFast  *SMA
	smaSlow  *SMA
	rsi      *RSI
	macd     *MACD
	boll     *Bollinger
	cci      *CCI
	stoch    *Stochastic
	mfi      *MFI
	willR    *WilliamsR
	series   Series
}

func NewEngine(s Settings) *Engine {
	s = s.withDefaults()
	return &Engine{
		settings: s,
		smaFast:  NewSMA(s.SMAFast),
		smaSlow:  NewSMA(s.SMASlow),
		rsi:      NewRSI(s.RSIPeriod),
		macd:     NewMACD(s.MACDFast, s.MACDSlow, s.MACDSignal),
		boll:     NewBollinger(s.BollPeriod, s.BollStdDev),
		cci:      NewCCI(s.CCIPeriod),
		stoch:    NewStochastic(s.StochPeriod, s.StochSmooth, s.StochSmooth),
		mfi:      NewMFI(s.MFIPeriod),
		willR:    NewWilliamsR(s.WillRPeriod),
	}
}

func (e *Engine) Settings() Settings { return e.settings }

// Step consumes the next bar in time order and returns the fresh snapshot.
func (e *Engine) Step(c market.Candle) Snapshot {
	snap := Snapshot{
		Index:   c.Index,
		SMAFast: e.smaFast.Update(c.Close),
		SMASlow: e.smaSlow.Update(c.Close),
		RSI:     e.rsi.Update(c.Close),
		MACD:    e.macd.Update(c.Close),
		Boll:    e.boll.Update(c.Close),
		CCI:     e.cci.Update(c.High, c.Low, c.Close),
		Stoch:   e.stoch.Update(c.High, c.Low, c.Close),
		MFI:     e.mfi.Update(c.High, c.Low, c.Close, c.Volume),
		WillR:   e.willR.Update(c.High, c.Low, c.Close),
	}
	e.series.SMAFast = append(e.series.SMAFast, snap.SMAFast)
	e.series.SMASlow = append(e.series.SMASlow, snap.SMASlow)
	e.series.RSI = append(e.series.RSI, snap.RSI)
	e.series.MACD = append(e.series.MACD, snap.MACD)
	e.series.Boll = append(e.series.Boll, snap.Boll)
	e.series.CCI = append(e.series.CCI, snap.CCI)
	e.series.Stoch = append(e.series.Stoch, snap.Stoch)
	e.series.MFI = append(e.series.MFI, snap.MFI)
	e.series.WillR = append(e.series.WillR, snap.WillR)
	return snap
}

// Series exposes everything accumulated so far. The caller must not mutate it.
func (e *Engine) Series() *Series { return &e.series }
