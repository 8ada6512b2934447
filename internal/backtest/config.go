package backtest

import (
	"fmt"

	"tradeassist/internal/indicator"
	"tradeassist/internal/levels"
	"tradeassist/internal/pivot"
	"tradeassist/internal/signal"
	"tradeassist/internal/trend"
)

// Config is the full parameter set of one simulation run. Zero fields fall
// back to defaults; target and stop percentages additionally fall back to a
// price-banded table resolved against the first close of the series.
type Config struct {
	Symbol    string `json:"symbol" yaml:"symbol"`
	Timeframe string `json:"timeframe" yaml:"timeframe"`

	StartIndex            int     `json:"startIndex" yaml:"start_index"`
	VPointOffset          int     `json:"vPointOffset" yaml:"v_point_offset"`
	TrendLineVPointOffset int     `json:"trendLineVPointOffset" yaml:"trend_line_v_point_offset"`
	TargetProfitPercent   float64 `json:"targetProfitPercent" yaml:"target_profit_percent"`
	StopLossPercent       float64 `json:"stopLossPercent" yaml:"stop_loss_percent"`
	DecisionMakingPoints  int     `json:"decisionMakingPoints" yaml:"decision_making_points"`
	WarmUp                int     `json:"warmUp" yaml:"warm_up"`
	Cooldown              int     `json:"cooldown" yaml:"cooldown"`
	RangeTolerance        float64 `json:"rangeTolerance" yaml:"range_tolerance"`

	TrendPolicy trend.Policy `json:"trendPolicy" yaml:"trend_policy"`

	BuyThreshold  float64 `json:"buyThreshold" yaml:"buy_threshold"`
	SellThreshold float64 `json:"sellThreshold" yaml:"sell_threshold"`

	// AdditionalIndicators toggles optional oscillators by signal name.
	// Unknown names are carried but never consulted.
	AdditionalIndicators map[string]bool `json:"additionalIndicators" yaml:"additional_indicators"`

	Weights    signal.Weights     `json:"weights,omitempty" yaml:"weights,omitempty"`
	Indicators indicator.Settings `json:"indicators" yaml:"indicators"`
}

const (
	DefaultVPointOffset = pivot.DefaultOffset
	DefaultTrendOffset  = 5
	DefaultCooldown     = 4
)

// priceBand gives target/stop defaults appropriate to the instrument's
// price magnitude.
type priceBand struct {
	maxPrice float64
	target   float64
	stop     float64
}

var priceBands = []priceBand{
	{120, 1.0, 0.6},
	{400, 1.4, 0.7},
	{900, 1.1, 0.55},
}

const fallbackTarget, fallbackStop = 1.0, 0.6

// BandedTargets returns the default target and stop-loss percentages for an
// instrument trading around price.
func BandedTargets(price float64) (target, stop float64) {
	for _, b := range priceBands {
		if price <= b.maxPrice {
			return b.target, b.stop
		}
	}
	return fallbackTarget, fallbackStop
}

// withDefaults resolves every zero field. firstPrice anchors the price-banded
// target/stop table.
func (c Config) withDefaults(firstPrice float64) Config {
	if c.Timeframe == "" {
		c.Timeframe = "5"
	}
	if c.VPointOffset <= 0 {
		c.VPointOffset = DefaultVPointOffset
	}
	if c.TrendLineVPointOffset <= 0 {
		c.TrendLineVPointOffset = DefaultTrendOffset
	}
	bt, bs := BandedTargets(firstPrice)
	if c.TargetProfitPercent <= 0 {
		c.TargetProfitPercent = bt
	}
	if c.StopLossPercent <= 0 {
		c.StopLossPercent = bs
	}
	if c.DecisionMakingPoints <= 0 {
		c.DecisionMakingPoints = signal.DefaultDecisionPts
	}
	if c.WarmUp <= 0 {
		c.WarmUp = signal.DefaultWarmUp
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.RangeTolerance <= 0 {
		c.RangeTolerance = levels.ToleranceForTimeframe(c.Timeframe)
	}
	if c.TrendPolicy == "" {
		c.TrendPolicy = trend.PolicySpread
	}
	if c.BuyThreshold <= 0 {
		c.BuyThreshold = signal.DefaultBuyThreshold
	}
	if c.SellThreshold <= 0 {
		c.SellThreshold = signal.DefaultSellThreshold
	}
	if c.Weights == nil {
		c.Weights = signal.DefaultWeights()
	}
	return c
}

// Validate rejects parameter combinations the simulator cannot honor.
func (c Config) Validate() error {
	if c.StartIndex < 0 {
		return fmt.Errorf("start index %d must not be negative", c.StartIndex)
	}
	if c.TargetProfitPercent < 0 || c.StopLossPercent < 0 {
		return fmt.Errorf("target %.2f%% and stop %.2f%% must not be negative",
			c.TargetProfitPercent, c.StopLossPercent)
	}
	if c.TargetProfitPercent > 0 && c.StopLossPercent > 0 &&
		c.StopLossPercent >= c.TargetProfitPercent {
		return fmt.Errorf("stop %.2f%% must be tighter than target %.2f%%",
			c.StopLossPercent, c.TargetProfitPercent)
	}
	if c.TrendPolicy != "" && c.TrendPolicy != trend.PolicySpread && c.TrendPolicy != trend.PolicyCandle {
		return fmt.Errorf("unknown trend policy %q", c.TrendPolicy)
	}
	return nil
}

func (c Config) signalOptions() signal.Options {
	return signal.Options{
		Weights:        c.Weights,
		BuyThreshold:   c.BuyThreshold,
		SellThreshold:  c.SellThreshold,
		DecisionPoints: c.DecisionMakingPoints,
		WarmUp:         c.WarmUp,
		Additional:     c.AdditionalIndicators,
	}
}
