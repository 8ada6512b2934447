package market

import (
	"encoding/json"
	"fmt"
	"os"
)

// Dataset maps symbol -> timeframe ("5" means 5-minute bars) -> history.
// This is the wire shape the price-data collaborator hands over.
type Dataset map[string]map[string]History

// LoadJSON reads a dataset dump from disk.
func LoadJSON(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("market: read %s: %w", path, err)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("market: parse %s: %w", path, err)
	}
	for symbol, frames := range ds {
		for tf, hist := range frames {
			if hist.Len() == 0 {
				continue
			}
			if err := hist.Validate(); err != nil {
				return nil, fmt.Errorf("market: %s@%s: %w", symbol, tf, err)
			}
		}
	}
	return ds, nil
}

// Timeframe picks one symbol+timeframe out of the dataset.
func (ds Dataset) Timeframe(symbol, tf string) (History, error) {
	frames, ok := ds[symbol]
	if !ok {
		return History{}, fmt.Errorf("market: symbol %s not in dataset", symbol)
	}
	hist, ok := frames[tf]
	if !ok || hist.Len() == 0 {
		return History{}, fmt.Errorf("market: no %s-minute data for %s", tf, symbol)
	}
	return hist, nil
}
