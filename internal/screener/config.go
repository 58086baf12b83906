// Package screener holds the screening configuration and its lifecycle:
// resolution (cache → server defaults → built-in), persistence, user edits,
// and import/export.
package screener

import (
	"errors"
	"strings"
)

// ErrInvalidConfig is returned when a configuration fails the validity
// predicate (empty asset list).
var ErrInvalidConfig = errors.New("config: asset list is empty")

// Config is the full screening parameter set. JSON keys match the server's
// defaults endpoint and the start command body exactly.
type Config struct {
	Timeframe float64  `json:"Timeframe"` // minutes
	Assets    []string `json:"Assets"`

	RSIPeriod     float64 `json:"RSI_Period"`
	RSIOverbought float64 `json:"RSI_Overbought"`
	RSIOversold   float64 `json:"RSI_Oversold"`

	StochKPeriod     float64 `json:"Stoch_K_Period"`
	StochKSmooth     float64 `json:"Stoch_K_Smooth"`
	StochDSmooth     float64 `json:"Stoch_D_Smooth"`
	StochOverbought  float64 `json:"Stoch_Overbought"`
	StochOversold    float64 `json:"Stoch_Oversold"`
	StochAlertMethod float64 `json:"Stoch_Alert_Method"`

	EMALongPeriod        float64 `json:"EMA_Long_Period"`
	EMAShortPeriod       float64 `json:"EMA_Short_Period"`
	EMAProximityATRRatio float64 `json:"EMA_Proximity_ATR_Ratio"`
	ATRPeriod            float64 `json:"ATR_Period"`

	LRLength                 float64 `json:"LR_Length"`
	LRATRLength              float64 `json:"LR_ATR_Length"`
	LRR2Threshold            float64 `json:"LR_R2_Threshold"`
	LRSlopeThreshold         float64 `json:"LR_Slope_Threshold"`
	LRSidewaysSlopeThreshold float64 `json:"LR_Sideways_Slope_Threshold"`
	LRVolatilityMALength     float64 `json:"LR_Volatility_MA_Length"`
	LRHigherTimeframe        float64 `json:"LR_Higher_Timeframe"`
}

// Default returns the built-in fallback configuration, mirroring the server's
// own defaults so the UI is usable even when the defaults endpoint is down.
func Default() Config {
	return Config{
		Timeframe: 15,
		Assets:    []string{"BTC_USDT", "ETH_USDT"},

		RSIPeriod:     14,
		RSIOverbought: 70,
		RSIOversold:   30,

		StochKPeriod:     14,
		StochKSmooth:     3,
		StochDSmooth:     3,
		StochOverbought:  80,
		StochOversold:    20,
		StochAlertMethod: 1,

		EMALongPeriod:        200,
		EMAShortPeriod:       21,
		EMAProximityATRRatio: 0.15,
		ATRPeriod:            14,

		LRLength:                 200,
		LRATRLength:              14,
		LRR2Threshold:            0.3,
		LRSlopeThreshold:         0.5,
		LRSidewaysSlopeThreshold: 0.2,
		LRVolatilityMALength:     20,
		LRHigherTimeframe:        240,
	}
}

// Valid reports whether the config passes the usability predicate: a
// non-empty ordered asset list. This is the gate for accepting a cached or
// imported configuration.
func (c Config) Valid() bool {
	return len(c.Assets) > 0
}

// Clone returns a deep copy (the asset slice is the only reference field).
func (c *Config) Clone() Config {
	out := *c
	out.Assets = append([]string(nil), c.Assets...)
	return out
}

// ParseAssetList splits comma-separated text into an ordered list of trimmed
// non-empty symbols.
func ParseAssetList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatAssetList is the inverse of ParseAssetList.
func FormatAssetList(assets []string) string {
	return strings.Join(assets, ", ")
}
