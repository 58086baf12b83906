package model

import "encoding/json"

// Alert severity levels as sent by the server.
const (
	AlertDanger  = "danger"
	AlertSuccess = "success"
	AlertWarning = "warning"
)

// Alert is a single triggered condition attached to an asset snapshot.
type Alert struct {
	Type  string `json:"type"`
	Level string `json:"level"`
}

// Notify reports whether this alert should raise a user notification.
// Only danger and success alerts are pushed; warnings stay on screen.
func (a Alert) Notify() bool {
	return a.Level == AlertDanger || a.Level == AlertSuccess
}

// AssetSnapshot is the complete set of computed indicator values for one
// symbol at one point in time. Any indicator field may be absent when the
// server has not computed it yet (not enough candle history); absent values
// are nil pointers and must render as a placeholder, never as zero.
//
// A snapshot fully replaces the previous one for its symbol — fields are
// never merged across updates.
type AssetSnapshot struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
	Alerts []Alert  `json:"alerts"`

	RSI     *float64 `json:"rsi"`
	RSINote string   `json:"rsi_note,omitempty"`

	EMALong         *float64 `json:"ema_long"`
	EMALongPosition string   `json:"ema_long_position,omitempty"` // ABOVE | BELOW
	EMALongNote     string   `json:"ema_long_note,omitempty"`

	EMAShort     *float64 `json:"ema_short"`
	EMAShortNote string   `json:"ema_short_note,omitempty"`
	ATR          *float64 `json:"atr"`
	ATRRatio     *float64 `json:"atr_ratio"`
	EMAProximity string   `json:"ema_proximity,omitempty"`

	StochK    *float64 `json:"stoch_k"`
	StochD    *float64 `json:"stoch_d"`
	StochNote string   `json:"stoch_note,omitempty"`

	LRTrend      *string  `json:"lr_trend"`
	LRConfidence *float64 `json:"lr_confidence,omitempty"`
	LRRSquared   *float64 `json:"lr_r_squared,omitempty"`
	LRNormSlope  *float64 `json:"lr_norm_slope,omitempty"`
	LRVolatility string   `json:"lr_volatility,omitempty"`
	LRTFLabel    string   `json:"lr_tf_label,omitempty"`
	LRNote       string   `json:"lr_note,omitempty"`

	LRHTFTrend      *string  `json:"lr_htf_trend,omitempty"`
	LRHTFConfidence *float64 `json:"lr_htf_confidence,omitempty"`
	LRHTFRSquared   *float64 `json:"lr_htf_r_squared,omitempty"`
	LRHTFVolatility string   `json:"lr_htf_volatility,omitempty"`
	LRHTFLabel      string   `json:"lr_htf_label,omitempty"`
	LRHTFNote       string   `json:"lr_htf_note,omitempty"`
}

// JSON returns the JSON-encoded snapshot (errors ignored; the struct is
// always marshalable).
func (s *AssetSnapshot) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
