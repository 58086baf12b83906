package screener

import (
	"fmt"
	"strconv"
)

// FieldKind declares how a settings field is edited.
type FieldKind int

const (
	KindNumeric    FieldKind = iota // parsed with strconv.ParseFloat
	KindStringList                  // comma-separated ⇄ ordered trimmed list
)

// Field describes one editable configuration field.
type Field struct {
	Name  string // JSON key, e.g. "RSI_Period"
	Label string // presentation label
	Kind  FieldKind
}

// Group is a named set of fields for presentation.
type Group struct {
	Name   string
	Fields []Field
}

// Groups returns the fixed presentation grouping of all config fields.
func Groups() []Group {
	return []Group{
		{Name: "general", Fields: []Field{
			{Name: "Timeframe", Label: "Timeframe (minutes)", Kind: KindNumeric},
		}},
		{Name: "assets", Fields: []Field{
			{Name: "Assets", Label: "Assets (comma-separated)", Kind: KindStringList},
		}},
		{Name: "rsi", Fields: []Field{
			{Name: "RSI_Period", Label: "RSI Period", Kind: KindNumeric},
			{Name: "RSI_Overbought", Label: "RSI Overbought", Kind: KindNumeric},
			{Name: "RSI_Oversold", Label: "RSI Oversold", Kind: KindNumeric},
		}},
		{Name: "stochastic", Fields: []Field{
			{Name: "Stoch_K_Period", Label: "%K Period", Kind: KindNumeric},
			{Name: "Stoch_K_Smooth", Label: "%K Smoothing", Kind: KindNumeric},
			{Name: "Stoch_D_Smooth", Label: "%D Smoothing", Kind: KindNumeric},
			{Name: "Stoch_Overbought", Label: "Stoch Overbought", Kind: KindNumeric},
			{Name: "Stoch_Oversold", Label: "Stoch Oversold", Kind: KindNumeric},
			{Name: "Stoch_Alert_Method", Label: "Alert Method", Kind: KindNumeric},
		}},
		{Name: "ema", Fields: []Field{
			{Name: "EMA_Long_Period", Label: "EMA Long Period", Kind: KindNumeric},
			{Name: "EMA_Short_Period", Label: "EMA Short Period", Kind: KindNumeric},
			{Name: "EMA_Proximity_ATR_Ratio", Label: "EMA Proximity (ATR ratio)", Kind: KindNumeric},
		}},
		{Name: "atr", Fields: []Field{
			{Name: "ATR_Period", Label: "ATR Period", Kind: KindNumeric},
		}},
		{Name: "linreg", Fields: []Field{
			{Name: "LR_Length", Label: "LR Length", Kind: KindNumeric},
			{Name: "LR_ATR_Length", Label: "LR ATR Length", Kind: KindNumeric},
			{Name: "LR_R2_Threshold", Label: "R² Threshold", Kind: KindNumeric},
			{Name: "LR_Slope_Threshold", Label: "Slope Threshold", Kind: KindNumeric},
			{Name: "LR_Sideways_Slope_Threshold", Label: "Sideways Slope Threshold", Kind: KindNumeric},
			{Name: "LR_Volatility_MA_Length", Label: "Volatility MA Length", Kind: KindNumeric},
			{Name: "LR_Higher_Timeframe", Label: "Higher Timeframe (minutes)", Kind: KindNumeric},
		}},
	}
}

// numericRef maps a field name to its slot in the config. Returns nil for
// unknown or non-numeric names.
func numericRef(c *Config, name string) *float64 {
	switch name {
	case "Timeframe":
		return &c.Timeframe
	case "RSI_Period":
		return &c.RSIPeriod
	case "RSI_Overbought":
		return &c.RSIOverbought
	case "RSI_Oversold":
		return &c.RSIOversold
	case "Stoch_K_Period":
		return &c.StochKPeriod
	case "Stoch_K_Smooth":
		return &c.StochKSmooth
	case "Stoch_D_Smooth":
		return &c.StochDSmooth
	case "Stoch_Overbought":
		return &c.StochOverbought
	case "Stoch_Oversold":
		return &c.StochOversold
	case "Stoch_Alert_Method":
		return &c.StochAlertMethod
	case "EMA_Long_Period":
		return &c.EMALongPeriod
	case "EMA_Short_Period":
		return &c.EMAShortPeriod
	case "EMA_Proximity_ATR_Ratio":
		return &c.EMAProximityATRRatio
	case "ATR_Period":
		return &c.ATRPeriod
	case "LR_Length":
		return &c.LRLength
	case "LR_ATR_Length":
		return &c.LRATRLength
	case "LR_R2_Threshold":
		return &c.LRR2Threshold
	case "LR_Slope_Threshold":
		return &c.LRSlopeThreshold
	case "LR_Sideways_Slope_Threshold":
		return &c.LRSidewaysSlopeThreshold
	case "LR_Volatility_MA_Length":
		return &c.LRVolatilityMALength
	case "LR_Higher_Timeframe":
		return &c.LRHigherTimeframe
	default:
		return nil
	}
}

// FieldValue renders the named field as editable text.
func FieldValue(c *Config, name string) (string, error) {
	if name == "Assets" {
		return FormatAssetList(c.Assets), nil
	}
	ref := numericRef(c, name)
	if ref == nil {
		return "", fmt.Errorf("config: unknown field %q", name)
	}
	return strconv.FormatFloat(*ref, 'f', -1, 64), nil
}

// SetFieldValue parses raw text into the named field. Numeric input that
// fails to parse is rejected with an error rather than kept as a raw
// string, so a saved configuration can never carry a string where a number
// belongs.
func SetFieldValue(c *Config, name, raw string) error {
	if name == "Assets" {
		assets := ParseAssetList(raw)
		if len(assets) == 0 {
			return ErrInvalidConfig
		}
		c.Assets = assets
		return nil
	}
	ref := numericRef(c, name)
	if ref == nil {
		return fmt.Errorf("config: unknown field %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %q is not a number", name, raw)
	}
	*ref = v
	return nil
}
