package render

// Indicator classifications derived client-side against the active config
// thresholds. The server already attaches alerts; these annotate the RSI and
// stochastic table cells so a crossed band is visible even when no alert
// fired for it.
const (
	ClassOverbought = "overbought"
	ClassOversold   = "oversold"
	ClassNeutral    = "neutral"
)

// ClassifyRSI buckets an RSI value against the configured bands. A value
// exactly on a threshold is neutral — only a crossing classifies.
func ClassifyRSI(rsi, overbought, oversold float64) string {
	switch {
	case rsi > overbought:
		return ClassOverbought
	case rsi < oversold:
		return ClassOversold
	default:
		return ClassNeutral
	}
}

// ClassifyStoch buckets a stochastic pair: either line beyond a band
// classifies, matching the server's alert rule.
func ClassifyStoch(k, d, overbought, oversold float64) string {
	switch {
	case k > overbought || d > overbought:
		return ClassOverbought
	case k < oversold || d < oversold:
		return ClassOversold
	default:
		return ClassNeutral
	}
}
