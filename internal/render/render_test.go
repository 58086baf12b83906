package render

import (
	"bytes"
	"strings"
	"testing"

	"rsi-screener/internal/logsink"
	"rsi-screener/internal/model"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func TestClassifyRSI(t *testing.T) {
	tests := []struct {
		rsi  float64
		want string
	}{
		{72, ClassOverbought},
		{70, ClassNeutral}, // exactly on threshold is not a crossing
		{69.9, ClassNeutral},
		{50, ClassNeutral},
		{30, ClassNeutral},
		{29.9, ClassOversold},
		{12, ClassOversold},
	}
	for _, tt := range tests {
		if got := ClassifyRSI(tt.rsi, 70, 30); got != tt.want {
			t.Errorf("ClassifyRSI(%v, 70, 30) = %s, want %s", tt.rsi, got, tt.want)
		}
	}
}

func TestClassifyStoch(t *testing.T) {
	tests := []struct {
		k, d float64
		want string
	}{
		{85, 70, ClassOverbought}, // %K beyond band
		{70, 85, ClassOverbought}, // %D beyond band
		{50, 50, ClassNeutral},
		{80, 80, ClassNeutral}, // on the band
		{15, 30, ClassOversold},
		{30, 15, ClassOversold},
	}
	for _, tt := range tests {
		if got := ClassifyStoch(tt.k, tt.d, 80, 20); got != tt.want {
			t.Errorf("ClassifyStoch(%v, %v, 80, 20) = %s, want %s", tt.k, tt.d, got, tt.want)
		}
	}
}

func TestNum_Placeholder(t *testing.T) {
	if got := Num(nil, 2); got != Placeholder {
		t.Errorf("Num(nil) = %q, want placeholder", got)
	}
	if got := Num(f(72.125), 2); got != "72.13" {
		t.Errorf("Num(72.125, 2) = %q", got)
	}
	// A present zero renders as zero, not the placeholder.
	if got := Num(f(0), 2); got != "0.00" {
		t.Errorf("Num(0, 2) = %q", got)
	}
}

func TestStr_Placeholder(t *testing.T) {
	if got := Str(nil); got != Placeholder {
		t.Errorf("Str(nil) = %q", got)
	}
	if got := Str(s("")); got != Placeholder {
		t.Errorf("Str(\"\") = %q", got)
	}
	if got := Str(s("UPTREND")); got != "UPTREND" {
		t.Errorf("Str = %q", got)
	}
}

func TestTable_RenderAsset(t *testing.T) {
	var buf bytes.Buffer
	tab := NewTable(&buf)

	tab.RenderAsset(model.AssetSnapshot{
		Symbol:  "BTC_USDT",
		Price:   f(61000.5),
		RSI:     f(72.1),
		LRTrend: s("UPTREND"),
		Alerts:  []model.Alert{{Type: "RSI Overbought", Level: model.AlertDanger}},
	})

	out := buf.String()
	for _, want := range []string{"BTC_USDT", "61000.5000", "72.10", "UPTREND", "RSI Overbought", Placeholder} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTable_AbsentFieldsRenderPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	tab := NewTable(&buf)

	// Price-only snapshot: every indicator column must show the
	// placeholder, never a zero.
	tab.RenderAsset(model.AssetSnapshot{Symbol: "ETH_USDT", Price: f(2413.57)})

	out := buf.String()
	if !strings.Contains(out, Placeholder) {
		t.Fatalf("expected placeholders in output:\n%s", out)
	}
	if strings.Contains(out, "0.00") {
		t.Errorf("absent values must not render as zero:\n%s", out)
	}
}

func TestTable_ClearedAndRunState(t *testing.T) {
	var buf bytes.Buffer
	tab := NewTable(&buf)

	tab.RenderAsset(model.AssetSnapshot{Symbol: "BTC_USDT", Price: f(61000)})
	tab.RenderCycle(model.LastCycleSummary{Text: "1/1 assets refreshed at 10:30:00"})
	tab.RenderRunState(true)

	buf.Reset()
	tab.RenderCleared()
	out := buf.String()
	if strings.Contains(out, "BTC_USDT") || strings.Contains(out, "refreshed") {
		t.Errorf("cleared table must drop rows and summary:\n%s", out)
	}
	if !strings.Contains(out, "[running]") {
		t.Errorf("run state must survive a clear:\n%s", out)
	}
}

func TestTable_Prime(t *testing.T) {
	var buf bytes.Buffer
	tab := NewTable(&buf)

	tab.Prime(map[string]model.AssetSnapshot{
		"BTC_USDT": {Symbol: "BTC_USDT", Price: f(61000)},
		"ETH_USDT": {Symbol: "ETH_USDT", Price: f(2400)},
	}, model.LastCycleSummary{Text: "2/2 assets refreshed at 09:00:00"})

	out := buf.String()
	for _, want := range []string{"BTC_USDT", "ETH_USDT", "2/2 assets refreshed at 09:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("primed output missing %q:\n%s", want, out)
		}
	}
}

func TestTable_RenderLog(t *testing.T) {
	var buf bytes.Buffer
	tab := NewTable(&buf)

	tab.RenderLog(logsink.Entry{Level: "info", Message: "cycle started", Time: "10:30:00"})
	if got := buf.String(); got != "10:30:00 [info] cycle started\n" {
		t.Errorf("log line = %q", got)
	}
}

func TestTable_ThresholdAnnotations(t *testing.T) {
	var buf bytes.Buffer
	tab := NewTable(&buf)
	tab.SetThresholds(70, 30, 80, 20)

	tab.RenderAsset(model.AssetSnapshot{
		Symbol: "BTC_USDT",
		Price:  f(61000),
		RSI:    f(72.1),
		StochK: f(15),
		StochD: f(25),
	})

	out := buf.String()
	if !strings.Contains(out, "72.10 "+ClassOverbought) {
		t.Errorf("expected RSI cell annotated overbought:\n%s", out)
	}
	if !strings.Contains(out, "15.00/25.00 "+ClassOversold) {
		t.Errorf("expected stoch cell annotated oversold:\n%s", out)
	}

	// Neutral values stay bare.
	buf.Reset()
	tab.RenderAsset(model.AssetSnapshot{
		Symbol: "ETH_USDT",
		Price:  f(2413.57),
		RSI:    f(50),
		StochK: f(50),
		StochD: f(50),
	})
	if out := buf.String(); strings.Contains(out, ClassNeutral) {
		t.Errorf("neutral classification must not be printed:\n%s", out)
	}
}

func TestTable_NoThresholdsNoAnnotations(t *testing.T) {
	var buf bytes.Buffer
	tab := NewTable(&buf)

	// Without thresholds an extreme RSI renders un-annotated; zero-valued
	// bands must never classify everything as overbought.
	tab.RenderAsset(model.AssetSnapshot{Symbol: "BTC_USDT", Price: f(61000), RSI: f(99)})
	if out := buf.String(); strings.Contains(out, ClassOverbought) {
		t.Errorf("unset thresholds must not annotate:\n%s", out)
	}
}
