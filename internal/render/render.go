// Package render is the view boundary: the event router pushes snapshots and
// status fields through the Renderer contract, and the terminal
// implementation projects them into a text table. Absent indicator values
// always render as a placeholder, never as zero.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"text/tabwriter"

	"rsi-screener/internal/logsink"
	"rsi-screener/internal/model"
)

// Placeholder marks an indicator value the server has not computed yet.
const Placeholder = "—"

// Renderer is the input contract of the view layer.
type Renderer interface {
	// RenderAsset projects one (replaced-in-full) snapshot.
	RenderAsset(snap model.AssetSnapshot)
	// RenderCycle shows the last completed refresh summary.
	RenderCycle(summary model.LastCycleSummary)
	// RenderCountdown shows seconds until the next refresh cycle.
	RenderCountdown(seconds int)
	// RenderRunState enables/disables the start/stop controls.
	RenderRunState(running bool)
	// RenderCleared blanks the table after a reset.
	RenderCleared()
	// RenderLog appends a log sink entry to the visible log.
	RenderLog(entry logsink.Entry)
}

// Table renders the dashboard as a repainted text table. Safe for the single
// dispatcher goroutine plus occasional direct calls from the command path.
type Table struct {
	mu      sync.Mutex
	w       io.Writer
	rows    map[string]model.AssetSnapshot
	summary model.LastCycleSummary
	running bool
	thr     thresholds
}

// thresholds are the active config bands the table classifies against. Cells
// stay un-annotated until SetThresholds provides them.
type thresholds struct {
	rsiOver, rsiUnder     float64
	stochOver, stochUnder float64
	set                   bool
}

// NewTable creates a terminal renderer writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w, rows: make(map[string]model.AssetSnapshot)}
}

// SetThresholds supplies the config bands used to annotate RSI and stochastic
// cells. Called once the effective configuration is resolved; like the rest
// of the config, edited bands apply on the next start.
func (t *Table) SetThresholds(rsiOver, rsiUnder, stochOver, stochUnder float64) {
	t.mu.Lock()
	t.thr = thresholds{rsiOver, rsiUnder, stochOver, stochUnder, true}
	t.mu.Unlock()
}

// Prime seeds the table from rehydrated cache state without repainting per
// row (startup path).
func (t *Table) Prime(rows map[string]model.AssetSnapshot, summary model.LastCycleSummary) {
	t.mu.Lock()
	for k, v := range rows {
		t.rows[k] = v
	}
	t.summary = summary
	t.mu.Unlock()
	t.repaint()
}

func (t *Table) RenderAsset(snap model.AssetSnapshot) {
	t.mu.Lock()
	t.rows[snap.Symbol] = snap
	t.mu.Unlock()
	t.repaint()
}

func (t *Table) RenderCycle(summary model.LastCycleSummary) {
	t.mu.Lock()
	t.summary = summary
	t.mu.Unlock()
	t.repaint()
}

func (t *Table) RenderCountdown(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "next cycle in %ds\n", seconds)
}

func (t *Table) RenderRunState(running bool) {
	t.mu.Lock()
	t.running = running
	t.mu.Unlock()
	t.repaint()
}

func (t *Table) RenderCleared() {
	t.mu.Lock()
	t.rows = make(map[string]model.AssetSnapshot)
	t.summary = model.LastCycleSummary{}
	t.mu.Unlock()
	t.repaint()
}

func (t *Table) RenderLog(entry logsink.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s [%s] %s\n", entry.Time, entry.Level, entry.Message)
}

func (t *Table) repaint() {
	t.mu.Lock()
	defer t.mu.Unlock()

	symbols := make([]string, 0, len(t.rows))
	for s := range t.rows {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	tw := tabwriter.NewWriter(t.w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "SYMBOL\tPRICE\tRSI\tSTOCH %%K/%%D\tEMA L/S\tATR RATIO\tTREND\tALERTS\n")
	for _, s := range symbols {
		row := t.rows[s]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s/%s\t%s\t%s\t%s\n",
			row.Symbol,
			Num(row.Price, 4),
			t.rsiCellLocked(row),
			t.stochCellLocked(row),
			Num(row.EMALong, 4), Num(row.EMAShort, 4),
			Num(row.ATRRatio, 2),
			Str(row.LRTrend),
			alertsCell(row.Alerts),
		)
	}
	tw.Flush()

	state := "stopped"
	if t.running {
		state = "running"
	}
	if t.summary.Text != "" {
		fmt.Fprintf(t.w, "[%s] %s\n", state, t.summary.Text)
	} else {
		fmt.Fprintf(t.w, "[%s]\n", state)
	}
}

// rsiCellLocked formats the RSI cell, annotated with its classification once
// thresholds are known. Neutral values stay bare.
func (t *Table) rsiCellLocked(row model.AssetSnapshot) string {
	s := Num(row.RSI, 2)
	if t.thr.set && row.RSI != nil {
		if c := ClassifyRSI(*row.RSI, t.thr.rsiOver, t.thr.rsiUnder); c != ClassNeutral {
			s += " " + c
		}
	}
	return s
}

func (t *Table) stochCellLocked(row model.AssetSnapshot) string {
	s := Num(row.StochK, 2) + "/" + Num(row.StochD, 2)
	if t.thr.set && row.StochK != nil && row.StochD != nil {
		if c := ClassifyStoch(*row.StochK, *row.StochD, t.thr.stochOver, t.thr.stochUnder); c != ClassNeutral {
			s += " " + c
		}
	}
	return s
}

func alertsCell(alerts []model.Alert) string {
	if len(alerts) == 0 {
		return Placeholder
	}
	out := ""
	for i, a := range alerts {
		if i > 0 {
			out += ", "
		}
		out += a.Type
	}
	return out
}

// Num formats an optional numeric value, or the placeholder when absent.
func Num(v *float64, prec int) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

// Str formats an optional string value, or the placeholder when absent.
func Str(v *string) string {
	if v == nil || *v == "" {
		return Placeholder
	}
	return *v
}
