// Package output renders operator-facing progress for sweeps and report
// passes, and configures the diagnostic logger.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samurailab/poolsweep/internal/config"
	"github.com/samurailab/poolsweep/internal/orchestrator"
	"github.com/samurailab/poolsweep/internal/sweep"
)

const ruleWidth = 80

// Printer writes progress lines. It implements orchestrator.Observer.
type Printer struct {
	w       io.Writer
	colors  *ColorScheme
	noColor bool
}

// NewPrinter creates a printer on w. Colors are used only when w is a
// terminal and noColor is false.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	if w == nil {
		w = os.Stdout
	}
	noColor = noColor || !isTerminal(w)

	colors := DefaultColorScheme()
	if noColor {
		colors = NoColorScheme()
	}
	return &Printer{w: w, colors: colors, noColor: noColor}
}

func (p *Printer) rule(char string) {
	fmt.Fprintln(p.w, p.colors.Dim.Sprint(strings.Repeat(char, ruleWidth)))
}

// Banner announces a sweep.
func (p *Printer) Banner(cfg *config.SweepConfig, total int) {
	fmt.Fprintln(p.w)
	p.rule("=")
	p.colors.Banner.Fprintln(p.w, "PERFORMANCE SWEEP")
	p.rule("=")
	p.field("Total configurations", fmt.Sprint(total))
	p.field("Resource limits", formatList(cfg.Sweep.ResourceLimits))
	p.field("Thread multipliers", formatList(cfg.Sweep.ThreadMultipliers))
	p.field("Pool multipliers", formatList(cfg.Sweep.PoolMultipliers))
	p.field("Results directory", cfg.ResultsDir())
	p.rule("=")
	fmt.Fprintln(p.w)
}

// Plan lists configurations without running them.
func (p *Printer) Plan(configs []sweep.TestConfiguration) {
	for i, tc := range configs {
		fmt.Fprintf(p.w, "%4d  %s  %s\n", i+1,
			p.colors.Highlight.Sprint(tc.InstanceName()),
			p.colors.Dim.Sprintf("(threads x%s, pool x%s)",
				sweep.FormatNumber(tc.ThreadMultiplier), sweep.FormatNumber(tc.PoolMultiplier)))
	}
}

func (p *Printer) field(label, value string) {
	fmt.Fprintf(p.w, "%s %s\n", p.colors.Label.Sprintf("%s:", label), p.colors.Value.Sprint(value))
}

// Step prints a heading for a long running action.
func (p *Printer) Step(format string, args ...interface{}) {
	fmt.Fprintln(p.w)
	p.colors.Heading.Fprintf(p.w, format+"\n", args...)
}

// Success prints a completed action.
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", SuccessIcon(p.noColor), fmt.Sprintf(format, args...))
}

// Failure prints a failed action.
func (p *Printer) Failure(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", ErrorIcon(p.noColor), p.colors.Error.Sprintf(format, args...))
}

// Warning prints a condition the operator should know about.
func (p *Printer) Warning(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", WarningIcon(p.noColor), p.colors.Warning.Sprintf(format, args...))
}

// Written lists generated files.
func (p *Printer) Written(paths []string) {
	for _, path := range paths {
		p.Success("Created %s", path)
	}
}

// IterationStarted prints the per-test header.
func (p *Printer) IterationStarted(index, total int, tc sweep.TestConfiguration) {
	fmt.Fprintln(p.w)
	p.rule("=")
	p.colors.Banner.Fprintf(p.w, "TEST %d/%d\n", index, total)
	p.rule("=")
	p.field("Resource limit", tc.LimitString())
	p.field("Worker threads", fmt.Sprint(tc.WorkerThreads))
	p.field("Pool size", fmt.Sprint(tc.PoolSize))
}

// PhaseChanged prints the phase the iteration entered.
func (p *Printer) PhaseChanged(index int, phase orchestrator.Phase) {
	switch phase {
	case orchestrator.PhaseRestarting:
		p.Step("Restarting service...")
	case orchestrator.PhaseWarmingUp:
		p.Step("Running load test...")
		fmt.Fprintln(p.w, "  warm-up")
	case orchestrator.PhaseMeasuring:
		fmt.Fprintln(p.w, "  measured run")
	}
}

// IterationFinished prints the outcome and headline metrics of an iteration.
func (p *Printer) IterationFinished(index, total int, rec sweep.RunRecord, path string) {
	if !rec.Succeeded() {
		p.Failure("Test %d/%d failed: %s", index, total, rec.ErrorDetail)
	} else {
		var m sweep.MetricsSnapshot
		if rec.Metrics != nil {
			m = *rec.Metrics
		}
		fmt.Fprintf(p.w, "  Average RPS: %s\n", optional(m.AvgRPS, ""))
		fmt.Fprintf(p.w, "  P99 Latency: %s\n", optional(m.P99LatencyMs, " ms"))
		if m.IsEmpty() {
			p.Warning("No metrics could be extracted from the load summary")
		}
	}

	if path != "" {
		p.Success("Results saved to %s", path)
	}
	if rec.Succeeded() {
		p.Success("Test %d/%d completed", index, total)
	}
}

// SweepFinished prints the closing summary.
func (p *Printer) SweepFinished(s orchestrator.Summary, resultsDir, stopHint string) {
	fmt.Fprintln(p.w)
	if s.Interrupted {
		p.Warning("Sweep interrupted after %d of %d configurations", s.Completed, s.Total)
	} else {
		p.rule("=")
		p.colors.Banner.Fprintln(p.w, "ALL TESTS COMPLETED")
		p.rule("=")
	}

	p.field("Succeeded", fmt.Sprint(s.Succeeded))
	p.field("Failed", fmt.Sprint(s.Failed))
	if s.Unsaved > 0 {
		p.Warning("%d record(s) could not be saved", s.Unsaved)
	}
	p.field("Results saved in", resultsDir)

	if stopHint != "" {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, "Services are still running")
		fmt.Fprintf(p.w, "   To stop them, run: %s\n", p.colors.Highlight.Sprint(stopHint))
	}
}

func optional(v *float64, unit string) string {
	if v == nil {
		return "N/A"
	}
	return sweep.FormatNumber(*v) + unit
}

func formatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = sweep.FormatNumber(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
