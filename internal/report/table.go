// Package report turns stored run records into comparison tables: per-limit
// pivots, a flat summary, the best configuration per limit and
// multiplier-indexed tables derived from the summary.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samurailab/poolsweep/internal/sweep"
)

// Missing is rendered for any absent value.
const Missing = "N/A"

// Table is the rendered form of every report.
type Table struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes t to path, creating the parent directory.
func (t Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Metric is one of the scalar metrics a report can be built for.
type Metric struct {
	// Key names the metric in file names.
	Key string
	// Label is the human readable column title.
	Label string
	// Maximize is true for throughput-type metrics.
	Maximize bool

	value func(sweep.MetricsSnapshot) *float64
}

// Value returns the metric of rec, or false when it is absent.
func (m Metric) Value(rec sweep.RunRecord) (float64, bool) {
	if rec.Metrics == nil {
		return 0, false
	}
	v := m.value(*rec.Metrics)
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Better reports whether a beats b under the metric's ordering. Equal values
// are not better, so the first seen wins.
func (m Metric) Better(a, b float64) bool {
	if m.Maximize {
		return a > b
	}
	return a < b
}

var (
	AvgRPS = Metric{Key: "avg_rps", Label: "Avg RPS", Maximize: true,
		value: func(s sweep.MetricsSnapshot) *float64 { return s.AvgRPS }}
	P99Latency = Metric{Key: "p99_latency", Label: "P99 Latency (ms)",
		value: func(s sweep.MetricsSnapshot) *float64 { return s.P99LatencyMs }}
	P95Latency = Metric{Key: "p95_latency", Label: "P95 Latency (ms)",
		value: func(s sweep.MetricsSnapshot) *float64 { return s.P95LatencyMs }}
	AvgLatency = Metric{Key: "avg_latency", Label: "Avg Latency (ms)",
		value: func(s sweep.MetricsSnapshot) *float64 { return s.AvgLatencyMs }}
)

// PivotMetrics are rendered as one pivot per resource limit each.
var PivotMetrics = []Metric{AvgRPS, P99Latency, P95Latency, AvgLatency}

// SortChronologically orders records by timestamp, then iteration. RFC 3339
// timestamps compare as instants whatever their offset; anything else compares
// as text. The sort is stable so equal keys keep their load order.
func SortChronologically(records []sweep.RunRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if c := compareTimestamps(a.Timestamp, b.Timestamp); c != 0 {
			return c < 0
		}
		return a.Iteration < b.Iteration
	})
}

func compareTimestamps(a, b string) int {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}

// Limits returns the distinct resource limits in ascending order.
func Limits(records []sweep.RunRecord) []float64 {
	seen := make(map[float64]bool)
	var limits []float64
	for _, rec := range records {
		l := rec.Configuration.ResourceLimit
		if !seen[l] {
			seen[l] = true
			limits = append(limits, l)
		}
	}
	sort.Float64s(limits)
	return limits
}

func formatFloat(v float64, ok bool) string {
	if !ok {
		return Missing
	}
	return sweep.FormatNumber(v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return Missing
	}
	return sweep.FormatNumber(*v)
}

func formatOptionalInt(v *int64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatInt(*v, 10)
}
