package report

import (
	"strconv"

	"github.com/samurailab/poolsweep/internal/sweep"
)

var bestHeader = []string{"Resource Limit", "Metric", "Best Worker Threads", "Best Pool Size", "Value"}

// bestMetrics are the metrics ranked in the best configuration table, with
// their row labels.
var bestMetrics = []struct {
	label  string
	metric Metric
}{
	{"Best RPS", AvgRPS},
	{"Best P99 Latency", P99Latency},
}

// BestConfigEntry is the winning configuration for one limit and metric.
type BestConfigEntry struct {
	Limit         float64
	Label         string
	Metric        Metric
	Configuration sweep.TestConfiguration
	Value         float64
}

// BuildBestConfig ranks successful records per limit. Only present values
// compete; a tie keeps the earlier record; a limit with no present value for a
// metric gets no entry for it.
func BuildBestConfig(records []sweep.RunRecord) []BestConfigEntry {
	var entries []BestConfigEntry

	for _, limit := range Limits(records) {
		for _, bm := range bestMetrics {
			var best *BestConfigEntry
			for _, rec := range records {
				if rec.Configuration.ResourceLimit != limit || !rec.Succeeded() {
					continue
				}
				v, ok := bm.metric.Value(rec)
				if !ok {
					continue
				}
				if best == nil || bm.metric.Better(v, best.Value) {
					best = &BestConfigEntry{
						Limit:         limit,
						Label:         bm.label,
						Metric:        bm.metric,
						Configuration: rec.Configuration,
						Value:         v,
					}
				}
			}
			if best != nil {
				entries = append(entries, *best)
			}
		}
	}

	return entries
}

// BestConfigTable renders entries.
func BestConfigTable(entries []BestConfigEntry) Table {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			sweep.FormatNumber(e.Limit),
			e.Label,
			strconv.Itoa(e.Configuration.WorkerThreads),
			strconv.Itoa(e.Configuration.PoolSize),
			sweep.FormatNumber(e.Value),
		})
	}
	return Table{Header: bestHeader, Rows: rows}
}
