package report

import (
	"sort"
	"strconv"

	"github.com/samurailab/poolsweep/internal/sweep"
)

// Summary table columns. The multiplier pass reads the file back by these
// names.
const (
	ColResourceLimit = "Resource Limit"
	ColWorkerThreads = "Worker Threads"
	ColPoolSize      = "Pool Size"
	ColStatus        = "Status"
	ColAvgRPS        = "Avg RPS"
	ColP99Latency    = "P99 Latency (ms)"
	ColP95Latency    = "P95 Latency (ms)"
	ColAvgLatency    = "Avg Latency (ms)"
	ColTotalRequests = "Total Requests"
)

var summaryHeader = []string{
	ColResourceLimit,
	ColWorkerThreads,
	ColPoolSize,
	ColStatus,
	ColAvgRPS,
	ColP99Latency,
	ColP95Latency,
	ColAvgLatency,
	ColTotalRequests,
}

// BuildSummary renders one row per record, ordered by limit, threads and pool
// size. Records sharing a configuration keep their relative order.
func BuildSummary(records []sweep.RunRecord) Table {
	sorted := make([]sweep.RunRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Configuration, sorted[j].Configuration
		if a.ResourceLimit != b.ResourceLimit {
			return a.ResourceLimit < b.ResourceLimit
		}
		if a.WorkerThreads != b.WorkerThreads {
			return a.WorkerThreads < b.WorkerThreads
		}
		return a.PoolSize < b.PoolSize
	})

	rows := make([][]string, 0, len(sorted))
	for _, rec := range sorted {
		var m sweep.MetricsSnapshot
		if rec.Metrics != nil {
			m = *rec.Metrics
		}
		rows = append(rows, []string{
			rec.Configuration.LimitString(),
			strconv.Itoa(rec.Configuration.WorkerThreads),
			strconv.Itoa(rec.Configuration.PoolSize),
			string(rec.Status),
			formatOptionalFloat(m.AvgRPS),
			formatOptionalFloat(m.P99LatencyMs),
			formatOptionalFloat(m.P95LatencyMs),
			formatOptionalFloat(m.AvgLatencyMs),
			formatOptionalInt(m.TotalRequests),
		})
	}

	return Table{Header: summaryHeader, Rows: rows}
}
