package report

import (
	"sort"
	"strconv"

	"github.com/samurailab/poolsweep/internal/sweep"
)

const pivotCorner = "Worker Threads / Pool Size"

type cell struct {
	threads int
	pool    int
}

// PivotTable is one metric for one resource limit, indexed by worker threads
// (rows) and pool size (columns).
type PivotTable struct {
	Limit   float64
	Metric  Metric
	Threads []int
	Pools   []int

	cells map[cell]float64
}

// BuildPivot collects the records for limit. Rows and columns are the distinct
// thread counts and pool sizes of every record with that limit, failed ones
// included. When several records land in the same cell the last one wins, so
// callers pass records in chronological order.
func BuildPivot(records []sweep.RunRecord, limit float64, metric Metric) PivotTable {
	p := PivotTable{
		Limit:  limit,
		Metric: metric,
		cells:  make(map[cell]float64),
	}

	threads := make(map[int]bool)
	pools := make(map[int]bool)

	for _, rec := range records {
		c := rec.Configuration
		if c.ResourceLimit != limit {
			continue
		}
		threads[c.WorkerThreads] = true
		pools[c.PoolSize] = true

		if v, ok := metric.Value(rec); ok {
			p.cells[cell{c.WorkerThreads, c.PoolSize}] = v
		}
	}

	p.Threads = sortedKeys(threads)
	p.Pools = sortedKeys(pools)
	return p
}

// Value returns the cell for (threads, pool).
func (p PivotTable) Value(threads, pool int) (float64, bool) {
	v, ok := p.cells[cell{threads, pool}]
	return v, ok
}

// Table renders the pivot with pool sizes as the header row.
func (p PivotTable) Table() Table {
	header := make([]string, 0, len(p.Pools)+1)
	header = append(header, pivotCorner)
	for _, pool := range p.Pools {
		header = append(header, strconv.Itoa(pool))
	}

	rows := make([][]string, 0, len(p.Threads))
	for _, threads := range p.Threads {
		row := make([]string, 0, len(p.Pools)+1)
		row = append(row, strconv.Itoa(threads))
		for _, pool := range p.Pools {
			row = append(row, formatFloat(p.Value(threads, pool)))
		}
		rows = append(rows, row)
	}

	return Table{Header: header, Rows: rows}
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
