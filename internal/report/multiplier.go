package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/samurailab/poolsweep/internal/sweep"
)

const multiplierCorner = `Pool \ Thread multiplier`

// SummaryRow is one line of the summary file as read back by the multiplier
// pass.
type SummaryRow struct {
	Limit   float64
	Threads int
	Pool    int
	AvgRPS  *float64
	P99     *float64
}

// ClosestMultiplier returns the nominal value nearest to v. Ties go to the
// first listed candidate. It panics on an empty list.
func ClosestMultiplier(v float64, nominal []float64) float64 {
	best := nominal[0]
	bestDiff := math.Abs(v - best)
	for _, n := range nominal[1:] {
		if d := math.Abs(v - n); d < bestDiff {
			best, bestDiff = n, d
		}
	}
	return best
}

// ParseSummary reads a summary table by column name. Metric cells holding
// N/A or nothing are absent; a configuration cell that does not parse is an
// error.
func ParseSummary(r io.Reader) ([]SummaryRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read summary header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range []string{ColResourceLimit, ColWorkerThreads, ColPoolSize, ColAvgRPS, ColP99Latency} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("summary is missing column %q", name)
		}
	}

	var rows []SummaryRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read summary: %w", err)
		}

		var row SummaryRow
		if row.Limit, err = strconv.ParseFloat(rec[index[ColResourceLimit]], 64); err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColResourceLimit, err)
		}
		if row.Threads, err = strconv.Atoi(rec[index[ColWorkerThreads]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColWorkerThreads, err)
		}
		if row.Pool, err = strconv.Atoi(rec[index[ColPoolSize]]); err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColPoolSize, err)
		}
		row.AvgRPS = parseMetricCell(rec[index[ColAvgRPS]])
		row.P99 = parseMetricCell(rec[index[ColP99Latency]])

		rows = append(rows, row)
	}
	return rows, nil
}

func parseMetricCell(s string) *float64 {
	if s == "" || s == Missing {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// MultiplierTable holds one limit's summary rows bucketed by the nominal
// thread and pool multipliers they are closest to.
type MultiplierTable struct {
	Limit             float64
	ThreadMultipliers []float64
	PoolMultipliers   []float64

	// buckets holds every row mapped to a cell, in summary order.
	buckets map[[2]int][]SummaryRow
}

// BuildMultiplierTable buckets the rows for limit. Actual multipliers are
// threads/limit and pool/threads. Per metric, the last row in a bucket with a
// value present wins, so a later failed run never blanks an earlier result.
func BuildMultiplierTable(rows []SummaryRow, limit float64, threadMults, poolMults []float64) MultiplierTable {
	t := MultiplierTable{
		Limit:             limit,
		ThreadMultipliers: threadMults,
		PoolMultipliers:   poolMults,
		buckets:           make(map[[2]int][]SummaryRow),
	}

	for _, row := range rows {
		if row.Limit != limit {
			continue
		}
		if row.Limit == 0 || row.Threads == 0 {
			log.WithFields(log.Fields{
				"resourceLimit": row.Limit,
				"workerThreads": row.Threads,
			}).Warn("cannot derive multipliers from a zero value, skipping row")
			continue
		}

		ti := indexOf(threadMults, ClosestMultiplier(float64(row.Threads)/row.Limit, threadMults))
		pi := indexOf(poolMults, ClosestMultiplier(float64(row.Pool)/float64(row.Threads), poolMults))
		key := [2]int{pi, ti}
		t.buckets[key] = append(t.buckets[key], row)
	}
	return t
}

// Len is the number of filled buckets.
func (t MultiplierTable) Len() int {
	return len(t.buckets)
}

// Render builds the table for one metric: nominal pool multipliers as rows,
// nominal thread multipliers as columns, values rounded to integers.
func (t MultiplierTable) Render(value func(SummaryRow) *float64) Table {
	header := make([]string, 0, len(t.ThreadMultipliers)+1)
	header = append(header, multiplierCorner)
	for _, m := range t.ThreadMultipliers {
		header = append(header, fmt.Sprintf("Threads %s X Limit", sweep.FormatNumber(m)))
	}

	rows := make([][]string, 0, len(t.PoolMultipliers))
	for pi, pm := range t.PoolMultipliers {
		row := make([]string, 0, len(t.ThreadMultipliers)+1)
		row = append(row, sweep.FormatNumber(pm))
		for ti := range t.ThreadMultipliers {
			cellValue := Missing
			if v := t.lastValue([2]int{pi, ti}, value); v != nil {
				cellValue = strconv.Itoa(sweep.Round(*v))
			}
			row = append(row, cellValue)
		}
		rows = append(rows, row)
	}

	return Table{Header: header, Rows: rows}
}

func (t MultiplierTable) lastValue(key [2]int, value func(SummaryRow) *float64) *float64 {
	rows := t.buckets[key]
	for i := len(rows) - 1; i >= 0; i-- {
		if v := value(rows[i]); v != nil {
			return v
		}
	}
	return nil
}

func indexOf(values []float64, v float64) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

// MultiplierPaths returns the throughput and p99 table paths for limit.
func MultiplierPaths(dir string, limit float64) (throughput, p99 string) {
	l := sweep.FormatNumber(limit)
	return filepath.Join(dir, fmt.Sprintf("cpu_%s_multiplier_throughput.csv", l)),
		filepath.Join(dir, fmt.Sprintf("cpu_%s_multiplier_p99_latency.csv", l))
}

// Summarizer re-derives multiplier tables from the summary file.
type Summarizer struct {
	dir               string
	limits            []float64
	threadMultipliers []float64
	poolMultipliers   []float64
}

// NewSummarizer creates a summarizer reading and writing in dir.
func NewSummarizer(dir string, limits, threadMults, poolMults []float64) *Summarizer {
	return &Summarizer{
		dir:               dir,
		limits:            limits,
		threadMultipliers: threadMults,
		poolMultipliers:   poolMults,
	}
}

// Run writes the throughput and p99 tables for every configured limit that
// has rows in the summary. Limits without rows are skipped with a warning.
func (s *Summarizer) Run() ([]string, error) {
	if len(s.threadMultipliers) == 0 || len(s.poolMultipliers) == 0 {
		return nil, errors.New("multiplier lists must not be empty")
	}

	f, err := os.Open(filepath.Join(s.dir, SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open summary: %w", err)
	}
	defer f.Close()

	rows, err := ParseSummary(f)
	if err != nil {
		return nil, err
	}

	var (
		written []string
		result  *multierror.Error
	)
	for _, limit := range s.limits {
		table := BuildMultiplierTable(rows, limit, s.threadMultipliers, s.poolMultipliers)
		if table.Len() == 0 {
			log.WithField("resourceLimit", limit).Warn("no results for resource limit")
			continue
		}

		throughputPath, p99Path := MultiplierPaths(s.dir, limit)
		outputs := []struct {
			path  string
			value func(SummaryRow) *float64
		}{
			{throughputPath, func(r SummaryRow) *float64 { return r.AvgRPS }},
			{p99Path, func(r SummaryRow) *float64 { return r.P99 }},
		}
		for _, out := range outputs {
			if err := table.Render(out.value).WriteCSV(out.path); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			written = append(written, out.path)
		}
	}

	return written, result.ErrorOrNil()
}
