package report

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/samurailab/poolsweep/internal/sweep"
)

const (
	// SummaryFile is the flat summary, also the input of the multiplier pass.
	SummaryFile = "summary_all_tests.csv"
	// BestFile lists the best configuration per limit.
	BestFile = "best_configurations.csv"
)

// ErrNoRecords is returned when there is nothing to aggregate.
var ErrNoRecords = errors.New("no run records found")

// RecordLoader supplies every stored run record.
type RecordLoader interface {
	LoadAll() ([]sweep.RunRecord, error)
}

// Aggregator writes the pivot, summary and best configuration reports.
type Aggregator struct {
	loader RecordLoader
	outDir string
}

// NewAggregator creates an aggregator writing into outDir.
func NewAggregator(loader RecordLoader, outDir string) *Aggregator {
	return &Aggregator{loader: loader, outDir: outDir}
}

// PivotPath is the file name of the pivot for limit and metric.
func PivotPath(dir string, limit float64, metric Metric) string {
	return filepath.Join(dir, fmt.Sprintf("cpu_%s_%s.csv", sweep.FormatNumber(limit), metric.Key))
}

// Run loads all records and writes every report. Each report is written
// independently: a failure is collected and the remaining reports are still
// produced. The returned paths are the files actually written.
func (a *Aggregator) Run() ([]string, error) {
	records, err := a.loader.LoadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	SortChronologically(records)
	log.WithField("records", len(records)).Debug("aggregating run records")

	var (
		written []string
		result  *multierror.Error
	)
	write := func(path string, table Table) {
		if err := table.WriteCSV(path); err != nil {
			result = multierror.Append(result, err)
			return
		}
		written = append(written, path)
	}

	for _, limit := range Limits(records) {
		for _, metric := range PivotMetrics {
			write(PivotPath(a.outDir, limit, metric), BuildPivot(records, limit, metric).Table())
		}
	}
	write(filepath.Join(a.outDir, SummaryFile), BuildSummary(records))
	write(filepath.Join(a.outDir, BestFile), BestConfigTable(BuildBestConfig(records)))

	return written, result.ErrorOrNil()
}
