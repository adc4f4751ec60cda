// Package results persists one JSON record per sweep iteration and reloads
// the accumulated set for reporting.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/samurailab/poolsweep/internal/sweep"
	"github.com/samurailab/poolsweep/pkg/jsonschema"
)

const (
	recordPrefix = "test_"
	recordGlob   = recordPrefix + "*.json"

	// fileTimeLayout is the timestamp embedded in record file names.
	fileTimeLayout = "20060102_150405"
)

// ErrNoResultsDir is returned by LoadAll when the results directory is missing.
var ErrNoResultsDir = errors.New("results directory does not exist")

// Store reads and writes run records under one directory. It does no locking:
// the sweep writes sequentially and reports read after the sweep finished.
type Store struct {
	dir    string
	now    func() time.Time
	schema *jsonschema.Schema
}

// NewStore creates a store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		now:    time.Now,
		schema: recordSchema,
	}
}

// Dir returns the results directory.
func (s *Store) Dir() string {
	return s.dir
}

// SummaryPath is where the load tool exports its summary for tc.
func (s *Store) SummaryPath(tc sweep.TestConfiguration) string {
	return filepath.Join(s.dir, fmt.Sprintf("k6_%s.json", tc.Slug()))
}

// NewRecord stamps a record with the store clock, in UTC.
func (s *Store) NewRecord(tc sweep.TestConfiguration, status sweep.Status) sweep.RunRecord {
	return sweep.RunRecord{
		Timestamp:     s.now().UTC().Format(time.RFC3339),
		Configuration: tc,
		Status:        status,
	}
}

// Save writes rec to a new file named after its configuration and its
// timestamp, and returns the path. A record without a parseable timestamp is
// named after the current time. Existing files are never overwritten: when the
// name is taken a random suffix is added.
func (s *Store) Save(rec sweep.RunRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run record: %w", err)
	}

	stamp, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		stamp = s.now()
	}
	base := fmt.Sprintf("%s%s_%s", recordPrefix, rec.Configuration.Slug(), stamp.UTC().Format(fileTimeLayout))
	path := filepath.Join(s.dir, base+".json")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", base, uuid.NewString()[:8]))
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create run record: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write run record: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write run record: %w", err)
	}
	return path, nil
}

// LoadAll returns every record in the directory in no particular order.
// Files that cannot be parsed or do not match the record schema are skipped
// with a warning.
func (s *Store) LoadAll() ([]sweep.RunRecord, error) {
	info, err := os.Stat(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoResultsDir, s.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access results directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("results path is not a directory: %s", s.dir)
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, recordGlob))
	if err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}

	records := make([]sweep.RunRecord, 0, len(paths))
	for _, path := range paths {
		rec, err := s.load(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("skipping run record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) load(path string) (sweep.RunRecord, error) {
	var rec sweep.RunRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := s.schema.ValidateBytes(data); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
