package results

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samurailab/poolsweep/internal/sweep"
)

var fixedTime = time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "result"))
	s.now = func() time.Time { return fixedTime }
	return s
}

func successRecord(s *Store) sweep.RunRecord {
	rec := s.NewRecord(sweep.TestConfiguration{ResourceLimit: 4, WorkerThreads: 8, PoolSize: 20}, sweep.StatusSuccess)
	rec.Metrics = &sweep.MetricsSnapshot{
		AvgRPS:        sweep.Float(123.46),
		P99LatencyMs:  sweep.Float(87.65),
		TotalRequests: sweep.Int(1000),
	}
	return rec
}

func TestStore_SaveCreatesDirectoryAndNamesFile(t *testing.T) {
	s := newTestStore(t)

	path, err := s.Save(successRecord(s))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "test_cpu4_wt8_db20_20261019_143005.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2026-10-19T14:30:05Z", raw["timestamp"])
	assert.Equal(t, "success", raw["status"])
	assert.Equal(t, map[string]interface{}{
		"resourceLimit": 4.0,
		"workerThreads": 8.0,
		"poolSize":      20.0,
	}, raw["configuration"])
	assert.Equal(t, map[string]interface{}{
		"avgRps":        123.46,
		"p99LatencyMs":  87.65,
		"totalRequests": 1000.0,
	}, raw["metrics"])
	assert.NotContains(t, raw, "errorDetail")
}

func TestStore_SaveNeverOverwrites(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Save(successRecord(s))
	require.NoError(t, err)
	second, err := s.Save(successRecord(s))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	paths, err := filepath.Glob(filepath.Join(s.Dir(), "test_*.json"))
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestStore_LoadAllRoundTrip(t *testing.T) {
	s := newTestStore(t)

	failed := s.NewRecord(sweep.TestConfiguration{ResourceLimit: 2, WorkerThreads: 3, PoolSize: 9}, sweep.StatusFailed)
	failed.ErrorDetail = "warm-up failed: k6 run k6/prewarm.js: exit code 1"
	failed.SweepID = "sweep-1"
	failed.Iteration = 7

	_, err := s.Save(successRecord(s))
	require.NoError(t, err)
	_, err = s.Save(failed)
	require.NoError(t, err)

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	sort.Slice(records, func(i, j int) bool {
		return records[i].Configuration.ResourceLimit < records[j].Configuration.ResourceLimit
	})

	assert.Equal(t, sweep.StatusFailed, records[0].Status)
	assert.Nil(t, records[0].Metrics)
	assert.Equal(t, failed.ErrorDetail, records[0].ErrorDetail)
	assert.Equal(t, "sweep-1", records[0].SweepID)
	assert.Equal(t, 7, records[0].Iteration)

	assert.True(t, records[1].Succeeded())
	require.NotNil(t, records[1].Metrics)
	assert.Equal(t, 123.46, *records[1].Metrics.AvgRPS)
	assert.Nil(t, records[1].Metrics.P95LatencyMs)
	assert.Equal(t, int64(1000), *records[1].Metrics.TotalRequests)
}

func TestStore_LoadAllSkipsInvalidFiles(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(successRecord(s))
	require.NoError(t, err)

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), name), []byte(content), 0644))
	}
	write("test_broken.json", `{"timestamp": `)
	write("test_wrong_status.json", `{"timestamp": "x", "configuration": {"resourceLimit": 2, "workerThreads": 2, "poolSize": 3}, "status": "maybe"}`)
	write("test_missing_config.json", `{"timestamp": "x", "status": "success"}`)
	write("k6_cpu4_wt8_db20.json", `{"metrics": {}}`)

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_LoadAllMissingDirectory(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoResultsDir))
}

func TestStore_LoadAllEmptyDirectory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0755))

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_TimestampsAreUTCAndNameTheFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "result"))
	zone := time.FixedZone("CEST", 2*60*60)
	calls := 0
	s.now = func() time.Time {
		calls++
		return fixedTime.In(zone).Add(time.Duration(calls) * time.Second)
	}

	rec := s.NewRecord(sweep.TestConfiguration{ResourceLimit: 4, WorkerThreads: 8, PoolSize: 20}, sweep.StatusFailed)
	assert.Equal(t, "2026-10-19T14:30:06Z", rec.Timestamp)

	path, err := s.Save(rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "test_cpu4_wt8_db20_20261019_143006.json"), path)
	assert.Equal(t, 1, calls)
}

func TestStore_SummaryPath(t *testing.T) {
	s := NewStore("result")
	tc := sweep.TestConfiguration{ResourceLimit: 6, WorkerThreads: 9, PoolSize: 14}
	assert.Equal(t, filepath.Join("result", "k6_cpu6_wt9_db14.json"), s.SummaryPath(tc))
}
