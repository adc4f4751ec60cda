package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samurailab/poolsweep/internal/sweep"
)

var (
	threadMults = []float64{1, 1.5, 2, 2.5, 3}
	poolMults   = []float64{1.5, 2, 2.5, 3}
)

func TestClosestMultiplier(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		nominal []float64
		want    float64
	}{
		{"nearest", 2.3, []float64{1, 1.5, 2, 2.5, 3}, 2},
		{"exact", 2.5, []float64{1, 1.5, 2, 2.5, 3}, 2.5},
		{"midpoint goes to first listed", 2.25, []float64{2, 2.5}, 2},
		{"midpoint order matters", 2.25, []float64{2.5, 2}, 2.5},
		{"below range", 0.2, []float64{1, 2}, 1},
		{"above range", 9, []float64{1, 2}, 2},
		{"single candidate", 42, []float64{3}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClosestMultiplier(tt.value, tt.nominal))
		})
	}
}

func TestParseSummary(t *testing.T) {
	input := "Resource Limit,Worker Threads,Pool Size,Status,Avg RPS,P99 Latency (ms),P95 Latency (ms),Avg Latency (ms),Total Requests\n" +
		"2,2,3,success,100.5,N/A,1,1,10\n" +
		"0.5,1,2,failed,N/A,N/A,N/A,N/A,N/A\n"

	rows, err := ParseSummary(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2.0, rows[0].Limit)
	assert.Equal(t, 2, rows[0].Threads)
	assert.Equal(t, 3, rows[0].Pool)
	require.NotNil(t, rows[0].AvgRPS)
	assert.Equal(t, 100.5, *rows[0].AvgRPS)
	assert.Nil(t, rows[0].P99)

	assert.Equal(t, 0.5, rows[1].Limit)
	assert.Nil(t, rows[1].AvgRPS)
}

func TestParseSummary_ColumnsByName(t *testing.T) {
	input := "P99 Latency (ms),Avg RPS,Pool Size,Worker Threads,Resource Limit\n" +
		"25,250,6,4,2\n"

	rows, err := ParseSummary(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, SummaryRow{Limit: 2, Threads: 4, Pool: 6, AvgRPS: sweep.Float(250), P99: sweep.Float(25)}, rows[0])
}

func TestParseSummary_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "failed to read summary header"},
		{"missing column", "Resource Limit,Worker Threads\n2,2\n", `missing column "Pool Size"`},
		{"bad limit", "Resource Limit,Worker Threads,Pool Size,Avg RPS,P99 Latency (ms)\nfour,2,3,1,1\n", "line 2: invalid Resource Limit"},
		{"bad threads", "Resource Limit,Worker Threads,Pool Size,Avg RPS,P99 Latency (ms)\n2,2,3,1,1\n2,x,3,1,1\n", "line 3: invalid Worker Threads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSummary(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildMultiplierTable(t *testing.T) {
	rows := []SummaryRow{
		{Limit: 4, Threads: 4, Pool: 6, AvgRPS: sweep.Float(100.4), P99: sweep.Float(40.5)},
		{Limit: 4, Threads: 8, Pool: 20, AvgRPS: sweep.Float(123.46), P99: sweep.Float(87.65)},
		{Limit: 4, Threads: 12, Pool: 18, AvgRPS: sweep.Float(99.5), P99: nil},
		{Limit: 2, Threads: 2, Pool: 3, AvgRPS: sweep.Float(1), P99: sweep.Float(1)},
	}

	table := BuildMultiplierTable(rows, 4, threadMults, poolMults)
	assert.Equal(t, 3, table.Len())

	throughput := table.Render(func(r SummaryRow) *float64 { return r.AvgRPS })
	assert.Equal(t, []string{
		`Pool \ Thread multiplier`,
		"Threads 1 X Limit", "Threads 1.5 X Limit", "Threads 2 X Limit", "Threads 2.5 X Limit", "Threads 3 X Limit",
	}, throughput.Header)
	assert.Equal(t, [][]string{
		{"1.5", "100", "N/A", "N/A", "N/A", "100"},
		{"2", "N/A", "N/A", "N/A", "N/A", "N/A"},
		{"2.5", "N/A", "N/A", "123", "N/A", "N/A"},
		{"3", "N/A", "N/A", "N/A", "N/A", "N/A"},
	}, throughput.Rows)

	p99 := table.Render(func(r SummaryRow) *float64 { return r.P99 })
	assert.Equal(t, []string{"1.5", "40", "N/A", "N/A", "N/A", "N/A"}, p99.Rows[0])
	assert.Equal(t, []string{"2.5", "N/A", "N/A", "88", "N/A", "N/A"}, p99.Rows[2])
}

func TestBuildMultiplierTable_LastWriteWinsPerBucket(t *testing.T) {
	rows := []SummaryRow{
		{Limit: 4, Threads: 8, Pool: 20, AvgRPS: sweep.Float(10)},
		{Limit: 4, Threads: 9, Pool: 22, AvgRPS: sweep.Float(20)},
	}

	table := BuildMultiplierTable(rows, 4, threadMults, poolMults)
	assert.Equal(t, 1, table.Len())
	out := table.Render(func(r SummaryRow) *float64 { return r.AvgRPS })
	assert.Equal(t, "20", out.Rows[2][3])
}

func TestBuildMultiplierTable_LaterFailureKeepsEarlierValue(t *testing.T) {
	rows := []SummaryRow{
		{Limit: 4, Threads: 8, Pool: 20, AvgRPS: sweep.Float(100), P99: sweep.Float(30)},
		{Limit: 4, Threads: 8, Pool: 20},
	}

	table := BuildMultiplierTable(rows, 4, threadMults, poolMults)
	assert.Equal(t, 1, table.Len())
	throughput := table.Render(func(r SummaryRow) *float64 { return r.AvgRPS })
	assert.Equal(t, []string{"2.5", "N/A", "N/A", "100", "N/A", "N/A"}, throughput.Rows[2])
	p99 := table.Render(func(r SummaryRow) *float64 { return r.P99 })
	assert.Equal(t, "30", p99.Rows[2][3])
}

func TestBuildMultiplierTable_MatchesPivotAfterFailedRerun(t *testing.T) {
	records := []sweep.RunRecord{
		record("2026-10-19T10:00:00Z", 4, 8, 20, sweep.Float(100), sweep.Float(30)),
		failedRecord("2026-10-19T11:00:00Z", 4, 8, 20),
	}

	pivot := BuildPivot(records, 4, AvgRPS).Table()
	assert.Equal(t, []string{"8", "100"}, pivot.Rows[0])

	var buf strings.Builder
	summary := BuildSummary(records)
	require.NoError(t, csv.NewWriter(&buf).WriteAll(append([][]string{summary.Header}, summary.Rows...)))
	rows, err := ParseSummary(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	table := BuildMultiplierTable(rows, 4, threadMults, poolMults)
	throughput := table.Render(func(r SummaryRow) *float64 { return r.AvgRPS })
	assert.Equal(t, "100", throughput.Rows[2][3])
}

func TestBuildMultiplierTable_SkipsZeroThreads(t *testing.T) {
	rows := []SummaryRow{{Limit: 4, Threads: 0, Pool: 0, AvgRPS: sweep.Float(1)}}
	assert.Equal(t, 0, BuildMultiplierTable(rows, 4, threadMults, poolMults).Len())
}

func TestSummarizer_Run(t *testing.T) {
	dir := t.TempDir()
	summary := "Resource Limit,Worker Threads,Pool Size,Status,Avg RPS,P99 Latency (ms),P95 Latency (ms),Avg Latency (ms),Total Requests\n" +
		"2,2,3,success,50.5,12.5,1,1,10\n" +
		"4,8,20,success,123.46,87.65,70.13,31.2,7421\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, SummaryFile), []byte(summary), 0644))

	written, err := NewSummarizer(dir, []float64{2, 4, 8}, threadMults, poolMults).Run()
	require.NoError(t, err)

	throughput2, p99Path2 := MultiplierPaths(dir, 2)
	throughput4, p99Path4 := MultiplierPaths(dir, 4)
	assert.Equal(t, []string{throughput2, p99Path2, throughput4, p99Path4}, written)
	assert.Equal(t, filepath.Join(dir, "cpu_4_multiplier_throughput.csv"), throughput4)

	throughput8, _ := MultiplierPaths(dir, 8)
	assert.NoFileExists(t, throughput8)

	data, err := os.ReadFile(p99Path2)
	require.NoError(t, err)
	assert.Equal(t, "Pool \\ Thread multiplier,Threads 1 X Limit,Threads 1.5 X Limit,Threads 2 X Limit,Threads 2.5 X Limit,Threads 3 X Limit\n"+
		"1.5,12,N/A,N/A,N/A,N/A\n"+
		"2,N/A,N/A,N/A,N/A,N/A\n"+
		"2.5,N/A,N/A,N/A,N/A,N/A\n"+
		"3,N/A,N/A,N/A,N/A,N/A\n", string(data))

	data, err = os.ReadFile(throughput2)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.5,50,N/A")
}

func TestSummarizer_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewSummarizer(dir, []float64{2}, threadMults, poolMults).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open summary")

	require.NoError(t, os.WriteFile(filepath.Join(dir, SummaryFile), []byte("Resource Limit\nx\n"), 0644))
	_, err = NewSummarizer(dir, []float64{2}, threadMults, poolMults).Run()
	assert.Error(t, err)

	_, err = NewSummarizer(dir, []float64{2}, nil, poolMults).Run()
	assert.Error(t, err)
}

func TestSummarizer_ReadsAggregatorOutput(t *testing.T) {
	dir := t.TempDir()
	loader := staticLoader{records: []sweep.RunRecord{
		record("t1", 4, 8, 20, sweep.Float(123.46), sweep.Float(87.65)),
		failedRecord("t2", 4, 4, 6),
	}}

	_, err := NewAggregator(loader, dir).Run()
	require.NoError(t, err)

	written, err := NewSummarizer(dir, []float64{4}, threadMults, poolMults).Run()
	require.NoError(t, err)
	require.Len(t, written, 2)

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "2.5,N/A,N/A,123,N/A,N/A")
}

func TestSummarizer_Idempotent(t *testing.T) {
	dir := t.TempDir()
	summary := "Resource Limit,Worker Threads,Pool Size,Status,Avg RPS,P99 Latency (ms),P95 Latency (ms),Avg Latency (ms),Total Requests\n" +
		"2,2,3,success,50.5,12.5,1,1,10\n" +
		"4,8,20,success,123.46,87.65,70.13,31.2,7421\n" +
		"4,8,20,failed,N/A,N/A,N/A,N/A,N/A\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, SummaryFile), []byte(summary), 0644))

	readAll := func(paths []string) map[string]string {
		contents := make(map[string]string, len(paths))
		for _, p := range paths {
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			contents[p] = string(data)
		}
		return contents
	}

	first, err := NewSummarizer(dir, []float64{2, 4}, threadMults, poolMults).Run()
	require.NoError(t, err)
	require.Len(t, first, 4)
	before := readAll(first)

	second, err := NewSummarizer(dir, []float64{2, 4}, threadMults, poolMults).Run()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, before, readAll(second))
}
