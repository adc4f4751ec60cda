// Package sweep holds the benchmark data model and the configuration space
// enumeration shared by the runner and the reporting passes.
package sweep

import (
	"fmt"
	"strconv"
)

// Status is the outcome of one sweep iteration.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// TestConfiguration is one concrete point in the sweep.
type TestConfiguration struct {
	ResourceLimit float64 `json:"resourceLimit"`
	WorkerThreads int     `json:"workerThreads"`
	PoolSize      int     `json:"poolSize"`

	// Nominal multipliers this configuration was derived from. They are not
	// persisted; the reporting pass re-derives them from the stored values.
	ThreadMultiplier float64 `json:"-"`
	PoolMultiplier   float64 `json:"-"`
}

// LimitString formats the resource limit without trailing zeros ("4", "0.5").
func (c TestConfiguration) LimitString() string {
	return FormatNumber(c.ResourceLimit)
}

// InstanceName is the human readable name handed to the service, encoding all
// three sweep dimensions.
func (c TestConfiguration) InstanceName() string {
	return fmt.Sprintf("cpu_%s__web_%d__db_%d", c.LimitString(), c.WorkerThreads, c.PoolSize)
}

// Slug is used in artifact file names.
func (c TestConfiguration) Slug() string {
	return fmt.Sprintf("cpu%s_wt%d_db%d", c.LimitString(), c.WorkerThreads, c.PoolSize)
}

func (c TestConfiguration) String() string {
	return fmt.Sprintf("limit=%s threads=%d pool=%d", c.LimitString(), c.WorkerThreads, c.PoolSize)
}

// MetricsSnapshot is the normalized view of a load tool summary. Every field is
// optional; nil means the summary did not carry the value.
type MetricsSnapshot struct {
	AvgRPS        *float64 `json:"avgRps,omitempty"`
	P99LatencyMs  *float64 `json:"p99LatencyMs,omitempty"`
	P95LatencyMs  *float64 `json:"p95LatencyMs,omitempty"`
	AvgLatencyMs  *float64 `json:"avgLatencyMs,omitempty"`
	TotalRequests *int64   `json:"totalRequests,omitempty"`
}

// IsEmpty reports whether no metric is present.
func (m MetricsSnapshot) IsEmpty() bool {
	return m.AvgRPS == nil && m.P99LatencyMs == nil && m.P95LatencyMs == nil &&
		m.AvgLatencyMs == nil && m.TotalRequests == nil
}

// RunRecord is the durable result of one iteration. Records are written once
// and never updated.
type RunRecord struct {
	Timestamp     string            `json:"timestamp"`
	Configuration TestConfiguration `json:"configuration"`
	Status        Status            `json:"status"`
	Metrics       *MetricsSnapshot  `json:"metrics,omitempty"`
	ErrorDetail   string            `json:"errorDetail,omitempty"`
	SweepID       string            `json:"sweepId,omitempty"`
	Iteration     int               `json:"iteration,omitempty"`
}

// Succeeded reports whether the record holds a successful run.
func (r RunRecord) Succeeded() bool {
	return r.Status == StatusSuccess
}

// FormatNumber renders a float in its shortest exact form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
