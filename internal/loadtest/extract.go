package loadtest

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/samurailab/poolsweep/internal/sweep"
	"github.com/samurailab/poolsweep/pkg/jsonpath"
)

// Summary keys as written by `k6 run --summary-export`.
const (
	keyMetrics     = "metrics"
	keyHTTPReqs    = "http_reqs"
	keyReqDuration = "http_req_duration"
	keyRate        = "rate"
	keyCount       = "count"
	keyP99         = "p(99)"
	keyP95         = "p(95)"
	keyAvg         = "avg"
)

// metricPrecision is the number of decimals kept for float metrics.
const metricPrecision = 2

// ExtractMetrics reads the k6 summary at path. A missing, unreadable or
// malformed file yields an empty snapshot and a warning; it never fails the run.
func ExtractMetrics(path string) sweep.MetricsSnapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("load summary not readable")
		return sweep.MetricsSnapshot{}
	}

	snapshot, err := ParseSummary(data)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("load summary malformed")
		return sweep.MetricsSnapshot{}
	}
	return snapshot
}

// ParseSummary normalizes a k6 summary document. The metrics may sit under a
// "metrics" key or directly at the root. Absent keys leave fields nil.
func ParseSummary(data []byte) (sweep.MetricsSnapshot, error) {
	doc, err := jsonpath.Parse(data)
	if err != nil {
		return sweep.MetricsSnapshot{}, err
	}

	metrics := jsonpath.ObjectOr(doc, keyMetrics)

	return sweep.MetricsSnapshot{
		AvgRPS:        rounded(metrics, keyHTTPReqs, keyRate),
		P99LatencyMs:  rounded(metrics, keyReqDuration, keyP99),
		P95LatencyMs:  rounded(metrics, keyReqDuration, keyP95),
		AvgLatencyMs:  rounded(metrics, keyReqDuration, keyAvg),
		TotalRequests: count(metrics, keyHTTPReqs, keyCount),
	}, nil
}

func rounded(doc gjson.Result, keys ...string) *float64 {
	v, ok := jsonpath.Float(doc, keys...)
	if !ok {
		return nil
	}
	return sweep.Float(sweep.RoundTo(v, metricPrecision))
}

func count(doc gjson.Result, keys ...string) *int64 {
	v, ok := jsonpath.Int(doc, keys...)
	if !ok {
		return nil
	}
	return sweep.Int(v)
}
