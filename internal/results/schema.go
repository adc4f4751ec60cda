package results

import "github.com/samurailab/poolsweep/pkg/jsonschema"

// runRecordSchema describes a persisted RunRecord.
const runRecordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["timestamp", "configuration", "status"],
  "properties": {
    "timestamp": {"type": "string"},
    "configuration": {
      "type": "object",
      "required": ["resourceLimit", "workerThreads", "poolSize"],
      "properties": {
        "resourceLimit": {"type": "number"},
        "workerThreads": {"type": "integer"},
        "poolSize": {"type": "integer"}
      }
    },
    "status": {"enum": ["success", "failed"]},
    "metrics": {
      "type": "object",
      "properties": {
        "avgRps": {"type": "number"},
        "p99LatencyMs": {"type": "number"},
        "p95LatencyMs": {"type": "number"},
        "avgLatencyMs": {"type": "number"},
        "totalRequests": {"type": "integer"}
      }
    },
    "errorDetail": {"type": "string"},
    "sweepId": {"type": "string"},
    "iteration": {"type": "integer"}
  }
}`

var recordSchema = jsonschema.MustCompile("run-record.json", runRecordSchema)
