package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summary = `{
  "metrics": {
    "http_reqs": {"count": 5230, "rate": 123.456},
    "http_req_duration": {"avg": 12.5, "p(95)": 40.1, "p(99)": 87.654},
    "weird.key": {"value": 1}
  },
  "root_only": {"rate": "fast"}
}`

func TestParse(t *testing.T) {
	_, err := Parse(nil)
	assert.Error(t, err)

	_, err = Parse([]byte(`{"a":`))
	assert.Error(t, err)

	doc, err := Parse([]byte(summary))
	require.NoError(t, err)
	assert.True(t, doc.IsObject())
}

func TestPath(t *testing.T) {
	assert.Equal(t, `http_req_duration.p\(99\)`, Path("http_req_duration", "p(99)"))
	assert.Equal(t, `weird\.key.value`, Path("weird.key", "value"))
	assert.Equal(t, "plain", Path("plain"))
}

func TestFloat(t *testing.T) {
	doc, err := Parse([]byte(summary))
	require.NoError(t, err)

	tests := []struct {
		name   string
		keys   []string
		want   float64
		wantOK bool
	}{
		{"rate", []string{"metrics", "http_reqs", "rate"}, 123.456, true},
		{"percentile key", []string{"metrics", "http_req_duration", "p(99)"}, 87.654, true},
		{"dotted key", []string{"metrics", "weird.key", "value"}, 1, true},
		{"missing", []string{"metrics", "http_req_duration", "p(90)"}, 0, false},
		{"not a number", []string{"root_only", "rate"}, 0, false},
		{"object", []string{"metrics"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Float(doc, tt.keys...)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestInt(t *testing.T) {
	doc, err := Parse([]byte(summary))
	require.NoError(t, err)

	n, ok := Int(doc, "metrics", "http_reqs", "count")
	assert.True(t, ok)
	assert.Equal(t, int64(5230), n)

	_, ok = Int(doc, "metrics", "http_reqs", "missing")
	assert.False(t, ok)
}

func TestObjectOr(t *testing.T) {
	doc, err := Parse([]byte(summary))
	require.NoError(t, err)

	nested := ObjectOr(doc, "metrics")
	_, ok := Float(nested, "http_reqs", "rate")
	assert.True(t, ok)

	flat, err := Parse([]byte(`{"http_reqs": {"rate": 1}}`))
	require.NoError(t, err)
	same := ObjectOr(flat, "metrics")
	_, ok = Float(same, "http_reqs", "rate")
	assert.True(t, ok)

	notObject, err := Parse([]byte(`{"metrics": 5, "http_reqs": {"rate": 2}}`))
	require.NoError(t, err)
	v, ok := Float(ObjectOr(notObject, "metrics"), "http_reqs", "rate")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
}
