// Package jsonpath looks up values in JSON documents by key path. Keys are
// escaped before they reach gjson, so names like "p(99)" or "a.b" are matched
// literally instead of being read as path syntax.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Parse validates and parses a JSON document.
func Parse(data []byte) (gjson.Result, error) {
	if len(data) == 0 {
		return gjson.Result{}, fmt.Errorf("empty JSON document")
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid JSON document")
	}
	return gjson.ParseBytes(data), nil
}

// Path joins keys into a gjson path, escaping each key.
func Path(keys ...string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = escapeKey(k)
	}
	return strings.Join(escaped, ".")
}

// Lookup returns the value under keys. The result does not exist when any key
// is missing.
func Lookup(doc gjson.Result, keys ...string) gjson.Result {
	if len(keys) == 0 {
		return doc
	}
	return doc.Get(Path(keys...))
}

// ObjectOr returns the object under keys, or doc itself when that key is
// missing or not an object.
func ObjectOr(doc gjson.Result, keys ...string) gjson.Result {
	if v := Lookup(doc, keys...); v.IsObject() {
		return v
	}
	return doc
}

// Float returns the number under keys. ok is false when the value is missing
// or is not a JSON number.
func Float(doc gjson.Result, keys ...string) (value float64, ok bool) {
	v := Lookup(doc, keys...)
	if v.Type != gjson.Number {
		return 0, false
	}
	return v.Float(), true
}

// Int returns the number under keys truncated to an integer.
func Int(doc gjson.Result, keys ...string) (value int64, ok bool) {
	v := Lookup(doc, keys...)
	if v.Type != gjson.Number {
		return 0, false
	}
	return v.Int(), true
}

// escapeKey backslash-escapes every byte that gjson could treat as syntax.
func escapeKey(key string) string {
	var sb strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !isPlain(c) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isPlain(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c >= 0x80
}
