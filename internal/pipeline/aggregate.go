package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cast"
)

// UnknownGroup collects records that lack the grouping key.
const UnknownGroup = "unknown"

// Stats describes the numeric values of one field.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ComputeStats summarises field across records. It reports false when no
// record carries a numeric value for field. Stdev is the sample standard
// deviation and is zero for a single value.
func ComputeStats(records []Record, field string) (Stats, bool) {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		v, ok := r[field]
		if !ok {
			continue
		}
		if n, ok := numeric(v); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return Stats{}, false
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	n := len(values)
	mean := sum / float64(n)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	var stdev float64
	if n > 1 {
		var sq float64
		for _, v := range values {
			sq += (v - mean) * (v - mean)
		}
		stdev = math.Sqrt(sq / float64(n-1))
	}

	return Stats{
		Count:  n,
		Mean:   mean,
		Median: median,
		Stdev:  stdev,
		Min:    sorted[0],
		Max:    sorted[n-1],
	}, true
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToFloat64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Groups is the result of GroupBy. Keys come back in order of first
// appearance and each group keeps the input order of its records.
type Groups struct {
	keys   []string
	groups map[string][]Record
}

// GroupBy partitions records by the string form of key. Records without the
// key, or with a nil value, land in UnknownGroup.
func GroupBy(records []Record, key string) Groups {
	g := Groups{groups: make(map[string][]Record)}
	for _, r := range records {
		k := groupKey(r, key)
		if _, seen := g.groups[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.groups[k] = append(g.groups[k], r)
	}
	return g
}

// groupKey renders numbers in their shortest form, so 499.0 and 499 share
// the key "499".
func groupKey(r Record, key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return UnknownGroup
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// Keys returns the group keys in order of first appearance.
func (g Groups) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Get returns the records of one group.
func (g Groups) Get(key string) []Record {
	return g.groups[key]
}

// Len is the number of groups.
func (g Groups) Len() int {
	return len(g.keys)
}

// Map returns the groups as a plain map.
func (g Groups) Map() map[string][]Record {
	out := make(map[string][]Record, len(g.groups))
	for k, v := range g.groups {
		out[k] = v
	}
	return out
}

// Counts maps each group key to its size.
func (g Groups) Counts() map[string]int {
	out := make(map[string]int, len(g.groups))
	for k, v := range g.groups {
		out[k] = len(v)
	}
	return out
}
