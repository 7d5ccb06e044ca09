package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"sample-app/internal/helpers"
	"sample-app/internal/validate"
)

var errNotNumeric = errors.New("value is not numeric")

// DropMissing keeps only records where every key is present and holds a
// non-empty value. nil, "" and empty slices or maps count as missing.
func DropMissing(log logrus.FieldLogger, records []Record, keys []string) []Record {
	cleaned := make([]Record, 0, len(records))
	for _, r := range records {
		if hasAll(r, keys) {
			cleaned = append(cleaned, r)
		}
	}
	orDiscard(log).Infof("drop_missing: kept %d/%d records", len(cleaned), len(records))
	return cleaned
}

func hasAll(r Record, keys []string) bool {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || isEmpty(v) {
			return false
		}
	}
	return true
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// NormalizeStrings trims and lower-cases the listed fields in place. Fields
// that are absent or not strings are left alone.
func NormalizeStrings(records []Record, fields []string) []Record {
	for _, r := range records {
		for _, f := range fields {
			if s, ok := r[f].(string); ok {
				r[f] = strings.ToLower(validate.SanitizeString(s, 0))
			}
		}
	}
	return records
}

// CastNumeric converts the listed fields to float64. A record where any field
// is missing or cannot be parsed is dropped with a warning.
func CastNumeric(log logrus.FieldLogger, records []Record, fields []string) []Record {
	log = orDiscard(log)
	result := make([]Record, 0, len(records))

	for _, r := range records {
		parsed := make(map[string]float64, len(fields))
		var castErr error
		for _, f := range fields {
			v, ok := r[f]
			if !ok {
				castErr = fmt.Errorf("field %q is missing", f)
				break
			}
			n, err := toFloat(v)
			if err != nil {
				castErr = fmt.Errorf("field %q: %w", f, err)
				break
			}
			parsed[f] = n
		}
		if castErr != nil {
			log.WithError(castErr).WithField("record", r).Warn("skipping record due to cast failure")
			continue
		}
		for f, n := range parsed {
			r[f] = n
		}
		result = append(result, r)
	}
	return result
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errNotNumeric
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, errNotNumeric
		}
		return n, nil
	}
}

// MergeDefaults deep-merges defaults under every record; record values win.
func MergeDefaults(records []Record, defaults map[string]any) []Record {
	merged := make([]Record, len(records))
	for i, r := range records {
		merged[i] = helpers.DeepMerge(defaults, r)
	}
	return merged
}

// Rename moves the value of from to to in every record that has from.
func Rename(records []Record, from, to string) []Record {
	for _, r := range records {
		if v, ok := r[from]; ok {
			delete(r, from)
			r[to] = v
		}
	}
	return records
}

// SanitizeFields trims string fields and truncates them to maxLength.
func SanitizeFields(records []Record, maxLength int, fields []string) []Record {
	for _, r := range records {
		for _, f := range fields {
			if s, ok := r[f].(string); ok {
				r[f] = validate.SanitizeString(s, maxLength)
			}
		}
	}
	return records
}

// Batches splits records into groups of at most size.
func Batches(records []Record, size int) ([][]Record, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	return helpers.Chunk(records, size), nil
}

func DropMissingStep(log logrus.FieldLogger, keys ...string) Step {
	return NewStep("drop_missing", func(r []Record) []Record { return DropMissing(log, r, keys) })
}

func NormalizeStringsStep(fields ...string) Step {
	return NewStep("normalize_strings", func(r []Record) []Record { return NormalizeStrings(r, fields) })
}

func CastNumericStep(log logrus.FieldLogger, fields ...string) Step {
	return NewStep("cast_numeric", func(r []Record) []Record { return CastNumeric(log, r, fields) })
}

func MergeDefaultsStep(defaults map[string]any) Step {
	return NewStep("merge_defaults", func(r []Record) []Record { return MergeDefaults(r, defaults) })
}

func RenameStep(from, to string) Step {
	return NewStep("rename", func(r []Record) []Record { return Rename(r, from, to) })
}

func SanitizeFieldsStep(maxLength int, fields ...string) Step {
	return NewStep("sanitize", func(r []Record) []Record { return SanitizeFields(r, maxLength, fields) })
}
