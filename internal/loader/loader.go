// Package loader reads raw datasets (CSV, JSON, plain text) for the
// pipeline. Loaders never fail: a missing or malformed input is logged and
// yields an empty result.
package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"sample-app/internal/helpers"
	"sample-app/internal/pipeline"
)

// DefaultBatchSize is used by LoadInBatches for a non-positive size.
const DefaultBatchSize = 100

type Loader struct {
	src Source
	log logrus.FieldLogger
}

func New(src Source, log logrus.FieldLogger) *Loader {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Loader{src: src, log: log}
}

// LoadCSV parses a CSV file with a header row into records whose values are
// strings. A row shorter than the header gets nil for the missing columns.
func (l *Loader) LoadCSV(ctx context.Context, name string, delimiter rune) []pipeline.Record {
	if delimiter == 0 {
		delimiter = ','
	}
	where := l.src.Describe(name)

	rc, err := l.src.Open(ctx, name)
	if err != nil {
		l.logOpenError(where, err)
		return []pipeline.Record{}
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			l.log.WithError(err).Errorf("Failed to read CSV header %s", where)
		}
		return []pipeline.Record{}
	}

	var rows []pipeline.Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			l.log.WithError(err).Errorf("Failed to parse CSV %s", where)
			return []pipeline.Record{}
		}
		row := make(pipeline.Record, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}

	l.log.Infof("Loaded %d rows from %s", len(rows), where)
	if rows == nil {
		return []pipeline.Record{}
	}
	return rows
}

// LoadJSON decodes a JSON document. It returns nil when the input is
// missing or not valid JSON.
func (l *Loader) LoadJSON(ctx context.Context, name string) any {
	where := l.src.Describe(name)

	rc, err := l.src.Open(ctx, name)
	if err != nil {
		l.logOpenError(where, err)
		return nil
	}
	defer rc.Close()

	var data any
	if err := json.NewDecoder(rc).Decode(&data); err != nil {
		l.log.WithError(err).Errorf("Failed to load JSON %s", where)
		return nil
	}
	l.log.Infof("Loaded JSON from %s", where)
	return data
}

// LoadJSONRecords decodes a JSON array of objects into records. Elements
// that are not objects are skipped.
func (l *Loader) LoadJSONRecords(ctx context.Context, name string) []pipeline.Record {
	items, ok := l.LoadJSON(ctx, name).([]any)
	if !ok {
		return []pipeline.Record{}
	}
	records := make([]pipeline.Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, obj)
		}
	}
	return records
}

// LoadTextLines returns the trimmed, non-empty lines of a text file.
func (l *Loader) LoadTextLines(ctx context.Context, name string) []string {
	where := l.src.Describe(name)

	rc, err := l.src.Open(ctx, name)
	if err != nil {
		l.logOpenError(where, err)
		return []string{}
	}
	defer rc.Close()

	lines := []string{}
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		l.log.WithError(err).Errorf("Failed to read %s", where)
		return []string{}
	}

	l.log.Infof("Loaded %d lines from %s", len(lines), where)
	return lines
}

// LoadInBatches loads a CSV file and splits it into batches of size rows.
func (l *Loader) LoadInBatches(ctx context.Context, name string, size int) [][]pipeline.Record {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return helpers.Chunk(l.LoadCSV(ctx, name, ','), size)
}

func (l *Loader) logOpenError(where string, err error) {
	if errors.Is(err, ErrNotFound) {
		l.log.Errorf("File not found: %s", where)
		return
	}
	l.log.WithError(err).Errorf("Failed to open %s", where)
}
