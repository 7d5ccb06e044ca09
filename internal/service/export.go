package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sample-app/internal/helpers"
	"sample-app/internal/pipeline"
	"sample-app/internal/storage"
)

// ErrStorageNotConfigured is returned by Exporter when no bucket is set.
var ErrStorageNotConfigured = errors.New("storage service not configured")

// Exporter uploads pipeline results as JSON documents under a key prefix.
type Exporter struct {
	store  storage.Service
	bucket string
	prefix string
}

func NewExporter(store storage.Service, bucket, prefix string) *Exporter {
	return &Exporter{store: store, bucket: bucket, prefix: prefix}
}

// Enabled reports whether exports have somewhere to go.
func (e *Exporter) Enabled() bool {
	return e != nil && e.store != nil && e.bucket != ""
}

// Export writes records to <prefix>/<name>.json and returns the object
// location. An empty name gets a generated one.
func (e *Exporter) Export(ctx context.Context, name string, records []pipeline.Record) (string, error) {
	if !e.Enabled() {
		return "", ErrStorageNotConfigured
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = helpers.GenerateID("run-")
	}
	if records == nil {
		records = []pipeline.Record{}
	}

	body, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	location, err := e.store.PutObject(ctx, e.bucket, storage.JoinKey(e.prefix, name+".json"), body, "application/json")
	if err != nil {
		return "", fmt.Errorf("export records: %w", err)
	}
	return location, nil
}
