package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sample-app/internal/pipeline"
	"sample-app/internal/storage"
)

type memoryObjects struct {
	objects map[string][]byte
	err     error
}

func (m *memoryObjects) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryObjects) PutObject(_ context.Context, bucket, key string, body []byte, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.objects[bucket+"/"+key] = body
	return "s3://" + bucket + "/" + key, nil
}

func (m *memoryObjects) ListObjects(context.Context, string, string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func TestExporter_Export(t *testing.T) {
	store := &memoryObjects{objects: map[string][]byte{}}
	exporter := NewExporter(store, "bucket", "pipeline-results")

	loc, err := exporter.Export(context.Background(), "products", []pipeline.Record{{"name": "alice", "price": 12.5}})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/pipeline-results/products.json", loc)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(store.objects["bucket/pipeline-results/products.json"], &decoded))
	assert.Equal(t, 12.5, decoded[0]["price"])
}

func TestExporter_GeneratedNameAndEmptyRecords(t *testing.T) {
	store := &memoryObjects{objects: map[string][]byte{}}
	exporter := NewExporter(store, "bucket", "")

	loc, err := exporter.Export(context.Background(), "", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, "s3://bucket/run-"))
	assert.True(t, strings.HasSuffix(loc, ".json"))

	key := strings.TrimPrefix(loc, "s3://bucket/")
	assert.Equal(t, "[]", string(store.objects["bucket/"+key]))
}

func TestExporter_NotConfigured(t *testing.T) {
	var nilExporter *Exporter
	assert.False(t, nilExporter.Enabled())

	_, err := NewExporter(nil, "bucket", "").Export(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrStorageNotConfigured)

	_, err = NewExporter(&memoryObjects{}, "", "").Export(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestExporter_UploadError(t *testing.T) {
	store := &memoryObjects{objects: map[string][]byte{}, err: errors.New("access denied")}
	_, err := NewExporter(store, "bucket", "").Export(context.Background(), "x", nil)
	assert.ErrorContains(t, err, "export records: access denied")
}
