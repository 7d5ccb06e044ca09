package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects     map[string][]byte
	contentType map[string]string
	pages       [][]types.Object
	listCalls   int
	getErr      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.contentType[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := f.listCalls
	f.listCalls++
	out := &s3.ListObjectsV2Output{Contents: f.pages[page]}
	if page < len(f.pages)-1 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3Service_GetObject(t *testing.T) {
	fake := newFakeS3()
	fake.objects["data/products.csv"] = []byte("name,price\n")
	svc := newS3Service(fake)

	data, err := svc.GetObject(context.Background(), "bucket", "data/products.csv")
	require.NoError(t, err)
	assert.Equal(t, "name,price\n", string(data))

	_, err = svc.GetObject(context.Background(), "bucket", "data/missing.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = svc.GetObject(context.Background(), "", "x")
	assert.Error(t, err)
}

func TestS3Service_GetObjectWrapsOtherErrors(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("boom")
	svc := newS3Service(fake)

	_, err := svc.GetObject(context.Background(), "bucket", "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "boom")
}

func TestS3Service_PutObject(t *testing.T) {
	fake := newFakeS3()
	svc := newS3Service(fake)

	loc, err := svc.PutObject(context.Background(), "bucket", "results/run.json", []byte(`[]`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/results/run.json", loc)
	assert.Equal(t, `[]`, string(fake.objects["results/run.json"]))
	assert.Equal(t, "application/json", fake.contentType["results/run.json"])

	_, err = svc.PutObject(context.Background(), "bucket", " ", nil, "")
	assert.Error(t, err)
}

func TestS3Service_ListObjectsFollowsPages(t *testing.T) {
	fake := newFakeS3()
	fake.pages = [][]types.Object{
		{{Key: aws.String("a.csv"), Size: aws.Int64(10)}},
		{{Key: aws.String("b.csv"), Size: aws.Int64(20)}},
	}
	svc := newS3Service(fake)

	objects, err := svc.ListObjects(context.Background(), "bucket", "")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a.csv", objects[0].Key)
	assert.Equal(t, int64(20), objects[1].Size)
	assert.Equal(t, 2, fake.listCalls)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "a/b.csv", JoinKey("a/", "/b.csv"))
	assert.Equal(t, "b.csv", JoinKey("", "b.csv"))
	assert.Equal(t, "a", JoinKey("/a/", ""))
}
