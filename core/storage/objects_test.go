package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"netsync/core/storage"
	"netsync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var _ storage.Client = (*mocks.Client)(nil)

// TestEnsureBucket tests that a missing bucket is created once.
func TestEnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "netsync").Return(true, nil)
		require.NoError(t, storage.EnsureBucket(context.Background(), m, "netsync"))
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "netsync").Return(false, nil)
		m.On("MakeBucket", mock.Anything, "netsync", mock.Anything).Return(nil)
		require.NoError(t, storage.EnsureBucket(context.Background(), m, "netsync"))
		m.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "netsync").Return(false, errors.New("denied"))
		assert.ErrorContains(t, storage.EnsureBucket(context.Background(), m, "netsync"), "denied")
	})
}

// TestGetJSON tests decoding and the not-found mapping.
func TestGetJSON(t *testing.T) {
	m := new(mocks.Client)
	m.On("GetObject", mock.Anything, "netsync", "snapshots/sw1.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(`{"device":"sw1"}`))), nil)
	m.On("GetObject", mock.Anything, "netsync", "snapshots/none.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey", Message: "missing"})

	var got struct {
		Device string `json:"device"`
	}
	require.NoError(t, storage.GetJSON(context.Background(), m, "netsync", "snapshots/sw1.json", &got))
	assert.Equal(t, "sw1", got.Device)

	err := storage.GetJSON(context.Background(), m, "netsync", "snapshots/none.json", &got)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

// TestPutJSON tests that the payload is uploaded as JSON.
func TestPutJSON(t *testing.T) {
	m := new(mocks.Client)
	m.On("PutObject", mock.Anything, "netsync", "reports/sw1/r1.json", mock.Anything, mock.Anything,
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "application/json" })).
		Return(minio.UploadInfo{}, nil)

	require.NoError(t, storage.PutJSON(context.Background(), m, "netsync", "reports/sw1/r1.json", map[string]int{"created": 1}))
	m.AssertExpectations(t)
}

// TestListKeys tests listing and error propagation.
func TestListKeys(t *testing.T) {
	m := new(mocks.Client)
	m.On("ListObjects", mock.Anything, "netsync", mock.Anything).
		Return(func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
			ch := make(chan minio.ObjectInfo, 2)
			ch <- minio.ObjectInfo{Key: opts.Prefix + "a.json"}
			ch <- minio.ObjectInfo{Key: opts.Prefix + "b.json"}
			close(ch)
			return ch
		}).Once()
	m.On("ListObjects", mock.Anything, "netsync", mock.Anything).
		Return(func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
			ch := make(chan minio.ObjectInfo, 1)
			ch <- minio.ObjectInfo{Err: errors.New("boom")}
			close(ch)
			return ch
		}).Once()

	keys, err := storage.ListKeys(context.Background(), m, "netsync", "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/a.json", "snapshots/b.json"}, keys)

	_, err = storage.ListKeys(context.Background(), m, "netsync", "snapshots/")
	assert.ErrorContains(t, err, "boom")
}
