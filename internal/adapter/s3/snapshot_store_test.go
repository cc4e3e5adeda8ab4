package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/adapter/snapshottest"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu                 sync.Mutex
	objects            map[string][]byte
	lastPutBucket      string
	lastPutKey         string
	lastContentType    string
	bucketExists       bool
	createBucketCalled bool
	getErr             error
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string][]byte)}
}

func (f *fakeClient) Put(_ context.Context, bucket, key string, reader io.Reader, _ int64, contentType string) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPutBucket = bucket
	f.lastPutKey = key
	f.lastContentType = contentType
	f.objects[key] = body
	return nil
}

func (f *fakeClient) Get(_ context.Context, _, key string) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	if !ok {
		return nil, errObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (f *fakeClient) Exists(_ context.Context, _, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeClient) Delete(_ context.Context, _, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeClient) List(_ context.Context, _, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeClient) CreateBucket(context.Context, string, string) error {
	f.createBucketCalled = true
	return nil
}

func TestSnapshotStore_Contract(t *testing.T) {
	snapshottest.Run(t, func(t *testing.T) port.SnapshotRepository {
		store, err := NewWithClient("profiles", "lakeprobe/dev", newFakeClient())
		require.NoError(t, err)
		return store
	})
}

func TestSnapshotStore_ObjectLayout(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("profiles", "/lakeprobe/dev/", fake)
	require.NoError(t, err)

	snap := snapshottest.Sample("abc", "baseline", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(context.Background(), snap))

	assert.Equal(t, "profiles", fake.lastPutBucket)
	assert.Equal(t, "lakeprobe/dev/snapshots/abc.json", fake.lastPutKey)
	assert.Equal(t, "application/json", fake.lastContentType)
	assert.Contains(t, string(fake.objects["lakeprobe/dev/snapshots/abc.json"]), `"column_name":"amount"`)
}

func TestSnapshotStore_NoPrefix(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("profiles", "", fake)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), domain.Snapshot{ID: "x", Name: "n"}))
	assert.Equal(t, "snapshots/x.json", fake.lastPutKey)
	assert.Contains(t, string(fake.objects["snapshots/x.json"]), `"columns":[]`)
}

func TestSnapshotStore_RejectsUnsafeIDs(t *testing.T) {
	store, err := NewWithClient("profiles", "", newFakeClient())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "  ", "../secret", "a/b", `a\b`, ".."} {
		err := store.Save(ctx, domain.Snapshot{ID: id})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "id %q", id)
	}
	_, err = store.Get(ctx, "../x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSnapshotStore_ListSkipsForeignObjects(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("profiles", "", fake)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, snapshottest.Sample("a", "x", time.Now())))
	fake.objects["snapshots/README.txt"] = []byte("not a snapshot")

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
}

func TestSnapshotStore_CorruptObject(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("profiles", "", fake)
	require.NoError(t, err)
	fake.objects["snapshots/bad.json"] = []byte("{")

	_, err = store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStore_GetBackendError(t *testing.T) {
	fake := newFakeClient()
	fake.getErr = errors.New("connection reset")
	store, err := NewWithClient("profiles", "", fake)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("profiles", "", fake)
	require.NoError(t, err)

	require.NoError(t, store.ensureBucket(context.Background(), "eu-west-1"))
	assert.True(t, fake.createBucketCalled)

	fake.createBucketCalled = false
	fake.bucketExists = true
	require.NoError(t, store.ensureBucket(context.Background(), "eu-west-1"))
	assert.False(t, fake.createBucketCalled)
}

func TestNewWithClientValidation(t *testing.T) {
	_, err := NewWithClient("profiles", "", nil)
	assert.Error(t, err)
	_, err = NewWithClient(" ", "", newFakeClient())
	assert.Error(t, err)
}

func TestNewRequiresEndpointAndBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Bucket: "b"})
	assert.ErrorContains(t, err, "endpoint")
	_, err = New(context.Background(), Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket")
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{raw: "https://minio.example.com", wantHost: "minio.example.com", wantSecure: true},
		{raw: "http://localhost:9000", useSSL: true, wantHost: "localhost:9000", wantSecure: true},
		{raw: "http://localhost:9000", wantHost: "localhost:9000"},
		{raw: "s3.amazonaws.com", useSSL: true, wantHost: "s3.amazonaws.com", wantSecure: true},
		{raw: "https://", wantErr: true},
		{raw: " ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, secure, err := parseEndpoint(tt.raw, tt.useSSL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}
