package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	snapshotDir = "snapshots"
	contentType = "application/json"
)

var errObjectNotFound = errors.New("object not found")

type Config struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type client interface {
	Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket, region string) error
}

// SnapshotStore keeps one JSON object per snapshot under
// <prefix>/snapshots/<id>.json. A PUT replaces the whole object, so readers
// never observe a partially written snapshot.
type SnapshotStore struct {
	client client
	bucket string
	prefix string
}

func New(ctx context.Context, cfg Config) (*SnapshotStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	mc, err := newMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	store := &SnapshotStore{
		client: mc,
		bucket: strings.TrimSpace(cfg.Bucket),
		prefix: cleanPrefix(cfg.Prefix),
	}
	if cfg.AutoCreateBucket {
		if err := store.ensureBucket(ctx, strings.TrimSpace(cfg.Region)); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func NewWithClient(bucket, prefix string, c client) (*SnapshotStore, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &SnapshotStore{client: c, bucket: strings.TrimSpace(bucket), prefix: cleanPrefix(prefix)}, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	key, err := s.objectKey(snap.ID)
	if err != nil {
		return err
	}
	if snap.Columns == nil {
		snap.Columns = []domain.ColumnProfile{}
	}
	doc, err := gojson.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.client.Put(ctx, s.bucket, key, bytes.NewReader(doc), int64(len(doc)), contentType); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	key, err := s.objectKey(id)
	if err != nil {
		return nil, err
	}
	snap, err := s.read(ctx, key)
	if errors.Is(err, errObjectNotFound) {
		return nil, fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// List reads every snapshot object to build the summaries.
func (s *SnapshotStore) List(ctx context.Context) ([]domain.SnapshotSummary, error) {
	keys, err := s.client.List(ctx, s.bucket, s.dir()+"/")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	list := make([]domain.SnapshotSummary, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		snap, err := s.read(ctx, key)
		if errors.Is(err, errObjectNotFound) {
			// Deleted between list and read.
			continue
		}
		if err != nil {
			return nil, err
		}
		list = append(list, snap.Summary())
	}
	domain.SortSummaries(list)
	return list, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	key, err := s.objectKey(id)
	if err != nil {
		return err
	}
	exists, err := s.client.Exists(ctx, s.bucket, key)
	if err != nil {
		return fmt.Errorf("stat object %q: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	if err := s.client.Delete(ctx, s.bucket, key); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (s *SnapshotStore) read(ctx context.Context, key string) (*domain.Snapshot, error) {
	reader, err := s.client.Get(ctx, s.bucket, key)
	if err != nil {
		if errors.Is(err, errObjectNotFound) {
			return nil, errObjectNotFound
		}
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	defer reader.Close()

	var snap domain.Snapshot
	if err := gojson.NewDecoder(reader).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", key, err)
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}

func (s *SnapshotStore) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.CreateBucket(ctx, s.bucket, region); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

func (s *SnapshotStore) dir() string {
	if s.prefix == "" {
		return snapshotDir
	}
	return path.Join(s.prefix, snapshotDir)
}

// objectKey maps a snapshot id to its object key. Ids become a single path
// element, so separators and dot segments are rejected.
func (s *SnapshotStore) objectKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: snapshot id is required", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: invalid snapshot id %q", domain.ErrInvalidInput, id)
	}
	return path.Join(s.dir(), id+".json"), nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.TrimSpace(strings.TrimPrefix(prefix, "/"))
	if prefix == "" {
		return ""
	}
	prefix = path.Clean(prefix)
	if prefix == "." {
		return ""
	}
	return prefix
}

func newMinioClient(cfg Config) (*minioClient, error) {
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	clientImpl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &minioClient{client: clientImpl}, nil
}

func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("endpoint is required")
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return "", false, fmt.Errorf("parse endpoint URL: %w", err)
		}
		if parsed.Host == "" {
			return "", false, fmt.Errorf("endpoint host is required")
		}
		if parsed.Scheme == "https" {
			return parsed.Host, true, nil
		}
		return parsed.Host, useSSL, nil
	}
	return raw, useSSL, nil
}

type minioClient struct {
	client *minio.Client
}

func (m *minioClient) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return mapMinioErr(err)
}

func (m *minioClient) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioErr(err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapMinioErr(err)
	}
	return obj, nil
}

func (m *minioClient) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if err = mapMinioErr(err); errors.Is(err, errObjectNotFound) {
		return false, nil
	}
	return false, err
}

func (m *minioClient) Delete(ctx context.Context, bucket, key string) error {
	return mapMinioErr(m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}))
}

func (m *minioClient) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, mapMinioErr(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (m *minioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, mapMinioErr(err)
	}
	return exists, nil
}

func (m *minioClient) CreateBucket(ctx context.Context, bucket, region string) error {
	return mapMinioErr(m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}))
}

func mapMinioErr(err error) error {
	if err == nil {
		return nil
	}
	var response minio.ErrorResponse
	if errors.As(err, &response) {
		switch response.Code {
		case "NoSuchKey", "NotFound":
			return errObjectNotFound
		}
	}
	return err
}
