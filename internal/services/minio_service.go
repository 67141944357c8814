package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"haventory/internal/config"
	"haventory/internal/models"
	"haventory/internal/repositories"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioService stores snapshot documents in an object storage bucket.
type MinioService interface {
	EnsureBucket(ctx context.Context) error
	UploadSnapshot(ctx context.Context, doc *models.Document) (string, error)
	LatestSnapshot(ctx context.Context) (*models.SnapshotObject, error)
	DownloadSnapshot(ctx context.Context, key string) (*models.Document, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type minioClient struct {
	client *minio.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewMinioService builds the client without contacting the server. region may be empty; setting it
// skips the bucket location lookup.
func NewMinioService(cfg config.MinioConfig, prefix, region string) (MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &minioClient{client: client, bucket: cfg.Bucket, prefix: prefix, now: time.Now}, nil
}

// snapshotObjectKey sorts lexically in time order.
func snapshotObjectKey(prefix string, at time.Time) string {
	return prefix + "haventory-" + at.UTC().Format("20060102T150405.000000000Z") + ".json"
}

func (m *minioClient) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return models.NewStorageError("bucket exists", err)
	}
	if !found {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return models.NewStorageError("make bucket", err)
		}
	}
	return nil
}

func (m *minioClient) UploadSnapshot(ctx context.Context, doc *models.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := snapshotObjectKey(m.prefix, m.now())
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", models.NewStorageError("upload snapshot", err)
	}
	return key, nil
}

// LatestSnapshot returns the newest backup under the prefix, or nil when there is none.
func (m *minioClient) LatestSnapshot(ctx context.Context) (*models.SnapshotObject, error) {
	var objects []minio.ObjectInfo
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: m.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, models.NewStorageError("list snapshots", obj.Err)
		}
		objects = append(objects, obj)
	}
	latest, ok := latestSnapshotObject(objects)
	if !ok {
		return nil, nil
	}
	return &models.SnapshotObject{Key: latest.Key, Size: latest.Size, LastModified: latest.LastModified}, nil
}

func latestSnapshotObject(objects []minio.ObjectInfo) (minio.ObjectInfo, bool) {
	var latest minio.ObjectInfo
	found := false
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		if !found || obj.Key > latest.Key {
			latest = obj
			found = true
		}
	}
	return latest, found
}

func (m *minioClient) DownloadSnapshot(ctx context.Context, key string) (*models.Document, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, models.NewStorageError("get snapshot", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, models.NewStorageError("read snapshot", err)
	}
	doc, err := repositories.DecodeDocument(data, nil)
	if err != nil {
		return nil, models.NewStorageError("decode snapshot", err)
	}
	return doc, nil
}

func (m *minioClient) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", models.NewStorageError("presign snapshot", err)
	}
	return url.String(), nil
}
