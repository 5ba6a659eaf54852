package recording

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	metaEncounterID = "Encounter-Id"
	metaFileName    = "File-Name"
	metaHash        = "Sha256"
	metaCreatedAt   = "Created-At"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioArchive stores recordings in an S3-compatible bucket.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

func NewMinioArchive(cfg MinioConfig) (*MinioArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioArchive{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *MinioArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}

func (a *MinioArchive) Store(ctx context.Context, meta Metadata, content []byte) (*Metadata, error) {
	meta, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}
	_, err = a.client.PutObject(ctx, a.bucket, meta.Key, bytes.NewReader(content), meta.Size, minio.PutObjectOptions{
		ContentType: meta.ContentType,
		UserMetadata: map[string]string{
			metaEncounterID: meta.EncounterID,
			metaFileName:    meta.FileName,
			metaHash:        meta.Hash,
			metaCreatedAt:   meta.CreatedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s/%s: %w", a.bucket, meta.Key, err)
	}
	return &meta, nil
}

func (a *MinioArchive) Get(ctx context.Context, key string) ([]byte, *Metadata, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object %s/%s: %w", a.bucket, key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil, ErrRecordingNotFound
		}
		return nil, nil, fmt.Errorf("stat object %s/%s: %w", a.bucket, key, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("read object %s/%s: %w", a.bucket, key, err)
	}

	meta := &Metadata{
		Key:         key,
		EncounterID: info.UserMetadata[metaEncounterID],
		FileName:    info.UserMetadata[metaFileName],
		ContentType: info.ContentType,
		Size:        info.Size,
		Hash:        info.UserMetadata[metaHash],
	}
	if at, err := time.Parse(time.RFC3339, info.UserMetadata[metaCreatedAt]); err == nil {
		meta.CreatedAt = at
	}
	if meta.Size == 0 {
		meta.Size = int64(len(data))
	}
	return data, meta, nil
}

// String is used in startup logs.
func (a *MinioArchive) String() string {
	return "minio://" + a.client.EndpointURL().Host + "/" + a.bucket + " secure=" + strconv.FormatBool(a.client.EndpointURL().Scheme == "https")
}
