package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig connection settings of a minio or s3 compatible endpoint
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// BaseURL overrides the public URL prefix
	BaseURL string
}

// Minio stores blobs in a minio bucket
type Minio struct {
	cli     *minio.Client
	bucket  string
	baseURL string
}

// NewMinio create minio store, the bucket is created when missing
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err = cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "make bucket %s", cfg.Bucket)
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/%s", cli.EndpointURL().String(), cfg.Bucket)
	}

	return &Minio{
		cli:     cli,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

// Put implements Store
func (m *Minio) Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (string, error) {
	if _, err := m.cli.PutObject(ctx, m.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", errors.Wrapf(err, "put minio object %s", objectPath)
	}

	return publicURL(m.baseURL, objectPath), nil
}

// Delete implements Store
func (m *Minio) Delete(ctx context.Context, objectPath string) error {
	if err := m.cli.RemoveObject(ctx, m.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove minio object %s", objectPath)
	}

	return nil
}
