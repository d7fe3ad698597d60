package blob

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/Laisky/errors/v2"
	"google.golang.org/api/option"
)

// GCS stores blobs in a Cloud Storage bucket
type GCS struct {
	cli     *storage.Client
	bucket  *storage.BucketHandle
	baseURL string
}

// NewGCS create gcs store. baseURL defaults to storage.googleapis.com/{bucket}
func NewGCS(ctx context.Context, bucket, baseURL string, opts ...option.ClientOption) (*GCS, error) {
	cli, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "new gcs client")
	}

	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}

	return &GCS{
		cli:     cli,
		bucket:  cli.Bucket(bucket),
		baseURL: baseURL,
	}, nil
}

// Put implements Store
func (g *GCS) Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (string, error) {
	w := g.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrapf(err, "write gcs object %s", objectPath)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrapf(err, "finalize gcs object %s", objectPath)
	}

	return publicURL(g.baseURL, objectPath), nil
}

// Delete implements Store
func (g *GCS) Delete(ctx context.Context, objectPath string) error {
	if err := g.bucket.Object(objectPath).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return errors.Wrap(ErrNotFound, objectPath)
		}
		return errors.Wrapf(err, "delete gcs object %s", objectPath)
	}

	return nil
}

// Close closes the client
func (g *GCS) Close() error {
	return errors.Wrap(g.cli.Close(), "close gcs client")
}
