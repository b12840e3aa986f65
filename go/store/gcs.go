package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GCS is a Store backed by a single Google Cloud Storage bucket.
type GCS struct {
	bucket string
	client *storage.Client
}

// NewGCS dials Google Cloud Storage and returns a Store over |bucket|.
// The bucket is created if it does not yet exist.
func NewGCS(ctx context.Context, project, bucket string, opts ...option.ClientOption) (*GCS, error) {
	// Building the client will fail if application default credentials aren't located.
	// https://developers.google.com/accounts/docs/application-default-credentials
	var client, err = storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building google storage client: %w", err)
	}

	var gcs = &GCS{bucket: bucket, client: client}
	if err = gcs.ensureBucket(ctx, project); err != nil {
		return nil, fmt.Errorf("ensuring bucket %q: %w", bucket, err)
	}
	return gcs, nil
}

func (g *GCS) ensureBucket(ctx context.Context, project string) error {
	var _, err = g.client.Bucket(g.bucket).Attrs(ctx)
	if errors.Is(err, storage.ErrBucketNotExist) {
		log.WithField("bucket", g.bucket).Info("bucket does not exist; creating")
		return g.client.Bucket(g.bucket).Create(ctx, project, &storage.BucketAttrs{
			Location: "US",
		})
	}
	return err
}

func (g *GCS) Get(ctx context.Context, path string) ([]byte, error) {
	var r, err = g.client.Bucket(g.bucket).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotExist
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (g *GCS) Put(ctx context.Context, path string, data []byte) error {
	var w = g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
