package gcs

import (
	"context"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"google.golang.org/api/option"
)

// Store uploads build outputs to a Cloud Storage bucket
type Store struct {
	client *storage.Client
	bucket string
}

var _ interfaces.ArtifactStore = (*Store)(nil)

// New creates a Store. credentialsFile may be empty to use application default credentials.
func New(ctx context.Context, bucket, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}

	return &Store{
		client: client,
		bucket: bucket,
	}, nil
}

// Upload copies localPath to gs://bucket/objectName
func (s *Store) Upload(ctx context.Context, localPath, objectName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return goerr.Wrap(err, "failed to open artifact", goerr.V("path", localPath))
	}
	defer f.Close()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to upload artifact",
			goerr.V("path", localPath),
			goerr.V("bucket", s.bucket),
			goerr.V("object", objectName),
		)
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize artifact upload",
			goerr.V("bucket", s.bucket),
			goerr.V("object", objectName),
		)
	}

	ctxlog.From(ctx).Info("Uploaded artifact", "bucket", s.bucket, "object", objectName)
	return nil
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
