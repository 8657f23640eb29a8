// Package ports declares the contracts between the HTTP layer and the
// storage backends files are streamed from.
package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// ObjectKey as stored by the backend. localfs and s3 echo the input
	// key; gdrive returns the Drive fileId so later reads can use it.
	ObjectKey string
	Size      int64
}

// Replica is one storage backend a file can be streamed from. Several
// replicas may front the same store; the balancer picks one per request.
type Replica interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	// OpenRange returns a reader over length bytes starting at offset.
	// length < 0 means "to the end of the object".
	OpenRange(ctx context.Context, objectKey string, offset, length int64) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, objectKey string) error
}
