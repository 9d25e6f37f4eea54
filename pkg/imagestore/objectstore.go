// Package imagestore moves image files to and from an object store.
package imagestore

import (
	"fmt"
	"io"
)

// ObjectStore is the subset of S3 the image store needs.
type ObjectStore interface {
	PutObject(bucket, key string, data io.ReadSeeker) error
	GetObject(bucket, key string) (io.ReadCloser, error)
	ListObjects(bucket, prefix string) ([]string, error)
}

type ObjectNotFoundErr struct {
	Bucket string
	Key    string
}

func (err *ObjectNotFoundErr) Error() string {
	return fmt.Sprintf(
		"object not found: bucket=%s key=%s",
		err.Bucket,
		err.Key,
	)
}
