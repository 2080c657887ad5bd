package std

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilkoid/poncho-toolcall/pkg/s3storage"
	"github.com/ilkoid/poncho-toolcall/pkg/tools"
)

// ObjectStore - то, что s3_list и s3_read требуют от хранилища.
// Реализуется *s3storage.Client.
type ObjectStore interface {
	ListFiles(ctx context.Context, prefix string, limit int) ([]s3storage.StoredObject, bool, error)
	DownloadFile(ctx context.Context, key string, maxBytes int64) ([]byte, bool, error)
}

var _ ObjectStore = (*s3storage.Client)(nil)

type s3ListArgs struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"description=Key prefix (folder) to list. Empty lists the whole bucket."`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of objects to return,minimum=1,maximum=1000"`
}

type s3ListResult struct {
	Objects   []s3storage.StoredObject `json:"objects"`
	Truncated bool                     `json:"truncated,omitempty"`
}

type s3ReadArgs struct {
	Key string `json:"key" jsonschema:"required,description=Full object key as returned by s3_list"`
}

// NewS3ListTool создаёт s3_list: список объектов bucket по префиксу.
func NewS3ListTool(store ObjectStore) (tools.Tool, error) {
	return tools.NewFunc("s3_list", "Lists objects in the configured S3 bucket under a key prefix.",
		func(ctx context.Context, a s3ListArgs) (s3ListResult, error) {
			objects, truncated, err := store.ListFiles(ctx, a.Prefix, a.Limit)
			if err != nil {
				return s3ListResult{}, err
			}
			if objects == nil {
				objects = []s3storage.StoredObject{}
			}
			return s3ListResult{Objects: objects, Truncated: truncated}, nil
		})
}

// NewS3ReadTool создаёт s3_read: текстовое содержимое объекта.
// maxBytes <= 0 - DefaultMaxReadBytes.
func NewS3ReadTool(store ObjectStore, maxBytes int64) (tools.Tool, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxReadBytes
	}
	return tools.NewFunc("s3_read", "Reads a text object from the configured S3 bucket. Long objects are truncated.",
		func(ctx context.Context, a s3ReadArgs) (string, error) {
			if a.Key == "" {
				return "", errors.New("key is required")
			}
			data, truncated, err := store.DownloadFile(ctx, a.Key, maxBytes)
			if err != nil {
				return "", err
			}
			out, err := textContent(data, truncated)
			if err != nil {
				return "", fmt.Errorf("object %s: %w", a.Key, err)
			}
			return out, nil
		})
}
