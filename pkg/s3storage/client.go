// Клиент объектного хранилища для инструментов s3_list и s3_read.

package s3storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
)

// DefaultListLimit - сколько объектов ListFiles возвращает по умолчанию.
const DefaultListLimit = 200

// Client - обёртка над minio для одного bucket.
type Client struct {
	api    *minio.Client
	bucket string
}

// StoredObject - сырой объект из S3
type StoredObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// New создает клиент, используя наш конфиг
func New(cfg config.S3Config) (*Client, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
	}, nil
}

// Bucket возвращает имя bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// ListFiles возвращает файлы по префиксу, не больше limit (limit <= 0 - DefaultListLimit).
// truncated == true, если объектов больше limit.
func (c *Client) ListFiles(ctx context.Context, prefix string, limit int) (objects []StoredObject, truncated bool, err error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	// Нормализация префикса (добавляем слеш, если это "папка")
	if prefix != "" && !strings.HasSuffix(prefix, "/") && !strings.Contains(prefix, ".") {
		prefix += "/"
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // останавливает листинг minio при раннем выходе

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	for obj := range c.api.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, false, obj.Err
		}
		// Пропускаем саму "папку"
		if obj.Key == prefix {
			continue
		}
		if len(objects) == limit {
			return objects, true, nil
		}
		objects = append(objects, StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return objects, false, nil
}

// DownloadFile читает не больше maxBytes байт объекта.
// truncated == true, если объект длиннее.
func (c *Client) DownloadFile(ctx context.Context, key string, maxBytes int64) (data []byte, truncated bool, err error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	// +1 байт, чтобы понять, что объект длиннее лимита
	data, err = io.ReadAll(io.LimitReader(obj, maxBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	if int64(len(data)) > maxBytes {
		return data[:maxBytes], true, nil
	}
	return data, false, nil
}
