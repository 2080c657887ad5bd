package s3storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
)

// fakeS3 отвечает на GetObject и ListObjectsV2 для bucket "docs".
func fakeS3(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/docs/" && r.URL.Query().Get("list-type") == "2":
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>docs</Name><Prefix>reports/</Prefix><KeyCount>3</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>
  <Contents><Key>reports/</Key><Size>0</Size><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"d41d8cd98f00b204e9800998ecf8427e"</ETag></Contents>
  <Contents><Key>reports/q1.txt</Key><Size>11</Size><LastModified>2024-01-02T00:00:00.000Z</LastModified><ETag>"a"</ETag></Contents>
  <Contents><Key>reports/q2.txt</Key><Size>12</Size><LastModified>2024-01-03T00:00:00.000Z</LastModified><ETag>"b"</ETag></Contents>
</ListBucketResult>`))
		case r.Method == http.MethodGet && r.URL.Path == "/docs/reports/q1.txt":
			w.Header().Set("Content-Type", "text/plain")
			w.Header().Set("Last-Modified", "Tue, 02 Jan 2024 00:00:00 GMT")
			w.Header().Set("ETag", `"a"`)
			_, _ = w.Write([]byte("revenue: 42"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := New(config.S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Region:    "us-east-1",
		Bucket:    "docs",
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	return client
}

func TestListFiles(t *testing.T) {
	client := fakeS3(t)

	objects, truncated, err := client.ListFiles(context.Background(), "reports", 0)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, objects, 2)
	assert.Equal(t, "reports/q1.txt", objects[0].Key)
	assert.Equal(t, int64(11), objects[0].Size)

	objects, truncated, err = client.ListFiles(context.Background(), "reports/", 1)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Len(t, objects, 1)
}

func TestDownloadFile(t *testing.T) {
	client := fakeS3(t)

	data, truncated, err := client.DownloadFile(context.Background(), "reports/q1.txt", 100)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, "revenue: 42", string(data))

	data, truncated, err = client.DownloadFile(context.Background(), "reports/q1.txt", 7)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Equal(t, "revenue", string(data))

	_, _, err = client.DownloadFile(context.Background(), "reports/missing.txt", 100)
	assert.Error(t, err)
}
