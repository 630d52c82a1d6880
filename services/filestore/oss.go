package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

// OSSStore keeps files in an Aliyun OSS bucket.
type OSSStore struct {
	bucket  *oss.Bucket
	baseURL string
}

var _ core.FileStore = (*OSSStore)(nil)

func NewOSSStore(sc core.StorageConfig) (*OSSStore, error) {
	if sc.OSSEndpoint == "" || sc.OSSAccessKeyID == "" || sc.OSSAccessKeySecret == "" || sc.OSSBucket == "" {
		return nil, errors.New("missing OSS endpoint, access key or bucket")
	}
	client, err := oss.New(sc.OSSEndpoint, sc.OSSAccessKeyID, sc.OSSAccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "oss.New")
	}
	bkt, err := client.Bucket(sc.OSSBucket)
	if err != nil {
		return nil, errors.Wrap(err, "client.Bucket")
	}

	baseURL := strings.TrimRight(sc.PublicBaseURL, "/")
	if baseURL == "" {
		end := strings.TrimPrefix(strings.TrimPrefix(sc.OSSEndpoint, "https://"), "http://")
		baseURL = fmt.Sprintf("https://%s.%s", sc.OSSBucket, end)
	}
	return &OSSStore{bucket: bkt, baseURL: baseURL}, nil
}

func (s *OSSStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return errors.Wrap(s.bucket.PutObject(key, r,
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	), "putting object")
}

func (s *OSSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.bucket.GetObject(key, oss.WithContext(ctx))
	if isNotFound(err) {
		return nil, core.ErrFileNotFound
	}
	return rc, errors.Wrap(err, "getting object")
}

func (s *OSSStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.DeleteObject(key, oss.WithContext(ctx))
	if isNotFound(err) {
		return nil
	}
	return errors.Wrap(err, "deleting object")
}

func (s *OSSStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + key
}

func isNotFound(err error) bool {
	if e, ok := err.(oss.ServiceError); ok {
		return e.StatusCode == 404
	}
	return false
}
