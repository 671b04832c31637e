package publish

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioAPI is the part of *minio.Client MinioStore uses.
type MinioAPI interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioStore uploads to an S3-compatible endpoint such as MinIO, Wasabi
// or DigitalOcean Spaces.
type MinioStore struct {
	client MinioAPI
	bucket string
}

// NewMinioStore creates a MinioStore. Endpoint may carry a scheme; TLS is
// used unless it is "http".
func NewMinioStore(cfg S3Config) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("minio store needs an endpoint")
	}

	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     secure,
		Region:     cfg.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}
	return NewMinioStoreWithClient(client, cfg.Bucket), nil
}

// NewMinioStoreWithClient creates a MinioStore around an existing client.
func NewMinioStoreWithClient(client MinioAPI, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket}
}

// Put implements Store.
func (s *MinioStore) Put(ctx context.Context, obj Object) error {
	opts := minio.PutObjectOptions{
		ContentType:     obj.ContentType,
		CacheControl:    obj.CacheControl,
		ContentEncoding: obj.ContentEncoding,
		UserMetadata:    map[string]string{"x-amz-acl": "public-read"},
	}

	_, err := s.client.PutObject(ctx, s.bucket, obj.Key, bytes.NewReader(obj.Body), int64(len(obj.Body)), opts)
	if err != nil {
		return errors.Wrap(err, "minio put object")
	}
	return nil
}

func parseEndpoint(endpoint string) (host string, secure bool, err error) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, errors.Wrapf(err, "parse endpoint %q", endpoint)
	}
	if u.Host == "" {
		return "", false, errors.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme != "http", nil
}
