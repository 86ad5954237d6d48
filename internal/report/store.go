package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures the report bucket client. Endpoint defaults to the
// public S3 endpoint; MinIO and other S3-compatible stores work by pointing
// it elsewhere.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObjectAPI is the slice of the S3 client the store uses. *minio.Client
// satisfies it.
type ObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectStore uploads rendered reports to one bucket.
type ObjectStore struct {
	api     ObjectAPI
	bucket  string
	baseURL string
}

// NewObjectStore connects to the configured S3 endpoint.
func NewObjectStore(cfg S3Config) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("report: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	opts := &minio.Options{
		Secure: cfg.UseSSL,
		Region: region,
	}
	if cfg.AccessKey != "" {
		opts.Creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		opts.Creds = credentials.NewIAM("")
	}
	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	baseURL := fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	if endpoint != "s3.amazonaws.com" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}
	return &ObjectStore{api: client, bucket: bucket, baseURL: baseURL}, nil
}

// NewObjectStoreWithAPI wires an existing client, mainly for tests.
func NewObjectStoreWithAPI(api ObjectAPI, bucket, baseURL string) (*ObjectStore, error) {
	if api == nil {
		return nil, errors.New("report: nil api")
	}
	if bucket == "" {
		return nil, errors.New("report: s3 bucket is required")
	}
	return &ObjectStore{api: api, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes the object and returns its public URL.
func (s *ObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("upload report: object key is required")
	}
	_, err := s.api.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return s.baseURL + "/" + key, nil
}
