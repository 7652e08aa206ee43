package placement

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const spirvContentType = "application/x-spirv"

// StoreConfig describes an S3-compatible bucket.
type StoreConfig struct {
	Endpoint     string
	Bucket       string
	Prefix       string
	AccessKey    string
	SecretKey    string
	Region       string
	UseSSL       bool
	CreateBucket bool
}

// Validate reports the first missing required field.
func (c StoreConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.Endpoint) == "":
		return errors.New("object store endpoint is required")
	case strings.TrimSpace(c.Bucket) == "":
		return errors.New("object store bucket is required")
	case c.AccessKey == "" || c.SecretKey == "":
		return errors.New("object store access_key and secret_key are required")
	}
	return nil
}

// Bucket uploads artifacts into an object store bucket.
type Bucket struct {
	client *minio.Client
	cfg    StoreConfig
}

// NewObjectStore creates the client for cfg. No request is made until
// Prepare or Place is called.
func NewObjectStore(cfg StoreConfig) (*Bucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &Bucket{client: client, cfg: cfg}, nil
}

func (b *Bucket) String() string {
	return "s3://" + path.Join(b.cfg.Bucket, b.cfg.Prefix)
}

// ObjectName returns the key an artifact called name is stored under.
func (b *Bucket) ObjectName(name string) string {
	if b.cfg.Prefix == "" {
		return name
	}
	return path.Join(strings.Trim(b.cfg.Prefix, "/"), name)
}

// Prepare checks that the bucket exists, creating it when configured to.
func (b *Bucket) Prepare(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if !b.cfg.CreateBucket {
		return fmt.Errorf("bucket missing: %s", b.cfg.Bucket)
	}
	return b.client.MakeBucket(ctx, b.cfg.Bucket, minio.MakeBucketOptions{Region: b.cfg.Region})
}

// Place uploads the file at p and returns its s3:// URI.
func (b *Bucket) Place(ctx context.Context, p, name string) (string, error) {
	key := b.ObjectName(name)
	dest := "s3://" + b.cfg.Bucket + "/" + key
	_, err := b.client.FPutObject(ctx, b.cfg.Bucket, key, p, minio.PutObjectOptions{
		ContentType: spirvContentType,
	})
	if err != nil {
		return dest, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return dest, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
