package assets

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool

	// PublicURL is the base that object URLs start with. Defaults to the
	// path-style bucket URL on Endpoint.
	PublicURL string
}

// S3 deletes objects from an S3-compatible bucket.
type S3 struct {
	client *minio.Client
	bucket string
	host   string
	prefix string
}

func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	public := cfg.PublicURL
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	pu, err := url.Parse(public)
	if err != nil {
		return nil, fmt.Errorf("s3: parse public url: %w", err)
	}
	return &S3{
		client: client,
		bucket: cfg.Bucket,
		host:   strings.ToLower(pu.Host),
		prefix: strings.TrimRight(pu.Path, "/") + "/",
	}, nil
}

func (s *S3) Name() string { return "s3" }

func (s *S3) Match(u *url.URL) bool {
	return strings.ToLower(u.Host) == s.host && strings.HasPrefix(u.Path, s.prefix) && len(u.Path) > len(s.prefix)
}

// ObjectKey returns the key addressed by rawURL.
func (s *S3) ObjectKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if !s.Match(u) {
		return "", fmt.Errorf("%w: %s", ErrNoProvider, rawURL)
	}
	return strings.TrimPrefix(u.Path, s.prefix), nil
}

func (s *S3) Delete(ctx context.Context, rawURL string) error {
	key, err := s.ObjectKey(rawURL)
	if err != nil {
		return &ProviderError{Provider: s.Name(), Op: "object key", Cause: err}
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		return &ProviderError{Provider: s.Name(), Op: "remove object", StatusCode: resp.StatusCode, Cause: err}
	}
	return nil
}
