// Package storage persists proof and verification images in object storage.
// Inbound media arrives as short-lived URLs from the messaging provider, so
// the store copies them somewhere durable before anything references them.
package storage

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StoredImage is the durable reference returned to callers.
type StoredImage struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ImageStore copies an image from a source URL into durable storage.
type ImageStore interface {
	StoreFromURL(ctx context.Context, srcURL, filename, mimeType string) (*StoredImage, error)
}

// MinioStore keeps images in an S3-compatible bucket.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
	httpClient *http.Client
}

// NewMinioStore builds a store from MINIO_ENDPOINT, MINIO_ACCESS_KEY,
// MINIO_SECRET_KEY, MINIO_BUCKET and MINIO_PUBLIC_URL. Returns nil, nil when
// the endpoint is unset; proofs are then recorded by their source URL.
func NewMinioStore() (*MinioStore, error) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "wardwatch-proofs"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	publicBase := os.Getenv("MINIO_PUBLIC_URL")
	if publicBase == "" {
		scheme := "http"
		if os.Getenv("MINIO_USE_SSL") == "true" {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &MinioStore{
		client:     client,
		bucket:     bucket,
		publicBase: publicBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	log.Printf("[storage] created bucket %s", s.bucket)
	return nil
}

// StoreFromURL downloads the source image and uploads it under a fresh key.
func (s *MinioStore) StoreFromURL(ctx context.Context, srcURL, filename, mimeType string) (*StoredImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source image returned HTTP %d", resp.StatusCode)
	}

	key := fmt.Sprintf("%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.New().String(), path.Ext(filename))
	_, err = s.client.PutObject(ctx, s.bucket, key, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &StoredImage{
		URL: s.publicBase + "/" + key,
		Key: key,
	}, nil
}
