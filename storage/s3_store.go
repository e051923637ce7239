package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BlobStore stores product media.
type BlobStore interface {
	Upload(ctx context.Context, productID models.ID, kind models.MediaKind, filename, contentType string, body io.Reader) (models.MediaItem, error)
	Delete(ctx context.Context, path string) error
}

// S3Store keeps media objects in one bucket under
// products/{productID}/{images|videos}/{unixMillis}_{filename}.
type S3Store struct {
	client           S3API
	bucket           string
	endpoint         string
	cloudfrontDomain string
	now              func() time.Time
}

func NewS3Store(client S3API, bucket, endpoint, cloudfrontDomain string) *S3Store {
	return &S3Store{
		client:           client,
		bucket:           bucket,
		endpoint:         endpoint,
		cloudfrontDomain: cloudfrontDomain,
		now:              time.Now,
	}
}

// ObjectKey builds the storage path for a new upload.
func ObjectKey(productID models.ID, kind models.MediaKind, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("products/%s/%s/%d_%s", productID, kind.Folder(), at.UnixMilli(), name)
}

func (s *S3Store) Upload(ctx context.Context, productID models.ID, kind models.MediaKind, filename, contentType string, body io.Reader) (models.MediaItem, error) {
	key := ObjectKey(productID, kind, filename, s.now())
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return models.MediaItem{}, apperrors.Store("failed to upload "+filename, err)
	}
	return models.MediaItem{Type: kind, URL: s.PublicURL(key), Path: key}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return apperrors.Validation("media path is required")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.Store("failed to delete "+key, err)
	}
	return nil
}

// PublicURL prefers the CDN domain, then a custom endpoint, then the
// virtual-hosted S3 URL.
func (s *S3Store) PublicURL(key string) string {
	if s.cloudfrontDomain != "" {
		domain := strings.TrimRight(s.cloudfrontDomain, "/")
		if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
			domain = "https://" + domain
		}
		return fmt.Sprintf("%s/%s", domain, key)
	}
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
