// Package s3 implements the deleted-attachment archive on Amazon S3 or any
// S3-compatible object storage.
//
// Object keys mirror the storage layout: the archive key for a deleted
// attachment is its slash-joined storage location, optionally under a
// configured key prefix, so a bucket listing reads like the on-disk
// deleted-attachments hierarchy.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/docfold/docstore/internal/logger"
	"github.com/docfold/docstore/pkg/storage/archive"
)

// Archive stores deleted attachment payloads in an S3 bucket.
//
// Safe for concurrent use; uploads for different deleted versions never
// share a key, and a repeated upload of the same version is idempotent
// (last write wins with identical content).
type Archive struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// Config contains the settings for an S3 archive.
type Config struct {
	// Client is a configured S3 client. Required.
	Client *s3.Client

	// Bucket is the bucket receiving archived payloads. It must already
	// exist; the archive never creates buckets.
	Bucket string

	// KeyPrefix is an optional prefix for every object key, e.g.
	// "docstore/deleted/".
	KeyPrefix string
}

// New creates an S3 archive and verifies bucket access with a HeadBucket
// call so misconfiguration surfaces at startup rather than at the first
// delete.
func New(ctx context.Context, cfg Config) (*Archive, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 archive: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 archive: bucket is required")
	}

	a := &Archive{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}

	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	}); err != nil {
		return nil, fmt.Errorf("s3 archive: bucket %q not accessible: %w", a.bucket, err)
	}

	logger.Info("s3 archive ready: bucket=%s prefix=%q", a.bucket, a.keyPrefix)
	return a, nil
}

// Archive uploads one payload under the given storage key.
func (a *Archive) Archive(ctx context.Context, key string, payload io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	objectKey := a.objectKey(key)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey),
		Body:   payload,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w: %v", objectKey, archive.ErrArchiveUnavailable, err)
	}

	logger.Debug("archived %s to s3://%s/%s", key, a.bucket, objectKey)
	return nil
}

func (a *Archive) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if a.keyPrefix == "" {
		return key
	}
	return strings.TrimSuffix(a.keyPrefix, "/") + "/" + key
}
