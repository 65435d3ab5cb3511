// Package s3store provides an S3-backed dataserver.Store. Objects are
// keyed by the hex of the 16-byte handle under a configurable prefix,
// and every envelope is opaque ciphertext, so a shared or public bucket
// is exactly the adversarial store the rest of the client is built for.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/logger"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
)

// Config holds configuration for the S3 dataserver backend.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible
	// services such as LocalStack or MinIO).
	Endpoint string

	// KeyPrefix is prepended to all object keys (e.g., "vaultbox/").
	// Should end with "/" if non-empty.
	KeyPrefix string

	// AccessKeyID / SecretAccessKey are static credentials; leave empty
	// to use the default AWS credential chain.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle forces path-style addressing (required for
	// LocalStack/MinIO).
	ForcePathStyle bool
}

// Store is an S3-backed dataserver.Store.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string

	// ctx carries the lifetime of the store; the synchronous Store
	// interface has no room for per-call contexts.
	ctx context.Context
}

// New creates an S3 dataserver backend with an existing client.
func New(ctx context.Context, client *s3.Client, config Config) *Store {
	return &Store{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		ctx:       ctx,
	}
}

// NewFromConfig creates an S3 dataserver backend by building an S3
// client from config.
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}
	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return New(ctx, client, config), nil
}

// objectKey returns the S3 key for a handle.
func (s *Store) objectKey(handle memloc.Handle) string {
	return fmt.Sprintf("%s%x", s.keyPrefix, handle[:])
}

// Set implements dataserver.Store.
func (s *Store) Set(handle memloc.Handle, data []byte) {
	_, err := s.client.PutObject(s.ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(handle)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		logger.Warn("s3 dataserver write failed",
			logger.Handle(handle[:]), logger.KeyBucket, s.bucket, logger.KeyError, err.Error())
	}
}

// Get implements dataserver.Store.
func (s *Store) Get(handle memloc.Handle) ([]byte, error) {
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(handle)),
	})
	if err != nil {
		return nil, &dataserver.ErrNotFound{Handle: handle}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &dataserver.ErrNotFound{Handle: handle}
	}
	return data, nil
}

// Delete implements dataserver.Store.
func (s *Store) Delete(handle memloc.Handle) {
	_, _ = s.client.DeleteObject(s.ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(handle)),
	})
}

// Clear implements dataserver.Store. It lists and deletes every object
// under the key prefix; used only by test harnesses against throwaway
// buckets.
func (s *Store) Clear() {
	var continuation *string
	for {
		list, err := s.client.ListObjectsV2(s.ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.keyPrefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			var nsb *types.NoSuchBucket
			if !errors.As(err, &nsb) {
				logger.Warn("s3 dataserver clear failed", logger.KeyBucket, s.bucket, logger.KeyError, err.Error())
			}
			return
		}
		for _, obj := range list.Contents {
			_, _ = s.client.DeleteObject(s.ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
		}
		if list.IsTruncated == nil || !*list.IsTruncated {
			return
		}
		continuation = list.NextContinuationToken
	}
}

var _ dataserver.Store = (*Store)(nil)
