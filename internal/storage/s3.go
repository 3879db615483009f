package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/leapstack-labs/songlake/pkg/core"
)

const (
	defaultS3Region = "us-east-1"
	// S3 DeleteObjects accepts at most this many keys per call.
	maxDeleteBatch = 1000
)

// S3Options configures the S3 client. Empty credentials fall back to the
// SDK's default credential chain.
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	// Endpoint overrides the service endpoint for S3-compatible stores.
	Endpoint string
	// PathStyle addresses buckets as endpoint/bucket instead of bucket.endpoint.
	PathStyle bool
}

// S3Backend manages objects in S3 buckets.
type S3Backend struct {
	client *s3.Client
}

// NewS3Backend builds a client from opts.
func NewS3Backend(ctx context.Context, opts S3Options) (*S3Backend, error) {
	region := opts.Region
	if region == "" {
		region = defaultS3Region
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return NewS3BackendFromClient(client), nil
}

// NewS3BackendFromClient wraps an existing client.
func NewS3BackendFromClient(client *s3.Client) *S3Backend {
	return &S3Backend{client: client}
}

// Reset deletes every object under location.
func (b *S3Backend) Reset(ctx context.Context, location string) error {
	loc, err := ParseLocation(location)
	if err != nil {
		return &core.StorageError{Location: location, Op: "reset", Err: err}
	}

	keys, err := b.listKeys(ctx, loc)
	if err != nil {
		return &core.StorageError{Location: location, Op: "reset", Err: err}
	}

	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(loc.Bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return &core.StorageError{Location: location, Op: "reset", Err: fmt.Errorf("failed to delete objects: %w", err)}
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return &core.StorageError{Location: location, Op: "reset", Err: fmt.Errorf(
				"failed to delete %d objects, first %s: %s", len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))}
		}
	}
	return nil
}

// List returns s3:// locations of every object under location.
func (b *S3Backend) List(ctx context.Context, location string) ([]string, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, &core.StorageError{Location: location, Op: "list", Err: err}
	}
	keys, err := b.listKeys(ctx, loc)
	if err != nil {
		return nil, &core.StorageError{Location: location, Op: "list", Err: err}
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Location{Scheme: SchemeS3, Bucket: loc.Bucket, Prefix: k}.String()
	}
	return out, nil
}

func (b *S3Backend) listKeys(ctx context.Context, loc Location) ([]string, error) {
	if loc.Scheme != SchemeS3 {
		return nil, errors.New("not an s3 location")
	}

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(loc.Bucket),
		Prefix: aws.String(loc.dirPrefix()),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get page of S3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}
