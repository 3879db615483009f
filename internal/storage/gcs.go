package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	gcs "cloud.google.com/go/storage"
	"github.com/mitchellh/go-homedir"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// GCSOptions configures the GCS client.
type GCSOptions struct {
	// Credentials is a service-account key file path or its JSON contents.
	// Empty uses application default credentials.
	Credentials string
	// Endpoint overrides the JSON API endpoint.
	Endpoint string
	// Anonymous disables authentication; used with emulators.
	Anonymous bool
}

// GCSBackend manages objects in GCS buckets.
type GCSBackend struct {
	client *gcs.Client
}

// NewGCSBackend builds a client from opts.
func NewGCSBackend(ctx context.Context, opts GCSOptions) (*GCSBackend, error) {
	var clientOpts []option.ClientOption
	if opts.Credentials != "" {
		contents, err := pathOrContents(opts.Credentials)
		if err != nil {
			return nil, fmt.Errorf("error reading credentials file: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(contents)))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.Anonymous {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSBackend{client: client}, nil
}

// Reset deletes every object under location.
func (b *GCSBackend) Reset(ctx context.Context, location string) error {
	loc, names, err := b.list(ctx, location)
	if err != nil {
		return &core.StorageError{Location: location, Op: "reset", Err: err}
	}

	bucket := b.client.Bucket(loc.Bucket)
	for _, name := range names {
		err := bucket.Object(name).Delete(ctx)
		if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			return &core.StorageError{Location: location, Op: "reset", Err: fmt.Errorf("failed to delete %s: %w", name, err)}
		}
	}
	return nil
}

// List returns gs:// locations of every object under location.
func (b *GCSBackend) List(ctx context.Context, location string) ([]string, error) {
	loc, names, err := b.list(ctx, location)
	if err != nil {
		return nil, &core.StorageError{Location: location, Op: "list", Err: err}
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Location{Scheme: SchemeGCS, Bucket: loc.Bucket, Prefix: n}.String()
	}
	return out, nil
}

// Close closes the underlying client.
func (b *GCSBackend) Close() error {
	return b.client.Close()
}

func (b *GCSBackend) list(ctx context.Context, location string) (Location, []string, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return loc, nil, err
	}
	if loc.Scheme != SchemeGCS {
		return loc, nil, errors.New("not a gs location")
	}

	it := b.client.Bucket(loc.Bucket).Objects(ctx, &gcs.Query{Prefix: loc.dirPrefix()})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return loc, nil, fmt.Errorf("failed to list GCS objects: %w", err)
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return loc, names, nil
}

// pathOrContents returns the contents of in when it names an existing file
// (with ~ expanded), otherwise in itself.
func pathOrContents(in string) (string, error) {
	if in == "" {
		return "", nil
	}

	filePath := in
	if filePath[0] == '~' {
		var err error
		filePath, err = homedir.Expand(filePath)
		if err != nil {
			return "", err
		}
	}

	if _, err := os.Stat(filePath); err == nil {
		contents, err := os.ReadFile(filePath) //nolint:gosec // path comes from operator config
		if err != nil {
			return "", err
		}
		return string(contents), nil
	}

	if len(filePath) > 1 && (filePath[0] == '/' || filePath[0] == '\\') {
		return "", fmt.Errorf("%s: no such file or dir", filePath)
	}
	return in, nil
}
