// Package storage prepares output locations for full-overwrite writes and
// lists what was written. Locations are local paths or s3:// and gs:// URIs.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// Location schemes.
const (
	SchemeLocal = ""
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
)

// Backend manages objects under a location.
type Backend interface {
	// Reset deletes everything under location and leaves it ready for writing.
	// A location that does not exist yet is not an error.
	Reset(ctx context.Context, location string) error

	// List returns the objects under location in lexical order, as full locations.
	List(ctx context.Context, location string) ([]string, error)
}

// Location is a parsed storage location.
type Location struct {
	Scheme string
	Bucket string
	// Prefix is the object key prefix for remote locations, or the path for local ones.
	Prefix string
}

// ParseLocation splits raw into scheme, bucket and prefix.
// Anything without a recognized URI scheme is a local path.
func ParseLocation(raw string) (Location, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{Scheme: SchemeLocal, Prefix: raw}, nil
	}
	switch scheme {
	case "s3", "s3a":
		scheme = SchemeS3
	case "gs", "gcs":
		scheme = SchemeGCS
	default:
		return Location{}, fmt.Errorf("unsupported location scheme %q in %q", scheme, raw)
	}

	u, err := url.Parse(scheme + "://" + rest)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("invalid location %q: missing bucket", raw)
	}
	return Location{Scheme: scheme, Bucket: u.Host, Prefix: strings.TrimPrefix(u.Path, "/")}, nil
}

// IsRemote reports whether the location lives in an object store.
func (l Location) IsRemote() bool {
	return l.Scheme != SchemeLocal
}

// String renders the location back to its canonical form.
func (l Location) String() string {
	if !l.IsRemote() {
		return l.Prefix
	}
	return l.Scheme + "://" + path.Join(l.Bucket, l.Prefix)
}

// dirPrefix returns the key prefix with a trailing slash, so that
// "out/songs" does not also match "out/songs_v2".
func (l Location) dirPrefix() string {
	p := strings.Trim(l.Prefix, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// IsRemote reports whether raw names an object-store location.
func IsRemote(raw string) bool {
	loc, err := ParseLocation(raw)
	return err == nil && loc.IsRemote()
}

// Join appends path elements to root, using forward slashes for remote locations.
func Join(root string, elem ...string) string {
	if IsRemote(root) {
		parts := append([]string{strings.TrimRight(root, "/")}, elem...)
		return strings.Join(parts, "/")
	}
	return filepath.Join(append([]string{root}, elem...)...)
}

// Options configures the remote backends.
type Options struct {
	S3  S3Options
	GCS GCSOptions
}

// Resolver hands out the backend for a location. Remote clients are
// created on first use and shared afterwards.
type Resolver struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	local *LocalBackend
	s3    *S3Backend
	gcs   *GCSBackend
}

// NewResolver creates a resolver. A nil logger discards output.
func NewResolver(opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{opts: opts, logger: logger, local: NewLocalBackend()}
}

// WithS3 installs an existing S3 backend, bypassing lazy construction.
func (r *Resolver) WithS3(b *S3Backend) *Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s3 = b
	return r
}

// WithGCS installs an existing GCS backend, bypassing lazy construction.
func (r *Resolver) WithGCS(b *GCSBackend) *Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gcs = b
	return r
}

// For returns the backend that serves location.
func (r *Resolver) For(ctx context.Context, location string) (Backend, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, &core.StorageError{Location: location, Op: "resolve", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch loc.Scheme {
	case SchemeS3:
		if r.s3 == nil {
			b, err := NewS3Backend(ctx, r.opts.S3)
			if err != nil {
				return nil, &core.StorageError{Location: location, Op: "connect", Err: err}
			}
			r.logger.Debug("s3 backend initialized", slog.String("region", r.opts.S3.Region))
			r.s3 = b
		}
		return r.s3, nil
	case SchemeGCS:
		if r.gcs == nil {
			b, err := NewGCSBackend(ctx, r.opts.GCS)
			if err != nil {
				return nil, &core.StorageError{Location: location, Op: "connect", Err: err}
			}
			r.logger.Debug("gcs backend initialized")
			r.gcs = b
		}
		return r.gcs, nil
	default:
		return r.local, nil
	}
}

// Close releases remote clients.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcs != nil {
		return r.gcs.Close()
	}
	return nil
}
