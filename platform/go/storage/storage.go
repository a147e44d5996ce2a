// Package storage archives generated files (CSV exports) to a bucket or a local directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ObjectLocation describes where a blob lives.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// Archive stores blobs under logical keys.
type Archive interface {
	Put(ctx context.Context, key, contentType string, data []byte) (ObjectLocation, error)
	Check(ctx context.Context) error
}

// ResolveObjectLocation joins a configured prefix and a logical key such as "exports/rsvps/2026-06-01.csv".
func ResolveObjectLocation(bucket, prefix, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, errors.New("bucket is required")
	}
	key := strings.TrimPrefix(strings.TrimSpace(logicalKey), "/")
	if key == "" {
		return ObjectLocation{}, errors.New("logical key is required")
	}

	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return ObjectLocation{Bucket: bucket, FullPath: prefix + key}, nil
}

// GCSBucket writes objects to Google Cloud Storage.
type GCSBucket struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSBucket(client *storage.Client, bucket, prefix string) *GCSBucket {
	if client == nil {
		panic("storage client is required")
	}
	return &GCSBucket{client: client, bucket: bucket, prefix: prefix}
}

func (g *GCSBucket) Put(ctx context.Context, key, contentType string, data []byte) (ObjectLocation, error) {
	loc, err := ResolveObjectLocation(g.bucket, g.prefix, key)
	if err != nil {
		return ObjectLocation{}, err
	}

	w := g.client.Bucket(loc.Bucket).Object(loc.FullPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return ObjectLocation{}, fmt.Errorf("write gs://%s/%s: %w", loc.Bucket, loc.FullPath, err)
	}
	if err := w.Close(); err != nil {
		return ObjectLocation{}, fmt.Errorf("close gs://%s/%s: %w", loc.Bucket, loc.FullPath, err)
	}
	return loc, nil
}

// Check lists at most one object under the prefix to verify read access without writing.
func (g *GCSBucket) Check(ctx context.Context) error {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix})
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("list gs://%s/%s: %w", g.bucket, g.prefix, err)
	}
	return nil
}

// LocalDir writes objects below a directory. Used for development and tests.
type LocalDir struct {
	root string
}

func NewLocalDir(root string) (*LocalDir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalDir{root: root}, nil
}

func (l *LocalDir) Put(_ context.Context, key, _ string, data []byte) (ObjectLocation, error) {
	loc, err := ResolveObjectLocation(l.root, "", key)
	if err != nil {
		return ObjectLocation{}, err
	}
	path := filepath.Join(l.root, filepath.FromSlash(loc.FullPath))
	if !strings.HasPrefix(path, filepath.Clean(l.root)+string(os.PathSeparator)) {
		return ObjectLocation{}, fmt.Errorf("key %q escapes storage directory", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ObjectLocation{}, fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ObjectLocation{}, fmt.Errorf("write object: %w", err)
	}
	return loc, nil
}

func (l *LocalDir) Check(context.Context) error {
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("stat storage directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", l.root)
	}
	return nil
}
