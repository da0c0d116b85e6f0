// Package storage reads and writes the master file at a location that is
// either a local path or a bucket URL.
//
// Bucket URLs are opened through gocloud.dev/blob; the file://, mem:// and
// s3:// schemes are registered:
//
//	locales.csv                          local file, relative to the caller
//	file:///srv/i18n/locales.xlsx        directory bucket, key "locales.xlsx"
//	s3://bucket/i18n/locales.csv?region=eu-west-1
//	mem://test/locales.csv               in-process, for tests
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"github.com/minios-linux/locsync/table"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// IsURL reports whether location is a bucket URL rather than a local path.
func IsURL(location string) bool {
	return schemeRe.MatchString(location)
}

// Ext returns the lower-cased extension of the file named by location.
func Ext(location string) string {
	if IsURL(location) {
		if u, err := url.Parse(location); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(location))
}

// Read opens the object at location. A missing object is reported as
// ErrNotFound.
func Read(ctx context.Context, location string) (io.ReadCloser, error) {
	if !IsURL(location) {
		f, err := os.Open(location)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
			}
			return nil, fmt.Errorf("opening %s: %w", location, err)
		}
		return f, nil
	}

	bucket, key, release, err := openBucket(ctx, location)
	if err != nil {
		return nil, err
	}
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		release()
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return &bucketReader{Reader: r, release: release}, nil
}

// Write stores the output of encode at location. The object is replaced
// only when encode succeeds.
func Write(ctx context.Context, location string, encode func(io.Writer) error) error {
	if !IsURL(location) {
		return table.WriteAtomic(location, encode)
	}

	bucket, key, release, err := openBucket(ctx, location)
	if err != nil {
		return err
	}
	defer release()

	// Cancelling the writer's context before Close discards the upload.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := bucket.NewWriter(wctx, key, nil)
	if err != nil {
		return fmt.Errorf("writing %s: %w", location, err)
	}
	if err := encode(w); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", location, err)
	}
	return nil
}

// memBuckets keeps mem:// buckets alive for the life of the process so
// that a write is visible to later reads of the same URL.
var (
	memMu      sync.Mutex
	memBuckets = map[string]*blob.Bucket{}
)

// openBucket splits location into a bucket URL and an object key, and
// opens the bucket. For file:// the bucket is the parent directory.
// release must be called when the bucket is no longer needed.
func openBucket(ctx context.Context, location string) (*blob.Bucket, string, func() error, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: %s: %v", ErrInvalidLocation, location, err)
	}

	var bucketURL, key string
	if u.Scheme == "file" {
		dir, base := path.Split(u.Path)
		bucketURL = (&url.URL{Scheme: "file", Path: dir, RawQuery: u.RawQuery}).String()
		key = base
	} else {
		bucketURL = (&url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}).String()
		key = strings.TrimPrefix(u.Path, "/")
	}
	if key == "" {
		return nil, "", nil, fmt.Errorf("%w: %s names no object", ErrInvalidLocation, location)
	}

	if u.Scheme == "mem" {
		memMu.Lock()
		defer memMu.Unlock()
		bucket, ok := memBuckets[bucketURL]
		if !ok {
			if bucket, err = blob.OpenBucket(ctx, bucketURL); err != nil {
				return nil, "", nil, fmt.Errorf("opening bucket %s: %w", bucketURL, err)
			}
			memBuckets[bucketURL] = bucket
		}
		return bucket, key, func() error { return nil }, nil
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening bucket %s: %w", bucketURL, err)
	}
	return bucket, key, bucket.Close, nil
}

type bucketReader struct {
	*blob.Reader
	release func() error
}

func (r *bucketReader) Close() error {
	err := r.Reader.Close()
	if rerr := r.release(); err == nil {
		err = rerr
	}
	return err
}
