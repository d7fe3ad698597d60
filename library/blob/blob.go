// Package blob stores uploaded files and returns their public URL.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
)

const (
	// MaxImageSize caps cover and profile images
	MaxImageSize int64 = 5 << 20
	// MaxPDFSize caps post attachments
	MaxPDFSize int64 = 20 << 20
)

var (
	// ErrTooLarge the object exceeds its size limit
	ErrTooLarge = errors.New("file too large")
	// ErrNotFound the object does not exist
	ErrNotFound = errors.New("object not found")
)

// Store is implemented by gcs, minio and memory backends
type Store interface {
	// Put uploads r to objectPath and returns the public URL
	Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (url string, err error)
	Delete(ctx context.Context, objectPath string) error
}

// PostObjectPath returns `posts/{slug}/{unixMillis}.{ext}`
func PostObjectPath(slug, filename string, now time.Time) string {
	return objectPath("posts/"+slug, filename, now)
}

// ProfileObjectPath returns `profile/{unixMillis}.{ext}`
func ProfileObjectPath(filename string, now time.Time) string {
	return objectPath("profile", filename, now)
}

func objectPath(dir, filename string, now time.Time) string {
	name := fmt.Sprintf("%d", now.UnixMilli())
	if ext := Ext(filename); ext != "" {
		name += "." + ext
	}

	return path.Join(dir, name)
}

// Ext returns the lower-cased extension of filename without the dot
func Ext(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	return strings.ToLower(ext)
}

// CheckSize rejects sizes above limit
func CheckSize(size, limit int64) error {
	if size > limit {
		return errors.Wrapf(ErrTooLarge, "%d bytes exceeds %d", size, limit)
	}
	return nil
}

func publicURL(base, objectPath string) string {
	return strings.TrimRight(base, "/") + "/" + objectPath
}
