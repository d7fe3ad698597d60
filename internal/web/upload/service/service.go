// Package service validates uploaded files and puts them into the blob store.
package service

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfModel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	"github.com/Laisky/laisky-portfolio/library"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/blob"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// Kind where an upload is used
type Kind string

const (
	// KindPostImage cover image of a post
	KindPostImage Kind = "post-image"
	// KindPostAttachment pdf attached to a post
	KindPostAttachment Kind = "post-attachment"
	// KindProfileImage photo on the profile
	KindProfileImage Kind = "profile-image"
)

var imageExts = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
}

var disablePDFConfigDir sync.Once

// ParseKind returns the kind named s
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPostImage, KindPostAttachment, KindProfileImage:
		return k, nil
	default:
		return "", errors.Wrapf(library.ErrValidation, "unknown upload kind %q", s)
	}
}

// Limit max bytes accepted for kind
func (k Kind) Limit() int64 {
	if k == KindPostAttachment {
		return blob.MaxPDFSize
	}
	return blob.MaxImageSize
}

// File an upload. Size is -1 when unknown.
type File struct {
	Name string
	Size int64
	Body io.Reader
	// Slug of the post, required by post kinds
	Slug string
}

// Result where the file ended up
type Result struct {
	URL         string `json:"url"`
	StoragePath string `json:"storagePath"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Upload service
type Upload struct {
	store blob.Store
	now   func() time.Time
}

// Option customizes Upload
type Option func(*Upload)

// WithClock replaces time.Now in object paths
func WithClock(now func() time.Time) Option {
	return func(u *Upload) {
		u.now = now
	}
}

// New create upload service
func New(store blob.Store, opts ...Option) *Upload {
	u := &Upload{store: store, now: time.Now}
	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Upload stores f for an admin
func (s *Upload) Upload(ctx context.Context, p *auth.Principal, kind Kind, f File) (*Result, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	return s.Put(ctx, kind, f)
}

// Put validates and stores f without checking the caller,
// used by the offline upload command
func (s *Upload) Put(ctx context.Context, kind Kind, f File) (*Result, error) {
	logger := log.Logger.Named("upload").With(
		zap.String("kind", string(kind)),
		zap.String("name", f.Name),
	)

	f.Name = path.Base(strings.ReplaceAll(strings.TrimSpace(f.Name), "\\", "/"))
	ext := blob.Ext(f.Name)
	if err := checkExt(kind, ext); err != nil {
		return nil, err
	}

	limit := kind.Limit()
	if f.Size >= 0 {
		if err := blob.CheckSize(f.Size, limit); err != nil {
			return nil, err
		}
	}

	// the declared size is not trusted, read one byte past the limit
	data, err := io.ReadAll(io.LimitReader(f.Body, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	if err = blob.CheckSize(int64(len(data)), limit); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.Wrap(library.ErrValidation, "empty file")
	}

	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	var objectPath string
	switch kind {
	case KindProfileImage:
		objectPath = blob.ProfileObjectPath(f.Name, s.now())
	default:
		if f.Slug == "" || blogService.Slugify(f.Slug) != f.Slug {
			return nil, errors.Wrapf(library.ErrValidation, "invalid post slug %q", f.Slug)
		}
		objectPath = blob.PostObjectPath(f.Slug, f.Name, s.now())
	}

	if kind == KindPostAttachment {
		if err = ValidatePDF(data); err != nil {
			return nil, err
		}
		contentType = "application/pdf"
	}

	url, err := s.store.Put(ctx, objectPath, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "put %s", objectPath)
	}

	logger.Info("file uploaded", zap.String("path", objectPath), zap.Int("size", len(data)))
	return &Result{
		URL:         url,
		StoragePath: objectPath,
		Name:        f.Name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Remove deletes a stored upload by its storage path
func (s *Upload) Remove(ctx context.Context, storagePath string) error {
	if err := s.store.Delete(ctx, storagePath); err != nil {
		return errors.Wrapf(err, "delete %s", storagePath)
	}

	log.Logger.Named("upload").Info("file removed", zap.String("path", storagePath))
	return nil
}

// ValidatePDF rejects data that pdfcpu cannot read as a PDF
func ValidatePDF(data []byte) error {
	disablePDFConfigDir.Do(api.DisableConfigDir)

	conf := pdfModel.NewDefaultConfiguration()
	conf.ValidationMode = pdfModel.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return errors.Wrapf(library.ErrValidation, "invalid pdf: %v", err)
	}

	return nil
}

func checkExt(kind Kind, ext string) error {
	switch kind {
	case KindPostAttachment:
		if ext != "pdf" {
			return errors.Wrapf(library.ErrValidation, "attachment must be a pdf, got %q", ext)
		}
	default:
		if _, ok := imageExts[ext]; !ok {
			return errors.Wrapf(library.ErrValidation, "unsupported image type %q", ext)
		}
	}

	return nil
}
