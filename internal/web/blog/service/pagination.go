package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const (
	// DefaultPageSize posts per feed page
	DefaultPageSize = 9
	// MaxPageSize larger requests are clamped
	MaxPageSize = 100
	// maxCursorLength rejects junk tokens before decoding
	maxCursorLength = 512
)

// Cursor points right after the last post of a page.
// Category records the filter the cursor was issued under.
type Cursor struct {
	Category  model.Category `json:"c,omitempty"`
	CreatedAt time.Time      `json:"t"`
	ID        string         `json:"i"`
}

// Encode returns the opaque url-safe token
func (c *Cursor) Encode() string {
	raw, _ := json.Marshal(c) // nolint: errchkjson
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token made by Encode
func DecodeCursor(token string) (*Cursor, error) {
	if len(token) > maxCursorLength {
		return nil, errors.Wrap(model.ErrValidation, "cursor too long")
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.Wrap(model.ErrValidation, "malformed cursor")
	}

	c := new(Cursor)
	if err = json.Unmarshal(raw, c); err != nil || c.ID == "" {
		return nil, errors.Wrap(model.ErrValidation, "malformed cursor")
	}

	return c, nil
}

// PageRequest asks for one page of posts
type PageRequest struct {
	// Category empty means every category
	Category model.Category
	// Size zero means the configured default
	Size int
	// Cursor empty means the first page
	Cursor string
}

// Page one page of posts
type Page struct {
	Posts      []*model.Post `json:"posts"`
	NextCursor string        `json:"nextCursor,omitempty"`
	HasMore    bool          `json:"hasMore"`
}

// ListPublishedPosts public feed
func (s *Blog) ListPublishedPosts(ctx context.Context, req PageRequest) (*Page, error) {
	return s.listPosts(ctx, req, true)
}

func (s *Blog) pageSize(size int) int {
	switch {
	case size <= 0:
		return s.cfg.PageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

// listPosts fetches one extra post so HasMore is exact
func (s *Blog) listPosts(ctx context.Context, req PageRequest, publishedOnly bool) (*Page, error) {
	if req.Category != "" && !req.Category.Valid() {
		return nil, errors.Wrapf(model.ErrValidation, "unknown category %q", req.Category)
	}

	size := s.pageSize(req.Size)
	q := dao.PostsQuery{
		Category:      req.Category,
		PublishedOnly: publishedOnly,
		Limit:         size + 1,
	}

	if req.Cursor != "" {
		cursor, err := DecodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}

		if cursor.Category == req.Category {
			q.AfterCreatedAt = cursor.CreatedAt
			q.AfterID = cursor.ID
		} else {
			log.Logger.Debug("discard cursor from another category",
				zap.String("cursor_category", string(cursor.Category)),
				zap.String("category", string(req.Category)))
		}
	}

	posts, err := s.dao.ListPosts(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &Page{Posts: posts}
	if len(posts) > size {
		page.Posts = posts[:size]
		page.HasMore = true

		last := page.Posts[size-1]
		page.NextCursor = (&Cursor{
			Category:  req.Category,
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		}).Encode()
	}

	return page, nil
}

// Feed walks the public feed page by page for one reader.
// Changing the category restarts from the first page.
type Feed struct {
	svc      *Blog
	category model.Category
	size     int
	cursor   string
	done     bool
}

// NewFeed create a feed starting at the first page
func (s *Blog) NewFeed(category model.Category, size int) *Feed {
	return &Feed{svc: s, category: category, size: size}
}

// SetCategory switches the filter and clears the cursor
func (f *Feed) SetCategory(category model.Category) {
	f.category = category
	f.cursor = ""
	f.done = false
}

// Category current filter
func (f *Feed) Category() model.Category {
	return f.category
}

// Cursor token of the next page, empty before the first page or after the last
func (f *Feed) Cursor() string {
	return f.cursor
}

// HasMore reports whether Next can return more posts
func (f *Feed) HasMore() bool {
	return !f.done
}

// Next loads the following page, an exhausted feed returns an empty page
func (f *Feed) Next(ctx context.Context) (*Page, error) {
	if f.done {
		return &Page{}, nil
	}

	page, err := f.svc.ListPublishedPosts(ctx, PageRequest{
		Category: f.category,
		Size:     f.size,
		Cursor:   f.cursor,
	})
	if err != nil {
		return nil, err
	}

	f.cursor = page.NextCursor
	f.done = !page.HasMore
	return page, nil
}
