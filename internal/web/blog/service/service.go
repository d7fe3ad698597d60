// Package service implements the blog: posts, comments, counters and the feed.
package service

import (
	"sync"
	"time"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
)

const (
	defaultViewTimeout = 5 * time.Second
	defaultAuthorName  = "Laisky"
	// anonymousAuthorName shown for comments without a name
	anonymousAuthorName = "Anonymous"
	// reconcileConcurrency bounds the posts scanned in parallel
	reconcileConcurrency = 8
)

// Config tunes the blog service
type Config struct {
	// PageSize default feed page size
	PageSize int
	// ViewTimeout bounds a background view increment
	ViewTimeout time.Duration
	// AuthorName is used when a post does not name its author
	AuthorName string
}

// Blog blog service
type Blog struct {
	dao *dao.Blog
	cfg Config

	// bg tracks detached view increments
	bg sync.WaitGroup
}

// New create blog service
func New(d *dao.Blog, cfg Config) *Blog {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	if cfg.ViewTimeout <= 0 {
		cfg.ViewTimeout = defaultViewTimeout
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = defaultAuthorName
	}

	return &Blog{dao: d, cfg: cfg}
}

// WaitBackground blocks until every detached view increment has finished
func (s *Blog) WaitBackground() {
	s.bg.Wait()
}
