package model

import (
	blogModel "github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/library"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

var (
	// ErrNotFound profile or skill does not exist
	ErrNotFound = docstore.ErrNotFound
	// ErrValidation input rejected, nothing was written
	ErrValidation = library.ErrValidation
)

// Home is everything the landing page shows
type Home struct {
	// Profile is nil until an admin saves one
	Profile     *Profile          `json:"profile"`
	LatestPosts []*blogModel.Post `json:"latestPosts"`
}
