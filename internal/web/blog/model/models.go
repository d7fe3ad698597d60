// Package model contains all the models used by the blog.
package model

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/library"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

var (
	// ErrNotFound post or comment does not exist, or is hidden from the caller
	ErrNotFound = docstore.ErrNotFound
	// ErrValidation input rejected, nothing was written
	ErrValidation = library.ErrValidation
	// ErrSlugTaken another post already uses the slug
	ErrSlugTaken = errors.Wrap(library.ErrConflict, "slug already in use")
)
