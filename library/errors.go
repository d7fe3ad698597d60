package library

import "github.com/Laisky/errors/v2"

var (
	// ErrValidation input rejected, nothing was written
	ErrValidation = errors.New("invalid input")
	// ErrConflict the write collides with existing data
	ErrConflict = errors.New("conflict")
)
