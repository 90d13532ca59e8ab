// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLinkExists    = errors.New("link exists")
	ErrSelfLink      = errors.New("self link")
	ErrInvalidName   = errors.New("invalid book name")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrActiveBook    = errors.New("book is active")
)

// Book file failures. They wrap the underlying I/O error.
var (
	ErrCreateFailed = errors.New("book create failed")
	ErrLoadFailed   = errors.New("book load failed")
	ErrDeleteFailed = errors.New("book delete failed")
)
