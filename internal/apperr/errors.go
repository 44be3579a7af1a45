// Package apperr defines sentinel errors shared across raido packages.
package apperr

import "errors"

var (
	// ErrNotFound marks a missing vault root. Fatal: the run aborts before
	// any file is written.
	ErrNotFound = errors.New("not found")

	// ErrMalformedDocument marks a document without a recognizable
	// front-matter block. Per-file: the batch records it and continues.
	ErrMalformedDocument = errors.New("malformed document")
)
