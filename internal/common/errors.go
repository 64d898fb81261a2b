// Package common defines shared constants and sentinel errors used across
// the attachment store. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Storage errors: the backing file or a cache file could not be
	// created, read, moved, or removed.
	ErrStorage       = errors.New("storage error")
	ErrNoBackingFile = errors.New("no backing file")
	ErrSourceMissing = errors.New("source missing")
	ErrPathCollision = errors.New("path collision")

	// State errors: an operation conflicts with the record's lifecycle.
	ErrAlreadyWritten   = errors.New("backing file already written")
	ErrNotUploaded      = errors.New("not uploaded")
	ErrIncompleteRecord = errors.New("incomplete record")

	// Thumbnail pipeline errors.
	ErrGeneration = errors.New("thumbnail generation failed")
)
