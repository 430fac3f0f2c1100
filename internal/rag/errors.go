package rag

import "errors"

// Sentinel errors returned by vector stores. Callers match them with
// errors.Is after unwrapping.
var (
	// ErrEmptyIndex is returned when a store is searched before any
	// document has been inserted. Recoverable: ingest first, then query.
	ErrEmptyIndex = errors.New("rag: index is empty")

	// ErrDimensionMismatch is returned when an inserted vector's length
	// differs from the dimensionality established by the first insert.
	// This indicates a misconfigured embedding provider, not a condition
	// worth retrying.
	ErrDimensionMismatch = errors.New("rag: embedding dimension mismatch")
)
