// Package motion implements the foreground-segmentation engine: a
// fixed-size RGB pixel buffer, a Gaussian-mixture background model, a
// median-of-N background model, and the fixed-fanout parallel executor
// shared by both models.
package motion

import "errors"

// Sentinel error kinds. Most operations wrap one of these with
// fmt.Errorf's %w verb so callers can errors.Is/errors.As while the
// message stays human-readable, the way pkg/stdimg/engine.go phrases
// its own validation failures; MedianModel returns the bare sentinel.
var (
	// ErrAllocationFailure means a required buffer could not be sized;
	// fatal for the operation that raised it.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrDimensionMismatch means two images expected to share
	// dimensions do not. Fatal for the operation; the caller may choose
	// to drop the frame rather than abort the pipeline.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrOutOfBounds is not normally returned: Get/Set convert
	// out-of-bounds access into a safe zero-value/false result. It
	// exists so callers that want to distinguish "no-op because out of
	// bounds" from other failures have a sentinel to compare against.
	ErrOutOfBounds = errors.New("pixel access out of bounds")

	// ErrInvalidConfiguration means a configuration value fell outside
	// its documented range; rejected at construction time.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrWorkerFailure means a parallel worker failed to start or
	// join; fatal for the operation.
	ErrWorkerFailure = errors.New("worker failure")

	// ErrTooManyEntities is raised by the entity analyzer when a mask
	// would need a 256th surviving entity id. The single-byte tag
	// channel can only address 1..255; rather than wrapping and
	// corrupting identity, the analyzer refuses (spec.md §9, open
	// question (d)).
	ErrTooManyEntities = errors.New("too many entities: tag id would exceed 255")
)
