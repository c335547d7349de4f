package domain

import "errors"

var (
	// ErrTagsNotSupported marks tag aggregation as a declared gap: the
	// per-marker corner transform exists, the top-level collection step
	// does not. Callers can distinguish "no tags" from "not implemented".
	ErrTagsNotSupported = errors.New("tag aggregation is not supported")

	// ErrDegenerateMarker indicates a snapshot contract breach: a marker
	// with fewer than four corners or a collapsed bounding box.
	ErrDegenerateMarker = errors.New("degenerate marker geometry")

	ErrEmptyRegistry   = errors.New("source token registry is empty")
	ErrRegistryOverlap = errors.New("pose and tag source tokens overlap")
)
