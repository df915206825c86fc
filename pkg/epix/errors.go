package epix

import "errors"

// The four failure kinds the pipeline can report. Everything else is a
// programming error and panics.
var (
	ErrInvalidShape      = errors.New("invalid shape")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrAllocation        = errors.New("allocation failure")
)
