// Package guide turns outline trees into guide descriptors whose positions
// follow document edits.
package guide

import "errors"

// Location errors
var (
	// ErrInvalidLocation indicates that a node's position is inconsistent with
	// the document it was reported for.
	ErrInvalidLocation = errors.New("location inconsistent with document")
)
