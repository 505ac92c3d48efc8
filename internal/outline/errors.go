package outline

import "errors"

// Decoding errors
var (
	// ErrNoRoot indicates that an outline document has no root node.
	ErrNoRoot = errors.New("outline has no root node")
)
