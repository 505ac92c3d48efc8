package text

import "errors"

// Edit errors
var (
	// ErrOutOfRange indicates that an edit or position lies outside the document.
	ErrOutOfRange = errors.New("offset out of range")
)
