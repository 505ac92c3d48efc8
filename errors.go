package treeguides

import (
	"errors"

	"github.com/jward/treeguides/internal/runtime"
)

// Pass errors
var (
	// ErrStaleOutline indicates that an outline was computed for another
	// version of the document and cannot be converted to the current one.
	ErrStaleOutline = errors.New("outline does not match document")

	// ErrDisposed indicates use of a Pass after Dispose.
	ErrDisposed = errors.New("pass disposed")
)

// Analysis errors
var (
	// ErrAnalyzerClosed indicates a request made after Close.
	ErrAnalyzerClosed = errors.New("analyzer closed")

	// ErrUnsupportedLanguage indicates a file with no outline script.
	ErrUnsupportedLanguage = runtime.ErrUnsupportedLanguage
)
