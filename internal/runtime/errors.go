package runtime

import "errors"

// ErrUnsupportedLanguage is returned for a language without a grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")
