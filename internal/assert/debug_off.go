//go:build !treeguides_debug

package assert

// Debug is true when built with the treeguides_debug tag.
const Debug = false
