// Package assert reports violated preconditions. Builds tagged
// treeguides_debug panic on a violation; release builds log it and let the
// caller fall back to a no-op.
package assert

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("treeguides.assert")

// That returns cond. When cond is false the formatted message is either
// raised as a panic (debug builds) or logged as an error.
func That(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if Debug {
		panic("assertion failed: " + msg)
	}
	log.Errorf("assertion failed: %s", msg)
	return false
}
