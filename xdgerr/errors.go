// Package xdgerr implements the fatal/warning error policy spec.md S4.9 and
// S7 describe: programmer errors abort the process with a diagnostic,
// numerical singularities and query misses are silent sentinel returns, and
// everything else that's merely unusual is a logged warning. Grounded on the
// teacher's own split between scripts.go's panic-on-duplicate-registration
// (internal/engine/scripts.go) and editor.go's "Warning: ..." log.Printf
// convention (internal/game/editor.go).
package xdgerr

import (
	"fmt"
	"log"
)

// Fatalf reports a programmer error: an unknown surface in a volume, a
// sense contradiction, a double registration, or any other invariant the
// caller controls and must not violate. It panics rather than returning an
// error because these are bugs in the calling code, not runtime conditions.
func Fatalf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

// Warning prints a message and continues. Used for conditions spec.md S4.9
// calls non-fatal: a non-positive thread count, a lookup of a tree id with
// no element tree, and similar recoverable oddities.
func Warning(format string, args ...any) {
	log.Printf("Warning: "+format, args...)
}

// CoerceThreads implements spec.md S4.9's thread-count coercion: a
// non-positive count is a warning, coerced to 1.
func CoerceThreads(n int) int {
	if n <= 0 {
		Warning("non-positive thread count %d coerced to 1", n)
		return 1
	}
	return n
}
