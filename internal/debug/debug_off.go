//go:build !zgriddebug

package debug

// Enabled reports whether assertions are compiled in.
const Enabled = false

// Assert does nothing in release builds.
func Assert(cond bool, msg string) {}
