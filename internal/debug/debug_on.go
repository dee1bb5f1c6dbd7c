//go:build zgriddebug

package debug

// Enabled reports whether assertions are compiled in.
const Enabled = true

// Assert panics with msg when cond is false.
func Assert(cond bool, msg string) {
	if !cond {
		panic("zgrid: " + msg)
	}
}
