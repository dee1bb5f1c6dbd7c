// Package debug provides assertions that fail fast on caller contract
// violations when built with the zgriddebug tag, and compile away otherwise.
package debug
