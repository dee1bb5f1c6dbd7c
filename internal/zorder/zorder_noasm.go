//go:build !amd64 || noasm

package zorder

const hasFastInterleave = false

func interleaveFast(x, y uint32) uint64 {
	return interleaveGeneric(x, y)
}
