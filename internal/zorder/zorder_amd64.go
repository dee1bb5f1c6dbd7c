//go:build amd64 && !noasm

package zorder

import "golang.org/x/sys/cpu"

var hasFastInterleave = cpu.X86.HasBMI2

// pdep deposits the low bits of src into the set-bit positions of mask.
// Implemented in zorder_amd64.s; callers must check hasFastInterleave.
//
//go:noescape
func pdep(src, mask uint64) uint64

func interleaveFast(x, y uint32) uint64 {
	return pdep(uint64(x), evenMask) | pdep(uint64(y), oddMask)
}
