// Package zorder maps 2D cell coordinates to bucket indices on a Z-order
// (Morton) curve, so spatially close cells tend toward nearby indices.
package zorder

const (
	evenMask uint64 = 0x5555555555555555
	oddMask  uint64 = 0xAAAAAAAAAAAAAAAA
)

// Interleave spreads the bits of x over the even result bits and the bits of
// y over the odd result bits. On amd64 with BMI2 this dispatches to a PDEP
// fast path; both paths are bit-identical for all inputs.
func Interleave(x, y uint32) uint64 {
	if hasFastInterleave {
		return interleaveFast(x, y)
	}
	return interleaveGeneric(x, y)
}

// Index converts signed cell coordinates to a bucket index. Negative
// coordinates wrap through an explicit two's-complement conversion to uint32
// before interleaving; the mask then folds the result into the bucket table,
// so distant world regions can alias into the same bucket.
func Index(cx, cy int32, mask uint64) uint64 {
	return Interleave(uint32(cx), uint32(cy)) & mask
}

// SpreadBits doubles the spacing of the low 32 bits of v: bit i moves to
// bit 2i, with zeros in between.
func SpreadBits(v uint32) uint64 {
	r := uint64(v)
	r = (r | r<<16) & 0x0000FFFF0000FFFF
	r = (r | r<<8) & 0x00FF00FF00FF00FF
	r = (r | r<<4) & 0x0F0F0F0F0F0F0F0F
	r = (r | r<<2) & 0x3333333333333333
	r = (r | r<<1) & evenMask
	return r
}

func interleaveGeneric(x, y uint32) uint64 {
	return SpreadBits(x) | SpreadBits(y)<<1
}
