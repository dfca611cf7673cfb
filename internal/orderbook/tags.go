package orderbook

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Tag bit positions, 1-indexed from the least significant bit. Only two bits
// carry a name; the rest are opaque capability flags.
const (
	TagBitTEE = 1
	TagBitGPU = 9
)

// TagBits projects a 256-bit tag onto the ordered set of its set bit
// positions. The projection is what the store indexes for superset and subset
// filters.
func TagBits(tag common.Hash) []int64 {
	v := new(big.Int).SetBytes(tag[:])
	bits := make([]int64, 0, 8)
	for i := 0; i < 256; i++ {
		if v.Bit(i) == 1 {
			bits = append(bits, int64(i+1))
		}
	}
	return bits
}

// BitsToTag rebuilds the bytes32 tag from bit positions.
func BitsToTag(bits []int64) common.Hash {
	v := new(big.Int)
	for _, b := range bits {
		if b < 1 || b > 256 {
			continue
		}
		v.SetBit(v, int(b-1), 1)
	}
	return common.BigToHash(v)
}

// HasBit reports whether the tag sets the given 1-indexed bit.
func HasBit(tag common.Hash, bit int) bool {
	if bit < 1 || bit > 256 {
		return false
	}
	return new(big.Int).SetBytes(tag[:]).Bit(bit-1) == 1
}

// IsTagCompatible reports whether a candidate covers every required bit.
func IsTagCompatible(required, candidate common.Hash) bool {
	req := new(big.Int).SetBytes(required[:])
	cand := new(big.Int).SetBytes(candidate[:])
	// required ⊆ candidate  ⟺  required AND candidate == required
	return new(big.Int).And(req, cand).Cmp(req) == 0
}

// IsMaxTagCompatible reports whether a candidate stays within the ceiling: it
// may not set any bit the max tag forbids.
func IsMaxTagCompatible(maxTag, candidate common.Hash) bool {
	allowed := new(big.Int).SetBytes(maxTag[:])
	cand := new(big.Int).SetBytes(candidate[:])
	return new(big.Int).AndNot(cand, allowed).Sign() == 0
}

// IsRestrictionCompatible applies the null-or-equal rule shared by every
// restriction field.
func IsRestrictionCompatible(restriction, candidate common.Address) bool {
	return restriction == (common.Address{}) || restriction == candidate
}
