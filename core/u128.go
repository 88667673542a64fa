package core

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// U128 is an unsigned 128-bit integer, represented as two 64-bit limbs.
// The source contract's fields (committee_id, amount, nonce, threshold,
// size, every balance) are u128 on a platform with native big-integer
// support; Go has none, so this type stands in for it. Arithmetic used by
// the bridge (adds, the occasional multiply for base-fee quoting) is
// implemented with explicit overflow checks rather than silently
// wrapping, matching the "Arithmetic: fatal-per-call" row of the error
// taxonomy.
type U128 struct {
	Lo, Hi uint64
}

// NewU128 builds a U128 from a plain machine integer (Hi is zero).
func NewU128(lo uint64) U128 { return U128{Lo: lo} }

// IsZero reports whether the value is 0.
func (u U128) IsZero() bool { return u.Lo == 0 && u.Hi == 0 }

// Cmp returns -1, 0, or 1 as u is less than, equal to, or greater than v.
func (u U128) Cmp(v U128) int {
	if u.Hi != v.Hi {
		if u.Hi < v.Hi {
			return -1
		}
		return 1
	}
	switch {
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	default:
		return 0
	}
}

// Add returns u+v and reports overflow rather than wrapping.
func (u U128) Add(v U128) (U128, bool) {
	lo := u.Lo + v.Lo
	loCarry := uint64(0)
	if lo < u.Lo {
		loCarry = 1
	}
	hi := u.Hi + v.Hi
	hiOverflowed := hi < u.Hi
	hi += loCarry
	hiOverflowed = hiOverflowed || hi < loCarry
	return U128{Lo: lo, Hi: hi}, hiOverflowed
}

// SatSub returns u-v, saturating at zero (used for "outstanding" style
// computations where negative results are meaningless).
func (u U128) SatSub(v U128) U128 {
	if u.Cmp(v) < 0 {
		return U128{}
	}
	lo := u.Lo - v.Lo
	borrow := uint64(0)
	if u.Lo < v.Lo {
		borrow = 1
	}
	hi := u.Hi - v.Hi - borrow
	return U128{Lo: lo, Hi: hi}
}

// Inc returns u+1 and reports overflow (used for the strictly monotone
// request nonce; committee ids are uint64 counters).
func (u U128) Inc() (U128, bool) {
	return u.Add(NewU128(1))
}

// MulSmall multiplies u by a small machine-sized factor, reporting
// overflow rather than wrapping; used by the base-fee quote where a
// clamped oracle price is scaled by gas usage and a 1.20 markup. The
// bridge never needs products wider than 128 bits, so a nonzero high
// limb combined with any factor greater than one overflows by
// definition.
func (u U128) MulSmall(factor uint64) (U128, bool) {
	if factor == 0 {
		return U128{}, false
	}
	if u.Hi != 0 && factor > 1 {
		return U128{}, true
	}
	hi, lo := mul64(u.Lo, factor)
	hi += u.Hi * factor
	return U128{Lo: lo, Hi: hi}, false
}

func mul64(a, b uint64) (hi, lo uint64) {
	const mask = 0xffffffff
	aLo, aHi := a&mask, a>>32
	bLo, bHi := b&mask, b>>32

	low := aLo * bLo
	mid1 := aHi * bLo
	mid2 := aLo * bHi
	high := aHi * bHi

	carry := (low>>32 + mid1&mask + mid2&mask) >> 32
	lo = low + (mid1+mid2)<<32
	hi = high + mid1>>32 + mid2>>32 + carry
	return hi, lo
}

// DivSmall divides u by a small machine-sized divisor, returning the
// quotient; remainder is intentionally discarded by callers that want it
// to roll forward as dust (see the reward engine). A fee pool can
// legitimately accumulate past 2^64 over the life of a busy bridge, so
// the high limb is handled via full-width division rather than assumed
// zero; a zero divisor returns zero instead of panicking, since a
// public reward query must never crash the process on valid input.
func (u U128) DivSmall(divisor uint64) U128 {
	if divisor == 0 {
		return U128{}
	}
	if u.Hi == 0 {
		return NewU128(u.Lo / divisor)
	}
	q := new(big.Int).Quo(u.BigInt(), new(big.Int).SetUint64(divisor))
	return U128FromBigInt(q)
}

// LE16 renders the value as its 16-byte little-endian wire form, as
// required by the canonical hash encoding.
func (u U128) LE16() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], u.Lo)
	binary.LittleEndian.PutUint64(b[8:16], u.Hi)
	return b
}

// U128FromLE16 reinterprets a 16-byte little-endian buffer as a U128.
func U128FromLE16(b [16]byte) U128 {
	return U128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// BigInt renders u as a math/big.Int, used at the relayer's chain
// boundary where amounts travel as EVM uint256 call/log arguments.
func (u U128) BigInt() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(u.Lo))
	return v
}

// U128FromBigInt converts v (assumed non-negative and at most 128
// bits, which every bridge-domain value is by construction) into a
// U128. A v wider than 128 bits makes big.Int.FillBytes panic.
func U128FromBigInt(v *big.Int) U128 {
	var b [16]byte
	v.FillBytes(b[:])
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return U128FromLE16(b)
}

func (u U128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%d", u.Lo)
	}
	return fmt.Sprintf("0x%016x%016x", u.Hi, u.Lo)
}
