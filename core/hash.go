package core

import "golang.org/x/crypto/sha3"

// RequestHash is the 32-byte fingerprint of a canonical cross-chain
// request. It is bit-exact across both chain implementations: the wire
// contract is the Keccak-256 digest of the little-endian concatenation
//
//	LE16(committeeID) || destToken[32] || LE16(amount) || destReceiver[32] || LE16(nonce)
//
// Divergence here breaks the bridge, so this function and the test
// vectors pinned alongside it are the single source of truth both chain
// implementations must agree with.
func RequestHash(committeeID, amount, nonce U128, destToken, destReceiver AccountID) [32]byte {
	buf := make([]byte, 0, 16+32+16+32+16)
	cid := committeeID.LE16()
	buf = append(buf, cid[:]...)
	buf = append(buf, destToken[:]...)
	amt := amount.LE16()
	buf = append(buf, amt[:]...)
	buf = append(buf, destReceiver[:]...)
	n := nonce.LE16()
	buf = append(buf, n[:]...)

	h := sha3.NewLegacyKeccak256()
	h.Write(buf)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
