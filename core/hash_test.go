package core

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustAccount(t *testing.T, fill byte) AccountID {
	t.Helper()
	var a AccountID
	for i := range a {
		a[i] = fill
	}
	return a
}

// These vectors pin the bit-exact encoding law: both chain
// implementations must reproduce them exactly. Computed independently
// from the little-endian concatenation rule, not from this package.
func TestRequestHashVectors(t *testing.T) {
	cases := []struct {
		name         string
		committeeID  uint64
		amount       uint64
		nonce        uint64
		destToken    AccountID
		destReceiver AccountID
		want         string
	}{
		{
			name:         "all zero",
			committeeID:  0,
			amount:       0,
			nonce:        0,
			destToken:    AccountID{},
			destReceiver: AccountID{},
			want:         "f13c0ec1ec54518bf202c14532e80c056dddc3070b62bea74dd43518f043b975",
		},
		{
			name:         "basic",
			committeeID:  1,
			amount:       1000,
			nonce:        0,
			destToken:    mustAccount(t, 0x11),
			destReceiver: mustAccount(t, 0x22),
			want:         "f9783c3054772a065a3773ba73baeba7b9ad75edb5dcfa1eb9e3c888bbfc648a",
		},
		{
			name:         "nonzero nonce",
			committeeID:  1,
			amount:       1000,
			nonce:        5,
			destToken:    mustAccount(t, 0x11),
			destReceiver: mustAccount(t, 0x22),
			want:         "33cb7c779ab7a73a619c7a03fc3e27db0908f6ff61fee281e963977a0060e758",
		},
		{
			name:         "large committee id",
			committeeID:  0xFFFFFFFF,
			amount:       123456789,
			nonce:        42,
			destToken:    mustAccount(t, 0xAB),
			destReceiver: mustAccount(t, 0xCD),
			want:         "bef24dc0028cd5ac268f79dd1453c11a11c19ccf694ef30fb4aaeabf8db6d7e9",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := RequestHash(NewU128(c.committeeID), NewU128(c.amount), NewU128(c.nonce), c.destToken, c.destReceiver)
			want, err := hex.DecodeString(c.want)
			if err != nil {
				t.Fatalf("bad test vector: %v", err)
			}
			if !bytes.Equal(got[:], want) {
				t.Fatalf("hash mismatch: got %x want %x", got, want)
			}
		})
	}
}

func TestRequestHashRoundTripsAcrossRecompute(t *testing.T) {
	a := mustAccount(t, 0x01)
	b := mustAccount(t, 0x02)
	h1 := RequestHash(NewU128(3), NewU128(4), NewU128(5), a, b)
	h2 := RequestHash(NewU128(3), NewU128(4), NewU128(5), a, b)
	if h1 != h2 {
		t.Fatalf("hash is not deterministic: %x vs %x", h1, h2)
	}
}

func TestRequestHashSensitiveToEveryField(t *testing.T) {
	base := RequestHash(NewU128(1), NewU128(100), NewU128(0), mustAccount(t, 0xAA), mustAccount(t, 0xBB))
	variants := [][32]byte{
		RequestHash(NewU128(2), NewU128(100), NewU128(0), mustAccount(t, 0xAA), mustAccount(t, 0xBB)),
		RequestHash(NewU128(1), NewU128(101), NewU128(0), mustAccount(t, 0xAA), mustAccount(t, 0xBB)),
		RequestHash(NewU128(1), NewU128(100), NewU128(1), mustAccount(t, 0xAA), mustAccount(t, 0xBB)),
		RequestHash(NewU128(1), NewU128(100), NewU128(0), mustAccount(t, 0xAC), mustAccount(t, 0xBB)),
		RequestHash(NewU128(1), NewU128(100), NewU128(0), mustAccount(t, 0xAA), mustAccount(t, 0xBC)),
	}
	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d collided with base hash", i)
		}
	}
}
