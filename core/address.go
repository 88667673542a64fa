package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AccountID is a 32-byte account identity, the common representation for
// both a Chain A account and a 32-byte-padded Chain E address. It is the
// type carried by the canonical request fields dest_token and
// dest_receiver, and by committee membership.
type AccountID [32]byte

// ZeroAccount is the all-zeros 32-byte identity rejected as a destination
// receiver by send_request.
var ZeroAccount AccountID

// IsZero reports whether a is the all-zeros identity.
func (a AccountID) IsZero() bool {
	return a == ZeroAccount
}

// String renders the account as a 0x-prefixed hex string.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText renders the account in its hex form. This also makes
// AccountID usable as a JSON map key (committee membership sets are
// stored as map[AccountID]bool).
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the hex form produced by MarshalText.
func (a *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccountID decodes a 0x-optional hex string into a 32-byte AccountID.
func ParseAccountID(s string) (AccountID, error) {
	var a AccountID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return a, fmt.Errorf("%w: %s", ErrInvalidAccountID, s)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidAccountID, len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}
