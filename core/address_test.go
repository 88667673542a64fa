package core

import "testing"

func TestParseAccountIDRoundTrips(t *testing.T) {
	a := mustAccount(t, 0xAB)
	parsed, err := ParseAccountID(a.String())
	if err != nil {
		t.Fatalf("ParseAccountID: %v", err)
	}
	if parsed != a {
		t.Fatalf("got %v, want %v", parsed, a)
	}
}

func TestParseAccountIDRejectsWrongLength(t *testing.T) {
	if _, err := ParseAccountID("0xabcd"); err == nil {
		t.Fatal("expected error for short input")
	}
}

func TestParseAccountIDRejectsNonHex(t *testing.T) {
	if _, err := ParseAccountID("0x" + string(make([]byte, 64))); err == nil {
		t.Fatal("expected error for non-hex input")
	}
}

func TestZeroAccountIsZero(t *testing.T) {
	if !ZeroAccount.IsZero() {
		t.Fatal("expected ZeroAccount.IsZero() to be true")
	}
	if mustAccount(t, 1).IsZero() {
		t.Fatal("expected nonzero account to report false")
	}
}
