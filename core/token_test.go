package core

import "testing"

func TestFakeTokenTransferFromRequiresAllowance(t *testing.T) {
	minter := mustAccount(t, 0xFF)
	tok := NewFakeToken(minter)
	owner := mustAccount(t, 1)
	tok.Credit(owner, NewU128(100))

	if err := tok.TransferFrom(owner, NewU128(50)); err == nil {
		t.Fatal("expected error without allowance")
	}

	tok.Approve(owner, minter, NewU128(50))
	if err := tok.TransferFrom(owner, NewU128(50)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if got := tok.BalanceOf(owner); got.Cmp(NewU128(50)) != 0 {
		t.Fatalf("got %v, want 50", got)
	}
}

func TestFakeTokenBurnRequiresCustody(t *testing.T) {
	minter := mustAccount(t, 0xFF)
	tok := NewFakeToken(minter)
	if err := tok.Burn(NewU128(1)); err == nil {
		t.Fatal("expected error burning with no custody")
	}

	owner := mustAccount(t, 1)
	tok.Credit(owner, NewU128(10))
	tok.Approve(owner, minter, NewU128(10))
	tok.TransferFrom(owner, NewU128(10))
	if err := tok.Burn(NewU128(10)); err != nil {
		t.Fatalf("Burn: %v", err)
	}
	if got := tok.TotalSupply(); !got.IsZero() {
		t.Fatalf("got supply %v, want 0 after burn", got)
	}
}

func TestFakeTokenMintIncreasesBalanceAndSupply(t *testing.T) {
	tok := NewFakeToken(mustAccount(t, 0xFF))
	to := mustAccount(t, 2)
	if err := tok.Mint(to, NewU128(75)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got := tok.BalanceOf(to); got.Cmp(NewU128(75)) != 0 {
		t.Fatalf("got balance %v, want 75", got)
	}
	if got := tok.TotalSupply(); got.Cmp(NewU128(75)) != 0 {
		t.Fatalf("got supply %v, want 75", got)
	}
}

func TestFakeTokenFailToggleAffectsAllOperations(t *testing.T) {
	minter := mustAccount(t, 0xFF)
	tok := NewFakeToken(minter)
	tok.Fail = true
	if err := tok.Mint(mustAccount(t, 1), NewU128(1)); err != ErrTokenUnavailable {
		t.Fatalf("got %v, want ErrTokenUnavailable", err)
	}
	if err := tok.Burn(NewU128(1)); err != ErrTokenUnavailable {
		t.Fatalf("got %v, want ErrTokenUnavailable", err)
	}
	if err := tok.TransferFrom(mustAccount(t, 1), NewU128(1)); err != ErrTokenUnavailable {
		t.Fatalf("got %v, want ErrTokenUnavailable", err)
	}
}

func TestFakeNativeLedgerTransfer(t *testing.T) {
	l := NewFakeNativeLedger()
	from, to := mustAccount(t, 1), mustAccount(t, 2)
	l.Credit(from, NewU128(100))

	if err := l.Transfer(from, to, NewU128(40)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := l.BalanceOf(from); got.Cmp(NewU128(60)) != 0 {
		t.Fatalf("got %v, want 60", got)
	}
	if got := l.BalanceOf(to); got.Cmp(NewU128(40)) != 0 {
		t.Fatalf("got %v, want 40", got)
	}
}

func TestFakeNativeLedgerInsufficientBalance(t *testing.T) {
	l := NewFakeNativeLedger()
	from, to := mustAccount(t, 1), mustAccount(t, 2)
	if err := l.Transfer(from, to, NewU128(1)); err == nil {
		t.Fatal("expected error transferring from empty balance")
	}
}

func TestFakeNativeLedgerFailToggle(t *testing.T) {
	l := NewFakeNativeLedger()
	from, to := mustAccount(t, 1), mustAccount(t, 2)
	l.Credit(from, NewU128(100))
	l.Fail = true
	if err := l.Transfer(from, to, NewU128(10)); err == nil {
		t.Fatal("expected error while Fail is set")
	}
}
