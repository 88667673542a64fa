package core

import (
	"errors"
	"sync"
)

// MintBurnToken is the narrow capability interface through which the
// bridge reaches a PSP22-style token it has been granted minter/burner
// rights over. The token contract itself is an external collaborator
// (out of scope); this interface is the only surface the bridge needs:
// allowance-gated transfer-in for the outbound burn path, a plain
// transfer-out for sweeping accidental deposits, and role-gated
// mint/burn.
type MintBurnToken interface {
	// TransferFrom moves amount from "from" into the bridge's own
	// custody, honoring a prior PSP22-style allowance.
	TransferFrom(from AccountID, amount U128) error
	// Transfer moves amount out of the bridge's own custody to "to",
	// leaving total supply untouched. Used to sweep accidental deposits.
	Transfer(to AccountID, amount U128) error
	// Burn destroys amount from the bridge's own custody.
	Burn(amount U128) error
	// Mint creates amount and credits it to "to".
	Mint(to AccountID, amount U128) error
	// Minter returns the account currently authorized to mint/burn.
	Minter() AccountID
}

// ErrTokenUnavailable is returned by FakeToken operations once Fail is
// set, used by tests to exercise the external-call failure paths.
var ErrTokenUnavailable = errors.New("token unavailable")

// FakeToken is an in-memory MintBurnToken used by tests and by the
// REST/CLI demo wiring in lieu of a real PSP22 deployment.
type FakeToken struct {
	mu        sync.Mutex
	minter    AccountID
	balances  map[AccountID]U128
	allowance map[[2]AccountID]U128
	supply    U128
	custody   U128
	Fail      bool
}

// NewFakeToken returns a fake token whose minter/burner role is held by
// minter (conventionally the bridge's own module address).
func NewFakeToken(minter AccountID) *FakeToken {
	return &FakeToken{
		minter:    minter,
		balances:  make(map[AccountID]U128),
		allowance: make(map[[2]AccountID]U128),
	}
}

func (t *FakeToken) Minter() AccountID { return t.minter }

// Credit gives amount to acct, used to seed balances in tests.
func (t *FakeToken) Credit(acct AccountID, amount U128) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bal := t.balances[acct]
	sum, _ := bal.Add(amount)
	t.balances[acct] = sum
	sup, _ := t.supply.Add(amount)
	t.supply = sup
}

// Approve grants the bridge (or any spender) an allowance from owner.
func (t *FakeToken) Approve(owner, spender AccountID, amount U128) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowance[[2]AccountID{owner, spender}] = amount
}

func (t *FakeToken) BalanceOf(acct AccountID) U128 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[acct]
}

func (t *FakeToken) TotalSupply() U128 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supply
}

// CustodyBalance returns the amount currently held by the bridge itself,
// used by tests asserting on sweep/burn behavior.
func (t *FakeToken) CustodyBalance() U128 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.custody
}

func (t *FakeToken) TransferFrom(from AccountID, amount U128) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return ErrTokenUnavailable
	}
	key := [2]AccountID{from, t.minter}
	allowed := t.allowance[key]
	if allowed.Cmp(amount) < 0 {
		return errors.New("insufficient allowance")
	}
	bal := t.balances[from]
	if bal.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	t.balances[from] = bal.SatSub(amount)
	t.allowance[key] = allowed.SatSub(amount)
	custody, _ := t.custody.Add(amount)
	t.custody = custody
	return nil
}

func (t *FakeToken) Transfer(to AccountID, amount U128) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return ErrTokenUnavailable
	}
	if t.custody.Cmp(amount) < 0 {
		return errors.New("insufficient custody balance")
	}
	t.custody = t.custody.SatSub(amount)
	bal := t.balances[to]
	sum, overflow := bal.Add(amount)
	if overflow {
		return ErrOverflow
	}
	t.balances[to] = sum
	return nil
}

func (t *FakeToken) Burn(amount U128) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return ErrTokenUnavailable
	}
	if t.custody.Cmp(amount) < 0 {
		return errors.New("insufficient custody balance to burn")
	}
	t.custody = t.custody.SatSub(amount)
	t.supply = t.supply.SatSub(amount)
	return nil
}

func (t *FakeToken) Mint(to AccountID, amount U128) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return ErrTokenUnavailable
	}
	bal := t.balances[to]
	sum, overflow := bal.Add(amount)
	if overflow {
		return ErrOverflow
	}
	t.balances[to] = sum
	sup, overflow := t.supply.Add(amount)
	if overflow {
		return ErrOverflow
	}
	t.supply = sup
	return nil
}
