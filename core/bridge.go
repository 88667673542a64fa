package core

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// ownerState is the bridge's two-step ownership slot: the current owner
// remains authoritative until a stored pending owner calls
// AcceptOwnership.
type ownerState struct {
	Owner   AccountID  `json:"owner"`
	Pending *AccountID `json:"pending,omitempty"`
}

// mainData is the bridge's "lazy cell": the small, frequently-read,
// rarely-large block of global configuration kept as a single
// mutex-guarded struct rather than scattered across many keyed slots.
type mainData struct {
	RequestNonce  U128
	CommitteeID   uint64
	IsHalted      bool
	Owner         ownerState
	PocketMoney   U128
	CodeHash      [32]byte
}

// Bridge is the bridge state machine: it wires the canonical request
// hash, committee registry, request ledger, and fee/reward engine
// behind the contract's public operations and queries. Construction
// starts Halted: the admin must wire pairs and an oracle before
// un-halting.
type Bridge struct {
	mu sync.RWMutex

	store    Store
	registry *Registry
	ledger   *Ledger
	fees     *FeeEngine
	native   NativeLedger
	tokens   map[AccountID]MintBurnToken
	pairs    map[AccountID]AccountID
	events   Broadcaster
	log      *logrus.Entry

	data mainData
}

// NewBridge constructs a halted bridge. owner is the initial contract
// owner; native is the chain's native-currency ledger used for fee
// collection, refunds, and pocket-money disbursement.
func NewBridge(store Store, native NativeLedger, events Broadcaster, owner AccountID, oracle OracleConfig, log *logrus.Entry) *Bridge {
	if events == nil {
		events = NopBroadcaster{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Bridge{
		store:    store,
		registry: NewRegistry(store),
		ledger:   NewLedger(store, log),
		fees:     NewFeeEngine(store, oracle, log),
		native:   native,
		tokens:   make(map[AccountID]MintBurnToken),
		pairs:    make(map[AccountID]AccountID),
		events:   events,
		log:      log,
		data: mainData{
			IsHalted: true,
			Owner:    ownerState{Owner: owner},
		},
	}
}

// RegisterToken wires the MintBurnToken capability for a token address so
// the bridge can burn/mint it. Out-of-band from the public contract
// surface (a real deployment resolves this by address at call time); here
// it stands in for "the bridge holds the minter/burner role".
func (b *Bridge) RegisterToken(addr AccountID, token MintBurnToken) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[addr] = token
}

// ---------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------

func (b *Bridge) GetRequestNonce() U128 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.RequestNonce
}

func (b *Bridge) GetCurrentCommitteeID() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.CommitteeID
}

func (b *Bridge) GetPocketMoney() U128 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.PocketMoney
}

func (b *Bridge) GetPocketMoneyBalance() U128 {
	return b.fees.PocketMoneyBalance()
}

func (b *Bridge) GetCollectedCommitteeRewards(committeeID uint64) U128 {
	return b.fees.Collected(committeeID)
}

func (b *Bridge) GetPaidOutMemberRewards(member AccountID, committeeID uint64) U128 {
	return b.fees.PaidOut(member, committeeID)
}

func (b *Bridge) GetOutstandingMemberRewards(member AccountID, committeeID uint64) U128 {
	size, ok := b.registry.Size(committeeID)
	if !ok {
		return U128{}
	}
	return b.fees.Outstanding(member, committeeID, size)
}

func (b *Bridge) GetBaseFee(ctx context.Context) (U128, error) {
	return b.fees.BaseFee(ctx)
}

func (b *Bridge) IsInCommittee(committeeID uint64, acct AccountID) bool {
	return b.registry.IsMember(committeeID, acct)
}

func (b *Bridge) IsHalted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.IsHalted
}

func (b *Bridge) RequestStatus(h [32]byte) (RequestStatus, uint64) {
	return b.ledger.Status(h)
}

func (b *Bridge) GetOwner() AccountID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.Owner.Owner
}

func (b *Bridge) GetPendingOwner() (AccountID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data.Owner.Pending == nil {
		return AccountID{}, false
	}
	return *b.data.Owner.Pending, true
}

// SupportedPair returns the destination token paired with src, if any.
func (b *Bridge) SupportedPair(src AccountID) (AccountID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	dst, ok := b.pairs[src]
	return dst, ok
}

// ---------------------------------------------------------------------
// Ownership (two-step handoff)
// ---------------------------------------------------------------------

func (b *Bridge) ensureOwner(caller AccountID) error {
	if caller != b.data.Owner.Owner {
		return ErrNotOwner
	}
	return nil
}

// EnsureOwner reports whether caller is the current owner, returning
// ErrNotOwner otherwise. Exposed so embedders can pre-check admin
// authority without attempting a mutation.
func (b *Bridge) EnsureOwner(caller AccountID) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ensureOwner(caller)
}

// TransferOwnership stores newOwner as pending; newOwner must call
// AcceptOwnership to complete the handoff. The current owner remains
// authoritative until then.
func (b *Bridge) TransferOwnership(caller, newOwner AccountID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	b.data.Owner.Pending = &newOwner
	b.events.Emit(Event{Name: EventTransferOwnershipInitiated, Caller: caller})
	return nil
}

// AcceptOwnership completes a two-step ownership handoff.
func (b *Bridge) AcceptOwnership(caller AccountID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data.Owner.Pending == nil || *b.data.Owner.Pending != caller {
		return ErrNotPending
	}
	b.data.Owner.Owner = caller
	b.data.Owner.Pending = nil
	b.events.Emit(Event{Name: EventTransferOwnershipAccepted, Caller: caller})
	return nil
}

// ---------------------------------------------------------------------
// Admin operations
// ---------------------------------------------------------------------

// AddPair registers src as bridgeable to dst. Requires halted and that
// the bridge holds the minter role for src.
func (b *Bridge) AddPair(caller, src, dst AccountID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	if !b.data.IsHalted {
		return ErrHaltRequired
	}
	token, ok := b.tokens[src]
	if !ok || token.Minter() != b.bridgeAddress() {
		return ErrNoMintPermission
	}
	b.pairs[src] = dst
	return nil
}

// RemovePair deregisters src. Requires halted.
func (b *Bridge) RemovePair(caller, src AccountID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	if !b.data.IsHalted {
		return ErrHaltRequired
	}
	delete(b.pairs, src)
	return nil
}

// SetCommittee rotates the committee. Requires halted; delegates
// validation and the id bump to the registry.
func (b *Bridge) SetCommittee(caller AccountID, members []AccountID, threshold uint64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return 0, err
	}
	if !b.data.IsHalted {
		return 0, ErrHaltRequired
	}
	newID, err := b.registry.Rotate(b.data.CommitteeID, members, threshold)
	if err != nil {
		return 0, err
	}
	b.data.CommitteeID = newID
	return newID, nil
}

// SetGasPriceOracle rewires the oracle. Not required-halted.
func (b *Bridge) SetGasPriceOracle(caller AccountID, cfg OracleConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	b.fees.SetOracle(cfg)
	return nil
}

// SetPocketMoney sets the per-request subsidy amount.
func (b *Bridge) SetPocketMoney(caller AccountID, amount U128) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	b.data.PocketMoney = amount
	return nil
}

// SetHalted transitions between Halted/Running. Emits HaltedStateChanged
// only when the state actually changes.
func (b *Bridge) SetHalted(caller AccountID, halted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	if b.data.IsHalted == halted {
		return nil
	}
	b.data.IsHalted = halted
	b.events.Emit(Event{Name: EventHaltedStateChanged, Caller: caller})
	return nil
}

// RecoverPSP22 sweeps an accidental token deposit out of the bridge.
// Unrestricted by halt.
func (b *Bridge) RecoverPSP22(caller AccountID, tokenAddr AccountID, to AccountID, amount U128) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	token, ok := b.tokens[tokenAddr]
	if !ok {
		return ErrNotFound
	}
	return token.Transfer(to, amount)
}

// RecoverAzero sweeps accidentally deposited native currency out of the
// bridge. Unrestricted by halt.
func (b *Bridge) RecoverAzero(caller AccountID, to AccountID, amount U128) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	return b.native.Transfer(b.bridgeAddress(), to, amount)
}

// SetCode replaces the code hash the contract presents as its own
// implementation, the platform-native upgrade primitive. Unrestricted
// by halt: an owner stuck with a buggy halt-gated admin op must still
// be able to ship a fix.
func (b *Bridge) SetCode(caller AccountID, codeHash [32]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOwner(caller); err != nil {
		return err
	}
	b.data.CodeHash = codeHash
	return nil
}

// GetCodeHash returns the code hash currently installed via SetCode.
func (b *Bridge) GetCodeHash() [32]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.CodeHash
}

// BridgeAddress is the module address the bridge presents as its own
// identity to tokens and the native ledger (the escrow/custody account),
// exported so callers outside the package (token setup, demo/bootstrap
// wiring) can name it when registering a MintBurnToken's minter role.
func (b *Bridge) BridgeAddress() AccountID {
	return b.bridgeAddress()
}

// bridgeAddress is the module address the bridge presents as its own
// identity to tokens and the native ledger (the escrow/custody account).
// Fixed and well-known.
func (b *Bridge) bridgeAddress() AccountID {
	var a AccountID
	copy(a[:], []byte("most-bridge-module-address------"))
	return a
}

// ---------------------------------------------------------------------
// PayoutRewards
// ---------------------------------------------------------------------

// PayoutRewards transfers member's outstanding reward for committeeID and
// bumps their watermark. Anyone may call this on any member's behalf;
// the funds always land at member. Returns ErrHalted while halted,
// ErrNotFound for an unknown committeeID, and otherwise only the error of
// the native transfer or of the watermark update (overflow).
func (b *Bridge) PayoutRewards(committeeID uint64, member AccountID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data.IsHalted {
		return ErrHalted
	}
	size, ok := b.registry.Size(committeeID)
	if !ok {
		return ErrNotFound
	}
	outstanding := b.fees.Outstanding(member, committeeID, size)
	if outstanding.IsZero() {
		return nil
	}
	if err := b.native.Transfer(b.bridgeAddress(), member, outstanding); err != nil {
		return err
	}
	return b.fees.RecordPayout(member, committeeID, outstanding)
}

// FundPocketMoney adds caller's transferred value to the pocket-money pool.
func (b *Bridge) FundPocketMoney(caller AccountID, transferredValue U128) error {
	if err := b.native.Transfer(caller, b.bridgeAddress(), transferredValue); err != nil {
		return err
	}
	return b.fees.FundPocketMoney(transferredValue)
}

// ---------------------------------------------------------------------
// SendRequest (outbound: burn + fee + nonce + emit)
// ---------------------------------------------------------------------

// SendRequest executes the outbound half of a transfer: lock/burn
// src_token, collect the base fee, bump the nonce, refund any surplus,
// and emit CrosschainTransferRequest. All effects commit together or not
// at all.
func (b *Bridge) SendRequest(ctx context.Context, caller, srcToken AccountID, amount U128, destReceiver AccountID, transferredValue U128) (U128, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data.IsHalted {
		return U128{}, ErrHalted
	}
	if amount.IsZero() {
		return U128{}, ErrZeroAmount
	}
	if destReceiver.IsZero() {
		return U128{}, ErrZeroAddress
	}
	destToken, ok := b.pairs[srcToken]
	if !ok {
		return U128{}, ErrUnsupportedPair
	}
	fee, err := b.fees.BaseFee(ctx)
	if err != nil {
		return U128{}, err
	}
	if transferredValue.Cmp(fee) < 0 {
		return U128{}, ErrBaseFeeTooLow
	}

	token, ok := b.tokens[srcToken]
	if !ok {
		return U128{}, ErrUnsupportedPair
	}
	bridgeAddr := b.bridgeAddress()
	if err := token.TransferFrom(caller, amount); err != nil {
		return U128{}, err
	}
	if err := token.Burn(amount); err != nil {
		return U128{}, ErrBurnFailed
	}

	// The full transferred value moves from the caller into the bridge's
	// custody regardless of whether there is a surplus. At
	// transferredValue == fee exactly (zero refund) this is the only
	// native transfer that occurs, and it must still happen so the
	// bridge's real native balance does not diverge from the fee pool
	// CreditFee is about to record. A failure here reverts the whole
	// call.
	if err := b.native.Transfer(caller, bridgeAddr, transferredValue); err != nil {
		return U128{}, err
	}

	if err := b.fees.CreditFee(b.data.CommitteeID, fee); err != nil {
		return U128{}, err
	}

	newNonce, overflow := b.data.RequestNonce.Inc()
	if overflow {
		return U128{}, ErrOverflow
	}
	assignedNonce := b.data.RequestNonce
	b.data.RequestNonce = newNonce

	surplus := transferredValue.SatSub(fee)
	if !surplus.IsZero() {
		if err := b.native.Transfer(bridgeAddr, caller, surplus); err != nil {
			return U128{}, err
		}
	}

	b.events.Emit(Event{
		Name:         EventCrosschainTransferRequest,
		CommitteeID:  b.data.CommitteeID,
		DestToken:    destToken,
		Amount:       amount,
		DestReceiver: destReceiver,
		Nonce:        assignedNonce,
		Caller:       caller,
	})

	return assignedNonce, nil
}

// ---------------------------------------------------------------------
// ReceiveRequest (inbound: vote, and on quorum mint + pocket money)
// ---------------------------------------------------------------------

// ReceiveRequest records caller's guardian vote for the canonical
// request described by its arguments, recomputing the hash and
// rejecting any mismatch. On quorum it mints dest_token to
// dest_receiver, attempts a best-effort pocket-money disbursement, and
// finalizes the request. The finalization threshold is that of the
// *current* committee, even though the vote is recorded against
// payloadCommitteeID — a preserved asymmetry, see DESIGN.md.
//
// If the quorum-triggering mint fails, the vote that pushed the count
// to threshold is rolled back (Ledger.UnrecordVote) before returning
// ErrMintFailed, so no ghost pending entry survives: the request stays
// at its pre-call Pending count and a later vote can retry quorum,
// rather than wedging forever with every future vote from the same
// signers bouncing off as AlreadySigned.
func (b *Bridge) ReceiveRequest(caller AccountID, h [32]byte, payloadCommitteeID uint64, destToken AccountID, amount U128, destReceiver AccountID, nonce U128) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data.IsHalted {
		return ErrHalted
	}
	if !b.registry.IsMember(payloadCommitteeID, caller) {
		return ErrNotInCommittee
	}

	recomputed := RequestHash(NewU128(payloadCommitteeID), amount, nonce, destToken, destReceiver)
	if recomputed != h {
		return ErrHashDoesNotMatchData
	}

	action := b.ledger.RecordVote(h, caller)
	switch action {
	case ActionAlreadyProcessed:
		b.events.Emit(Event{Name: EventSignedProcessedRequest, Hash: h, Signer: caller})
		return nil
	case ActionAlreadySigned:
		b.events.Emit(Event{Name: EventRequestAlreadySigned, Hash: h, Signer: caller})
		return nil
	}

	count := b.ledger.PendingCount(h)

	threshold, ok := b.registry.Threshold(b.data.CommitteeID)
	if !ok {
		b.ledger.UnrecordVote(h, caller)
		return ErrCorruptedStorage
	}
	if count < threshold {
		b.events.Emit(Event{Name: EventRequestSigned, Hash: h, Signer: caller, CommitteeID: payloadCommitteeID})
		return nil
	}

	token, ok := b.tokens[destToken]
	if !ok {
		b.ledger.UnrecordVote(h, caller)
		return ErrUnsupportedPair
	}
	if err := token.Mint(destReceiver, amount); err != nil {
		// The vote that just pushed the count to quorum must not stick:
		// leave the ledger as if this call never recorded it, so a
		// later call (from this signer or another) can retry and reach
		// quorum again instead of the request wedging permanently at
		// Pending{threshold}.
		b.ledger.UnrecordVote(h, caller)
		return ErrMintFailed
	}

	// The quorum vote is durable only now: emitting RequestSigned any
	// earlier would leak an event for a call whose ledger effects were
	// rolled back above.
	b.events.Emit(Event{Name: EventRequestSigned, Hash: h, Signer: caller, CommitteeID: payloadCommitteeID})

	pocketMoney := b.data.PocketMoney
	if !pocketMoney.IsZero() && b.fees.TryDisbursePocketMoney(pocketMoney) {
		_ = b.native.Transfer(b.bridgeAddress(), destReceiver, pocketMoney)
	}

	b.ledger.Finalize(h)
	b.events.Emit(Event{
		Name:         EventRequestProcessed,
		Hash:         h,
		CommitteeID:  payloadCommitteeID,
		DestToken:    destToken,
		DestReceiver: destReceiver,
		Amount:       amount,
		Nonce:        nonce,
	})
	return nil
}

// MarshalState is a debug/inspection helper for the REST surface; it is
// not part of the contract surface proper.
func (b *Bridge) MarshalState() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return json.Marshal(b.data)
}
