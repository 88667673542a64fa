package relayer

import "github.com/most-network/bridge/core"

// TransferEvent is the decoded, chain-agnostic form of a
// CrosschainTransferRequest log/event, carrying exactly the five fields
// the canonical hash is computed over plus the block it was
// observed in.
type TransferEvent struct {
	Block        uint64
	CommitteeID  uint64
	DestToken    core.AccountID
	Amount       core.U128
	DestReceiver core.AccountID
	Nonce        core.U128
}

// BlockBatch groups every TransferEvent observed in a single source
// block. A source adapter owns its own notion of "the block is sealed"
// (a new-head boundary on an EVM chain, a notification for a later block
// on Chain A) and emits at most one BlockBatch per block. Blocks with
// zero events may be skipped; the watcher's cursor moves to the block
// after the last acked batch, so it need not advance contiguously.
type BlockBatch struct {
	Block  uint64
	Events []TransferEvent
}

// EventsBatch is what the watcher forwards to the handler: a
// block's events plus a one-shot ack back-channel. The watcher only
// advances its cursor past Block once Ack has fired.
type EventsBatch struct {
	Block  uint64
	Events []TransferEvent
	Ack    chan<- struct{}
}

// VoteRequest is the peer-chain receive_request call a handler submits
// for one TransferEvent, with its canonical hash already computed.
type VoteRequest struct {
	Hash         [32]byte
	CommitteeID  uint64
	DestToken    core.AccountID
	Amount       core.U128
	DestReceiver core.AccountID
	Nonce        core.U128
}

// RequestHash recomputes the canonical hash for ev, the step every
// handler performs before submitting a vote.
func RequestHash(ev TransferEvent) [32]byte {
	return core.RequestHash(core.NewU128(ev.CommitteeID), ev.Amount, ev.Nonce, ev.DestToken, ev.DestReceiver)
}
