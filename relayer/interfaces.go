package relayer

import "context"

// Source streams a chain's CrosschainTransferRequest events, grouped by
// block, starting at fromBlock. Concrete implementations live in
// relayer/chainio; the narrow interface is declared here so the
// watcher never depends on a concrete chain SDK. The returned
// error channel carries unrecoverable transport failures; the batch
// channel is closed once the subscription has torn down.
type Source interface {
	ChainName() string
	Subscribe(ctx context.Context, fromBlock uint64) (<-chan BlockBatch, <-chan error)
}

// Destination submits a guardian's vote to a chain's bridge contract.
// Implementations classify failures by returning the bridge's own
// sentinel errors (core.ErrHashDoesNotMatchData, core.ErrNotInCommittee)
// for permanent, configuration-level failures, and any other error for
// a transient, retryable one — the handler tells these apart with
// errors.Is, never by inspecting adapter-specific error strings.
type Destination interface {
	ChainName() string
	SubmitVote(ctx context.Context, v VoteRequest) error
}

// Signer abstracts the signing key the relayer holds for a chain. The
// adapters in relayer/chainio do not take one: EthereumChain is
// constructed with an *ecdsa.PrivateKey and SubstrateChain with a signer
// seed. Key management (custody, rotation) is out of scope.
type Signer interface {
	ChainName() string
	Address() string
}
