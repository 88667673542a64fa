package chainio

import (
	"context"
	"sync"

	"github.com/most-network/bridge/core"
	"github.com/most-network/bridge/relayer"
)

// FakeChain is an in-memory Source+Destination pair wired directly to a
// core.Bridge, standing in for a live chain. Appending a
// block via Append makes its events observable to any in-flight
// Subscribe call; SubmitVote calls straight into the peer bridge with
// caller as the voting guardian.
type FakeChain struct {
	name   string
	bridge *core.Bridge
	caller core.AccountID

	mu      sync.Mutex
	batches []relayer.BlockBatch
	subs    []chan relayer.BlockBatch
}

// NewFakeChain returns a fake chain adapter named name, submitting votes
// to bridge as caller.
func NewFakeChain(name string, bridge *core.Bridge, caller core.AccountID) *FakeChain {
	return &FakeChain{name: name, bridge: bridge, caller: caller}
}

func (f *FakeChain) ChainName() string { return f.name }

// Append publishes a new block's events to every active subscriber and
// records it so a subscriber joining later still sees blocks at or
// after its requested fromBlock.
func (f *FakeChain) Append(batch relayer.BlockBatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	for _, ch := range f.subs {
		select {
		case ch <- batch:
		default:
		}
	}
}

func (f *FakeChain) Subscribe(ctx context.Context, fromBlock uint64) (<-chan relayer.BlockBatch, <-chan error) {
	out := make(chan relayer.BlockBatch, 16)
	errs := make(chan error, 1)

	f.mu.Lock()
	for _, b := range f.batches {
		if b.Block >= fromBlock {
			out <- b
		}
	}
	f.subs = append(f.subs, out)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, ch := range f.subs {
			if ch == out {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				break
			}
		}
		close(out)
		close(errs)
	}()

	return out, errs
}

func (f *FakeChain) SubmitVote(ctx context.Context, v relayer.VoteRequest) error {
	return f.bridge.ReceiveRequest(f.caller, v.Hash, v.CommitteeID, v.DestToken, v.Amount, v.DestReceiver, v.Nonce)
}
