package relayer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ackTimeout bounds how long the watcher waits for a handler to ack a
// batch before re-emitting it without advancing the cursor. A handler
// that is merely slow (not stuck) will simply see the same batch
// arrive twice; this is safe because the peer bridge's ledger is
// idempotent on the canonical hash. Var rather than const so tests can
// shrink it.
var ackTimeout = 30 * time.Second

// reconnectBackoff bounds the delay between subscription re-establish
// attempts after a transport error.
var reconnectBackoff = 2 * time.Second

// Watcher is the event watcher: it subscribes to one chain's bridge
// events, forwards each block's batch downstream with a one-shot ack
// handle, and only advances its persisted cursor once that ack fires.
// This gives at-least-once delivery with a monotonic, restart-safe
// cursor; duplicates are absorbed by the peer chain's idempotent
// receive_request.
type Watcher struct {
	chain   string
	source  Source
	cursor  CursorStore
	breaker *Breaker
	out     chan<- EventsBatch
	log     *logrus.Entry
	fromBlock uint64
}

// NewWatcher returns a watcher for chain, sourcing events from source
// and forwarding batches on out (a bounded channel owned by the
// supervisor). fromBlock is the configured starting point used only
// when cursor has no prior entry for chain.
func NewWatcher(chain string, source Source, cursor CursorStore, breaker *Breaker, out chan<- EventsBatch, fromBlock uint64, log *logrus.Entry) *Watcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Watcher{
		chain:     chain,
		source:    source,
		cursor:    cursor,
		breaker:   breaker,
		out:       out,
		fromBlock: fromBlock,
		log:       log.WithField("watcher", chain),
	}
}

// Run drives the watcher until ctx is cancelled or a fatal breaker
// signal arrives, tearing down and re-establishing the subscription
// after a backoff on any transport error. It returns nil both on a clean
// shutdown and when a fatal breaker signal stops it.
func (w *Watcher) Run(ctx context.Context) error {
	breakerCh := w.breaker.Subscribe()
	defer w.breaker.Unsubscribe(breakerCh)

	next := w.startBlock()
	for {
		batches, errs := w.source.Subscribe(ctx, next)
		cont, lastErr := w.drain(ctx, batches, errs, breakerCh, &next)
		if !cont {
			return lastErr
		}

		w.log.WithError(lastErr).Warn("subscription ended, reconnecting after backoff")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectBackoff):
		}
	}
}

// drain consumes one subscription's lifetime. It returns cont=false
// when the watcher should stop entirely (context cancelled or a fatal
// breaker signal), and cont=true when the subscription ended and should
// be re-established from *next.
func (w *Watcher) drain(ctx context.Context, batches <-chan BlockBatch, errs <-chan error, breakerCh <-chan CircuitBreakerEvent, next *uint64) (cont bool, lastErr error) {
	for {
		select {
		case <-ctx.Done():
			return false, nil

		case ev, ok := <-breakerCh:
			if !ok {
				return false, nil
			}
			if ev.Kind == BreakerFatal {
				w.log.WithField("reason", ev.Reason).Error("fatal breaker signal, stopping watcher")
				return false, nil
			}
			w.log.WithField("reason", ev.Reason).Warn("transient breaker signal observed")

		case err, ok := <-errs:
			if !ok {
				continue
			}
			return true, err

		case batch, ok := <-batches:
			if !ok {
				return true, lastErr
			}
			w.forward(ctx, batch, next)
		}
	}
}

// forward sends batch downstream with an ack handle and advances the
// cursor only once the ack fires. An ack timeout re-emits the same
// batch with a fresh ack handle, leaving the cursor untouched: a
// handler that was merely slow sees the batch twice, which is safe
// because the peer bridge is idempotent on the canonical hash, and a
// handler that died gets the batch again once its supervisor restarts
// it.
func (w *Watcher) forward(ctx context.Context, batch BlockBatch, next *uint64) {
	for {
		ack := make(chan struct{}, 1)
		select {
		case w.out <- EventsBatch{Block: batch.Block, Events: batch.Events, Ack: ack}:
		case <-ctx.Done():
			return
		}

		select {
		case <-ack:
			if err := w.cursor.Save(w.chain, batch.Block); err != nil {
				w.log.WithError(err).Warn("failed to persist cursor")
			}
			*next = batch.Block + 1
			w.log.WithField("block", batch.Block).Debug("batch acked, cursor advanced")
			return
		case <-time.After(ackTimeout):
			w.log.WithField("block", batch.Block).Warn("ack timed out, re-emitting batch")
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) startBlock() uint64 {
	if b, ok := w.cursor.Load(w.chain); ok {
		return b + 1
	}
	return w.fromBlock
}
