package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/most-network/bridge/core"
)

// maxSubmitAttempts bounds the retry loop for a single vote submission
// before the handler gives up and surfaces the failure to its
// supervisor.
var maxSubmitAttempts = 5

// submitBaseBackoff is the starting delay of the handler's exponential
// backoff between submission attempts. Var rather than const so tests
// can shrink it.
var submitBaseBackoff = 500 * time.Millisecond

// Handler is the event handler: for every event in a batch it
// recomputes the canonical hash and submits the peer-chain vote,
// retrying transient failures with bounded exponential backoff and
// escalating permanent ones to the circuit breaker bus. Only once every
// event in a batch has been handled does the batch's ack fire.
type Handler struct {
	name    string
	in      <-chan EventsBatch
	dest    Destination
	breaker *Breaker
	log     *logrus.Entry
}

// NewHandler returns a handler named name, consuming batches from in and
// submitting votes through dest.
func NewHandler(name string, in <-chan EventsBatch, dest Destination, breaker *Breaker, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{name: name, in: in, dest: dest, breaker: breaker, log: log.WithField("handler", name)}
}

// Run drives the handler until ctx is cancelled, its input channel
// closes, or a fatal breaker signal arrives. It returns the first
// unrecoverable error encountered (retry exhaustion, or a permanent error
// after publishing it as fatal) so the supervisor can decide whether to
// restart.
func (h *Handler) Run(ctx context.Context) error {
	breakerCh := h.breaker.Subscribe()
	defer h.breaker.Unsubscribe(breakerCh)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-breakerCh:
			if !ok {
				return nil
			}
			if ev.Kind == BreakerFatal {
				h.log.WithField("reason", ev.Reason).Error("fatal breaker signal, stopping handler")
				return nil
			}
			h.log.WithField("reason", ev.Reason).Warn("transient breaker signal observed")

		case batch, ok := <-h.in:
			if !ok {
				return nil
			}
			if err := h.handleBatch(ctx, batch); err != nil {
				h.log.WithError(err).WithField("block", batch.Block).Error("batch handling failed, ack withheld")
				return err
			}
			select {
			case batch.Ack <- struct{}{}:
			default:
			}
		}
	}
}

// handleBatch processes every event of a batch in order. Ordering
// within a block carries no meaning — the peer bridge is idempotent on
// the canonical hash — so events are handled serially rather than
// fanned out into per-event goroutines, which would only add
// coordination cost for no benefit at bridge-scale batch sizes.
func (h *Handler) handleBatch(ctx context.Context, batch EventsBatch) error {
	for _, ev := range batch.Events {
		req := VoteRequest{
			Hash:         RequestHash(ev),
			CommitteeID:  ev.CommitteeID,
			DestToken:    ev.DestToken,
			Amount:       ev.Amount,
			DestReceiver: ev.DestReceiver,
			Nonce:        ev.Nonce,
		}
		if err := h.submitWithRetry(ctx, req); err != nil {
			if isPermanent(err) {
				h.breaker.Publish(CircuitBreakerEvent{
					Kind:   BreakerFatal,
					Source: h.name,
					Reason: fmt.Sprintf("permanent error on hash %x: %v", req.Hash, err),
				})
			}
			return err
		}
	}
	return nil
}

// submitWithRetry submits req, retrying transient failures with
// exponential backoff up to maxSubmitAttempts. A permanent error (hash
// mismatch, not-in-committee) returns immediately without retrying —
// the configuration is wrong and retrying cannot fix it.
func (h *Handler) submitWithRetry(ctx context.Context, req VoteRequest) error {
	delay := submitBaseBackoff
	var lastErr error
	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		err := h.dest.SubmitVote(ctx, req)
		if err == nil {
			return nil
		}
		lastErr = err
		if isPermanent(err) {
			return err
		}
		h.log.WithError(err).WithField("attempt", attempt).Warn("vote submission failed, retrying")
		if attempt == maxSubmitAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("exhausted %d attempts: %w", maxSubmitAttempts, lastErr)
}

// isPermanent reports whether err reflects a configuration mistake an
// operator must fix (hash mismatch, caller not in committee) rather
// than a transient transport/contract failure worth retrying.
func isPermanent(err error) bool {
	return errors.Is(err, core.ErrHashDoesNotMatchData) || errors.Is(err, core.ErrNotInCommittee)
}
