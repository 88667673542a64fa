package relayer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/most-network/bridge/core"
)

func startHandler(t *testing.T, in chan EventsBatch, dest Destination, breaker *Breaker) (cancel context.CancelFunc, done chan error) {
	t.Helper()
	h := NewHandler("testdir", in, dest, breaker, nil)
	ctx, cancelFn := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- h.Run(ctx) }()
	return cancelFn, doneCh
}

func testEvent(nonce uint64) TransferEvent {
	return TransferEvent{
		Block:        1,
		CommitteeID:  3,
		DestToken:    core.AccountID{7},
		Amount:       core.NewU128(100),
		DestReceiver: core.AccountID{9},
		Nonce:        core.NewU128(nonce),
	}
}

func TestHandlerSubmitsCanonicalHashAndAcks(t *testing.T) {
	in := make(chan EventsBatch, 1)
	dest := newFakeDest()
	cancel, _ := startHandler(t, in, dest, NewBreaker())
	defer cancel()

	ev := testEvent(0)
	ack := make(chan struct{}, 1)
	in <- EventsBatch{Block: 1, Events: []TransferEvent{ev}, Ack: ack}

	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("batch not acked")
	}

	if got := dest.callCount(); got != 1 {
		t.Fatalf("got %d submissions, want 1", got)
	}
	v := dest.vote(0)
	want := core.RequestHash(core.NewU128(ev.CommitteeID), ev.Amount, ev.Nonce, ev.DestToken, ev.DestReceiver)
	if v.Hash != want {
		t.Fatalf("submitted hash %x, want canonical %x", v.Hash, want)
	}
	if v.CommitteeID != ev.CommitteeID || v.Amount != ev.Amount || v.Nonce != ev.Nonce ||
		v.DestToken != ev.DestToken || v.DestReceiver != ev.DestReceiver {
		t.Fatalf("submitted vote %+v does not carry the event fields %+v", v, ev)
	}
}

func TestHandlerAcksOnlyAfterEveryEvent(t *testing.T) {
	in := make(chan EventsBatch, 1)
	dest := newFakeDest()
	cancel, _ := startHandler(t, in, dest, NewBreaker())
	defer cancel()

	events := []TransferEvent{testEvent(0), testEvent(1), testEvent(2)}
	ack := make(chan struct{}, 1)
	in <- EventsBatch{Block: 1, Events: events, Ack: ack}

	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("batch not acked")
	}
	if got := dest.callCount(); got != len(events) {
		t.Fatalf("acked after %d of %d submissions", got, len(events))
	}
}

func TestHandlerRetriesTransientThenSucceeds(t *testing.T) {
	oldBackoff := submitBaseBackoff
	submitBaseBackoff = time.Millisecond
	defer func() { submitBaseBackoff = oldBackoff }()

	in := make(chan EventsBatch, 1)
	dest := newFakeDest(errTransient, errTransient, nil)
	cancel, _ := startHandler(t, in, dest, NewBreaker())
	defer cancel()

	ack := make(chan struct{}, 1)
	in <- EventsBatch{Block: 1, Events: []TransferEvent{testEvent(0)}, Ack: ack}

	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("batch not acked after transient failures cleared")
	}
	if got := dest.callCount(); got != 3 {
		t.Fatalf("got %d attempts, want 3", got)
	}
}

func TestHandlerSurfacesRetryExhaustion(t *testing.T) {
	oldBackoff := submitBaseBackoff
	submitBaseBackoff = time.Millisecond
	defer func() { submitBaseBackoff = oldBackoff }()

	script := make([]error, maxSubmitAttempts)
	for i := range script {
		script[i] = errTransient
	}
	in := make(chan EventsBatch, 1)
	dest := newFakeDest(script...)
	cancel, done := startHandler(t, in, dest, NewBreaker())
	defer cancel()

	ack := make(chan struct{}, 1)
	in <- EventsBatch{Block: 1, Events: []TransferEvent{testEvent(0)}, Ack: ack}

	select {
	case err := <-done:
		if !errors.Is(err, errTransient) {
			t.Fatalf("got %v, want wrapped transient error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not surface retry exhaustion")
	}
	if got := dest.callCount(); got != maxSubmitAttempts {
		t.Fatalf("got %d attempts, want %d", got, maxSubmitAttempts)
	}
	select {
	case <-ack:
		t.Fatal("ack fired for a failed batch")
	default:
	}
}

func TestHandlerEscalatesPermanentErrorToBreaker(t *testing.T) {
	in := make(chan EventsBatch, 1)
	dest := newFakeDest(core.ErrHashDoesNotMatchData)
	breaker := NewBreaker()
	sub := breaker.Subscribe()
	defer breaker.Unsubscribe(sub)
	cancel, done := startHandler(t, in, dest, breaker)
	defer cancel()

	ack := make(chan struct{}, 1)
	in <- EventsBatch{Block: 1, Events: []TransferEvent{testEvent(0)}, Ack: ack}

	select {
	case err := <-done:
		if !errors.Is(err, core.ErrHashDoesNotMatchData) {
			t.Fatalf("got %v, want ErrHashDoesNotMatchData", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not stop on permanent error")
	}
	if got := dest.callCount(); got != 1 {
		t.Fatalf("permanent error was retried: %d attempts", got)
	}
	select {
	case ev := <-sub:
		if ev.Kind != BreakerFatal {
			t.Fatalf("got breaker kind %v, want fatal", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no breaker signal published")
	}
	select {
	case <-ack:
		t.Fatal("ack fired for a failed batch")
	default:
	}
}

func TestRequestHashAdapterMatchesCore(t *testing.T) {
	ev := TransferEvent{
		CommitteeID:  1,
		DestToken:    core.AccountID{0xAA},
		Amount:       core.U128{Lo: 2, Hi: 1},
		DestReceiver: core.AccountID{0xBB},
		Nonce:        core.NewU128(7),
	}
	got := RequestHash(ev)
	want := core.RequestHash(core.NewU128(ev.CommitteeID), ev.Amount, ev.Nonce, ev.DestToken, ev.DestReceiver)
	if got != want {
		t.Fatalf("adapter hash %x diverges from canonical %x", got, want)
	}
}
