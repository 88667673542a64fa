package relayer

import (
	"context"
	"testing"
	"time"

	"github.com/most-network/bridge/core"
)

func TestSupervisorRelaysEndToEnd(t *testing.T) {
	src := newFakeSource()
	dest := newFakeDest()
	cursor := NewMemCursorStore()

	sup := NewSupervisor(&Config{}, []Direction{{
		Name:   "a2e",
		Source: src,
		Dest:   dest,
		Cursor: cursor,
	}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	src.push(BlockBatch{Block: 3, Events: []TransferEvent{{
		Block:        3,
		CommitteeID:  0,
		DestToken:    core.AccountID{1},
		Amount:       core.NewU128(5),
		DestReceiver: core.AccountID{2},
	}}})

	waitFor(t, 2*time.Second, func() bool { return dest.callCount() == 1 }, "vote to reach the destination")
	waitFor(t, 2*time.Second, func() bool {
		b, ok := cursor.Load("a2e")
		return ok && b == 3
	}, "cursor to advance past the acked block")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not shut down on cancel")
	}
}

func TestSupervisorRestartsFailedTask(t *testing.T) {
	oldCooldown := restartCooldown
	oldBackoff := submitBaseBackoff
	restartCooldown = 5 * time.Millisecond
	submitBaseBackoff = time.Millisecond
	defer func() {
		restartCooldown = oldCooldown
		submitBaseBackoff = oldBackoff
	}()

	src := newFakeSource()
	// Every scripted attempt fails, so the first batch exhausts the
	// handler's retries, the handler exits with an error, and the
	// supervisor must bring a fresh handler up that then succeeds on the
	// redelivered batch.
	script := make([]error, maxSubmitAttempts)
	for i := range script {
		script[i] = errTransient
	}
	dest := newFakeDest(script...)
	cursor := NewMemCursorStore()

	oldAck := ackTimeout
	ackTimeout = 20 * time.Millisecond
	defer func() { ackTimeout = oldAck }()

	sup := NewSupervisor(&Config{}, []Direction{{
		Name:   "a2e",
		Source: src,
		Dest:   dest,
		Cursor: cursor,
	}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	src.push(BlockBatch{Block: 1, Events: []TransferEvent{{
		Block:        1,
		DestToken:    core.AccountID{1},
		Amount:       core.NewU128(5),
		DestReceiver: core.AccountID{2},
	}}})

	// The restarted handler's successful submission is attempt
	// maxSubmitAttempts+1; the un-acked batch is redelivered because the
	// watcher never advanced its cursor.
	waitFor(t, 5*time.Second, func() bool { return dest.callCount() > maxSubmitAttempts }, "a restarted handler to retry the batch")
	waitFor(t, 5*time.Second, func() bool {
		b, ok := cursor.Load("a2e")
		return ok && b == 1
	}, "cursor to advance once the retried batch succeeds")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not shut down on cancel")
	}
}
