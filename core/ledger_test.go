package core

import "testing"

func TestLedgerStatusUnknownInitially(t *testing.T) {
	l := NewLedger(NewMemStore(), nil)
	h := [32]byte{1, 2, 3}
	status, count := l.Status(h)
	if status != StatusUnknown || count != 0 {
		t.Fatalf("got (%v,%d), want (Unknown,0)", status, count)
	}
}

func TestLedgerRecordVoteCountsDistinctSigners(t *testing.T) {
	l := NewLedger(NewMemStore(), nil)
	h := [32]byte{1}
	a, b := mustAccount(t, 1), mustAccount(t, 2)

	if action := l.RecordVote(h, a); action != ActionCounted {
		t.Fatalf("got %v, want ActionCounted", action)
	}
	status, count := l.Status(h)
	if status != StatusPending || count != 1 {
		t.Fatalf("got (%v,%d), want (Pending,1)", status, count)
	}

	if action := l.RecordVote(h, b); action != ActionCounted {
		t.Fatalf("got %v, want ActionCounted", action)
	}
	_, count = l.Status(h)
	if count != 2 {
		t.Fatalf("got count %d, want 2", count)
	}
}

func TestLedgerRecordVoteRejectsDuplicateSigner(t *testing.T) {
	l := NewLedger(NewMemStore(), nil)
	h := [32]byte{1}
	a := mustAccount(t, 1)

	l.RecordVote(h, a)
	if action := l.RecordVote(h, a); action != ActionAlreadySigned {
		t.Fatalf("got %v, want ActionAlreadySigned", action)
	}
	_, count := l.Status(h)
	if count != 1 {
		t.Fatalf("got count %d, want 1 (duplicate must not double-count)", count)
	}
}

func TestLedgerFinalizeMovesToProcessedAndBlocksRevote(t *testing.T) {
	l := NewLedger(NewMemStore(), nil)
	h := [32]byte{1}
	a, b := mustAccount(t, 1), mustAccount(t, 2)

	l.RecordVote(h, a)
	l.RecordVote(h, b)
	l.Finalize(h)

	status, _ := l.Status(h)
	if status != StatusProcessed {
		t.Fatalf("got %v, want Processed", status)
	}

	if action := l.RecordVote(h, mustAccount(t, 3)); action != ActionAlreadyProcessed {
		t.Fatalf("got %v, want ActionAlreadyProcessed", action)
	}
	if action := l.RecordVote(h, a); action != ActionAlreadyProcessed {
		t.Fatalf("got %v, want ActionAlreadyProcessed for a signer who voted pre-finalization too", action)
	}
}

func TestLedgerDistinctHashesAreIndependent(t *testing.T) {
	l := NewLedger(NewMemStore(), nil)
	h1, h2 := [32]byte{1}, [32]byte{2}
	a := mustAccount(t, 1)

	l.RecordVote(h1, a)
	status, count := l.Status(h2)
	if status != StatusUnknown || count != 0 {
		t.Fatalf("voting on h1 affected h2's status: got (%v,%d)", status, count)
	}
}
