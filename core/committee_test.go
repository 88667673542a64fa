package core

import "testing"

func TestCheckCommitteeRejectsZeroThreshold(t *testing.T) {
	members := []AccountID{mustAccount(t, 1), mustAccount(t, 2)}
	if err := CheckCommittee(members, 0); err != ErrInvalidThreshold {
		t.Fatalf("got %v, want ErrInvalidThreshold", err)
	}
}

func TestCheckCommitteeRejectsThresholdAboveSize(t *testing.T) {
	members := []AccountID{mustAccount(t, 1), mustAccount(t, 2)}
	if err := CheckCommittee(members, 3); err != ErrInvalidThreshold {
		t.Fatalf("got %v, want ErrInvalidThreshold", err)
	}
}

func TestCheckCommitteeRejectsDuplicateMember(t *testing.T) {
	dup := mustAccount(t, 1)
	members := []AccountID{dup, mustAccount(t, 2), dup}
	if err := CheckCommittee(members, 2); err != ErrDuplicateCommitteeMember {
		t.Fatalf("got %v, want ErrDuplicateCommitteeMember", err)
	}
}

func TestRegistryRotateAssignsIncrementingID(t *testing.T) {
	r := NewRegistry(NewMemStore())
	members := []AccountID{mustAccount(t, 1), mustAccount(t, 2), mustAccount(t, 3)}

	first, err := r.Rotate(0, members, 2)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if first != 1 {
		t.Fatalf("got committee id %d, want 1", first)
	}

	second, err := r.Rotate(first, members, 3)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if second != 2 {
		t.Fatalf("got committee id %d, want 2", second)
	}
}

func TestRegistryIsMemberThresholdSize(t *testing.T) {
	r := NewRegistry(NewMemStore())
	a, b, c := mustAccount(t, 1), mustAccount(t, 2), mustAccount(t, 3)
	id, err := r.Rotate(0, []AccountID{a, b, c}, 2)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	if !r.IsMember(id, a) || !r.IsMember(id, b) || !r.IsMember(id, c) {
		t.Fatal("expected all rotated members to be members")
	}
	if r.IsMember(id, mustAccount(t, 9)) {
		t.Fatal("non-member reported as member")
	}

	threshold, ok := r.Threshold(id)
	if !ok || threshold != 2 {
		t.Fatalf("got threshold %d,%v want 2,true", threshold, ok)
	}
	size, ok := r.Size(id)
	if !ok || size != 3 {
		t.Fatalf("got size %d,%v want 3,true", size, ok)
	}
}

func TestRegistryQueryUnknownCommittee(t *testing.T) {
	r := NewRegistry(NewMemStore())
	if r.IsMember(42, mustAccount(t, 1)) {
		t.Fatal("expected false for unknown committee")
	}
	if _, ok := r.Threshold(42); ok {
		t.Fatal("expected ok=false for unknown committee")
	}
	if _, ok := r.Size(42); ok {
		t.Fatal("expected ok=false for unknown committee")
	}
}

func TestRegistryPastCommitteeStaysQueryable(t *testing.T) {
	r := NewRegistry(NewMemStore())
	members := []AccountID{mustAccount(t, 1), mustAccount(t, 2)}
	id1, _ := r.Rotate(0, members, 1)
	_, err := r.Rotate(id1, []AccountID{mustAccount(t, 3)}, 1)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	if !r.IsMember(id1, mustAccount(t, 1)) {
		t.Fatal("expected old committee membership to remain queryable after rotation")
	}
}
