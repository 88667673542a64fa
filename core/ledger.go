package core

import (
	"encoding/hex"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// RequestStatus is the externally observable lifecycle stage of a
// canonical request hash.
type RequestStatus int

const (
	StatusUnknown RequestStatus = iota
	StatusPending
	StatusProcessed
)

// VoteAction is the outcome of recording a single guardian's vote.
type VoteAction int

const (
	ActionAlreadyProcessed VoteAction = iota
	ActionAlreadySigned
	ActionCounted
)

const (
	pendingPrefix   = "ledger:pending:"
	processedPrefix = "ledger:processed:"
	signaturePrefix = "ledger:sig:"
)

type pendingEntry struct {
	SignatureCount uint64 `json:"signature_count"`
}

func pendingKey(h [32]byte) []byte {
	return []byte(pendingPrefix + hex.EncodeToString(h[:]))
}

func processedKey(h [32]byte) []byte {
	return []byte(processedPrefix + hex.EncodeToString(h[:]))
}

func signatureKey(h [32]byte, signer AccountID) []byte {
	return []byte(signaturePrefix + hex.EncodeToString(h[:]) + ":" + hex.EncodeToString(signer[:]))
}

// Ledger is the request ledger: the pending-votes map, the
// processed set acting as the replay shield, and the per-signer vote
// bitmap that forbids double-voting. A hash is never simultaneously
// pending and processed, and once processed it is never revisited.
type Ledger struct {
	store Store
	log   *logrus.Entry
}

// NewLedger returns a request ledger over store.
func NewLedger(store Store, log *logrus.Entry) *Ledger {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ledger{store: store, log: log}
}

// Status reports the lifecycle stage of h. The processed set is checked
// first, then the pending map, then Unknown is reported; this ordering
// is observable.
func (l *Ledger) Status(h [32]byte) (RequestStatus, uint64) {
	if _, ok := l.store.Get(processedKey(h)); ok {
		return StatusProcessed, 0
	}
	if raw, ok := l.store.Get(pendingKey(h)); ok {
		var p pendingEntry
		_ = json.Unmarshal(raw, &p)
		return StatusPending, p.SignatureCount
	}
	return StatusUnknown, 0
}

// RecordVote applies signer's vote for h, returning the resulting action.
// AlreadyProcessed and AlreadySigned are both *successful* outcomes per
// the error taxonomy's "idempotent no-op" row — late or duplicate votes
// from racing guardians must never surface as caller-visible errors.
func (l *Ledger) RecordVote(h [32]byte, signer AccountID) VoteAction {
	if _, ok := l.store.Get(processedKey(h)); ok {
		l.log.WithField("hash", hex.EncodeToString(h[:])).Info("vote for already-processed request")
		return ActionAlreadyProcessed
	}

	sigKey := signatureKey(h, signer)
	if _, ok := l.store.Get(sigKey); ok {
		l.log.WithField("hash", hex.EncodeToString(h[:])).Info("duplicate vote from signer")
		return ActionAlreadySigned
	}

	var p pendingEntry
	if raw, ok := l.store.Get(pendingKey(h)); ok {
		_ = json.Unmarshal(raw, &p)
	}
	p.SignatureCount++
	raw, _ := json.Marshal(p)
	l.store.Set(pendingKey(h), raw)
	l.store.Set(sigKey, []byte{1})

	l.log.WithFields(logrus.Fields{
		"hash":  hex.EncodeToString(h[:]),
		"count": p.SignatureCount,
	}).Info("vote recorded")
	return ActionCounted
}

// PendingCount returns the current signature count for h, valid only
// immediately after a Counted action from the same call sequence.
func (l *Ledger) PendingCount(h [32]byte) uint64 {
	_, count := l.Status(h)
	return count
}

// UnrecordVote undoes a prior Counted RecordVote for (h, signer): it
// decrements the pending signature count and clears the signer's
// signature entry, as if the vote had never been recorded. Callers use
// this to keep the mint-then-finalize step atomic: a quorum
// vote that triggers a mint which then fails must leave the ledger
// exactly as it was before that vote, so the same or another guardian
// can retry and reach quorum again rather than the request getting
// stuck at Pending{threshold} forever with every future vote from
// already-recorded signers bouncing off as AlreadySigned.
func (l *Ledger) UnrecordVote(h [32]byte, signer AccountID) {
	l.store.Delete(signatureKey(h, signer))

	var p pendingEntry
	raw, ok := l.store.Get(pendingKey(h))
	if !ok {
		return
	}
	_ = json.Unmarshal(raw, &p)
	if p.SignatureCount <= 1 {
		l.store.Delete(pendingKey(h))
		return
	}
	p.SignatureCount--
	raw, _ = json.Marshal(p)
	l.store.Set(pendingKey(h), raw)
}

// Finalize moves h from pending to processed. Signature entries are
// deliberately not erased: they remain a forensic record and continue to
// block no-op revotes after finalization.
func (l *Ledger) Finalize(h [32]byte) {
	l.store.Set(processedKey(h), []byte{1})
	l.store.Delete(pendingKey(h))
	l.log.WithField("hash", hex.EncodeToString(h[:])).Info("request finalized")
}
