package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// committee record, partitioned under its own keyed slot per committee
// id: a versioned membership set with a required threshold.
type committeeRecord struct {
	ID        uint64            `json:"id"`
	Members   map[AccountID]bool `json:"members"`
	Threshold uint64            `json:"threshold"`
	Size      uint64            `json:"size"`
	CreatedAt time.Time         `json:"created_at"`
}

const committeePrefix = "committee:"

func committeeKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", committeePrefix, id))
}

// Registry is the committee registry: versioned guardian sets and
// their quorum thresholds. Past committees stay queryable so outstanding
// reward claims can still resolve after a rotation.
type Registry struct {
	store Store
}

// NewRegistry returns a committee registry over store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

func (r *Registry) load(id uint64) (committeeRecord, bool) {
	raw, ok := r.store.Get(committeeKey(id))
	if !ok {
		return committeeRecord{}, false
	}
	var rec committeeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return committeeRecord{}, false
	}
	return rec, true
}

func (r *Registry) save(rec committeeRecord) {
	raw, _ := json.Marshal(rec)
	r.store.Set(committeeKey(rec.ID), raw)
}

// IsMember reports whether acct belongs to committee id.
func (r *Registry) IsMember(id uint64, acct AccountID) bool {
	rec, ok := r.load(id)
	if !ok {
		return false
	}
	return rec.Members[acct]
}

// Threshold returns the quorum threshold for committee id, and whether
// that committee exists at all.
func (r *Registry) Threshold(id uint64) (uint64, bool) {
	rec, ok := r.load(id)
	if !ok {
		return 0, false
	}
	return rec.Threshold, true
}

// Size returns the member count of committee id, and whether it exists.
func (r *Registry) Size(id uint64) (uint64, bool) {
	rec, ok := r.load(id)
	if !ok {
		return 0, false
	}
	return rec.Size, true
}

// CheckCommittee validates a prospective membership set and threshold
// before a rotation: the threshold must be nonzero and no larger than
// the member count, and membership must be duplicate-free. The pairwise
// scan is O(n^2), acceptable at the committee sizes bridges actually use
// (the design notes call out ~30 as the practical ceiling); a sorted or
// hash-set-backed check would be the first thing to swap in if that ever
// changes.
func CheckCommittee(members []AccountID, threshold uint64) error {
	if threshold == 0 || threshold > uint64(len(members)) {
		return ErrInvalidThreshold
	}
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if members[i] == members[j] {
				return ErrDuplicateCommitteeMember
			}
		}
	}
	return nil
}

// Rotate installs a new committee, admin-only and only callable while the
// bridge is halted (enforced by the bridge itself). new_id = old_id + 1;
// older committees remain addressable for reward payout only.
func (r *Registry) Rotate(currentID uint64, members []AccountID, threshold uint64) (uint64, error) {
	if err := CheckCommittee(members, threshold); err != nil {
		return 0, err
	}
	newID := currentID + 1
	set := make(map[AccountID]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	r.save(committeeRecord{
		ID:        newID,
		Members:   set,
		Threshold: threshold,
		Size:      uint64(len(members)),
		CreatedAt: time.Now().UTC(),
	})
	return newID, nil
}
