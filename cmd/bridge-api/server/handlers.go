package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/most-network/bridge/core"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a core error onto an HTTP status code. Permanent,
// caller-fault errors map to 4xx; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrNotOwner), errors.Is(err, core.ErrNotPending), errors.Is(err, core.ErrNotInCommittee):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrHalted), errors.Is(err, core.ErrHaltRequired):
		status = http.StatusConflict
	case errors.Is(err, core.ErrZeroAmount), errors.Is(err, core.ErrZeroAddress),
		errors.Is(err, core.ErrUnsupportedPair), errors.Is(err, core.ErrInvalidThreshold),
		errors.Is(err, core.ErrDuplicateCommitteeMember), errors.Is(err, core.ErrBaseFeeTooLow),
		errors.Is(err, core.ErrHashDoesNotMatchData), errors.Is(err, core.ErrInvalidAccountID):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func parseAccountParam(w http.ResponseWriter, r *http.Request, key string) (core.AccountID, bool) {
	a, err := core.ParseAccountID(chi.URLParam(r, key))
	if err != nil {
		writeError(w, err)
		return core.AccountID{}, false
	}
	return a, true
}

// callerFrom reads the caller identity off the X-Caller header. The
// bridge's admin operations are owner-gated by the caller argument they
// are handed; the REST layer has no wallet of its own, so the header is
// the caller's claim of identity.
func callerFrom(r *http.Request) (core.AccountID, error) {
	return core.ParseAccountID(r.Header.Get("X-Caller"))
}

// ---------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------

type statusResponse struct {
	Halted         bool   `json:"halted"`
	Owner          string `json:"owner"`
	PendingOwner   string `json:"pending_owner,omitempty"`
	CommitteeID    uint64 `json:"committee_id"`
	RequestNonce   string `json:"request_nonce"`
	PocketMoney    string `json:"pocket_money"`
}

// GetStatus reports the bridge's current global state.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Halted:       s.bridge.IsHalted(),
		Owner:        s.bridge.GetOwner().String(),
		CommitteeID:  s.bridge.GetCurrentCommitteeID(),
		RequestNonce: s.bridge.GetRequestNonce().String(),
		PocketMoney:  s.bridge.GetPocketMoney().String(),
	}
	if pending, ok := s.bridge.GetPendingOwner(); ok {
		resp.PendingOwner = pending.String()
	}
	writeJSON(w, resp)
}

// GetBaseFee reports the current quoted base fee.
func (s *Server) GetBaseFee(w http.ResponseWriter, r *http.Request) {
	fee, err := s.bridge.GetBaseFee(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"base_fee": fee.String()})
}

// GetPair reports the destination token paired with src, if any.
func (s *Server) GetPair(w http.ResponseWriter, r *http.Request) {
	src, ok := parseAccountParam(w, r, "src")
	if !ok {
		return
	}
	dst, ok := s.bridge.SupportedPair(src)
	if !ok {
		writeError(w, core.ErrNotFound)
		return
	}
	writeJSON(w, map[string]string{"dest_token": dst.String()})
}

// GetRequestStatus reports the lifecycle stage of a canonical request hash.
func (s *Server) GetRequestStatus(w http.ResponseWriter, r *http.Request) {
	raw, err := hex.DecodeString(stripHexPrefix(chi.URLParam(r, "hash")))
	if err != nil || len(raw) != 32 {
		writeError(w, core.ErrHashDoesNotMatchData)
		return
	}
	var h [32]byte
	copy(h[:], raw)
	status, count := s.bridge.RequestStatus(h)
	writeJSON(w, map[string]any{
		"status":          requestStatusName(status),
		"signature_count": count,
	})
}

func requestStatusName(s core.RequestStatus) string {
	switch s {
	case core.StatusPending:
		return "pending"
	case core.StatusProcessed:
		return "processed"
	default:
		return "unknown"
	}
}

func stripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// GetCommitteeMember reports whether an account belongs to a committee.
func (s *Server) GetCommitteeMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCommitteeID(w, r)
	if !ok {
		return
	}
	acct, ok := parseAccountParam(w, r, "account")
	if !ok {
		return
	}
	writeJSON(w, map[string]bool{"is_member": s.bridge.IsInCommittee(id, acct)})
}

// GetOutstandingRewards reports a member's unclaimed reward balance.
func (s *Server) GetOutstandingRewards(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCommitteeID(w, r)
	if !ok {
		return
	}
	member, ok := parseAccountParam(w, r, "member")
	if !ok {
		return
	}
	writeJSON(w, map[string]string{"outstanding": s.bridge.GetOutstandingMemberRewards(member, id).String()})
}

// GetPaidRewards reports a member's total paid-out reward.
func (s *Server) GetPaidRewards(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCommitteeID(w, r)
	if !ok {
		return
	}
	member, ok := parseAccountParam(w, r, "member")
	if !ok {
		return
	}
	writeJSON(w, map[string]string{"paid_out": s.bridge.GetPaidOutMemberRewards(member, id).String()})
}

// GetCollectedRewards reports a committee's total collected fee pool.
func (s *Server) GetCollectedRewards(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCommitteeID(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]string{"collected": s.bridge.GetCollectedCommitteeRewards(id).String()})
}

// ---------------------------------------------------------------------
// Admin & mutating operations
// ---------------------------------------------------------------------

type rotateCommitteeRequest struct {
	Members   []string `json:"members"`
	Threshold uint64   `json:"threshold"`
}

// RotateCommittee installs a new committee. Owner-only, halted-only.
func (s *Server) RotateCommittee(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req rotateCommitteeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	members := make([]core.AccountID, 0, len(req.Members))
	for _, m := range req.Members {
		acct, err := core.ParseAccountID(m)
		if err != nil {
			writeError(w, err)
			return
		}
		members = append(members, acct)
	}
	newID, err := s.bridge.SetCommittee(caller, members, req.Threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]uint64{"committee_id": newID})
}

type setHaltedRequest struct {
	Halted bool `json:"halted"`
}

// SetHalted pauses or resumes the bridge. Owner-only.
func (s *Server) SetHalted(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setHaltedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.bridge.SetHalted(caller, req.Halted); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addPairRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// AddPair registers a new bridgeable token pair. Owner-only, halted-only.
func (s *Server) AddPair(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addPairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	src, err := core.ParseAccountID(req.Src)
	if err != nil {
		writeError(w, err)
		return
	}
	dst, err := core.ParseAccountID(req.Dst)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.bridge.AddPair(caller, src, dst); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemovePair deregisters a bridgeable token pair. Owner-only, halted-only.
func (s *Server) RemovePair(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	src, ok := parseAccountParam(w, r, "src")
	if !ok {
		return
	}
	if err := s.bridge.RemovePair(caller, src); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPocketMoney reports the per-request subsidy and the pool currently
// backing it.
func (s *Server) GetPocketMoney(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"pocket_money": s.bridge.GetPocketMoney().String(),
		"balance":      s.bridge.GetPocketMoneyBalance().String(),
	})
}

type fundPocketMoneyRequest struct {
	Amount string `json:"amount"`
}

// FundPocketMoney adds the caller's transferred value to the
// pocket-money pool. Anyone may fund it.
func (s *Server) FundPocketMoney(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req fundPocketMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, ok := parseU128(w, req.Amount)
	if !ok {
		return
	}
	if err := s.bridge.FundPocketMoney(caller, amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// TransferOwnership begins the two-step ownership handoff. Owner-only.
func (s *Server) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req transferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	newOwner, err := core.ParseAccountID(req.NewOwner)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.bridge.TransferOwnership(caller, newOwner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptOwnership completes a pending ownership handoff; the caller must
// be the stored pending owner.
func (s *Server) AcceptOwnership(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.bridge.AcceptOwnership(caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payoutRequest struct {
	CommitteeID uint64 `json:"committee_id"`
	Member      string `json:"member"`
}

// PayoutRewards transfers a member's outstanding reward balance.
func (s *Server) PayoutRewards(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	member, err := core.ParseAccountID(req.Member)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.bridge.PayoutRewards(req.CommitteeID, member); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendRequestBody struct {
	SrcToken         string `json:"src_token"`
	Amount           string `json:"amount"`
	DestReceiver     string `json:"dest_receiver"`
	TransferredValue string `json:"transferred_value"`
}

// SendRequest executes the outbound half of a transfer.
func (s *Server) SendRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req sendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	srcToken, err := core.ParseAccountID(req.SrcToken)
	if err != nil {
		writeError(w, err)
		return
	}
	destReceiver, err := core.ParseAccountID(req.DestReceiver)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, ok := parseU128(w, req.Amount)
	if !ok {
		return
	}
	transferredValue, ok := parseU128(w, req.TransferredValue)
	if !ok {
		return
	}
	nonce, err := s.bridge.SendRequest(r.Context(), caller, srcToken, amount, destReceiver, transferredValue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"nonce": nonce.String()})
}

type receiveRequestBody struct {
	Hash         string `json:"hash"`
	CommitteeID  uint64 `json:"committee_id"`
	DestToken    string `json:"dest_token"`
	Amount       string `json:"amount"`
	DestReceiver string `json:"dest_receiver"`
	Nonce        string `json:"nonce"`
}

// ReceiveRequest records a guardian's vote for an inbound transfer.
func (s *Server) ReceiveRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req receiveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	raw, err := hex.DecodeString(stripHexPrefix(req.Hash))
	if err != nil || len(raw) != 32 {
		writeError(w, core.ErrHashDoesNotMatchData)
		return
	}
	var h [32]byte
	copy(h[:], raw)
	destToken, err := core.ParseAccountID(req.DestToken)
	if err != nil {
		writeError(w, err)
		return
	}
	destReceiver, err := core.ParseAccountID(req.DestReceiver)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, ok := parseU128(w, req.Amount)
	if !ok {
		return
	}
	nonce, ok := parseU128(w, req.Nonce)
	if !ok {
		return
	}
	if err := s.bridge.ReceiveRequest(caller, h, req.CommitteeID, destToken, amount, destReceiver, nonce); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseCommitteeID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid committee id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// parseU128 accepts the full 128-bit decimal range amounts and nonces
// travel in, not just what fits a machine word.
func parseU128(w http.ResponseWriter, s string) (core.U128, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 128 {
		http.Error(w, "invalid amount: "+s, http.StatusBadRequest)
		return core.U128{}, false
	}
	return core.U128FromBigInt(v), true
}
