package server

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter configures the HTTP routes for the bridge REST server.
func (s *Server) NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.log))
	r.Use(JSONHeaders)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.GetStatus)
		r.Get("/fees/base", s.GetBaseFee)
		r.Get("/pairs/{src}", s.GetPair)
		r.Get("/requests/{hash}/status", s.GetRequestStatus)
		r.Get("/committee/{id}/member/{account}", s.GetCommitteeMember)
		r.Get("/rewards/{id}/{member}/outstanding", s.GetOutstandingRewards)
		r.Get("/rewards/{id}/{member}/paid", s.GetPaidRewards)
		r.Get("/rewards/{id}/collected", s.GetCollectedRewards)

		r.Get("/pocket-money", s.GetPocketMoney)

		r.Post("/requests/send", s.SendRequest)
		r.Post("/requests/receive", s.ReceiveRequest)
		r.Post("/rewards/payout", s.PayoutRewards)
		r.Post("/pocket-money/fund", s.FundPocketMoney)

		r.Post("/admin/committee", s.RotateCommittee)
		r.Post("/admin/halt", s.SetHalted)
		r.Post("/admin/pairs", s.AddPair)
		r.Delete("/admin/pairs/{src}", s.RemovePair)
		r.Post("/admin/ownership/transfer", s.TransferOwnership)
		r.Post("/admin/ownership/accept", s.AcceptOwnership)
	})

	return r
}
