// Package httpserver exposes the caller-facing operations over REST and
// streams domain events over a websocket feed.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"voltex/domain/auction"
	"voltex/service"
)

// Server adapts AuctionService to HTTP. Identity travels in the
// X-Account and X-Signature headers.
type Server struct {
	svc *service.AuctionService
	hub *Hub
}

func New(svc *service.AuctionService, hub *Hub) *Server {
	return &Server{svc: svc, hub: hub}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.HandleFunc("/v1/auctions", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/v1/auctions/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/v1/auctions/{id}", s.handleCancel).Methods(http.MethodDelete)
	r.HandleFunc("/v1/auctions/{id}/bids", s.handleBid).Methods(http.MethodPost)
	r.HandleFunc("/v1/participants/{account}", s.handleParticipant).Methods(http.MethodGet)
	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}
	return r
}

type createRequest struct {
	Quantity      uint64 `json:"quantity"`
	StartingPrice uint64 `json:"starting_price"`
	PeriodMinutes uint16 `json:"period_minutes"`
	Memo          string `json:"memo,omitempty"`
}

type createResponse struct {
	AuctionID auction.ID `json:"auction_id"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	account, signature := identity(r)
	id, err := s.svc.CreateAuction(account, signature, req.Quantity, req.StartingPrice, req.PeriodMinutes, req.Memo)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{AuctionID: id})
}

type bidRequest struct {
	Amount uint64 `json:"amount"`
}

type bidResponse struct {
	Leading bool `json:"leading"`
}

func (s *Server) handleBid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	account, signature := identity(r)
	leading, err := s.svc.PlaceBid(account, signature, id, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bidResponse{Leading: leading})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	account, signature := identity(r)
	if err := s.svc.CancelAuction(account, signature, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.svc.GetAuction(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleParticipant(w http.ResponseWriter, r *http.Request) {
	account := auction.Account(mux.Vars(r)["account"])
	rec, err := s.svc.GetParticipant(account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// -------------------- Helpers --------------------

func identity(r *http.Request) (account, signature string) {
	return r.Header.Get("X-Account"), r.Header.Get("X-Signature")
}

func pathID(w http.ResponseWriter, r *http.Request) (auction.ID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed auction id")
		return 0, false
	}
	return auction.ID(id), true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auction.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auction.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auction.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auction.ErrClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auction.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
