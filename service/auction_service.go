package service

import (
	"voltex/domain/auction"
	"voltex/engine"
	"voltex/infra/auth"
)

// AuctionService fronts the engine with identity verification. Every
// caller-facing operation first resolves the signed request to an
// account, then runs exactly one serialized engine operation.
type AuctionService struct {
	engine   *engine.Engine
	verifier auth.Verifier
}

func New(eng *engine.Engine, verifier auth.Verifier) *AuctionService {
	return &AuctionService{engine: eng, verifier: verifier}
}

//
// -------------------- Commands --------------------
//

// CreateAuction opens an auction for the verified seller and returns
// its id.
func (s *AuctionService) CreateAuction(account, signature string, quantity, startingPrice uint64, periodMinutes uint16, memo string) (auction.ID, error) {
	seller, err := s.verifier.Verify(account, signature)
	if err != nil {
		return 0, err
	}
	return s.engine.Create(seller, quantity, startingPrice, periodMinutes, memo)
}

// PlaceBid submits a bid and reports whether it now leads the auction.
func (s *AuctionService) PlaceBid(account, signature string, id auction.ID, amount uint64) (bool, error) {
	caller, err := s.verifier.Verify(account, signature)
	if err != nil {
		return false, err
	}
	return s.engine.Bid(caller, id, amount)
}

// CancelAuction closes the caller's own open auction early.
func (s *AuctionService) CancelAuction(account, signature string, id auction.ID) error {
	caller, err := s.verifier.Verify(account, signature)
	if err != nil {
		return err
	}
	return s.engine.Cancel(caller, id)
}

// OnTimeStep forwards the external clock tick to the engine.
func (s *AuctionService) OnTimeStep(height uint64) error {
	return s.engine.OnTimeStep(height)
}

//
// -------------------- Queries --------------------
//

func (s *AuctionService) GetAuction(id auction.ID) (*auction.Record, error) {
	return s.engine.GetAuction(id)
}

func (s *AuctionService) GetParticipant(account auction.Account) (*engine.ParticipantRecord, error) {
	return s.engine.GetParticipant(account)
}
