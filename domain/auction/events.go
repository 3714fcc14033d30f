package auction

import "encoding/json"

// Event is a domain event emitted by the engine after a successful
// operation. Exactly one event set is emitted per operation; a failed
// operation emits nothing.
type Event interface {
	EventType() string
	// Auction returns the subject id, used as the partition key by
	// publishing sinks.
	Auction() ID
}

const (
	TypeCreated  = "auction.created"
	TypeBidAdded = "auction.bid_added"
	TypeMatched  = "auction.matched"
	TypeExecuted = "auction.executed"
	TypeCanceled = "auction.canceled"
)

type Created struct {
	AuctionID     ID      `json:"auction_id"`
	Seller        Account `json:"seller"`
	Quantity      uint64  `json:"quantity"`
	StartingPrice uint64  `json:"starting_price"`
	Memo          string  `json:"memo,omitempty"`
}

func (Created) EventType() string { return TypeCreated }
func (e Created) Auction() ID     { return e.AuctionID }

// BidAdded acknowledges every submitted bid, whether or not it displaced
// the incumbent highest bid.
type BidAdded struct {
	AuctionID ID      `json:"auction_id"`
	Seller    Account `json:"seller"`
	Quantity  uint64  `json:"quantity"`
	Bid       Bid     `json:"bid"`
}

func (BidAdded) EventType() string { return TypeBidAdded }
func (e BidAdded) Auction() ID     { return e.AuctionID }

type Matched struct {
	AuctionID     ID      `json:"auction_id"`
	Seller        Account `json:"seller"`
	Quantity      uint64  `json:"quantity"`
	StartingPrice uint64  `json:"starting_price"`
	HighestBid    Bid     `json:"highest_bid"`
	MatchedAt     uint64  `json:"matched_at"`
}

func (Matched) EventType() string { return TypeMatched }
func (e Matched) Auction() ID     { return e.AuctionID }

// Executed pairs the seller with the winning bidder at expiry. No funds
// or quantity move here; settlement is a downstream consumer's job.
type Executed struct {
	AuctionID        ID      `json:"auction_id"`
	Seller           Account `json:"seller"`
	Buyer            Account `json:"buyer"`
	Quantity         uint64  `json:"quantity"`
	StartingPrice    uint64  `json:"starting_price"`
	HighestBidAmount uint64  `json:"highest_bid_amount"`
	ExecutedAt       uint64  `json:"executed_at"`
}

func (Executed) EventType() string { return TypeExecuted }
func (e Executed) Auction() ID     { return e.AuctionID }

type Canceled struct {
	AuctionID     ID      `json:"auction_id"`
	Seller        Account `json:"seller"`
	Quantity      uint64  `json:"quantity"`
	StartingPrice uint64  `json:"starting_price"`
	Memo          string  `json:"memo,omitempty"`
}

func (Canceled) EventType() string { return TypeCanceled }
func (e Canceled) Auction() ID     { return e.AuctionID }

// Encode wraps an event in its wire envelope:
//
//	{"type":"auction.created","data":{...}}
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	env := struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}{Type: ev.EventType(), Data: data}
	return json.Marshal(env)
}
