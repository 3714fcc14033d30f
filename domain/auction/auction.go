package auction

// Account identifies a market participant. The engine never interprets
// it; identity verification happens at the service boundary.
type Account string

// ID is a monotonically allocated auction identifier. IDs are unique for
// the lifetime of the store and are never reused, even after an auction
// closes.
type ID uint64

// Status is the auction state machine: Open accepts bids, Closed is
// terminal.
type Status uint8

const (
	StatusOpen Status = iota
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Bid is immutable once recorded.
type Bid struct {
	Bidder Account `json:"bidder"`
	Amount uint64  `json:"amount"`
}

// Tier is a coarse size classification derived from quantity. It is
// computed once at creation and never changes.
type Tier struct {
	Level uint32 `json:"level"`
}

// Record is the authoritative auction entity. The registry owns it; the
// execution queue and participant index hold derived references.
type Record struct {
	ID            ID      `json:"id"`
	Seller        Account `json:"seller"`
	Quantity      uint64  `json:"quantity"`
	StartingPrice uint64  `json:"starting_price"`
	Memo          string  `json:"memo,omitempty"`
	Status        Status  `json:"status"`
	Tier          Tier    `json:"tier"`
	CreatedAt     uint64  `json:"created_at"`
	Period        uint64  `json:"period"`
	ExpiresAt     uint64  `json:"expires_at"`

	// HighestBid is seeded to {Seller, StartingPrice} at creation and
	// only ever replaced by a strictly greater bid.
	HighestBid Bid `json:"highest_bid"`

	// BidHistory records accepted bids, most recent first. Submissions
	// that fail to beat the incumbent are not recorded.
	BidHistory []Bid `json:"bid_history,omitempty"`
}

// Summary is the denormalized snapshot cached in the participant index.
// It must track the registry record; the engine refreshes it whenever
// the underlying auction changes.
type Summary struct {
	ID            ID     `json:"id"`
	Quantity      uint64 `json:"quantity"`
	StartingPrice uint64 `json:"starting_price"`
	Status        Status `json:"status"`
	HighestBid    Bid    `json:"highest_bid"`
	ExpiresAt     uint64 `json:"expires_at"`
}

// Summary returns the snapshot of r for the participant index.
func (r *Record) Summary() Summary {
	return Summary{
		ID:            r.ID,
		Quantity:      r.Quantity,
		StartingPrice: r.StartingPrice,
		Status:        r.Status,
		HighestBid:    r.HighestBid,
		ExpiresAt:     r.ExpiresAt,
	}
}
