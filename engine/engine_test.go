package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltex/domain/auction"
	"voltex/infra/kv"
)

type captureSink struct {
	events []auction.Event
}

func (c *captureSink) Publish(ev auction.Event) { c.events = append(c.events, ev) }

func (c *captureSink) types() []string {
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.EventType()
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *captureSink, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	sink := &captureSink{}
	eng := New(store, sink, Options{})
	require.NoError(t, eng.Load())
	return eng, sink, store
}

func advanceTo(t *testing.T, eng *Engine, height uint64) {
	t.Helper()
	for h := eng.Height() + 1; h <= height; h++ {
		require.NoError(t, eng.OnTimeStep(h))
	}
}

func TestCreateAuction(t *testing.T) {
	eng, sink, _ := newTestEngine(t)
	advanceTo(t, eng, 2)

	id, err := eng.Create("alice", 2, 1000, 5, "")
	require.NoError(t, err)
	assert.Equal(t, auction.ID(0), id)

	rec, err := eng.GetAuction(id)
	require.NoError(t, err)
	assert.Equal(t, auction.Account("alice"), rec.Seller)
	assert.Equal(t, uint32(1), rec.Tier.Level)
	assert.Equal(t, uint64(2), rec.CreatedAt)
	assert.Equal(t, uint64(50), rec.Period)
	assert.Equal(t, uint64(52), rec.ExpiresAt)
	assert.Equal(t, auction.StatusOpen, rec.Status)
	assert.Equal(t, auction.Bid{Bidder: "alice", Amount: 1000}, rec.HighestBid)
	assert.Empty(t, rec.BidHistory)

	party, err := eng.GetParticipant("alice")
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, party.Role)
	require.Len(t, party.Auctions, 1)
	assert.Equal(t, id, party.Auctions[0].ID)

	pending, err := eng.queue.Pending(52)
	require.NoError(t, err)
	assert.Equal(t, []auction.ID{id}, pending)

	assert.Equal(t, []string{auction.TypeCreated}, sink.types())
}

func TestCreateTierBoundary(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	small, err := eng.Create("alice", 4, 100, 1, "")
	require.NoError(t, err)
	large, err := eng.Create("alice", 5, 100, 1, "")
	require.NoError(t, err)

	rec, _ := eng.GetAuction(small)
	assert.Equal(t, uint32(1), rec.Tier.Level)
	rec, _ = eng.GetAuction(large)
	assert.Equal(t, uint32(2), rec.Tier.Level)
}

func TestCreateRejectsZeroQuantity(t *testing.T) {
	eng, sink, store := newTestEngine(t)

	_, err := eng.Create("alice", 0, 100, 1, "")
	assert.ErrorIs(t, err, auction.ErrInvalidQuantity)
	assert.Empty(t, sink.events)
	assert.Equal(t, 0, store.Len(), "failed create must leave no trace")
}

func TestIDsAreNeverReused(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	first, err := eng.Create("alice", 1, 10, 1, "")
	require.NoError(t, err)
	require.NoError(t, eng.Cancel("alice", first))

	second, err := eng.Create("alice", 1, 10, 1, "")
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestBidMustExceedIncumbent(t *testing.T) {
	eng, sink, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 1000, 5, "")

	leading, err := eng.Bid("bob", id, 10000)
	require.NoError(t, err)
	assert.True(t, leading)

	// A tie does not displace the incumbent: first to reach a value wins.
	leading, err = eng.Bid("carol", id, 10000)
	require.NoError(t, err)
	assert.False(t, leading)

	leading, err = eng.Bid("carol", id, 5000)
	require.NoError(t, err)
	assert.False(t, leading)

	rec, err := eng.GetAuction(id)
	require.NoError(t, err)
	assert.Equal(t, auction.Bid{Bidder: "bob", Amount: 10000}, rec.HighestBid)
	// Only the accepted bid is in the history.
	assert.Equal(t, []auction.Bid{{Bidder: "bob", Amount: 10000}}, rec.BidHistory)

	// All three submissions are acknowledged.
	assert.Equal(t, []string{
		auction.TypeCreated,
		auction.TypeBidAdded,
		auction.TypeBidAdded,
		auction.TypeBidAdded,
	}, sink.types())
}

func TestHighestBidMonotonic(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 100, 5, "")

	amounts := []uint64{50, 200, 150, 300, 300, 299, 301}
	last := uint64(100)
	for _, a := range amounts {
		_, err := eng.Bid("bob", id, a)
		require.NoError(t, err)
		rec, err := eng.GetAuction(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.HighestBid.Amount, last)
		last = rec.HighestBid.Amount
	}
	assert.Equal(t, uint64(301), last)
}

func TestBidHistoryMostRecentFirst(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 100, 5, "")

	_, _ = eng.Bid("bob", id, 200)
	_, _ = eng.Bid("carol", id, 300)
	_, _ = eng.Bid("dave", id, 400)

	rec, err := eng.GetAuction(id)
	require.NoError(t, err)
	assert.Equal(t, []auction.Bid{
		{Bidder: "dave", Amount: 400},
		{Bidder: "carol", Amount: 300},
		{Bidder: "bob", Amount: 200},
	}, rec.BidHistory)
}

func TestBidErrors(t *testing.T) {
	eng, sink, _ := newTestEngine(t)

	_, err := eng.Bid("bob", 42, 100)
	assert.ErrorIs(t, err, auction.ErrNotFound)
	assert.Empty(t, sink.events, "failed bid emits nothing")

	id, _ := eng.Create("alice", 2, 100, 5, "")
	require.NoError(t, eng.Cancel("alice", id))

	// The record is removed on cancel, so a later bid sees NotFound.
	_, err = eng.Bid("bob", id, 200)
	assert.ErrorIs(t, err, auction.ErrNotFound)
}

func TestLosingBidRefreshesBidderIndexOnly(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 1000, 5, "")
	_, _ = eng.Bid("bob", id, 5000)

	// Carol's losing bid must register her as a participant...
	_, _ = eng.Bid("carol", id, 100)
	party, err := eng.GetParticipant("carol")
	require.NoError(t, err)
	assert.Equal(t, RoleBuyer, party.Role)
	require.Len(t, party.Auctions, 1)
	// ...with a snapshot reflecting the real highest bid, not hers.
	assert.Equal(t, auction.Bid{Bidder: "bob", Amount: 5000}, party.Auctions[0].HighestBid)
}

func TestWinningBidRefreshesSellerSnapshot(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 1000, 5, "")

	_, _ = eng.Bid("bob", id, 7000)

	party, err := eng.GetParticipant("alice")
	require.NoError(t, err)
	require.Len(t, party.Auctions, 1)
	assert.Equal(t, auction.Bid{Bidder: "bob", Amount: 7000}, party.Auctions[0].HighestBid,
		"seller's cached copy must track the registry")
}

func TestCancelIsSellerOnly(t *testing.T) {
	eng, sink, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 1000, 5, "")

	err := eng.Cancel("mallory", id)
	assert.ErrorIs(t, err, auction.ErrUnauthorized)

	// The auction is untouched.
	rec, err := eng.GetAuction(id)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusOpen, rec.Status)

	require.NoError(t, eng.Cancel("alice", id))
	assert.Equal(t, []string{auction.TypeCreated, auction.TypeCanceled}, sink.types())
}

func TestCancelRemovesAllTraces(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 1000, 5, "")
	rec, _ := eng.GetAuction(id)

	require.NoError(t, eng.Cancel("alice", id))

	_, err := eng.GetAuction(id)
	assert.ErrorIs(t, err, auction.ErrNotFound)

	pending, err := eng.queue.Pending(rec.ExpiresAt)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The participant record persists, empty.
	party, err := eng.GetParticipant("alice")
	require.NoError(t, err)
	assert.Empty(t, party.Auctions)

	// Cancelling again reports NotFound, never success.
	assert.ErrorIs(t, eng.Cancel("alice", id), auction.ErrNotFound)
}

func TestTimeStepMatchesExactHeightOnly(t *testing.T) {
	eng, sink, _ := newTestEngine(t)

	early, _ := eng.Create("alice", 2, 100, 1, "")  // expires at 10
	late, _ := eng.Create("alice", 2, 100, 2, "")   // expires at 20

	advanceTo(t, eng, 10)

	_, err := eng.GetAuction(early)
	assert.ErrorIs(t, err, auction.ErrNotFound, "expired auction is removed")
	_, err = eng.GetAuction(late)
	assert.NoError(t, err, "later auction is untouched")

	var matched, executed int
	for _, ev := range sink.events {
		switch ev := ev.(type) {
		case auction.Matched:
			matched++
			assert.Equal(t, early, ev.AuctionID)
			assert.Equal(t, uint64(10), ev.MatchedAt)
		case auction.Executed:
			executed++
			assert.Equal(t, early, ev.AuctionID)
		}
	}
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, executed)
}

func TestTimeStepWinnerAndOrdering(t *testing.T) {
	eng, sink, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 1000, 1, "")
	_, _ = eng.Bid("bob", id, 10000)
	_, _ = eng.Bid("carol", id, 5000)

	sink.events = nil
	advanceTo(t, eng, 10)

	require.Len(t, sink.events, 2)
	m := sink.events[0].(auction.Matched)
	x := sink.events[1].(auction.Executed)

	assert.Equal(t, auction.Bid{Bidder: "bob", Amount: 10000}, m.HighestBid)
	assert.Equal(t, auction.Account("bob"), x.Buyer)
	assert.Equal(t, auction.Account("alice"), x.Seller)
	assert.Equal(t, uint64(10000), x.HighestBidAmount)
	assert.Equal(t, uint64(10), x.ExecutedAt)
}

func TestTimeStepWithoutBidsMatchesSeller(t *testing.T) {
	// No bids: the seeded highest bid makes the seller their own buyer.
	eng, sink, _ := newTestEngine(t)
	_, _ = eng.Create("alice", 2, 1000, 1, "")

	sink.events = nil
	advanceTo(t, eng, 10)

	require.Len(t, sink.events, 2)
	x := sink.events[1].(auction.Executed)
	assert.Equal(t, auction.Account("alice"), x.Buyer)
	assert.Equal(t, uint64(1000), x.HighestBidAmount)
}

func TestTimeStepIdempotent(t *testing.T) {
	eng, sink, _ := newTestEngine(t)
	_, _ = eng.Create("alice", 2, 1000, 1, "")

	advanceTo(t, eng, 10)
	n := len(sink.events)

	// Replaying the drained height emits nothing further.
	require.NoError(t, eng.OnTimeStep(10))
	assert.Len(t, sink.events, n)
}

func TestTimeStepPersistsHeight(t *testing.T) {
	eng, _, store := newTestEngine(t)
	advanceTo(t, eng, 17)

	reloaded := New(store, &captureSink{}, Options{})
	require.NoError(t, reloaded.Load())
	assert.Equal(t, uint64(17), reloaded.Height())
}

func TestSweepDrainsSkippedHeights(t *testing.T) {
	eng, sink, _ := newTestEngine(t)
	a, _ := eng.Create("alice", 2, 100, 1, "") // expires at 10
	b, _ := eng.Create("alice", 2, 100, 2, "") // expires at 20

	// The driver jumps straight past both expiries.
	require.NoError(t, eng.OnTimeStep(25))
	assert.Len(t, sink.events, 2, "skipped buckets are not drained automatically")

	require.NoError(t, eng.Sweep(25))

	_, err := eng.GetAuction(a)
	assert.ErrorIs(t, err, auction.ErrNotFound)
	_, err = eng.GetAuction(b)
	assert.ErrorIs(t, err, auction.ErrNotFound)
	assert.Len(t, sink.events, 6)
}

func TestParticipantIndexBounded(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	var ids []auction.ID
	for i := 0; i < DefaultIndexCapacity+5; i++ {
		id, err := eng.Create("alice", 2, 100, 1, "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	party, err := eng.GetParticipant("alice")
	require.NoError(t, err)
	require.Len(t, party.Auctions, DefaultIndexCapacity)

	// Most recent first; the oldest five were evicted.
	assert.Equal(t, ids[len(ids)-1], party.Auctions[0].ID)
	assert.Equal(t, ids[5], party.Auctions[DefaultIndexCapacity-1].ID)
}

func TestSellerBiddingOwnAuction(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	id, _ := eng.Create("alice", 2, 1000, 5, "")

	leading, err := eng.Bid("alice", id, 2000)
	require.NoError(t, err)
	assert.True(t, leading)

	rec, _ := eng.GetAuction(id)
	assert.Equal(t, auction.Bid{Bidder: "alice", Amount: 2000}, rec.HighestBid)

	party, err := eng.GetParticipant("alice")
	require.NoError(t, err)
	require.Len(t, party.Auctions, 1)
	assert.Equal(t, RoleBuyer, party.Role, "role tracks the most recent interaction")
}

func TestMemoCarriedThrough(t *testing.T) {
	eng, sink, _ := newTestEngine(t)
	id, err := eng.Create("alice", 2, 1000, 5, "rooftop-solar")
	require.NoError(t, err)

	rec, _ := eng.GetAuction(id)
	assert.Equal(t, "rooftop-solar", rec.Memo)

	created := sink.events[0].(auction.Created)
	assert.Equal(t, "rooftop-solar", created.Memo)

	require.NoError(t, eng.Cancel("alice", id))
	canceled := sink.events[len(sink.events)-1].(auction.Canceled)
	assert.Equal(t, "rooftop-solar", canceled.Memo)
}
