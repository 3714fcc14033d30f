package engine

import (
	"fmt"
	"strconv"

	"voltex/domain/auction"
)

var (
	nextIDKey = []byte("meta/next_id")
	heightKey = []byte("meta/height")

	queueRoot = []byte("queue/")
)

func auctionKey(id auction.ID) []byte {
	return []byte(fmt.Sprintf("auction/%020d", uint64(id)))
}

func queueKey(height uint64, id auction.ID) []byte {
	return []byte(fmt.Sprintf("queue/%020d/%020d", height, uint64(id)))
}

func queuePrefix(height uint64) []byte {
	return []byte(fmt.Sprintf("queue/%020d/", height))
}

func partyKey(account auction.Account) []byte {
	return []byte("party/" + string(account))
}

// parseQueueKey extracts (height, id) from queue/<height>/<id>.
func parseQueueKey(key []byte) (uint64, auction.ID, error) {
	s := string(key)
	if len(s) != len("queue/")+20+1+20 {
		return 0, 0, fmt.Errorf("malformed queue key %q", s)
	}
	h, err := strconv.ParseUint(s[len("queue/"):len("queue/")+20], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed queue key %q: %w", s, err)
	}
	id, err := strconv.ParseUint(s[len("queue/")+21:], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed queue key %q: %w", s, err)
	}
	return h, auction.ID(id), nil
}
