package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltex/infra/kv"
)

func TestPutGetRoundTrip(t *testing.T) {
	ob := New(kv.NewMemory())

	require.NoError(t, ob.Put(7, []byte("payload-7")))

	rec, err := ob.Get(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rec.ID)
	assert.Equal(t, StateNew, rec.State)
	assert.Equal(t, uint32(0), rec.Retries)
	assert.Equal(t, []byte("payload-7"), rec.Payload)
}

func TestMarkSentBumpsRetries(t *testing.T) {
	ob := New(kv.NewMemory())
	require.NoError(t, ob.Put(1, []byte("p")))

	require.NoError(t, ob.MarkSent(1))
	require.NoError(t, ob.MarkSent(1))

	rec, err := ob.Get(1)
	require.NoError(t, err)
	assert.Equal(t, StateSent, rec.State)
	assert.Equal(t, uint32(2), rec.Retries)
	assert.NotZero(t, rec.LastAttempt)
	assert.Equal(t, []byte("p"), rec.Payload, "payload survives state updates")
}

func TestAckRemovesRecord(t *testing.T) {
	ob := New(kv.NewMemory())
	require.NoError(t, ob.Put(1, []byte("p")))
	require.NoError(t, ob.Ack(1))

	_, err := ob.Get(1)
	assert.Error(t, err)
}

func TestScanUndeliveredInIDOrder(t *testing.T) {
	ob := New(kv.NewMemory())
	require.NoError(t, ob.Put(30, []byte("c")))
	require.NoError(t, ob.Put(10, []byte("a")))
	require.NoError(t, ob.Put(20, []byte("b")))
	require.NoError(t, ob.Ack(20))

	var ids []uint64
	require.NoError(t, ob.ScanUndelivered(func(rec Record) error {
		ids = append(ids, rec.ID)
		return nil
	}))
	assert.Equal(t, []uint64{10, 30}, ids)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "NEW", StateNew.String())
	assert.Equal(t, "SENT", StateSent.String())
	assert.Equal(t, "FAILED", StateFailed.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}

func TestDecodeRejectsShortRecord(t *testing.T) {
	_, err := decodeRecord(1, []byte{0, 1, 2})
	assert.Error(t, err)
}
