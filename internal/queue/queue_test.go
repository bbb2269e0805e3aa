package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacostaeric/icnfwd/internal/packet"
)

func TestTrySendAndRecv(t *testing.T) {
	q := New[int](2)
	require.True(t, q.TrySend(1))
	assert.Equal(t, 1, q.Len())

	v, ok := q.Recv(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTrySendFailsWhenFull(t *testing.T) {
	q := New[int](1)
	require.True(t, q.TrySend(1))
	assert.False(t, q.TrySend(2))
}

func TestRecvTimesOutWhenEmpty(t *testing.T) {
	q := New[int](1)
	start := time.Now()
	_, ok := q.Recv(context.Background(), 20*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRecvRespectsCancelledContext(t *testing.T) {
	q := New[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := q.Recv(ctx, time.Second)
	assert.False(t, ok)
}

func TestSendBlocksUntilConsumed(t *testing.T) {
	q := New[int](1)
	require.True(t, q.TrySend(1))

	done := make(chan error, 1)
	go func() {
		done <- q.Send(context.Background(), 2)
	}()

	select {
	case <-done:
		require.Fail(t, "Send should have blocked on a full queue")
	case <-time.After(20 * time.Millisecond):
	}

	_, ok := q.Recv(context.Background(), time.Second)
	require.True(t, ok)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "Send did not unblock after the queue drained")
	}
}

func TestSendRespectsContextCancellation(t *testing.T) {
	q := New[int](1)
	q.TrySend(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, q.Send(ctx, 2))
}

func TestEnvelopeCarriesPacket(t *testing.T) {
	p := packet.NewInterest(nil)
	env := Envelope{FaceID: LocalFaceID, Packet: p}
	assert.Equal(t, LocalFaceID, env.FaceID)
	assert.Equal(t, packet.KindInterest, env.Packet.Kind)
}

func TestRawEnvelopeQueueRoundTrip(t *testing.T) {
	q := New[RawEnvelope](1)
	env := RawEnvelope{FaceID: 7, Data: []byte("payload")}
	require.True(t, q.TrySend(env))
	got, ok := q.Recv(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(7), got.FaceID)
	assert.Equal(t, "payload", string(got.Data))
}
