package autoconfig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/packet"
	"github.com/dacostaeric/icnfwd/internal/queue"
)

func newTestClient(t *testing.T) (*Client, *queue.Queue[queue.Envelope], *queue.Queue[queue.Envelope]) {
	t.Helper()
	down := queue.New[queue.Envelope](16)
	up := queue.New[queue.Envelope](16)
	clock := core.NewFakeClock(time.Unix(0, 0))

	client := NewClient("127.0.1.1", 1337, "testrepo", true, true, 0.75, "/unconfigured",
		down, up, 99, clock)

	ctx, cancel := context.WithCancel(context.Background())
	client.Run(ctx)
	t.Cleanup(func() {
		cancel()
		client.Stop()
	})

	return client, down, up
}

func TestClientSolicitsOnStart(t *testing.T) {
	_, down, _ := newTestClient(t)

	env, ok := down.Recv(context.Background(), 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(99), env.FaceID)
	assert.Equal(t, packet.KindInterest, env.Packet.Kind)
	assert.True(t, env.Packet.Name.Equal(forwardersName))
}

func TestClientDefaultPrefixBeforeRegistration(t *testing.T) {
	client, _, _ := newTestClient(t)
	assert.True(t, client.ServedPrefix().Equal(icn.NameFromString("/unconfigured")))
}

func TestClientRegistersOnManifest(t *testing.T) {
	client, down, up := newTestClient(t)

	_, ok := down.Recv(context.Background(), 2*time.Second) // drain initial solicitation
	require.True(t, ok)

	m := ForwarderManifest{
		Addr:   "udp4://127.42.42.42:9000",
		Routed: []icn.Name{icn.NameFromString("/global")},
		Local:  []icn.Name{icn.NameFromString("/test")},
	}
	require.True(t, up.TrySend(queue.Envelope{FaceID: 5, Packet: packet.NewContent(forwardersName, m.Encode())}))

	env, ok := down.Recv(context.Background(), 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(5), env.FaceID)
	assert.Equal(t, packet.KindInterest, env.Packet.Kind)

	expected := icn.Name{
		icn.ComponentFromString("autoconfig"),
		icn.ComponentFromString("service"),
		icn.ComponentFromString("udp4://127.0.1.1:1337"),
	}.Append(icn.ComponentFromString("test"), icn.ComponentFromString("testrepo"))
	assert.True(t, env.Packet.Name.Equal(expected))
	_ = client
}

func TestClientRegistrationAckUpdatesServedPrefix(t *testing.T) {
	client, _, up := newTestClient(t)

	name := icn.Name{
		icn.ComponentFromString("autoconfig"),
		icn.ComponentFromString("service"),
		icn.ComponentFromString("udp4://127.0.1.1:1337"),
	}.Append(icn.ComponentFromString("test"), icn.ComponentFromString("testrepo"))

	require.True(t, up.TrySend(queue.Envelope{FaceID: 5, Packet: packet.NewContent(name, []byte("3600\n"))}))

	require.Eventually(t, func() bool {
		return client.ServedPrefix().Equal(icn.NameFromString("/test/testrepo"))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClientRegistrationNackLeavesPrefixUnchanged(t *testing.T) {
	client, _, up := newTestClient(t)

	name := icn.Name{
		icn.ComponentFromString("autoconfig"),
		icn.ComponentFromString("service"),
		icn.ComponentFromString("udp4://127.0.1.1:1337"),
	}.Append(icn.ComponentFromString("test"), icn.ComponentFromString("testrepo"))

	nack := packet.NewNack(packet.NewInterest(name), packet.NoRoute)
	require.True(t, up.TrySend(queue.Envelope{FaceID: 5, Packet: nack}))

	time.Sleep(100 * time.Millisecond)
	assert.True(t, client.ServedPrefix().Equal(icn.NameFromString("/unconfigured")))
}
