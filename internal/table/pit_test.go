package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/icn"
)

func TestPitAddInterestCreatesEntry(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)

	name := icn.NameFromString("/a")
	pit.AddInterest(name, 5, false)

	e, ok := pit.Find(name)
	require.True(t, ok)
	assert.Contains(t, e.IncomingFaces, uint64(5))
}

func TestPitAtMostOneEntryPerName(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)
	name := icn.NameFromString("/a")

	pit.AddInterest(name, 1, false)
	pit.AddInterest(name, 2, false)

	assert.Equal(t, 1, pit.Len())
}

func TestPitAppendIncomingAggregatesDuplicates(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)
	name := icn.NameFromString("/a")

	pit.AddInterest(name, 1, false)
	pit.AppendIncoming(name, 2)
	pit.AppendIncoming(name, 3)

	e, ok := pit.Find(name)
	require.True(t, ok)
	assert.Len(t, e.IncomingFaces, 3)
	assert.Contains(t, e.IncomingFaces, uint64(1))
	assert.Contains(t, e.IncomingFaces, uint64(2))
	assert.Contains(t, e.IncomingFaces, uint64(3))
}

func TestPitAppendIncomingNoOpWithoutExistingEntry(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)
	name := icn.NameFromString("/a")

	pit.AppendIncoming(name, 1)

	_, ok := pit.Find(name)
	assert.False(t, ok)
}

func TestPitSetOutgoing(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)
	name := icn.NameFromString("/a")

	pit.AddInterest(name, 1, false)
	pit.SetOutgoing(name, 9)

	e, ok := pit.Find(name)
	require.True(t, ok)
	assert.Contains(t, e.OutgoingFaces, uint64(9))
}

func TestPitRemove(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)
	name := icn.NameFromString("/a")
	pit.AddInterest(name, 1, false)

	e, ok := pit.Remove(name)
	require.True(t, ok)
	assert.True(t, e.Name.Equal(name))
	_, ok = pit.Find(name)
	assert.False(t, ok)
}

func TestPitAgeProducesOneTimeoutPerIncomingFace(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)
	name := icn.NameFromString("/a")

	pit.AddInterest(name, 1, false)
	pit.AppendIncoming(name, 2)

	clock.Advance(2 * time.Second)
	timeouts := pit.Age()

	require.Len(t, timeouts, 2)
	faces := map[uint64]bool{}
	for _, to := range timeouts {
		assert.True(t, to.Name.Equal(name))
		faces[to.FaceID] = true
	}
	assert.True(t, faces[1])
	assert.True(t, faces[2])
	assert.Equal(t, 0, pit.Len())
}

func TestPitAgeLeavesFreshEntries(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	pit := NewPendingInterestTable(time.Second, clock)
	name := icn.NameFromString("/a")
	pit.AddInterest(name, 1, false)

	clock.Advance(500 * time.Millisecond)
	timeouts := pit.Age()

	assert.Empty(t, timeouts)
	assert.Equal(t, 1, pit.Len())
}
