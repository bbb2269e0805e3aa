package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacostaeric/icnfwd/internal/icn"
)

func TestFibFindLongestPrefixPicksMostSpecific(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/a"), 1, false)
	fib.Insert(icn.NameFromString("/a/b"), 2, false)

	e, ok := fib.FindLongestPrefix(icn.NameFromString("/a/b/c"))
	require.True(t, ok)
	assert.Equal(t, uint64(2), e.FaceID)
}

func TestFibFindLongestPrefixNoRoute(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/a"), 1, false)

	_, ok := fib.FindLongestPrefix(icn.NameFromString("/b"))
	assert.False(t, ok)
}

func TestFibFindLongestPrefixTieBreaksOnSmallestFace(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/a"), 5, false)
	fib.Insert(icn.NameFromString("/a"), 2, false)
	fib.Insert(icn.NameFromString("/a"), 9, false)

	e, ok := fib.FindLongestPrefix(icn.NameFromString("/a/b"))
	require.True(t, ok)
	assert.Equal(t, uint64(2), e.FaceID)
}

func TestFibInsertIsIdempotentPerPrefixFacePair(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/a"), 1, false)
	fib.Insert(icn.NameFromString("/a"), 1, true)

	entries := fib.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Static)
}

func TestFibRemoveFace(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/a"), 1, false)
	fib.Insert(icn.NameFromString("/a"), 2, false)

	fib.RemoveFace(icn.NameFromString("/a"), 1)

	entries := fib.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), entries[0].FaceID)
}

func TestFibRemoveClearsWholePrefix(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/a"), 1, false)
	fib.Insert(icn.NameFromString("/a"), 2, false)

	fib.Remove(icn.NameFromString("/a"))

	assert.Empty(t, fib.Entries())
}

func TestFibClearNonStaticPreservesStaticEntries(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/a"), 1, false)
	fib.Insert(icn.NameFromString("/b"), 2, true)

	fib.ClearNonStatic()

	entries := fib.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), entries[0].FaceID)
}

func TestFibRootRouteMatchesEverything(t *testing.T) {
	fib := NewForwardingInformationBase()
	fib.Insert(icn.Name{}, 1, false)

	e, ok := fib.FindLongestPrefix(icn.NameFromString("/anything/at/all"))
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.FaceID)
}
