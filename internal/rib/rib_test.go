package rib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/optional"
	"github.com/dacostaeric/icnfwd/internal/table"
)

func findRoute(t *testing.T, routes []Route, name icn.Name) Route {
	t.Helper()
	for _, r := range routes {
		if r.Name.Equal(name) {
			return r
		}
	}
	require.Fail(t, "no matching route", "no route for %s among %d routes", name, len(routes))
	return Route{}
}

func TestRibCollapseSingleFaceAggregatesToParent(t *testing.T) {
	// Scenario: /a/b and /a/c both route via the same face -> collapse
	// to a single aggregate route at /a.
	clock := core.NewFakeClock(time.Unix(0, 0))
	r := NewRib(false, clock)
	r.Insert(icn.NameFromString("/a/b"), 7, 1, optional.None[time.Time]())
	r.Insert(icn.NameFromString("/a/c"), 7, 1, optional.None[time.Time]())

	routes := r.Collapse()
	require.Len(t, routes, 1)
	got := routes[0]
	assert.True(t, got.Name.Equal(icn.NameFromString("/a")))
	assert.Equal(t, uint64(7), got.FaceID)
}

func TestRibCollapseMultiFaceKeepsDistinctRoutes(t *testing.T) {
	// Scenario: /a/b and /a/c route via different faces -> no
	// aggregation, both routes survive at their own names.
	clock := core.NewFakeClock(time.Unix(0, 0))
	r := NewRib(false, clock)
	r.Insert(icn.NameFromString("/a/b"), 1, 1, optional.None[time.Time]())
	r.Insert(icn.NameFromString("/a/c"), 2, 1, optional.None[time.Time]())

	routes := r.Collapse()
	require.Len(t, routes, 2)
	b := findRoute(t, routes, icn.NameFromString("/a/b"))
	c := findRoute(t, routes, icn.NameFromString("/a/c"))
	assert.Equal(t, uint64(1), b.FaceID)
	assert.Equal(t, uint64(2), c.FaceID)
}

func TestRibCollapseShortestOnlyKeepsLowestDistance(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	r := NewRib(true, clock)
	r.Insert(icn.NameFromString("/a"), 1, 5, optional.None[time.Time]())
	r.Insert(icn.NameFromString("/a"), 2, 1, optional.None[time.Time]())

	routes := r.Collapse()
	require.Len(t, routes, 1)
	assert.Equal(t, uint64(2), routes[0].FaceID)
}

func TestRibAgeExpiresTimedOutRoutes(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	r := NewRib(false, clock)
	r.InsertWithTTL(icn.NameFromString("/a"), 1, 1, time.Second)

	clock.Advance(2 * time.Second)
	r.Age()

	assert.Empty(t, r.Collapse())
}

func TestRibAgeLeavesRouteWithNoTimeout(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	r := NewRib(false, clock)
	r.Insert(icn.NameFromString("/a"), 1, 1, optional.None[time.Time]())

	clock.Advance(24 * time.Hour)
	r.Age()

	assert.Len(t, r.Collapse(), 1)
}

func TestRibBuildFIBReplacesNonStaticEntriesOnly(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(0, 0))
	r := NewRib(false, clock)
	r.Insert(icn.NameFromString("/a"), 1, 1, optional.None[time.Time]())

	fib := table.NewForwardingInformationBase()
	fib.Insert(icn.NameFromString("/static"), 99, true)
	fib.Insert(icn.NameFromString("/stale"), 50, false)

	r.BuildFIB(fib)

	entries := fib.Entries()
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Prefix.String()] = true
	}
	assert.True(t, names["/static"])
	assert.False(t, names["/stale"])
	assert.True(t, names["/a"])
}
