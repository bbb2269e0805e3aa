package icn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromStringTrimsAndSplits(t *testing.T) {
	n := NameFromString("/a/b/c")
	assert.Equal(t, "/a/b/c", n.String())
	assert.Equal(t, 3, n.Len())
}

func TestNameFromStringDropsEmptyComponents(t *testing.T) {
	n := NameFromString("/a//b/")
	assert.Equal(t, 2, n.Len())
}

func TestNameFromStringEmpty(t *testing.T) {
	n := NameFromString("/")
	assert.Equal(t, 0, n.Len())
	assert.Equal(t, "/", n.String())
}

func TestNameEqual(t *testing.T) {
	a := NameFromString("/a/b")
	b := NameFromString("/a/b")
	c := NameFromString("/a/c")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNameIsPrefixOf(t *testing.T) {
	prefix := NameFromString("/a")
	full := NameFromString("/a/b/c")
	assert.True(t, prefix.IsPrefixOf(full))
	assert.False(t, full.IsPrefixOf(prefix))
	assert.True(t, full.IsPrefixOf(full))
}

func TestNameAppendDoesNotAliasOriginal(t *testing.T) {
	base := NameFromString("/a")
	extended := base.Append(ComponentFromString("b"))
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, "/a/b", extended.String())
}

func TestNameSliceIsIndependentCopy(t *testing.T) {
	n := NameFromString("/a/b/c")
	mid := n.Slice(1, 2)
	assert.Equal(t, "/b", mid.String())
	mid[0] = ComponentFromString("z")
	assert.Equal(t, "/a/b/c", n.String())
}

func TestNameOpaqueComponentSurvivesEmbeddedSlashes(t *testing.T) {
	// Names built component-by-component must not split on "/" the way
	// NameFromString does, since autoconfig remote-address tokens like
	// "udp4://127.0.1.1:1337" contain embedded slashes.
	n := Name{ComponentFromString("autoconfig"), ComponentFromString("service")}.
		Append(ComponentFromString("udp4://127.0.1.1:1337"))
	assert.Equal(t, 3, n.Len())
	assert.Equal(t, "udp4://127.0.1.1:1337", n[2].String())
}

func TestNameHashIsStableAndDistinguishing(t *testing.T) {
	a := NameFromString("/a/b")
	b := NameFromString("/a/b")
	c := NameFromString("/a/c")
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}
