package icn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentEqual(t *testing.T) {
	a := ComponentFromString("abc")
	b := ComponentFromString("abc")
	c := ComponentFromString("abd")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestComponentCompare(t *testing.T) {
	a := ComponentFromString("a")
	b := ComponentFromString("b")
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
}

func TestComponentCloneDoesNotAlias(t *testing.T) {
	orig := ComponentFromString("abc")
	clone := orig.Clone()
	clone[0] = 'z'
	assert.NotEqual(t, byte('z'), orig[0])
}

func TestComponentString(t *testing.T) {
	c := ComponentFromString("hello")
	assert.Equal(t, "hello", c.String())
}
