package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacostaeric/icnfwd/internal/icn"
)

func TestNewInterest(t *testing.T) {
	name := icn.NameFromString("/a/b")
	p := NewInterest(name)
	assert.Equal(t, KindInterest, p.Kind)
	assert.True(t, p.Name.Equal(name))
}

func TestNewContentCarriesPayload(t *testing.T) {
	name := icn.NameFromString("/a/b")
	p := NewContent(name, []byte("hello"))
	assert.Equal(t, KindContent, p.Kind)
	assert.Equal(t, "hello", string(p.Payload))
}

func TestNewNackCarriesOriginatingInterest(t *testing.T) {
	name := icn.NameFromString("/a/b")
	interest := NewInterest(name)
	nack := NewNack(interest, NoRoute)

	assert.Equal(t, KindNack, nack.Kind)
	assert.Equal(t, NoRoute, nack.Reason)
	assert.True(t, nack.Name.Equal(name))
	require.NotNil(t, nack.Interest)
	assert.True(t, nack.Interest.Name.Equal(name))
}

func TestNewNackDoesNotAliasOriginalInterest(t *testing.T) {
	interest := NewInterest(icn.NameFromString("/a"))
	nack := NewNack(interest, NoContent)

	// Mutating the caller's copy must not affect the Nack's embedded copy.
	interest.Name = icn.NameFromString("/b")
	assert.True(t, nack.Interest.Name.Equal(icn.NameFromString("/a")))
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInterest: "Interest",
		KindContent:  "Content",
		KindNack:     "Nack",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

func TestNackReasonString(t *testing.T) {
	cases := map[NackReason]string{
		NoContent:            "NO_CONTENT",
		NoRoute:              "NO_ROUTE",
		Duplicate:            "DUPLICATE",
		CompQueueFull:        "COMP_QUEUE_FULL",
		CompParamUnavailable: "COMP_PARAM_UNAVAILABLE",
		CompException:        "COMP_EXCEPTION",
	}
	for r, want := range cases {
		assert.Equal(t, want, r.String())
	}
}

func TestPacketStringVariants(t *testing.T) {
	name := icn.NameFromString("/a")
	assert.Equal(t, "Interest(/a)", NewInterest(name).String())
	assert.Equal(t, "Content(/a, 2 bytes)", NewContent(name, []byte("hi")).String())
	nack := NewNack(NewInterest(name), NoRoute)
	assert.Equal(t, "Nack(/a, NO_ROUTE)", nack.String())
}
