package autoconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacostaeric/icnfwd/internal/icn"
)

func TestForwarderManifestRoundTrip(t *testing.T) {
	m := ForwarderManifest{
		Addr:   "udp4://127.42.42.42:9000",
		Routed: []icn.Name{icn.NameFromString("/global")},
		Local:  []icn.Name{icn.NameFromString("/test")},
	}
	encoded := m.Encode()
	assert.Equal(t, "udp4://127.42.42.42:9000\nr:/global\npl:/test\n", string(encoded))

	parsed, err := ParseForwarderManifest(encoded)
	require.NoError(t, err)
	assert.Equal(t, m.Addr, parsed.Addr)
	require.Len(t, parsed.Routed, 1)
	assert.True(t, parsed.Routed[0].Equal(icn.NameFromString("/global")))
	require.Len(t, parsed.Local, 1)
	assert.True(t, parsed.Local[0].Equal(icn.NameFromString("/test")))
	assert.Empty(t, parsed.Global)
}

func TestSelfDescriptionEncode(t *testing.T) {
	d := SelfDescription{
		Addr:                 "127.0.0.1:9000",
		Routes:               []icn.Name{icn.NameFromString("/a")},
		RegistrationPrefixes: []icn.Name{icn.NameFromString("/b")},
	}
	assert.Equal(t, "127.0.0.1:9000\nr:/a\np:/b\n", string(d.Encode()))
}

func TestParseForwarderManifestRejectsEmpty(t *testing.T) {
	_, err := ParseForwarderManifest(nil)
	assert.Error(t, err)
}
