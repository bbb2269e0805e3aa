// Package autoconfig implements the discovery-and-registration
// protocol carried over the ICN layer itself under the `/autoconfig`
// name hierarchy: a Server stage (runs on a forwarder) and a Client
// (runs on a repository), grounded on PiCN's AutoconfigServerLayer.py
// (reserved-prefix handlers, manifest text format) and
// test_AutoconfigRepoLayer.py (client-side Interest/lease bookkeeping).
package autoconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/dacostaeric/icnfwd/internal/icn"
)

// ForwarderManifest is the bit-exact text payload of an
// `/autoconfig/forwarders` reply (spec.md §6): the forwarder's own
// udp4 address, every globally routed prefix, and every configured
// local/global registration prefix.
type ForwarderManifest struct {
	Addr    string // "udp4://host:port"
	Routed  []icn.Name
	Local   []icn.Name
	Global  []icn.Name
}

// Encode renders the manifest as LF-terminated lines.
func (m ForwarderManifest) Encode() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", m.Addr)
	for _, n := range m.Routed {
		fmt.Fprintf(&buf, "r:%s\n", n.String())
	}
	for _, n := range m.Local {
		fmt.Fprintf(&buf, "pl:%s\n", n.String())
	}
	for _, n := range m.Global {
		fmt.Fprintf(&buf, "pg:%s\n", n.String())
	}
	return buf.Bytes()
}

// ParseForwarderManifest parses the payload of an `/autoconfig/forwarders`
// reply, as consumed by the client.
func ParseForwarderManifest(payload []byte) (ForwarderManifest, error) {
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	if !scanner.Scan() {
		return ForwarderManifest{}, fmt.Errorf("autoconfig: empty manifest")
	}
	m := ForwarderManifest{Addr: scanner.Text()}
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "r:"):
			m.Routed = append(m.Routed, icn.NameFromString(strings.TrimPrefix(line, "r:")))
		case strings.HasPrefix(line, "pl:"):
			m.Local = append(m.Local, icn.NameFromString(strings.TrimPrefix(line, "pl:")))
		case strings.HasPrefix(line, "pg:"):
			m.Global = append(m.Global, icn.NameFromString(strings.TrimPrefix(line, "pg:")))
		}
	}
	return m, nil
}

// SelfDescription is the bit-exact text payload of an `/autoconfig`
// reply: the forwarder's own address, every FIB entry, and every
// configured registration prefix (undifferentiated local/global).
type SelfDescription struct {
	Addr               string // "addr:port"
	Routes             []icn.Name
	RegistrationPrefixes []icn.Name
}

// Encode renders the self-description as LF-terminated lines.
func (d SelfDescription) Encode() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", d.Addr)
	for _, n := range d.Routes {
		fmt.Fprintf(&buf, "r:%s\n", n.String())
	}
	for _, n := range d.RegistrationPrefixes {
		fmt.Fprintf(&buf, "p:%s\n", n.String())
	}
	return buf.Bytes()
}
