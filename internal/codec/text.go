package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/packet"
)

// TextCodec is the canonical reference encoder: a simple line-oriented
// textual form, in the spirit of PiCN's SimpleStringEncoder. Every
// name component and payload is base64-encoded so that the "opaque
// bytes, not assumed UTF-8" rule for components (GLOSSARY) holds even
// though the framing itself is text.
type TextCodec struct{}

const (
	kindInterest = "I"
	kindContent  = "C"
	kindNack     = "N"
)

// Encode renders p as newline-terminated text lines.
func (TextCodec) Encode(p packet.Packet) ([]byte, error) {
	var buf bytes.Buffer
	switch p.Kind {
	case packet.KindInterest:
		buf.WriteString(kindInterest)
	case packet.KindContent:
		buf.WriteString(kindContent)
	case packet.KindNack:
		buf.WriteString(kindNack)
	default:
		return nil, fmt.Errorf("codec: unknown packet kind %d", p.Kind)
	}
	buf.WriteByte('\n')

	buf.WriteString(strconv.Itoa(len(p.Name)))
	buf.WriteByte('\n')
	for _, c := range p.Name {
		buf.WriteString(base64.StdEncoding.EncodeToString(c))
		buf.WriteByte('\n')
	}

	switch p.Kind {
	case packet.KindContent:
		buf.WriteString(base64.StdEncoding.EncodeToString(p.Payload))
		buf.WriteByte('\n')
	case packet.KindNack:
		buf.WriteString(strconv.Itoa(int(p.Reason)))
		buf.WriteByte('\n')
		if p.Interest != nil {
			buf.WriteString("1\n")
			inner, err := TextCodec{}.Encode(*p.Interest)
			if err != nil {
				return nil, err
			}
			buf.Write(inner)
		} else {
			buf.WriteString("0\n")
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a TextCodec-encoded frame back into a Packet.
func (TextCodec) Decode(b []byte) (packet.Packet, error) {
	lr := &lineReader{data: b}

	kindStr, err := lr.next()
	if err != nil {
		return packet.Packet{}, fmt.Errorf("codec: missing kind: %w", err)
	}

	n, err := lr.nextInt()
	if err != nil {
		return packet.Packet{}, fmt.Errorf("codec: bad component count: %w", err)
	}
	name := make(icn.Name, 0, n)
	for i := 0; i < n; i++ {
		line, err := lr.next()
		if err != nil {
			return packet.Packet{}, fmt.Errorf("codec: short name: %w", err)
		}
		comp, err := base64.StdEncoding.DecodeString(line)
		if err != nil {
			return packet.Packet{}, fmt.Errorf("codec: bad component encoding: %w", err)
		}
		name = append(name, icn.Component(comp))
	}

	switch kindStr {
	case kindInterest:
		return packet.NewInterest(name), nil
	case kindContent:
		payloadLine, err := lr.next()
		if err != nil {
			return packet.Packet{}, fmt.Errorf("codec: missing payload: %w", err)
		}
		payload, err := base64.StdEncoding.DecodeString(payloadLine)
		if err != nil {
			return packet.Packet{}, fmt.Errorf("codec: bad payload encoding: %w", err)
		}
		return packet.NewContent(name, payload), nil
	case kindNack:
		reasonN, err := lr.nextInt()
		if err != nil {
			return packet.Packet{}, fmt.Errorf("codec: missing reason: %w", err)
		}
		hasInterest, err := lr.nextInt()
		if err != nil {
			return packet.Packet{}, fmt.Errorf("codec: missing interest flag: %w", err)
		}
		p := packet.Packet{Kind: packet.KindNack, Name: name, Reason: packet.NackReason(reasonN)}
		if hasInterest == 1 {
			inner, err := TextCodec{}.Decode(lr.rest())
			if err != nil {
				return packet.Packet{}, fmt.Errorf("codec: bad embedded interest: %w", err)
			}
			p.Interest = &inner
		}
		return p, nil
	default:
		return packet.Packet{}, fmt.Errorf("codec: unknown packet kind %q", kindStr)
	}
}

// lineReader walks b one newline-terminated token at a time.
type lineReader struct {
	data []byte
	pos  int
}

func (lr *lineReader) next() (string, error) {
	if lr.pos >= len(lr.data) {
		return "", fmt.Errorf("unexpected end of frame")
	}
	idx := bytes.IndexByte(lr.data[lr.pos:], '\n')
	if idx < 0 {
		return "", fmt.Errorf("unterminated line")
	}
	line := string(lr.data[lr.pos : lr.pos+idx])
	lr.pos += idx + 1
	return line, nil
}

func (lr *lineReader) nextInt() (int, error) {
	s, err := lr.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (lr *lineReader) rest() []byte {
	return lr.data[lr.pos:]
}
