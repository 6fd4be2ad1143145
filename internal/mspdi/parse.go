package mspdi

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/alexanderramin/upf/internal/domain"
)

// Parser loads MSPDI documents.
type Parser struct {
	// Strict disables the encoding/xml leniency for unquoted attributes,
	// unknown entities and unclosed void elements.
	Strict bool
}

// Parse loads a document with a strict parser.
func Parse(r io.Reader) (*Document, error) {
	return (&Parser{Strict: true}).Parse(r)
}

// Parse reads a full document from r. Failures reading r wrap
// domain.ErrIOFailure; malformed XML or a foreign root wraps
// domain.ErrCorruptStructure.
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	src := &recordingReader{r: r}
	dec := newDecoder(src)
	dec.Strict = p.Strict

	var doc Document
	err := dec.Decode(&doc)
	if src.err != nil {
		return nil, fmt.Errorf("%w: reading xml: %v", domain.ErrIOFailure, src.err)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: xml document has no root element", domain.ErrCorruptStructure)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptStructure, err)
	}
	return &doc, nil
}

// RootElement returns the name of the first element in prefix. prefix may
// be a truncated document; only the bytes up to the root start tag must be
// well formed.
func RootElement(prefix []byte) (xml.Name, error) {
	dec := newDecoder(bytes.NewReader(prefix))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.Name{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name, nil
		}
	}
}

func newDecoder(r io.Reader) *xml.Decoder {
	in, transcoded := fromUTF16(r)
	dec := xml.NewDecoder(in)
	dec.CharsetReader = charsetReader
	if transcoded {
		// The byte order mark outranks the prolog's encoding label.
		dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	}
	return dec
}

// HasUTF16BOM reports whether b opens with a little or big endian UTF-16
// byte order mark.
func HasUTF16BOM(b []byte) bool {
	return len(b) >= 2 && (b[0] == 0xFF && b[1] == 0xFE || b[0] == 0xFE && b[1] == 0xFF)
}

// fromUTF16 transcodes r to UTF-8 when it opens with a UTF-16 byte order
// mark. Other input is returned unchanged apart from buffering.
func fromUTF16(r io.Reader) (io.Reader, bool) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(2)
	if !HasUTF16BOM(head) {
		return br, false
	}
	return transform.NewReader(br, unicode.BOMOverride(transform.Nop)), true
}

// charsetReader honours the encoding declared in the XML prolog.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(label))
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// recordingReader remembers the first non-EOF read error so transport
// failures are not reported as malformed XML.
type recordingReader struct {
	r   io.Reader
	err error
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}
