package format

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/mspdi"
)

// DefaultPrefixSize bounds how many bytes the sniffer may inspect.
const DefaultPrefixSize = 8 << 10

// minPrefixSize keeps the structured file-type field inside the peeked window.
const minPrefixSize = 64

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Sniffer classifies byte streams by inspecting a bounded prefix.
type Sniffer struct {
	prefix int
}

// NewSniffer creates a Sniffer that peeks at most prefix bytes.
// Values below 64 are raised to 64.
func NewSniffer(prefix int) *Sniffer {
	if prefix < minPrefixSize {
		prefix = minPrefixSize
	}
	return &Sniffer{prefix: prefix}
}

// Sniff classifies r and returns a reader that replays the stream from its
// first byte, so the chosen decoder can read it in full.
func (s *Sniffer) Sniff(r io.Reader) (Format, io.Reader, error) {
	br := bufio.NewReaderSize(r, s.prefix)
	head, err := br.Peek(s.prefix)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("%w: reading header: %v", domain.ErrIOFailure, err)
	}
	f, err := Detect(head)
	if err != nil {
		return "", nil, err
	}
	return f, br, nil
}

// Sniff classifies r using DefaultPrefixSize.
func Sniff(r io.Reader) (Format, io.Reader, error) {
	return NewSniffer(DefaultPrefixSize).Sniff(r)
}

// Detect classifies a stream from its leading bytes.
func Detect(head []byte) (Format, error) {
	if len(head) == 0 {
		return "", fmt.Errorf("%w: empty input", domain.ErrUnrecognizedFormat)
	}

	if bytes.HasPrefix(head, LegacyMagic) {
		return LegacyBinary, nil
	}
	if bytes.HasPrefix(head, StructuredMagic) {
		if len(head) >= 12 && binary.LittleEndian.Uint16(head[10:12]) == FileTypeTemplate {
			return TemplateVariant, nil
		}
		return StructuredBinary, nil
	}

	text := bytes.TrimPrefix(head, utf8BOM)
	text = bytes.TrimLeft(text, " \t\r\n")
	root := text
	if mspdi.HasUTF16BOM(head) {
		// RootElement transcodes the raw bytes itself.
		text, root = bytes.TrimLeft(utf16Text(head), " \t\r\n"), head
	}
	if bytes.HasPrefix(text, []byte("<")) {
		name, err := mspdi.RootElement(root)
		if err != nil {
			return "", fmt.Errorf("%w: xml without a readable root element: %v", domain.ErrUnrecognizedFormat, err)
		}
		if name.Space == mspdi.Namespace && name.Local == mspdi.RootName {
			return XMLVariant, nil
		}
		return "", fmt.Errorf("%w: xml root <%s> in namespace %q", domain.ErrUnrecognizedFormat, name.Local, name.Space)
	}

	return "", fmt.Errorf("%w: no known signature in the first %d bytes", domain.ErrUnrecognizedFormat, len(head))
}

// utf16Text decodes a UTF-16 prefix that starts with a byte order mark.
// A prefix cut inside a code unit decodes to a trailing replacement rune.
func utf16Text(head []byte) []byte {
	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), head)
	if err != nil {
		return nil
	}
	return text
}
