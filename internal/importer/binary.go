package importer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/alexanderramin/upf/internal/domain"
)

// binaryEpoch is minute zero of the binary formats' date fields.
var binaryEpoch = time.Date(1984, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	unsetU16 = 0xFFFF
	unsetU32 = 0xFFFFFFFF
)

// readAll buffers the whole input; binary layouts are addressed by offset.
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	return data, nil
}

// cursor reads little-endian fields from a byte slice. The first short read
// sticks; later reads return zero values and err reports the failure.
type cursor struct {
	buf  []byte
	off  int
	what string
	err  error
}

func newCursor(buf []byte, what string) *cursor {
	return &cursor{buf: buf, what: what}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || len(c.buf)-c.off < n {
		c.err = fmt.Errorf("%w: %s truncated at offset %d (need %d bytes, have %d)",
			domain.ErrCorruptStructure, c.what, c.off, n, len(c.buf)-c.off)
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32() int32 {
	return int32(c.u32())
}

func (c *cursor) skip(n int) {
	c.take(n)
}

// legacyString reads a fixed-width NUL-padded Windows-1252 field.
func (c *cursor) legacyString(width int) string {
	b := c.take(width)
	if b == nil {
		return ""
	}
	return decodeWindows1252(b)
}

// utf16String reads a u16 byte length followed by UTF-16LE text.
func (c *cursor) utf16String() string {
	n := int(c.u16())
	if c.err != nil {
		return ""
	}
	if n%2 != 0 {
		c.err = fmt.Errorf("%w: %s string at offset %d has odd UTF-16 length %d",
			domain.ErrCorruptStructure, c.what, c.off-2, n)
		return ""
	}
	b := c.take(n)
	if b == nil {
		return ""
	}
	s, err := utf16LE.NewDecoder().Bytes(b)
	if err != nil {
		c.err = fmt.Errorf("%w: %s string at offset %d: %v", domain.ErrCorruptStructure, c.what, c.off-n, err)
		return ""
	}
	return string(s)
}

// remaining reports how many bytes are left unread.
func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

// done fails unless the whole buffer was consumed.
func (c *cursor) done() error {
	if c.err != nil {
		return c.err
	}
	if rest := c.remaining(); rest != 0 {
		return fmt.Errorf("%w: %s has %d unread trailing bytes", domain.ErrCorruptStructure, c.what, rest)
	}
	return nil
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeWindows1252(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// epochMinutes converts a binary date field; zero means unset.
func epochMinutes(v uint32) *time.Time {
	if v == 0 {
		return nil
	}
	t := binaryEpoch.Add(time.Duration(v) * time.Minute)
	return &t
}

func epochDate(v uint32) time.Time {
	t := binaryEpoch.Add(time.Duration(v) * time.Minute)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// tenthsToMinutes rounds a tenths-of-a-minute value to whole minutes.
func tenthsToMinutes(v int64) int {
	return int(math.Round(float64(v) / 10))
}

// optionalRef maps a zero reference field to nil.
func optionalRef(v uint32) *int {
	if v == 0 {
		return nil
	}
	id := int(v)
	return &id
}

func linkTypeFromCode(code uint8) (domain.LinkType, error) {
	switch code {
	case 0:
		return domain.LinkFinishToFinish, nil
	case 1:
		return domain.LinkFinishToStart, nil
	case 2:
		return domain.LinkStartToFinish, nil
	case 3:
		return domain.LinkStartToStart, nil
	default:
		return "", fmt.Errorf("%w: unknown link type %d", domain.ErrCorruptStructure, code)
	}
}
