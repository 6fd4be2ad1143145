package format

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/testutil"
)

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestSniff_Formats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"legacy", testutil.MinimalLegacy().Bytes(), LegacyBinary},
		{"structured", testutil.MinimalStructured().Bytes(), StructuredBinary},
		{"template", testutil.MinimalTemplate().Bytes(), TemplateVariant},
		{"xml", []byte(testutil.MinimalXML), XMLVariant},
		{"xml with bom and whitespace", append([]byte{0xEF, 0xBB, 0xBF, '\n', ' '}, testutil.MinimalXML...), XMLVariant},
		{"xml without prolog", []byte(`<Project xmlns="http://schemas.microsoft.com/project"/>`), XMLVariant},
		{"xml utf-16 little endian", testutil.UTF16(testutil.MinimalXML, unicode.LittleEndian), XMLVariant},
		{"xml utf-16 big endian", testutil.UTF16(testutil.MinimalXML, unicode.BigEndian), XMLVariant},
		{"structured magic only", StructuredMagic, StructuredBinary},
		{"legacy magic only", LegacyMagic, LegacyBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, replay, err := Sniff(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)

			got, err := io.ReadAll(replay)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got, "replay must start at byte 0")
		})
	}
}

func TestSniff_Unrecognized(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"plain text", "Task list\n1. design\n"},
		{"csv", "id,name\n1,Design\n"},
		{"xml with other root", `<?xml version="1.0"?><Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet"/>`},
		{"project root without namespace", `<Project><Name>x</Name></Project>`},
		{"zip container", "PK\x03\x04 not a schedule"},
		{"near miss magic", "MPJX\x1a\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, replay, err := Sniff(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUnrecognizedFormat)
			assert.Nil(t, replay)
		})
	}
}

func TestDetect_UTF16(t *testing.T) {
	le := testutil.UTF16(testutil.MinimalXML, unicode.LittleEndian)

	t.Run("prefix cut inside a code unit", func(t *testing.T) {
		f, err := Detect(le[:301])
		require.NoError(t, err)
		assert.Equal(t, XMLVariant, f)
	})

	t.Run("other root", func(t *testing.T) {
		_, err := Detect(testutil.UTF16(`<?xml version="1.0" encoding="UTF-8"?><html/>`, unicode.BigEndian))
		assert.ErrorIs(t, err, domain.ErrUnrecognizedFormat)
	})

	t.Run("utf-16 text that is not xml", func(t *testing.T) {
		_, err := Detect(testutil.UTF16("Task list\n1. design\n", unicode.LittleEndian))
		assert.ErrorIs(t, err, domain.ErrUnrecognizedFormat)
	})
}

func TestSniff_ReadFailure(t *testing.T) {
	_, _, err := Sniff(brokenReader{})
	assert.ErrorIs(t, err, domain.ErrIOFailure)
}

func TestSniff_BoundedPrefix(t *testing.T) {
	// The root element starts after the window, so detection must give up.
	doc := "<?xml version=\"1.0\"?>\n<!--" + strings.Repeat("x", 200) + "-->\n" +
		`<Project xmlns="http://schemas.microsoft.com/project"/>`

	_, _, err := NewSniffer(64).Sniff(strings.NewReader(doc))
	assert.ErrorIs(t, err, domain.ErrUnrecognizedFormat)

	f, _, err := NewSniffer(4096).Sniff(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, XMLVariant, f)
}

func TestSniff_LargeInputReplaysFully(t *testing.T) {
	f := testutil.MinimalStructured()
	f.Extra = []testutil.Chunk{{Tag: "BLOB", Payload: bytes.Repeat([]byte{0xAB}, 3*DefaultPrefixSize)}}
	data := f.Bytes()

	got, replay, err := Sniff(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, StructuredBinary, got)

	out, err := io.ReadAll(replay)
	require.NoError(t, err)
	assert.Equal(t, len(data), len(out))
}

func TestNewSniffer_MinimumPrefix(t *testing.T) {
	assert.Equal(t, minPrefixSize, NewSniffer(0).prefix)
	assert.Equal(t, 1024, NewSniffer(1024).prefix)
}

func TestFormat_Metadata(t *testing.T) {
	for _, f := range All() {
		assert.True(t, f.Valid(), f)
		assert.NotEmpty(t, f.Extension(), f)
		assert.NotEqual(t, "unknown", f.Description(), f)
	}
	assert.False(t, Format("csv").Valid())
	assert.Empty(t, Format("csv").Extension())
}
