// Package importer decodes the supported source formats into a
// domain.Project. Each decoder parses its own layout and feeds entity
// records into a shared builder that resolves references and normalizes
// calendars.
package importer

import (
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

// Decoder parses one source format. Decoders hold no state between calls.
type Decoder interface {
	Format() format.Format
	Decode(r io.Reader) (*Result, error)
}

// Result is a decoded project plus the advisory notes recorded while
// building it.
type Result struct {
	Project *domain.Project
	Notes   []domain.Note
}

type Options struct {
	// TemplateStart anchors template task offsets when the template
	// declares no project start.
	TemplateStart *time.Time
}

// DefaultTemplateStart is the anchor used when neither the template nor the
// caller supplies one: the first working morning of the binary date epoch.
var DefaultTemplateStart = time.Date(1984, 1, 2, 8, 0, 0, 0, time.UTC)

// ForFormat returns the decoder for f.
func ForFormat(f format.Format, opts Options) (Decoder, error) {
	switch f {
	case format.LegacyBinary:
		return LegacyDecoder{}, nil
	case format.StructuredBinary:
		return StructuredDecoder{}, nil
	case format.TemplateVariant:
		return TemplateDecoder{Start: opts.TemplateStart}, nil
	case format.XMLVariant:
		return XMLDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: no decoder for format %q", domain.ErrUnrecognizedFormat, f)
	}
}

// Decode sniffs nothing: it runs the decoder for f over r.
func Decode(f format.Format, r io.Reader, opts Options) (*Result, error) {
	dec, err := ForFormat(f, opts)
	if err != nil {
		return nil, err
	}
	return dec.Decode(r)
}
