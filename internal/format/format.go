// Package format identifies which source encoding a byte stream uses.
//
// Classification looks only at magic bytes and, for XML input, at the root
// element name and namespace. File names and extensions are never consulted.
package format

// Format tags one member of the closed set of supported source encodings.
type Format string

const (
	LegacyBinary     Format = "legacy_binary"
	StructuredBinary Format = "structured_binary"
	XMLVariant       Format = "xml_variant"
	TemplateVariant  Format = "template_variant"
)

// Signatures at offset 0.
var (
	LegacyMagic     = []byte{'M', 'P', 'J', 'L', 0x1A}
	StructuredMagic = []byte{'M', 'P', 'J', 'S', '\r', '\n', 0x1A, '\n'}
)

// Structured container file types, stored as u16 LE at offset 10.
const (
	FileTypeProject  uint16 = 0
	FileTypeTemplate uint16 = 1
)

// All returns every supported format in a stable order.
func All() []Format {
	return []Format{LegacyBinary, StructuredBinary, TemplateVariant, XMLVariant}
}

func (f Format) Valid() bool {
	switch f {
	case LegacyBinary, StructuredBinary, XMLVariant, TemplateVariant:
		return true
	}
	return false
}

// Extension is the conventional file extension for display purposes only.
func (f Format) Extension() string {
	switch f {
	case LegacyBinary, StructuredBinary:
		return ".mpp"
	case TemplateVariant:
		return ".mpt"
	case XMLVariant:
		return ".xml"
	}
	return ""
}

func (f Format) Description() string {
	switch f {
	case LegacyBinary:
		return "legacy fixed-width record schedule"
	case StructuredBinary:
		return "structured chunked schedule"
	case TemplateVariant:
		return "structured chunked template"
	case XMLVariant:
		return "MSPDI XML schedule"
	}
	return "unknown"
}
