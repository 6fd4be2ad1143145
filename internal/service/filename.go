package service

import (
	"path"
	"strings"
)

const fallbackOutputName = "converted.xml"

// OutputFilename derives the download name for a converted upload: the
// base name with its last extension replaced by .xml. Names that leave
// nothing usable fall back to converted.xml.
func OutputFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return fallbackOutputName
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = strings.TrimSpace(stem)
	if stem == "" || strings.Trim(stem, ".") == "" {
		return fallbackOutputName
	}
	return stem + ".xml"
}
