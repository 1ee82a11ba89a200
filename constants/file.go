package constants

import "strings"

// Recognized source formats for the extraction stage.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// DefaultImageExtensions holds the image extensions accepted when the
// configuration does not override them.
var DefaultImageExtensions = []string{"jpg", "jpeg", "png"}

// DefaultPDFExtensions holds the PDF extensions accepted by default.
var DefaultPDFExtensions = []string{"pdf"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtSet builds a lookup set from a list of extensions, normalizing each
// entry. Empty entries are dropped.
func ExtSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = NormalizeExt(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}
