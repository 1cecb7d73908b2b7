// Package textutil holds the helpers every normaliser shares.
package textutil

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	bom          = []byte{0xEF, 0xBB, 0xBF}
	titleSpacing = strings.NewReplacer("_", " ", "-", " ")
)

// TitleFromFilename turns "/docs/staking_guide-v2.md" into "staking guide v2".
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(titleSpacing.Replace(base))
}

// Decode returns b as text with a leading byte order mark removed and CRLF
// line endings converted to LF. ok is false when b is not valid UTF-8.
func Decode(b []byte) (text string, ok bool) {
	b = bytes.TrimPrefix(b, bom)
	if !utf8.Valid(b) {
		return "", false
	}
	return strings.ReplaceAll(string(b), "\r\n", "\n"), true
}
