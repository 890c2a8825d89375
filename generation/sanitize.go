package generation

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// SanitizeStickers normalises model output into at most MaxStickers short
// symbols. Entries that are empty or longer than MaxStickerLength
// user-perceived characters are dropped, as are duplicates.
func SanitizeStickers(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(norm.NFC.String(s))
		if s == "" || seen[s] {
			continue
		}
		if uniseg.GraphemeClusterCount(s) > MaxStickerLength {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == MaxStickers {
			break
		}
	}
	return out
}
