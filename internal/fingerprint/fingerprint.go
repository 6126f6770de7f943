// Package fingerprint derives stable, normalization-insensitive hashes for
// paragraph text so exact duplicates can be grouped without pairwise
// comparison. Normalization is deterministic: the same bytes always map to
// the same fingerprint regardless of casing, accents or markdown decoration.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
)

// stripAccents decomposes to NFD, drops combining marks, and recomposes.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics, and replaces markdown decoration
// (`*_\`>#~-|`) and all other non-word punctuation with spaces, collapsing
// whitespace runs. Emoji and symbols become separators so token boundaries
// survive.
func Normalize(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Fingerprint hashes the normalized text and truncates to 16 hex characters,
// plenty for grouping within one document.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return hex.EncodeToString(sum[:])[:16]
}

// Index groups paragraph indices by fingerprint, preserving document order
// within each group.
type Index map[string][]int

// BuildIndex fingerprints every paragraph and groups them.
func BuildIndex(paras []docmodel.Paragraph) Index {
	idx := make(Index, len(paras))
	for i := range paras {
		fp := Fingerprint(paras[i].Text)
		idx[fp] = append(idx[fp], i)
	}
	return idx
}
