// Package similarity scores how alike two text spans are, combining a
// character-level matching-blocks ratio with token-set Jaccard overlap, and
// classifies spans that legitimately repeat across a transcript (citation
// lines, table introducers, structural markers) so they are never reported
// as duplicates.
package similarity

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/transcriptfix/internal/fingerprint"
)

// stopwords lists high-frequency Portuguese function words and legal filler
// that carry no discriminating signal for token overlap.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"que", "nao", "uma", "com", "para", "por", "dos", "das", "mais",
		"como", "ser", "sao", "sua", "seu", "suas", "seus", "este", "esta",
		"esse", "essa", "isso", "isto", "aos", "nos", "nas", "pelo", "pela",
		"entre", "sobre", "quando", "tambem", "pode", "deve", "sera",
		"foi", "ter", "tem", "haver", "assim", "ainda", "apenas", "caso",
		"forma", "parte", "bem", "onde", "qual", "quais", "cada", "mesmo",
		"mesma", "outro", "outra", "seja", "sem", "dois", "duas", "tres",
	} {
		stopwords[w] = struct{}{}
	}
}

// TokenSet extracts normalized alphanumeric tokens of at least minLen runes,
// dropping stopwords and pure-digit tokens.
func TokenSet(text string, minLen int) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range strings.Fields(fingerprint.Normalize(text)) {
		if len([]rune(tok)) < minLen {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		if isDigits(tok) {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Jaccard returns |a∩b| / |a∪b|; empty-vs-empty is 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// OverlapOnA returns |a∩b| / |a|, the fraction of a's tokens also present in
// b. Used for title-against-body coverage checks.
func OverlapOnA(a, b map[string]struct{}) float64 {
	if len(a) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a))
}

// SequenceRatio is a difflib-style similarity in [0,1]: twice the total
// length of recursively found longest matching blocks over the combined
// length, computed over runes.
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	b2j := make(map[rune][]int, len(rb))
	for j, r := range rb {
		b2j[r] = append(b2j[r], j)
	}
	matched := matchingSize(ra, rb, b2j, 0, len(ra), 0, len(rb))
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

// matchingSize finds the longest common block within the given windows and
// recurses on the text before and after it.
func matchingSize(a, b []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) int {
	if alo >= ahi || blo >= bhi {
		return 0
	}
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	if bestsize == 0 {
		return 0
	}
	return bestsize +
		matchingSize(a, b, b2j, alo, besti, blo, bestj) +
		matchingSize(a, b, b2j, besti+bestsize, ahi, bestj+bestsize, bhi)
}

var (
	tableIntroRe = regexp.MustCompile(`^(quadro|tabela|esquema)( sintese)?\b|^sintese\b|quadro sintese`)
	citationRe   = regexp.MustCompile(`^(art|artigo|sumula|lei|inciso|paragrafo|cf|cpc|cpp|stf|stj|tst|resp|adi|adc|hc)\b`)
	citeLikeRe   = regexp.MustCompile(`\b(art|artigo|sumula|lei|inciso|julgado|acordao|ementa)\b`)
)

// Legitimate reports repetition that must never be flagged as a duplicate,
// regardless of similarity score: table introducers, legal-citation lines,
// short citation-like spans, and structural markdown markers.
func Legitimate(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	switch trimmed[0] {
	case '#', '|', '>':
		return true
	}
	if docFence(trimmed) {
		return true
	}
	norm := fingerprint.Normalize(trimmed)
	if tableIntroRe.MatchString(norm) {
		return true
	}
	if citationRe.MatchString(norm) {
		return true
	}
	if len([]rune(trimmed)) <= 160 && citeLikeRe.MatchString(norm) {
		return true
	}
	return false
}

func docFence(s string) bool {
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}

// Confidence maps raw scores to a reviewer-facing confidence. Exact matches
// are pinned at 0.99; near matches blend how far the sequence ratio clears
// the mode threshold with the Jaccard score, capped at 0.98.
func Confidence(kind string, seq, jac, threshold float64) float64 {
	if kind == "exact" {
		return 0.99
	}
	rel := 0.0
	if threshold > 0 {
		rel = Clip(seq/threshold, 0, 1)
	}
	return Clip(0.62*rel+0.38*jac, 0, 0.98)
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
