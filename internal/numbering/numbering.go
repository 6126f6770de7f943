// Package numbering recomputes the hierarchical H2–H4 numeric prefixes of a
// document. Meta sections (sumário, bibliografia) and table-introducing
// headings are intentionally left unnumbered. Renumbering is idempotent:
// a second pass over its own output changes nothing.
package numbering

import (
	"strconv"
	"strings"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/fingerprint"
)

var level2Skip = []string{"sumario", "bibliografia", "referencia", "referencias"}

var deepSkip = []string{"quadro", "tabela", "sintese", "esquema", "pegadinha", "banca"}

// Skip reports whether a heading is exempt from numbering.
func Skip(level int, title string) bool {
	norm := fingerprint.Normalize(title)
	words := strings.Fields(norm)
	contains := func(keys []string) bool {
		for _, w := range words {
			for _, k := range keys {
				if w == k {
					return true
				}
			}
		}
		return false
	}
	if level == 2 {
		return contains(level2Skip)
	}
	return contains(deepSkip)
}

// Change records one heading line rewrite.
type Change struct {
	Line int
	Old  string
	New  string
}

// Changes computes the rewrites renumbering would perform, without applying
// them. Fenced code regions are skipped; title text is never altered.
func Changes(text string) []Change {
	lines := strings.Split(text, "\n")
	var out []Change
	counters := map[int]int{}
	fenced := false
	for i, raw := range lines {
		s := strings.TrimSpace(raw)
		if docmodel.IsFence(s) {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}
		level, rest, ok := splitHeading(s)
		if !ok || level < 2 || level > 4 {
			continue
		}
		_, title := docmodel.SplitTitle(rest)
		if Skip(level, title) {
			continue
		}
		counters[level]++
		for l := level + 1; l <= 4; l++ {
			counters[l] = 0
		}
		parts := make([]string, 0, level-1)
		for l := 2; l <= level; l++ {
			if counters[l] == 0 {
				// A deeper heading arrived before its ancestor was
				// numbered; treat the missing level as 1.
				counters[l] = 1
			}
			parts = append(parts, strconv.Itoa(counters[l]))
		}
		canonical := strings.Repeat("#", level) + " " + strings.Join(parts, ".") + ". " + title
		if canonical != s {
			out = append(out, Change{Line: i, Old: s, New: canonical})
		}
	}
	return out
}

// Renumber applies Changes to the whole document and reports whether
// anything was rewritten.
func Renumber(text string) (string, bool) {
	changes := Changes(text)
	if len(changes) == 0 {
		return text, false
	}
	lines := strings.Split(text, "\n")
	for _, c := range changes {
		lines[c.Line] = c.New
	}
	return strings.Join(lines, "\n"), true
}

func splitHeading(s string) (int, string, bool) {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n >= len(s) || s[n] != ' ' {
		return 0, "", false
	}
	rest := strings.TrimSpace(s[n+1:])
	if rest == "" {
		return 0, "", false
	}
	return n, rest, true
}
