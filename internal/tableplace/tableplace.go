// Package tableplace finds synthesis-table blocks (a "quadro-síntese" style
// heading plus its Markdown table) and decides whether chunked generation
// left them in the wrong place. It also flags table headings at the wrong
// level and headings carrying leftover markdown artifacts.
package tableplace

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/fingerprint"
	"github.com/hyperifyio/transcriptfix/internal/profile"
	"github.com/hyperifyio/transcriptfix/internal/similarity"
)

// Relocation strategies.
const (
	StrategyIntroToSectionEnd = "h2_intro_to_section_end"
	StrategySubtopicToParent  = "subtopic_to_parent"
)

// Block is one relocatable unit: a table-introducing heading plus the
// well-formed Markdown table that immediately follows it. Start is the
// heading line; End is exclusive, past the last table row.
type Block struct {
	Index        int
	Section      int
	HeadingLine  int
	HeadingLevel int
	Heading      string // cleaned title
	Raw          string
	Start        int
	End          int
	RowCount     int // data rows below the separator
}

// Misplacement proposes moving one block. InsertLine is computed against the
// analyzed text; the applicator recomputes it after earlier fixes.
type Misplacement struct {
	ID             string
	BlockIndex     int
	Heading        string
	HeadingLine    int
	Strategy       string
	CurrentSection int
	TargetSection  int
	InsertLine     int
	Confidence     float64
	Reason         string
}

// LevelIssue flags a table-closing heading above level 4.
type LevelIssue struct {
	Line       int
	Old        string
	New        string
	Confidence float64
}

// Artifact flags a heading whose raw text retains stray markdown from
// chunked generation, with a cleaned replacement.
type Artifact struct {
	Line       int
	Old        string
	New        string
	Confidence float64
	Reason     string
}

var tableKeywords = []string{"tabela", "quadro", "sintese", "pegadinha", "banca"}

var separatorRe = regexp.MustCompile(`^\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)+\|?$`)

// introToEndConfidence: the H2-intro rule is near-mechanical, so it carries
// a fixed high confidence.
const introToEndConfidence = 0.92

// contextLines bounds the trailing context compared against the table when
// scoring the subtopic_to_parent strategy.
const contextLines = 12

// similarityMargin is the absolute keyword-similarity advantage the parent
// context must have over the current one before a relocation is proposed.
const similarityMargin = 0.08

// IsTableHeading reports whether a cleaned title introduces a synthesis
// table.
func IsTableHeading(title string) bool {
	norm := " " + fingerprint.Normalize(title) + " "
	for _, k := range tableKeywords {
		if strings.Contains(norm, " "+k+" ") {
			return true
		}
	}
	return false
}

// FindBlocks scans every section whose title carries a table keyword and
// validates the table that follows: a header row with at least two non-empty
// cells, a separator row, then consecutive data rows.
func FindBlocks(doc *docmodel.Document) []Block {
	var out []Block
	for i := range doc.Sections {
		sec := doc.Sections[i]
		if !IsTableHeading(sec.Title) {
			continue
		}
		// Skip blank lines between heading and table.
		j := sec.BodyStart
		for j < sec.BodyEnd && strings.TrimSpace(doc.Lines[j]) == "" {
			j++
		}
		if j >= sec.BodyEnd || cellCount(doc.Lines[j]) < 2 {
			continue
		}
		if j+1 >= sec.BodyEnd || !separatorRe.MatchString(strings.TrimSpace(doc.Lines[j+1])) {
			continue
		}
		end := j + 2
		rows := 0
		for end < sec.BodyEnd && strings.HasPrefix(strings.TrimSpace(doc.Lines[end]), "|") {
			rows++
			end++
		}
		out = append(out, Block{
			Index:        len(out),
			Section:      i,
			HeadingLine:  sec.HeadingLine,
			HeadingLevel: sec.Level,
			Heading:      sec.Title,
			Raw:          sec.Raw,
			Start:        sec.HeadingLine,
			End:          end,
			RowCount:     rows,
		})
	}
	return out
}

func cellCount(line string) int {
	s := strings.TrimSpace(line)
	if !strings.Contains(s, "|") {
		return 0
	}
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	n := 0
	for _, cell := range strings.Split(s, "|") {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

// FindMisplacements applies the two relocation strategies to every block.
func FindMisplacements(doc *docmodel.Document, prof profile.Profile) []Misplacement {
	var out []Misplacement
	for _, b := range FindBlocks(doc) {
		if m, ok := introToSectionEnd(doc, b); ok {
			out = append(out, m)
			continue
		}
		if m, ok := subtopicToParent(doc, b, prof); ok {
			out = append(out, m)
		}
	}
	return out
}

// introToSectionEnd fires when a block sits between an H2 heading and that
// section's first H3 child: the synthesis table belongs at the end of the H2
// section, after all subtopics.
func introToSectionEnd(doc *docmodel.Document, b Block) (Misplacement, bool) {
	h2 := enclosing(doc, b, 2)
	if h2 < 0 {
		return Misplacement{}, false
	}
	firstH3 := -1
	for i := h2 + 1; i < len(doc.Sections); i++ {
		if doc.Sections[i].Level <= 2 {
			break
		}
		if doc.Sections[i].Level == 3 && doc.Sections[i].Parent == h2 {
			firstH3 = i
			break
		}
	}
	if firstH3 < 0 {
		return Misplacement{}, false
	}
	if b.HeadingLine <= doc.Sections[h2].HeadingLine || b.End > doc.Sections[firstH3].HeadingLine {
		return Misplacement{}, false
	}
	return Misplacement{
		ID:             fmt.Sprintf("table_move_%d", b.Index),
		BlockIndex:     b.Index,
		Heading:        b.Raw,
		HeadingLine:    b.HeadingLine,
		Strategy:       StrategyIntroToSectionEnd,
		CurrentSection: h2,
		TargetSection:  h2,
		InsertLine:     doc.SpanEnd(h2),
		Confidence:     introToEndConfidence,
		Reason:         fmt.Sprintf("synthesis table sits in the intro of %q before its first subtopic", doc.Sections[h2].Title),
	}, true
}

// subtopicToParent compares the table's keywords against the trailing
// context of its own subsection and of the parent section; a clear parent
// advantage means the table closes the parent topic, not the subtopic.
func subtopicToParent(doc *docmodel.Document, b Block, prof profile.Profile) (Misplacement, bool) {
	cur := doc.Sections[b.Section].Parent
	if cur < 0 {
		return Misplacement{}, false
	}
	curSec := doc.Sections[cur]
	if curSec.Level < 3 || curSec.Numbering == nil || curSec.Parent < 0 {
		return Misplacement{}, false
	}
	parent := curSec.Parent

	tableText := strings.Join(doc.Lines[b.Start:b.End], "\n")
	tableTokens := similarity.TokenSet(tableText, prof.MinTokenLen)

	curTokens := similarity.TokenSet(trailingContext(doc, curSec.BodyStart, b.HeadingLine), prof.MinTokenLen)
	parentTokens := similarity.TokenSet(trailingContext(doc, doc.Sections[parent].BodyStart, curSec.HeadingLine), prof.MinTokenLen)

	curSim := similarity.Jaccard(tableTokens, curTokens)
	parentSim := similarity.Jaccard(tableTokens, parentTokens)
	if parentSim < similarityMargin || parentSim-curSim < similarityMargin {
		return Misplacement{}, false
	}
	margin := parentSim - curSim
	return Misplacement{
		ID:             fmt.Sprintf("table_move_%d", b.Index),
		BlockIndex:     b.Index,
		Heading:        b.Raw,
		HeadingLine:    b.HeadingLine,
		Strategy:       StrategySubtopicToParent,
		CurrentSection: cur,
		TargetSection:  parent,
		InsertLine:     curSec.HeadingLine,
		Confidence:     similarity.Clip(0.55+margin*2.5, 0, 0.90),
		Reason: fmt.Sprintf("table matches %q better than %q (%.2f vs %.2f)",
			doc.Sections[parent].Title, curSec.Title, parentSim, curSim),
	}, true
}

// enclosing walks the parent chain of a block's own heading up to the
// nearest ancestor at the wanted level.
func enclosing(doc *docmodel.Document, b Block, level int) int {
	i := doc.Sections[b.Section].Parent
	for i >= 0 {
		if doc.Sections[i].Level == level {
			return i
		}
		i = doc.Sections[i].Parent
	}
	return -1
}

// trailingContext joins the last contextLines non-empty lines of
// [start, end).
func trailingContext(doc *docmodel.Document, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(doc.Lines) {
		end = len(doc.Lines)
	}
	var kept []string
	for i := end - 1; i >= start && len(kept) < contextLines; i-- {
		s := strings.TrimSpace(doc.Lines[i])
		if s == "" {
			continue
		}
		kept = append(kept, s)
	}
	// restore document order
	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	return strings.Join(kept, "\n")
}

// FindLevelIssues flags table-closing headings above level 4; the cleaned
// replacement demotes to H4 and drops any numeric prefix.
func FindLevelIssues(doc *docmodel.Document) []LevelIssue {
	var out []LevelIssue
	for _, b := range FindBlocks(doc) {
		if b.HeadingLevel >= 4 {
			continue
		}
		out = append(out, LevelIssue{
			Line:       b.HeadingLine,
			Old:        b.Raw,
			New:        "#### " + b.Heading,
			Confidence: 0.85,
		})
	}
	return out
}

var doublePrefixRe = regexp.MustCompile(`^(\d+(?:\.\d+)*\.)\s+(\d+(?:\.\d+)*\.)\s+(.*)$`)

// FindArtifacts flags headings whose text still carries stray '#' characters
// or a duplicated numeric prefix from chunked generation, with a cleaned
// replacement line.
func FindArtifacts(doc *docmodel.Document) []Artifact {
	var out []Artifact
	for i := range doc.Sections {
		sec := doc.Sections[i]
		rest := strings.TrimSpace(strings.TrimLeft(sec.Raw, "#"))
		cleaned := rest
		reason := ""
		if strings.Contains(rest, "#") {
			cleaned = strings.Join(strings.Fields(strings.ReplaceAll(cleaned, "#", " ")), " ")
			reason = "stray '#' inside heading text"
		}
		if m := doublePrefixRe.FindStringSubmatch(cleaned); m != nil {
			cleaned = m[2] + " " + m[3]
			if reason != "" {
				reason += "; duplicated numeric prefix"
			} else {
				reason = "duplicated numeric prefix"
			}
		}
		if reason == "" {
			continue
		}
		out = append(out, Artifact{
			Line:       sec.HeadingLine,
			Old:        sec.Raw,
			New:        strings.Repeat("#", sec.Level) + " " + cleaned,
			Confidence: 0.88,
			Reason:     reason,
		})
	}
	return out
}
