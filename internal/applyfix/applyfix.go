// Package applyfix mutates document text for approved fixes. Every fix
// re-parses the current text before acting, so a batch never works from
// stale line offsets. Application is best-effort: a fix whose target no
// longer matches the document is skipped with a reason, and the rest of the
// batch proceeds.
package applyfix

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/duplicate"
	"github.com/hyperifyio/transcriptfix/internal/fingerprint"
	"github.com/hyperifyio/transcriptfix/internal/numbering"
	"github.com/hyperifyio/transcriptfix/internal/plan"
	"github.com/hyperifyio/transcriptfix/internal/profile"
	"github.com/hyperifyio/transcriptfix/internal/tableplace"
)

// SkippedFix records a fix that could not be applied and why. Skips are
// diagnostics, not errors.
type SkippedFix struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// MoveOutcome reports per-attempted-MOVE success or failure.
type MoveOutcome struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Result is the outcome of one Apply batch.
type Result struct {
	NewText string        `json:"new_text"`
	Applied []string      `json:"fixes_applied"`
	Skipped []SkippedFix  `json:"skipped"`
	Moves   []MoveOutcome `json:"moves"`
}

// Apply runs the approved fixes in order over text. The profile is needed to
// re-evaluate table relocation targets against the current document state.
func Apply(text string, approved []plan.FixIssue, prof profile.Profile) Result {
	res := Result{NewText: text}
	for _, issue := range approved {
		doc := docmodel.Parse(res.NewText)
		switch issue.Action {
		case plan.ActionRemove:
			applyRemove(doc, issue, &res)
		case plan.ActionMerge:
			applyMerge(doc, issue, &res)
		case plan.ActionRenumber:
			applyRenumber(issue, &res)
		case plan.ActionMove:
			applyMove(doc, issue, prof, &res)
		case plan.ActionRename, plan.ActionRenameRecommended:
			applyRename(doc, issue, &res)
		default:
			res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: fmt.Sprintf("unknown action %q", issue.Action)})
		}
	}
	return res
}

// applyRemove deletes the later occurrences of a duplicated paragraph,
// re-located by fingerprint against the current text. For near duplicates
// the fingerprint identifies the later paragraph of the pair, which has no
// earlier twin to keep.
func applyRemove(doc *docmodel.Document, issue plan.FixIssue, res *Result) {
	paras := doc.Paragraphs()
	var hits []docmodel.Paragraph
	for _, p := range paras {
		if fingerprint.Fingerprint(p.Text) == issue.Fingerprint {
			hits = append(hits, p)
		}
	}
	keepFirst := issue.Kind == "exact"
	if (keepFirst && len(hits) < 2) || len(hits) == 0 {
		res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: "duplicate no longer present"})
		return
	}
	victims := hits
	if keepFirst {
		victims = hits[1:]
	}
	lines := doc.Lines
	removed := 0
	// Delete back to front so earlier spans keep their offsets.
	for i := len(victims) - 1; i >= 0; i-- {
		lines = deleteSpan(lines, victims[i].StartLine, victims[i].EndLine)
		removed++
	}
	res.NewText = strings.Join(lines, "\n")
	res.Applied = append(res.Applied, fmt.Sprintf("removed %d duplicate paragraph(s) [%s]", removed, issue.Fingerprint))
}

// applyMerge drops the later of two duplicated sections, keeping the
// first-seen one. Sections are re-located by their comparison-text
// fingerprint rather than by the analyzed line numbers.
func applyMerge(doc *docmodel.Document, issue plan.FixIssue, res *Result) {
	var matches []int
	for i := range doc.Sections {
		if duplicate.SectionComparisonFingerprint(doc, i) == issue.Fingerprint {
			matches = append(matches, i)
		}
	}
	// The later section's fingerprint also matches the first when the pair
	// is an exact duplicate; either way at least two hits mean the merge is
	// still pending.
	if len(matches) < 2 {
		res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: "duplicate section no longer present"})
		return
	}
	victim := doc.Sections[matches[len(matches)-1]]
	lines := deleteSpan(doc.Lines, victim.HeadingLine, victim.BodyEnd-1)
	res.NewText = strings.Join(lines, "\n")
	res.Applied = append(res.Applied, fmt.Sprintf("merged duplicate section %q into first occurrence", victim.Title))
}

func applyRenumber(issue plan.FixIssue, res *Result) {
	out, changed := numbering.Renumber(res.NewText)
	if !changed {
		res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: "numbering already canonical"})
		return
	}
	res.NewText = out
	res.Applied = append(res.Applied, "renumbered headings")
}

// applyMove re-detects the misplacement on the current document, extracts
// the block, reinserts it at the strategy target, and only commits when the
// table integrity invariant holds.
func applyMove(doc *docmodel.Document, issue plan.FixIssue, prof profile.Profile, res *Result) {
	wantHeading := fingerprint.Normalize(issue.OldText)
	blocks := tableplace.FindBlocks(doc)
	var move *tableplace.Misplacement
	for _, m := range tableplace.FindMisplacements(doc, prof) {
		if m.Strategy == issue.Strategy && fingerprint.Normalize(m.Heading) == wantHeading {
			mm := m
			move = &mm
			break
		}
	}
	if move == nil {
		reason := "table is no longer misplaced"
		res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: reason})
		res.Moves = append(res.Moves, MoveOutcome{ID: issue.ID, OK: false, Reason: reason})
		return
	}
	b := blocks[move.BlockIndex]
	before := res.NewText

	block := append([]string(nil), doc.Lines[b.Start:b.End]...)
	lines := deleteSpan(doc.Lines, b.Start, b.End-1)
	removed := len(doc.Lines) - len(lines)
	insert := move.InsertLine
	if insert >= b.End {
		insert -= removed
	} else if insert > b.Start {
		insert = b.Start
	}
	lines = insertBlock(lines, insert, block)
	after := strings.Join(lines, "\n")

	if reason := verifyTableIntegrity(before, after); reason != "" {
		res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: reason})
		res.Moves = append(res.Moves, MoveOutcome{ID: issue.ID, OK: false, Reason: reason})
		return
	}
	res.NewText = after
	res.Applied = append(res.Applied, fmt.Sprintf("moved table %q (%s)", b.Heading, move.Strategy))
	res.Moves = append(res.Moves, MoveOutcome{ID: issue.ID, OK: true})
}

// applyRename rewrites a single heading line. Full-line rewrites (demote,
// artifact cleanup) match the raw heading text; advisory title renames keep
// the level and numeric prefix and swap only the title.
func applyRename(doc *docmodel.Document, issue plan.FixIssue, res *Result) {
	if issue.Action == plan.ActionRename {
		line := findLine(doc, issue.Line, issue.OldText)
		if line < 0 {
			res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: "heading not found"})
			return
		}
		doc.Lines[line] = issue.NewText
		res.NewText = doc.Text()
		res.Applied = append(res.Applied, fmt.Sprintf("rewrote heading to %q", issue.NewText))
		return
	}
	// Title-only rename: locate the section by cleaned title.
	for i := range doc.Sections {
		sec := doc.Sections[i]
		if sec.Title != issue.OldText {
			continue
		}
		prefix := strings.Repeat("#", sec.Level) + " "
		if len(sec.Numbering) > 0 {
			prefix += numberingPrefix(sec.Numbering) + " "
		}
		doc.Lines[sec.HeadingLine] = prefix + issue.NewText
		res.NewText = doc.Text()
		res.Applied = append(res.Applied, fmt.Sprintf("renamed heading %q to %q", issue.OldText, issue.NewText))
		return
	}
	res.Skipped = append(res.Skipped, SkippedFix{ID: issue.ID, Reason: "heading not found"})
}

func numberingPrefix(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ".") + "."
}

// findLine prefers the analyzed line index when its content still matches,
// falling back to a whole-document scan.
func findLine(doc *docmodel.Document, hint int, raw string) int {
	want := strings.TrimSpace(raw)
	if hint >= 0 && hint < len(doc.Lines) && strings.TrimSpace(doc.Lines[hint]) == want {
		return hint
	}
	for i, l := range doc.Lines {
		if strings.TrimSpace(l) == want {
			return i
		}
	}
	return -1
}

// deleteSpan removes lines start..end inclusive and collapses the blank line
// pair the removal leaves behind.
func deleteSpan(lines []string, start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	out := append([]string(nil), lines[:start]...)
	out = append(out, lines[end+1:]...)
	if start > 0 && start < len(out) &&
		strings.TrimSpace(out[start-1]) == "" && strings.TrimSpace(out[start]) == "" {
		out = append(out[:start], out[start+1:]...)
	}
	return out
}

// insertBlock splices block into lines at idx with blank-line separation on
// both sides.
func insertBlock(lines []string, idx int, block []string) []string {
	if idx < 0 {
		idx = 0
	}
	if idx > len(lines) {
		idx = len(lines)
	}
	var chunk []string
	if idx > 0 && strings.TrimSpace(lines[idx-1]) != "" {
		chunk = append(chunk, "")
	}
	chunk = append(chunk, block...)
	if idx < len(lines) && strings.TrimSpace(lines[idx]) != "" {
		chunk = append(chunk, "")
	}
	out := append([]string(nil), lines[:idx]...)
	out = append(out, chunk...)
	out = append(out, lines[idx:]...)
	return out
}
