// Package plan aggregates detector outputs into one confidence-scored,
// stably-identified issue list for human review. Ids are derived from
// content and position, never generated, so re-analyzing unchanged text
// yields byte-identical reports.
package plan

import (
	"fmt"
	"sort"

	"github.com/hyperifyio/transcriptfix/internal/duplicate"
	"github.com/hyperifyio/transcriptfix/internal/headsem"
	"github.com/hyperifyio/transcriptfix/internal/numbering"
	"github.com/hyperifyio/transcriptfix/internal/tableplace"
)

// Severity orders issues for review; higher first.
type Severity int

const (
	SeverityLow    Severity = 1
	SeverityMedium Severity = 2
	SeverityHigh   Severity = 3
)

// Action is what the applicator does when the issue is approved.
type Action string

const (
	ActionRemove   Action = "REMOVE"
	ActionMerge    Action = "MERGE"
	ActionRenumber Action = "RENUMBER"
	ActionMove     Action = "MOVE"
	ActionRename   Action = "RENAME"
	// ActionRenameRecommended marks advisory suggestions that are surfaced
	// but never applied by this engine.
	ActionRenameRecommended Action = "RENAME_RECOMMENDED"
)

// Issue types.
const (
	TypeDuplicateParagraph = "duplicate_paragraph"
	TypeDuplicateSection   = "duplicate_section"
	TypeNumberingDrift     = "numbering_drift"
	TypeSemantic           = "heading_semantic"
	TypeTableMisplacement  = "table_misplacement"
	TypeTableHeadingLevel  = "table_heading_level"
	TypeMarkdownArtifact   = "markdown_artifact"
)

// FixIssue is the human-in-the-loop unit: everything a reviewer needs to
// decide, plus the positional payload the applicator needs to act.
type FixIssue struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Kind        string   `json:"kind,omitempty"`
	Severity    Severity `json:"severity"`
	Action      Action   `json:"action"`
	Confidence  float64  `json:"confidence"`
	Line        int      `json:"line"`
	Description string   `json:"description"`

	Fingerprint   string  `json:"fingerprint,omitempty"`
	Lines         []int   `json:"lines,omitempty"`
	SeqRatio      float64 `json:"seq_ratio,omitempty"`
	Jaccard       float64 `json:"jaccard,omitempty"`
	OldText       string  `json:"old_text,omitempty"`
	NewText       string  `json:"new_text,omitempty"`
	Strategy      string  `json:"strategy,omitempty"`
	SectionIndex  int     `json:"section_index"`
	TargetSection int     `json:"target_section"`
	Excerpt       string  `json:"excerpt,omitempty"`
}

// Report is the analyze output described in the external interface: one
// array per issue category plus a total.
type Report struct {
	Mode                     string     `json:"mode"`
	DuplicateParagraphs      []FixIssue `json:"duplicate_paragraphs"`
	DuplicateSections        []FixIssue `json:"duplicate_sections"`
	HeadingNumberingIssues   []FixIssue `json:"heading_numbering_issues"`
	HeadingSemanticIssues    []FixIssue `json:"heading_semantic_issues"`
	TableMisplacements       []FixIssue `json:"table_misplacements"`
	TableHeadingLevelIssues  []FixIssue `json:"table_heading_level_issues"`
	HeadingMarkdownArtifacts []FixIssue `json:"heading_markdown_artifacts"`
	TotalIssues              int        `json:"total_issues"`
}

// Build converts detector outputs into a sorted report.
func Build(mode string,
	dups []duplicate.Candidate,
	secDups []duplicate.SectionCandidate,
	numChanges []numbering.Change,
	sem []headsem.Issue,
	moves []tableplace.Misplacement,
	levels []tableplace.LevelIssue,
	artifacts []tableplace.Artifact,
) *Report {
	r := &Report{Mode: mode}

	for _, d := range dups {
		r.DuplicateParagraphs = append(r.DuplicateParagraphs, FixIssue{
			ID:            d.ID,
			Type:          TypeDuplicateParagraph,
			Kind:          d.Kind,
			Severity:      SeverityHigh,
			Action:        ActionRemove,
			Confidence:    d.Confidence,
			Line:          d.Lines[0],
			Description:   fmt.Sprintf("%s duplicate paragraph (%d occurrences): %s", d.Kind, len(d.Lines), d.Excerpt),
			Fingerprint:   d.Fingerprint,
			Lines:         d.Lines,
			SeqRatio:      d.SeqRatio,
			Jaccard:       d.Jaccard,
			Excerpt:       d.Excerpt,
			SectionIndex:  -1,
			TargetSection: -1,
		})
	}
	for _, s := range secDups {
		r.DuplicateSections = append(r.DuplicateSections, FixIssue{
			ID:            s.ID,
			Type:          TypeDuplicateSection,
			Kind:          s.Kind,
			Severity:      SeverityHigh,
			Action:        ActionMerge,
			Confidence:    s.Confidence,
			Line:          s.FirstLine,
			Description:   fmt.Sprintf("section %q duplicates earlier section %q", s.TitleB, s.TitleA),
			Fingerprint:   s.Fingerprint,
			Lines:         []int{s.FirstLine, s.SecondLine},
			SeqRatio:      s.SeqRatio,
			Jaccard:       s.Jaccard,
			SectionIndex:  s.Second,
			TargetSection: s.First,
		})
	}
	for _, c := range numChanges {
		r.HeadingNumberingIssues = append(r.HeadingNumberingIssues, FixIssue{
			ID:            fmt.Sprintf("renumber_%d", c.Line),
			Type:          TypeNumberingDrift,
			Kind:          "numbering_drift",
			Severity:      SeverityMedium,
			Action:        ActionRenumber,
			Confidence:    0.97,
			Line:          c.Line,
			Description:   fmt.Sprintf("heading numbering drift: %q should be %q", c.Old, c.New),
			OldText:       c.Old,
			NewText:       c.New,
			SectionIndex:  -1,
			TargetSection: -1,
		})
	}
	for _, h := range sem {
		r.HeadingSemanticIssues = append(r.HeadingSemanticIssues, FixIssue{
			ID:            fmt.Sprintf("headsem_%s_%d", h.Kind, h.Line),
			Type:          TypeSemantic,
			Kind:          h.Kind,
			Severity:      SeverityLow,
			Action:        ActionRenameRecommended,
			Confidence:    h.Confidence,
			Line:          h.Line,
			Description:   fmt.Sprintf("%s: %s; suggest %q instead of %q", h.Kind, h.Reason, h.NewTitle, h.OldTitle),
			OldText:       h.OldTitle,
			NewText:       h.NewTitle,
			SectionIndex:  h.Section,
			TargetSection: -1,
		})
	}
	for _, m := range moves {
		r.TableMisplacements = append(r.TableMisplacements, FixIssue{
			ID:            m.ID,
			Type:          TypeTableMisplacement,
			Severity:      SeverityHigh,
			Action:        ActionMove,
			Confidence:    m.Confidence,
			Line:          m.HeadingLine,
			Description:   m.Reason,
			OldText:       m.Heading,
			Strategy:      m.Strategy,
			SectionIndex:  m.CurrentSection,
			TargetSection: m.TargetSection,
		})
	}
	for _, l := range levels {
		r.TableHeadingLevelIssues = append(r.TableHeadingLevelIssues, FixIssue{
			ID:            fmt.Sprintf("table_level_%d", l.Line),
			Type:          TypeTableHeadingLevel,
			Kind:          "table_heading_level",
			Severity:      SeverityMedium,
			Action:        ActionRename,
			Confidence:    l.Confidence,
			Line:          l.Line,
			Description:   fmt.Sprintf("table heading should be level 4: %q", l.Old),
			OldText:       l.Old,
			NewText:       l.New,
			SectionIndex:  -1,
			TargetSection: -1,
		})
	}
	for _, a := range artifacts {
		r.HeadingMarkdownArtifacts = append(r.HeadingMarkdownArtifacts, FixIssue{
			ID:            fmt.Sprintf("md_artifact_%d", a.Line),
			Type:          TypeMarkdownArtifact,
			Kind:          "markdown_artifact",
			Severity:      SeverityMedium,
			Action:        ActionRename,
			Confidence:    a.Confidence,
			Line:          a.Line,
			Description:   fmt.Sprintf("%s: %q", a.Reason, a.Old),
			OldText:       a.Old,
			NewText:       a.New,
			SectionIndex:  -1,
			TargetSection: -1,
		})
	}

	for _, list := range r.categories() {
		sortIssues(*list)
	}
	r.TotalIssues = len(r.DuplicateParagraphs) + len(r.DuplicateSections) +
		len(r.HeadingNumberingIssues) + len(r.HeadingSemanticIssues) +
		len(r.TableMisplacements) + len(r.TableHeadingLevelIssues) +
		len(r.HeadingMarkdownArtifacts)
	return r
}

func (r *Report) categories() []*[]FixIssue {
	return []*[]FixIssue{
		&r.DuplicateParagraphs,
		&r.DuplicateSections,
		&r.HeadingNumberingIssues,
		&r.HeadingSemanticIssues,
		&r.TableMisplacements,
		&r.TableHeadingLevelIssues,
		&r.HeadingMarkdownArtifacts,
	}
}

// All returns every issue across categories in the canonical order.
func (r *Report) All() []FixIssue {
	var out []FixIssue
	for _, list := range r.categories() {
		out = append(out, *list...)
	}
	sortIssues(out)
	return out
}

// Find returns the issue with the given id, if present.
func (r *Report) Find(id string) (FixIssue, bool) {
	for _, list := range r.categories() {
		for _, is := range *list {
			if is.ID == id {
				return is, true
			}
		}
	}
	return FixIssue{}, false
}

// sortIssues orders by severity desc, confidence desc, line asc, then id as
// the final deterministic tiebreak.
func sortIssues(issues []FixIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.ID < b.ID
	})
}
