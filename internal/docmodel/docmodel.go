package docmodel

import (
	"regexp"
	"strconv"
	"strings"
)

// Document is the line-oriented view of one transcript plus the section tree
// derived from its H2–H4 headings. It is rebuilt from scratch on every Parse
// call and carries no identity across calls; mutating code is expected to
// edit the line slice (or the joined text) and re-parse.
type Document struct {
	Lines    []string
	Sections []Section
}

// Section is a single H2–H4 heading and the body lines it owns. Parent is the
// index of the nearest preceding heading of strictly lower level, or -1. The
// body span runs from the line after the heading up to (excluding) the next
// heading of any tracked level, so sibling spans are disjoint and a parent's
// full span strictly contains its children.
type Section struct {
	Index       int
	Level       int
	Numbering   []int // nil when the heading carries no numeric prefix
	Title       string
	Raw         string
	HeadingLine int
	BodyStart   int // first body line
	BodyEnd     int // exclusive
	Parent      int
}

// Paragraph is a run of contiguous non-empty lines. Section is the index of
// the owning section, or -1 for preamble text before the first heading.
type Paragraph struct {
	Section   int
	StartLine int
	EndLine   int // inclusive
	Text      string
}

var (
	headingRe = regexp.MustCompile(`^(#{2,4})\s+(.+)$`)
	prefixRe  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(.*)$`)
)

// Parse splits text into lines and reconstructs the section tree. Heading-like
// lines inside fenced code blocks (``` or ~~~) are treated as plain text.
func Parse(text string) *Document {
	lines := strings.Split(text, "\n")
	d := &Document{Lines: lines}

	fenced := false
	for i, raw := range lines {
		s := strings.TrimSpace(raw)
		if IsFence(s) {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}
		m := headingRe.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		level := len(m[1])
		nums, title := SplitTitle(m[2])
		sec := Section{
			Index:       len(d.Sections),
			Level:       level,
			Numbering:   nums,
			Title:       title,
			Raw:         s,
			HeadingLine: i,
			BodyStart:   i + 1,
			Parent:      -1,
		}
		d.Sections = append(d.Sections, sec)
	}

	// Close body spans and resolve parents in a second pass so the "next
	// heading of any level" boundary is available.
	for i := range d.Sections {
		if i+1 < len(d.Sections) {
			d.Sections[i].BodyEnd = d.Sections[i+1].HeadingLine
		} else {
			d.Sections[i].BodyEnd = len(lines)
		}
		for j := i - 1; j >= 0; j-- {
			if d.Sections[j].Level < d.Sections[i].Level {
				d.Sections[i].Parent = j
				break
			}
		}
	}
	return d
}

// SplitTitle separates an optional leading numeric prefix like "2.1." from
// the rest of the heading text.
func SplitTitle(s string) ([]int, string) {
	m := prefixRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, strings.TrimSpace(s)
	}
	parts := strings.Split(m[1], ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, strings.TrimSpace(s)
		}
		nums = append(nums, n)
	}
	return nums, strings.TrimSpace(m[2])
}

// IsFence reports whether a trimmed line opens or closes a fenced code block.
func IsFence(s string) bool {
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}

// Text joins the line slice back into a single document string.
func (d *Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

// SectionAt returns the index of the section owning line, or -1 when the line
// precedes the first heading. Heading lines belong to their own section.
func (d *Document) SectionAt(line int) int {
	owner := -1
	for i := range d.Sections {
		if d.Sections[i].HeadingLine <= line {
			owner = i
		} else {
			break
		}
	}
	return owner
}

// FirstChild returns the index of the first section whose parent is sec, or
// -1 when sec has no children.
func (d *Document) FirstChild(sec int) int {
	for i := sec + 1; i < len(d.Sections); i++ {
		if d.Sections[i].Parent == sec {
			return i
		}
		if d.Sections[i].Level <= d.Sections[sec].Level {
			break
		}
	}
	return -1
}

// SpanEnd returns the exclusive end line of a section's full span, running
// until the next heading of the same or lower level (or EOF). Unlike
// BodyEnd, the span contains the section's entire subtree.
func (d *Document) SpanEnd(sec int) int {
	level := d.Sections[sec].Level
	for i := sec + 1; i < len(d.Sections); i++ {
		if d.Sections[i].Level <= level {
			return d.Sections[i].HeadingLine
		}
	}
	return len(d.Lines)
}

// Body returns the body lines of a section.
func (d *Document) Body(sec int) []string {
	s := d.Sections[sec]
	if s.BodyStart >= s.BodyEnd {
		return nil
	}
	return d.Lines[s.BodyStart:s.BodyEnd]
}

// Paragraphs collects runs of contiguous non-empty, non-heading lines across
// the whole document, including preamble text before the first heading.
func (d *Document) Paragraphs() []Paragraph {
	var out []Paragraph
	start := -1
	flush := func(end int) {
		if start == -1 {
			return
		}
		out = append(out, Paragraph{
			Section:   d.SectionAt(start),
			StartLine: start,
			EndLine:   end,
			Text:      strings.Join(d.Lines[start:end+1], "\n"),
		})
		start = -1
	}
	heading := make(map[int]bool, len(d.Sections))
	for i := range d.Sections {
		heading[d.Sections[i].HeadingLine] = true
	}
	for i, raw := range d.Lines {
		s := strings.TrimSpace(raw)
		if s == "" || heading[i] {
			flush(i - 1)
			continue
		}
		if start == -1 {
			start = i
		}
	}
	flush(len(d.Lines) - 1)
	return out
}
