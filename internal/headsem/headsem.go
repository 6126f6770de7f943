// Package headsem flags headings whose titles no longer describe their body:
// child titles that merely echo the parent, titles disconnected from the text
// below them, and sibling headings that duplicate each other. Every issue is
// advisory and carries a replacement title derived from the body itself.
package headsem

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/fingerprint"
	"github.com/hyperifyio/transcriptfix/internal/numbering"
	"github.com/hyperifyio/transcriptfix/internal/profile"
	"github.com/hyperifyio/transcriptfix/internal/similarity"
)

// Issue kinds.
const (
	KindParentChildDrift = "parent_child_drift"
	KindSemanticMismatch = "semantic_mismatch"
	KindNearDuplicate    = "near_duplicate"
)

// Issue is one advisory heading problem. NewTitle is a suggestion, never
// auto-applied.
type Issue struct {
	Kind       string
	Line       int
	Section    int
	OldTitle   string
	NewTitle   string
	Confidence float64
	Reason     string
}

// confidenceCap keeps semantic findings below certainty; they always go
// through human review.
const confidenceCap = 0.955

// Analyze runs the three detectors over the section tree.
func Analyze(doc *docmodel.Document, prof profile.Profile) []Issue {
	var out []Issue

	type info struct {
		normTitle   string
		titleTokens map[string]struct{}
		bodyTokens  map[string]struct{}
		bodyLen     int
	}
	infos := make([]info, len(doc.Sections))
	for i := range doc.Sections {
		sec := doc.Sections[i]
		body := directBody(doc, i)
		joined := strings.Join(body, "\n")
		infos[i] = info{
			normTitle:   fingerprint.Normalize(sec.Title),
			titleTokens: similarity.TokenSet(sec.Title, prof.MinTokenLen),
			bodyTokens:  similarity.TokenSet(joined, prof.MinTokenLen),
			bodyLen:     len([]rune(strings.TrimSpace(joined))),
		}
	}

	for i := range doc.Sections {
		sec := doc.Sections[i]
		if numbering.Skip(sec.Level, sec.Title) {
			continue
		}

		// Parent/child drift: the child restates the parent's title while
		// its body talks about something else.
		if p := sec.Parent; p >= 0 {
			titleSim := similarity.SequenceRatio(infos[i].normTitle, infos[p].normTitle)
			overlap := similarity.Jaccard(infos[i].bodyTokens, infos[p].bodyTokens)
			if titleSim >= prof.TitleSimilarityThreshold && overlap <= prof.ParentDriftBodyOverlapMax {
				if title := DeriveTitle(doc.Body(i), sec.Title); title != "" {
					out = append(out, Issue{
						Kind:       KindParentChildDrift,
						Line:       sec.HeadingLine,
						Section:    i,
						OldTitle:   sec.Title,
						NewTitle:   title,
						Confidence: similarity.Clip(0.55+(titleSim-prof.TitleSimilarityThreshold)*2+(prof.ParentDriftBodyOverlapMax-overlap), 0, confidenceCap),
						Reason:     "child title repeats the parent while the body diverges",
					})
				}
			}
		}

		// Title/body mismatch on sufficiently long bodies.
		if infos[i].bodyLen >= prof.MinSemanticBodyChars && len(infos[i].titleTokens) > 0 {
			cover := similarity.OverlapOnA(infos[i].titleTokens, infos[i].bodyTokens)
			if cover < prof.TitleBodyOverlapThreshold {
				if title := DeriveTitle(doc.Body(i), sec.Title); title != "" {
					shortfall := (prof.TitleBodyOverlapThreshold - cover) / prof.TitleBodyOverlapThreshold
					out = append(out, Issue{
						Kind:       KindSemanticMismatch,
						Line:       sec.HeadingLine,
						Section:    i,
						OldTitle:   sec.Title,
						NewTitle:   title,
						Confidence: similarity.Clip(0.55+0.40*shortfall, 0, confidenceCap),
						Reason:     "heading words barely occur in the section body",
					})
				}
			}
		}
	}

	// Near-duplicate siblings: same level, same parent, echoing titles over
	// different bodies. The later sibling gets the rename suggestion.
	for i := range doc.Sections {
		for j := i + 1; j < len(doc.Sections); j++ {
			a, b := doc.Sections[i], doc.Sections[j]
			if a.Level != b.Level || a.Parent != b.Parent {
				continue
			}
			if numbering.Skip(b.Level, b.Title) {
				continue
			}
			titleSim := similarity.SequenceRatio(infos[i].normTitle, infos[j].normTitle)
			if titleSim < prof.TitleSimilarityThreshold {
				continue
			}
			bodySim := similarity.Jaccard(infos[i].bodyTokens, infos[j].bodyTokens)
			if bodySim >= prof.SiblingBodySimilarityMax {
				continue
			}
			if title := DeriveTitle(doc.Body(j), b.Title); title != "" {
				out = append(out, Issue{
					Kind:       KindNearDuplicate,
					Line:       b.HeadingLine,
					Section:    j,
					OldTitle:   b.Title,
					NewTitle:   title,
					Confidence: similarity.Clip(0.55+(titleSim-prof.TitleSimilarityThreshold)*2+(prof.SiblingBodySimilarityMax-bodySim)*0.4, 0, confidenceCap),
					Reason:     "sibling headings share a title but cover different content",
				})
			}
		}
	}
	return out
}

// directBody returns a section's own lines, stopping at its first child so a
// parent is represented by its intro text rather than its subtree.
func directBody(doc *docmodel.Document, sec int) []string {
	end := doc.Sections[sec].BodyEnd
	if c := doc.FirstChild(sec); c >= 0 {
		end = doc.Sections[c].HeadingLine
	}
	if doc.Sections[sec].BodyStart >= end {
		return nil
	}
	return doc.Lines[doc.Sections[sec].BodyStart:end]
}

var (
	listMarkerRe  = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	leadNumberRe  = regexp.MustCompile(`^\d+(?:\.\d+)*\.?\s+`)
	sentenceSplit = regexp.MustCompile(`[.!?:;]`)
)

// minBodyLineChars filters out markers, captions and other short fragments
// when deriving a replacement title.
const minBodyLineChars = 28

// DeriveTitle builds a replacement title from the first substantial sentence
// of the body. Returns "" when the body offers nothing usable.
func DeriveTitle(body []string, oldTitle string) string {
	fenced := false
	var kept []string
	for _, raw := range body {
		s := strings.TrimSpace(raw)
		if docmodel.IsFence(s) {
			fenced = !fenced
			continue
		}
		if fenced || s == "" {
			continue
		}
		if s[0] == '|' || s[0] == '#' || s[0] == '>' {
			continue
		}
		s = listMarkerRe.ReplaceAllString(s, "")
		s = leadNumberRe.ReplaceAllString(s, "")
		if len([]rune(s)) < minBodyLineChars {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return ""
	}
	joined := strings.Join(kept, " ")
	oldNorm := fingerprint.Normalize(oldTitle)
	for _, chunk := range sentenceSplit.Split(joined, -1) {
		chunk = strings.TrimSpace(chunk)
		words := strings.Fields(chunk)
		if len(words) < 4 {
			continue
		}
		if fingerprint.Normalize(chunk) == oldNorm {
			continue
		}
		if len(words) > 12 {
			words = words[:12]
		}
		title := strings.Join(words, " ")
		if isAllCaps(oldTitle) {
			title = strings.ToUpper(title)
		}
		return title
	}
	return ""
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
