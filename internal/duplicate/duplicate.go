// Package duplicate finds exact and near-duplicate paragraphs and sections.
// Exact matches come from fingerprint grouping; near matches from bounded
// pairwise scoring. Legitimately repeating material (citations, table
// introducers, structural markers) is excluded before anything is reported.
package duplicate

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/fingerprint"
	"github.com/hyperifyio/transcriptfix/internal/profile"
	"github.com/hyperifyio/transcriptfix/internal/similarity"
)

// Candidate is one reportable paragraph duplication. For exact matches Lines
// holds every occurrence of the shared fingerprint; for near matches it holds
// the two paragraph start lines and Fingerprint identifies the later (ergo
// removable) paragraph.
type Candidate struct {
	ID          string
	Kind        string // "exact" or "near"
	Fingerprint string
	Lines       []int
	SeqRatio    float64
	Jaccard     float64
	Confidence  float64
	Excerpt     string
}

// SectionCandidate is a duplicated section pair; Second always occurs later
// in the document and is the merge victim.
type SectionCandidate struct {
	ID          string
	Kind        string
	First       int
	Second      int
	FirstLine   int
	SecondLine  int
	Fingerprint string // fingerprint of the later section's comparison text
	TitleA      string
	TitleB      string
	SeqRatio    float64
	Jaccard     float64
	Confidence  float64
}

// sectionLeadChars bounds how much body text joins the title when comparing
// sections, so a shared intro sentence dominates over long divergent tails.
const sectionLeadChars = 240

type paraInfo struct {
	idx    int
	norm   string
	fp     string
	tokens map[string]struct{}
}

// FindParagraphs runs the exact and near passes over paragraphs of at least
// the mode's minimum length.
func FindParagraphs(doc *docmodel.Document, prof profile.Profile) []Candidate {
	paras := doc.Paragraphs()
	var eligible []paraInfo
	for i := range paras {
		if len([]rune(paras[i].Text)) < prof.MinParagraphChars {
			continue
		}
		if similarity.Legitimate(paras[i].Text) {
			continue
		}
		norm := fingerprint.Normalize(paras[i].Text)
		eligible = append(eligible, paraInfo{
			idx:    i,
			norm:   norm,
			fp:     fingerprint.Fingerprint(paras[i].Text),
			tokens: similarity.TokenSet(paras[i].Text, prof.MinTokenLen),
		})
	}

	var out []Candidate
	grouped := map[string]bool{}
	byFP := map[string][]paraInfo{}
	order := []string{}
	for _, p := range eligible {
		if _, seen := byFP[p.fp]; !seen {
			order = append(order, p.fp)
		}
		byFP[p.fp] = append(byFP[p.fp], p)
	}
	for _, fp := range order {
		group := byFP[fp]
		if len(group) < 2 {
			continue
		}
		lines := make([]int, 0, len(group))
		for _, p := range group {
			lines = append(lines, paras[p.idx].StartLine)
			grouped[p.fp] = true
		}
		out = append(out, Candidate{
			ID:          "dup_para_" + fp,
			Kind:        "exact",
			Fingerprint: fp,
			Lines:       lines,
			SeqRatio:    1,
			Jaccard:     1,
			Confidence:  similarity.Confidence("exact", 1, 1, prof.NearSimilarityThreshold),
			Excerpt:     excerpt(paras[group[0].idx].Text),
		})
	}

	// Near pass over paragraphs not already grouped exactly. The window caps
	// comparisons per paragraph; pairs beyond it are missed, never invented.
	reported := map[string]bool{}
	var near []paraInfo
	for _, p := range eligible {
		if !grouped[p.fp] {
			near = append(near, p)
		}
	}
	for i := 0; i < len(near); i++ {
		hi := i + 1 + prof.MaxScanCandidates
		if hi > len(near) {
			hi = len(near)
		}
		for j := i + 1; j < hi; j++ {
			a, b := near[i], near[j]
			if reported[b.fp] {
				continue
			}
			seq := similarity.SequenceRatio(a.norm, b.norm)
			jac := similarity.Jaccard(a.tokens, b.tokens)
			if seq < prof.NearSimilarityThreshold && jac < prof.NearJaccardThreshold {
				continue
			}
			reported[b.fp] = true
			out = append(out, Candidate{
				ID:          "dup_para_" + b.fp,
				Kind:        "near",
				Fingerprint: b.fp,
				Lines:       []int{paras[a.idx].StartLine, paras[b.idx].StartLine},
				SeqRatio:    seq,
				Jaccard:     jac,
				Confidence:  similarity.Confidence("near", seq, jac, prof.NearSimilarityThreshold),
				Excerpt:     excerpt(paras[b.idx].Text),
			})
		}
	}
	return out
}

// FindSections compares cleaned titles plus leading body text across all
// section pairs of the same level.
func FindSections(doc *docmodel.Document, prof profile.Profile) []SectionCandidate {
	type secInfo struct {
		idx    int
		text   string
		norm   string
		fp     string
		tokens map[string]struct{}
	}
	var infos []secInfo
	for i := range doc.Sections {
		if similarity.Legitimate(doc.Sections[i].Title) {
			continue
		}
		text := sectionComparisonText(doc, i)
		infos = append(infos, secInfo{
			idx:    i,
			text:   text,
			norm:   fingerprint.Normalize(text),
			fp:     fingerprint.Fingerprint(text),
			tokens: similarity.TokenSet(text, prof.MinTokenLen),
		})
	}
	var out []SectionCandidate
	reported := map[int]bool{}
	for i := 0; i < len(infos); i++ {
		for j := i + 1; j < len(infos); j++ {
			a, b := infos[i], infos[j]
			if doc.Sections[a.idx].Level != doc.Sections[b.idx].Level {
				continue
			}
			if reported[b.idx] {
				continue
			}
			kind := ""
			seq, jac := 0.0, 0.0
			if a.norm == b.norm {
				kind, seq, jac = "exact", 1, 1
			} else {
				seq = similarity.SequenceRatio(a.norm, b.norm)
				jac = similarity.Jaccard(a.tokens, b.tokens)
				if seq >= prof.NearSimilarityThreshold || jac >= prof.NearJaccardThreshold {
					kind = "near"
				}
			}
			if kind == "" {
				continue
			}
			reported[b.idx] = true
			out = append(out, SectionCandidate{
				ID:          fmt.Sprintf("dup_section_%d", b.idx),
				Kind:        kind,
				First:       a.idx,
				Second:      b.idx,
				FirstLine:   doc.Sections[a.idx].HeadingLine,
				SecondLine:  doc.Sections[b.idx].HeadingLine,
				Fingerprint: b.fp,
				TitleA:      doc.Sections[a.idx].Title,
				TitleB:      doc.Sections[b.idx].Title,
				SeqRatio:    seq,
				Jaccard:     jac,
				Confidence:  similarity.Confidence(kind, seq, jac, prof.NearSimilarityThreshold),
			})
		}
	}
	return out
}

// SectionComparisonFingerprint recomputes the fingerprint a SectionCandidate
// was keyed by, so the applicator can re-locate a section after earlier fixes
// shifted lines.
func SectionComparisonFingerprint(doc *docmodel.Document, sec int) string {
	return fingerprint.Fingerprint(sectionComparisonText(doc, sec))
}

func sectionComparisonText(doc *docmodel.Document, sec int) string {
	var lead strings.Builder
	for _, line := range doc.Body(sec) {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if lead.Len() > 0 {
			lead.WriteByte(' ')
		}
		lead.WriteString(s)
		if lead.Len() >= sectionLeadChars {
			break
		}
	}
	leadText := lead.String()
	if len(leadText) > sectionLeadChars {
		leadText = leadText[:sectionLeadChars]
	}
	return doc.Sections[sec].Title + " " + leadText
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > 120 {
		return string(r[:120]) + "…"
	}
	return s
}
