// Package profile holds the per-mode detection thresholds. The builtin
// values are empirically tuned, not business law, so every field can be
// overridden from a YAML file for validation against labeled corpora.
package profile

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Mode selects a threshold profile. Apostila/fidelidade material tolerates
// more repetition (teaching texts restate rules on purpose); hearing and
// deposition transcripts are stricter.
type Mode string

const (
	ModeApostila   Mode = "APOSTILA"
	ModeFidelidade Mode = "FIDELIDADE"
	ModeAudiencia  Mode = "AUDIENCIA"
	ModeReuniao    Mode = "REUNIAO"
	ModeDepoimento Mode = "DEPOIMENTO"
)

// Profile is an immutable bundle of detection thresholds. Values are copied
// out of the builtin table; callers never share a mutable instance.
type Profile struct {
	Mode Mode

	// Duplicate detection
	MinParagraphChars       int
	NearSimilarityThreshold float64
	NearJaccardThreshold    float64
	MaxScanCandidates       int
	MinTokenLen             int

	// Heading semantics
	TitleBodyOverlapThreshold float64
	MinSemanticBodyChars      int
	TitleSimilarityThreshold  float64
	SiblingBodySimilarityMax  float64
	ParentDriftBodyOverlapMax float64
}

func tolerant(mode Mode) Profile {
	return Profile{
		Mode:                      mode,
		MinParagraphChars:         80,
		NearSimilarityThreshold:   0.87,
		NearJaccardThreshold:      0.82,
		MaxScanCandidates:         160,
		MinTokenLen:               3,
		TitleBodyOverlapThreshold: 0.18,
		MinSemanticBodyChars:      190,
		TitleSimilarityThreshold:  0.90,
		SiblingBodySimilarityMax:  0.50,
		ParentDriftBodyOverlapMax: 0.30,
	}
}

func strict(mode Mode) Profile {
	p := tolerant(mode)
	p.MinParagraphChars = 60
	p.NearSimilarityThreshold = 0.82
	p.NearJaccardThreshold = 0.78
	p.MaxScanCandidates = 220
	p.MinTokenLen = 4
	p.TitleBodyOverlapThreshold = 0.24
	p.MinSemanticBodyChars = 150
	return p
}

// ForMode resolves a mode string to its profile. Unrecognized modes fall
// back to APOSTILA rather than failing, per the configuration-error policy.
func ForMode(name string) Profile {
	switch Mode(strings.ToUpper(strings.TrimSpace(name))) {
	case ModeApostila:
		return tolerant(ModeApostila)
	case ModeFidelidade:
		return tolerant(ModeFidelidade)
	case ModeAudiencia:
		return strict(ModeAudiencia)
	case ModeReuniao:
		return strict(ModeReuniao)
	case ModeDepoimento:
		return strict(ModeDepoimento)
	default:
		return tolerant(ModeApostila)
	}
}

// fileProfile mirrors Profile with pointer fields so absent YAML keys leave
// the builtin value untouched.
type fileProfile struct {
	MinParagraphChars         *int     `yaml:"minParagraphChars"`
	NearSimilarityThreshold   *float64 `yaml:"nearSimilarityThreshold"`
	NearJaccardThreshold      *float64 `yaml:"nearJaccardThreshold"`
	MaxScanCandidates         *int     `yaml:"maxScanCandidates"`
	MinTokenLen               *int     `yaml:"minTokenLen"`
	TitleBodyOverlapThreshold *float64 `yaml:"titleBodyOverlapThreshold"`
	MinSemanticBodyChars      *int     `yaml:"minSemanticBodyChars"`
	TitleSimilarityThreshold  *float64 `yaml:"titleSimilarityThreshold"`
	SiblingBodySimilarityMax  *float64 `yaml:"siblingBodySimilarityMax"`
	ParentDriftBodyOverlapMax *float64 `yaml:"parentDriftBodyOverlapMax"`
}

// Overrides is a per-mode set of partial profiles loaded from YAML.
type Overrides map[string]fileProfile

// LoadOverrides reads a YAML file keyed by mode name. An empty path yields
// nil overrides.
func LoadOverrides(path string) (Overrides, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile overrides: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("parse profile overrides: %w", err)
	}
	return o, nil
}

// Apply layers the overrides for p's mode onto p and returns the result.
func (o Overrides) Apply(p Profile) Profile {
	if o == nil {
		return p
	}
	f, ok := o[string(p.Mode)]
	if !ok {
		return p
	}
	if f.MinParagraphChars != nil {
		p.MinParagraphChars = *f.MinParagraphChars
	}
	if f.NearSimilarityThreshold != nil {
		p.NearSimilarityThreshold = *f.NearSimilarityThreshold
	}
	if f.NearJaccardThreshold != nil {
		p.NearJaccardThreshold = *f.NearJaccardThreshold
	}
	if f.MaxScanCandidates != nil {
		p.MaxScanCandidates = *f.MaxScanCandidates
	}
	if f.MinTokenLen != nil {
		p.MinTokenLen = *f.MinTokenLen
	}
	if f.TitleBodyOverlapThreshold != nil {
		p.TitleBodyOverlapThreshold = *f.TitleBodyOverlapThreshold
	}
	if f.MinSemanticBodyChars != nil {
		p.MinSemanticBodyChars = *f.MinSemanticBodyChars
	}
	if f.TitleSimilarityThreshold != nil {
		p.TitleSimilarityThreshold = *f.TitleSimilarityThreshold
	}
	if f.SiblingBodySimilarityMax != nil {
		p.SiblingBodySimilarityMax = *f.SiblingBodySimilarityMax
	}
	if f.ParentDriftBodyOverlapMax != nil {
		p.ParentDriftBodyOverlapMax = *f.ParentDriftBodyOverlapMax
	}
	return p
}
