// Package engine is the analyze/apply entry point. It validates input,
// resolves the mode profile, runs every detector over a freshly parsed
// document model and aggregates the results. The engine holds no state
// across calls and is safe to run concurrently for distinct documents.
package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/transcriptfix/internal/applyfix"
	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/duplicate"
	"github.com/hyperifyio/transcriptfix/internal/headsem"
	"github.com/hyperifyio/transcriptfix/internal/numbering"
	"github.com/hyperifyio/transcriptfix/internal/plan"
	"github.com/hyperifyio/transcriptfix/internal/profile"
	"github.com/hyperifyio/transcriptfix/internal/tableplace"
)

// Config selects the threshold profile and input guards. Zero values get
// documented defaults; an unknown Mode falls back to APOSTILA rather than
// failing.
type Config struct {
	Mode                 string
	MaxDocumentBytes     int
	ConfidenceFloor      float64
	ProfileOverridesPath string
}

// DefaultMaxDocumentBytes caps analyzable input at 8 MiB.
const DefaultMaxDocumentBytes = 8 << 20

// DefaultConfidenceFloor is the review threshold: issues below it are always
// surfaced for human judgment, never auto-applied.
const DefaultConfidenceFloor = 0.70

// Hard input failures. Everything else in the engine is local-recoverable.
var (
	ErrMalformedInput = fmt.Errorf("document is not valid UTF-8")
	ErrInputTooLarge  = fmt.Errorf("document exceeds the configured size ceiling")
)

func (c Config) withDefaults() Config {
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if c.ConfidenceFloor <= 0 {
		c.ConfidenceFloor = DefaultConfidenceFloor
	}
	return c
}

func (c Config) resolveProfile() (profile.Profile, error) {
	prof := profile.ForMode(c.Mode)
	overrides, err := profile.LoadOverrides(c.ProfileOverridesPath)
	if err != nil {
		return prof, err
	}
	return overrides.Apply(prof), nil
}

func guard(text string, cfg Config) error {
	if len(text) > cfg.MaxDocumentBytes {
		return fmt.Errorf("%w: %d bytes > %d", ErrInputTooLarge, len(text), cfg.MaxDocumentBytes)
	}
	if !utf8.ValidString(text) {
		return ErrMalformedInput
	}
	return nil
}

// Analyze runs every detector and returns the aggregated report. An
// all-empty report is a valid outcome, not an error.
func Analyze(text string, cfg Config) (*plan.Report, error) {
	cfg = cfg.withDefaults()
	if err := guard(text, cfg); err != nil {
		return nil, err
	}
	prof, err := cfg.resolveProfile()
	if err != nil {
		return nil, err
	}

	doc := docmodel.Parse(text)
	log.Debug().
		Str("mode", string(prof.Mode)).
		Int("lines", len(doc.Lines)).
		Int("sections", len(doc.Sections)).
		Msg("document parsed")

	dups := duplicate.FindParagraphs(doc, prof)
	secDups := duplicate.FindSections(doc, prof)
	numChanges := numbering.Changes(text)
	sem := headsem.Analyze(doc, prof)
	moves := tableplace.FindMisplacements(doc, prof)
	levels := tableplace.FindLevelIssues(doc)
	artifacts := tableplace.FindArtifacts(doc)

	report := plan.Build(string(prof.Mode), dups, secDups, numChanges, sem, moves, levels, artifacts)
	log.Debug().
		Int("duplicates", len(dups)).
		Int("sectionDuplicates", len(secDups)).
		Int("numbering", len(numChanges)).
		Int("semantic", len(sem)).
		Int("tableMoves", len(moves)).
		Int("total", report.TotalIssues).
		Msg("analysis complete")
	return report, nil
}

// Apply runs the approved fixes over text, best-effort per fix.
func Apply(text string, approved []plan.FixIssue, cfg Config) (applyfix.Result, error) {
	cfg = cfg.withDefaults()
	if err := guard(text, cfg); err != nil {
		return applyfix.Result{}, err
	}
	prof, err := cfg.resolveProfile()
	if err != nil {
		return applyfix.Result{}, err
	}
	res := applyfix.Apply(text, approved, prof)
	log.Info().
		Int("applied", len(res.Applied)).
		Int("skipped", len(res.Skipped)).
		Msg("fixes applied")
	return res, nil
}

// AutoApplicable returns the issues that are safe to apply without review:
// renumbering is deterministic and invariant-preserving, everything else
// waits for approval.
func AutoApplicable(r *plan.Report) []plan.FixIssue {
	var out []plan.FixIssue
	for _, is := range r.HeadingNumberingIssues {
		if is.Action == plan.ActionRenumber {
			out = append(out, is)
		}
	}
	return out
}

// Partition splits the full issue list at the confidence floor: at-or-above
// issues are candidates for bulk approval, the rest need individual review.
func Partition(r *plan.Report, floor float64) (confident, review []plan.FixIssue) {
	for _, is := range r.All() {
		if is.Confidence >= floor && is.Action != plan.ActionRenameRecommended {
			confident = append(confident, is)
		} else {
			review = append(review, is)
		}
	}
	return confident, review
}
