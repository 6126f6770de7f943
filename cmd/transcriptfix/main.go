package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/transcriptfix/internal/engine"
	"github.com/hyperifyio/transcriptfix/internal/plan"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		inputPath   string
		outputPath  string
		reportPath  string
		mode        string
		profilePath string
		applyIDs    string
		maxBytes    int
		floor       float64
		verbose     bool
	)

	flag.StringVar(&inputPath, "input", "", "Path to the Markdown transcript to analyze")
	flag.StringVar(&outputPath, "output", "", "Path to write the fixed document (required with -apply)")
	flag.StringVar(&reportPath, "report", "-", "Path to write the JSON analysis report ('-' for stdout)")
	flag.StringVar(&mode, "mode", os.Getenv("TRANSCRIPTFIX_MODE"), "Threshold profile: APOSTILA, FIDELIDADE, AUDIENCIA, REUNIAO or DEPOIMENTO")
	flag.StringVar(&profilePath, "profiles", os.Getenv("TRANSCRIPTFIX_PROFILES"), "Optional YAML file overriding per-mode thresholds")
	flag.StringVar(&applyIDs, "apply", "", "Comma-separated approved issue ids to apply, or 'auto' for renumbering only")
	flag.IntVar(&maxBytes, "max.bytes", 0, "Input size ceiling in bytes (0 uses the default)")
	flag.Float64Var(&floor, "confidence.floor", 0, "Confidence floor for the review partition (0 uses the default)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if strings.TrimSpace(inputPath) == "" {
		log.Error().Msg("missing required -input")
		flag.Usage()
		os.Exit(2)
	}
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		log.Error().Err(err).Str("path", inputPath).Msg("read input")
		os.Exit(1)
	}

	cfg := engine.Config{
		Mode:                 mode,
		MaxDocumentBytes:     maxBytes,
		ConfidenceFloor:      floor,
		ProfileOverridesPath: profilePath,
	}

	report, err := engine.Analyze(string(raw), cfg)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		os.Exit(1)
	}
	if floor <= 0 {
		floor = engine.DefaultConfidenceFloor
	}
	confident, review := engine.Partition(report, floor)
	log.Info().
		Int("total", report.TotalIssues).
		Int("confident", len(confident)).
		Int("review", len(review)).
		Msg("analysis complete")

	if err := writeReport(reportPath, report); err != nil {
		log.Error().Err(err).Msg("write report")
		os.Exit(1)
	}

	if strings.TrimSpace(applyIDs) == "" {
		return
	}
	approved := selectApproved(report, applyIDs)
	if len(approved) == 0 {
		log.Warn().Str("apply", applyIDs).Msg("no approved issues matched; nothing to do")
		return
	}
	if strings.TrimSpace(outputPath) == "" {
		log.Error().Msg("-apply requires -output")
		os.Exit(2)
	}
	res, err := engine.Apply(string(raw), approved, cfg)
	if err != nil {
		log.Error().Err(err).Msg("apply failed")
		os.Exit(1)
	}
	for _, s := range res.Skipped {
		log.Warn().Str("id", s.ID).Str("reason", s.Reason).Msg("fix skipped")
	}
	for _, d := range res.Applied {
		log.Info().Msg(d)
	}
	if err := os.WriteFile(outputPath, []byte(res.NewText), 0o644); err != nil {
		log.Error().Err(err).Str("path", outputPath).Msg("write output")
		os.Exit(1)
	}
	log.Info().Str("path", outputPath).Msg("fixed document written")
}

func writeReport(path string, report *plan.Report) error {
	b, err := sonic.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" || strings.TrimSpace(path) == "" {
		_, err = fmt.Fprintln(os.Stdout, string(b))
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// selectApproved resolves the -apply argument against the report: "auto"
// picks the deterministic renumbering fixes, otherwise each id must match a
// reported issue. Unknown ids are logged and dropped.
func selectApproved(report *plan.Report, arg string) []plan.FixIssue {
	if strings.EqualFold(strings.TrimSpace(arg), "auto") {
		return engine.AutoApplicable(report)
	}
	var out []plan.FixIssue
	for _, id := range strings.Split(arg, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		issue, ok := report.Find(id)
		if !ok {
			log.Warn().Str("id", id).Msg("approved id not in report")
			continue
		}
		out = append(out, issue)
	}
	return out
}
